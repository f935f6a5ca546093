// Package trace feeds recorded memory-reference streams into the TLB
// hierarchy. The input is the lackey-style text format: one reference per
// line, "I <hexaddr>,<size>" for instruction fetches and "L", "S" or "M"
// (load, store, modify) for data accesses.
package trace

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/skaparelos/tlbgrind/internal/tlb"
)

// Sink consumes references strictly in delivery order.
type Sink interface {
	Reference(addr uint64, kind tlb.Kind)
}

// Stats counts what the reader saw.
type Stats struct {
	Instructions uint64
	Loads        uint64
	Stores       uint64
	Modifies     uint64
	Malformed    uint64
}

// References returns the number of references delivered to the sink. A
// modify is folded into a single data reference.
func (s Stats) References() uint64 {
	return s.Instructions + s.Loads + s.Stores + s.Modifies
}

// Read parses the trace from r and delivers each reference to the sink.
// Malformed lines are counted and skipped with a warning rather than
// aborting a long run.
func Read(r io.Reader, sink Sink, log zerolog.Logger) (Stats, error) {
	var stats Stats
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "==") || strings.HasPrefix(line, "--") {
			// tool banners and blank lines
			continue
		}

		op, rest, ok := strings.Cut(line, " ")
		if !ok || len(op) != 1 {
			stats.Malformed++
			log.Warn().Int("line", lineno).Str("text", line).Msg("malformed trace line")
			continue
		}
		field, _, _ := strings.Cut(strings.TrimSpace(rest), ",")
		addr, err := strconv.ParseUint(strings.TrimPrefix(field, "0x"), 16, 64)
		if err != nil {
			stats.Malformed++
			log.Warn().Int("line", lineno).Str("text", line).Msg("malformed trace address")
			continue
		}

		switch op {
		case "I":
			stats.Instructions++
			sink.Reference(addr, tlb.Instruction)
		case "L":
			stats.Loads++
			sink.Reference(addr, tlb.Data)
		case "S":
			stats.Stores++
			sink.Reference(addr, tlb.Data)
		case "M":
			// read-modify-write counts as one data reference per level
			stats.Modifies++
			sink.Reference(addr, tlb.Data)
		default:
			stats.Malformed++
			log.Warn().Int("line", lineno).Str("text", line).Msg("unknown trace operation")
		}
	}
	return stats, sc.Err()
}
