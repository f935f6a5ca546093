package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/skaparelos/tlbgrind/internal/config"
	"github.com/skaparelos/tlbgrind/internal/hwdetect"
	"github.com/skaparelos/tlbgrind/internal/tlb"
	"github.com/skaparelos/tlbgrind/internal/trace"
)

var (
	flagSlots = map[string]*string{
		"I1":    new(string),
		"D1":    new(string),
		"L2":    new(string),
		"LL":    new(string),
		"iTLB":  new(string),
		"dTLB":  new(string),
		"L2TLB": new(string),
	}
	flagTLBSim  string
	flagPageSim string
	flagVASSize int
	flagRepPol  int
	flagSeed    int64
	flagConfig  string
	flagVerbose bool
)

func newLogger() zerolog.Logger {
	var w io.Writer = os.Stderr
	if term.IsTerminal(int(os.Stderr.Fd())) {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tlbgrind [trace-file]",
		Short: "TLB and page-access simulator for recorded memory reference traces",
		Long: `tlbgrind replays a recorded memory-reference trace through a configurable
multi-level TLB hierarchy (iTLB, dTLB and a unified L2TLB) and reports hit
and miss counts per level, optionally with every virtual page touched.

The trace is read from the given file, or from stdin when no file is given,
in the lackey text format: "I <hexaddr>,<size>" for instruction fetches and
"L", "S" or "M" lines for data accesses.`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         run,
		SilenceUsage: true,
	}

	f := cmd.Flags()
	f.StringVar(flagSlots["I1"], "I1", "", "set I1 cache manually: <size>,<assoc>,<line_size>")
	f.StringVar(flagSlots["D1"], "D1", "", "set D1 cache manually: <size>,<assoc>,<line_size>")
	f.StringVar(flagSlots["L2"], "L2", "", "set L2 cache manually: <size>,<assoc>,<line_size>")
	f.StringVar(flagSlots["LL"], "LL", "", "set LL cache manually: <size>,<assoc>,<line_size>")
	f.StringVar(flagSlots["iTLB"], "iTLB", "", "set iTLB manually: <page_size>,<assoc>,<entries>")
	f.StringVar(flagSlots["dTLB"], "dTLB", "", "set dTLB manually: <page_size>,<assoc>,<entries>")
	f.StringVar(flagSlots["L2TLB"], "L2TLB", "", "set L2TLB manually: <page_size>,<assoc>,<entries>")
	f.StringVar(&flagTLBSim, "tlb-sim", "yes", "collect TLB stats (yes|no)")
	f.StringVar(&flagPageSim, "tlb-page-sim", "no", "record pages touched during TLB sim (yes|no)")
	f.IntVar(&flagVASSize, "tlb-vas-size", 32, "virtual address space size in bits")
	f.IntVar(&flagRepPol, "tlb-rep-pol", 1, "replacement policy: 0=LFU, 1=LRU, 2=Random")
	f.Int64Var(&flagSeed, "tlb-seed", 0, "seed for the Random policy (0 = time-derived)")
	f.StringVar(&flagConfig, "config", "", "YAML configuration file (flags win on conflict)")
	f.BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	log := newLogger()

	cfg := config.New()
	if flagConfig != "" {
		if err := cfg.LoadFile(flagConfig); err != nil {
			return err
		}
	}
	for name, val := range flagSlots {
		if !cmd.Flags().Changed(name) {
			continue
		}
		if err := cfg.SetSlot(name, *val); err != nil {
			return err
		}
	}
	var err error
	if cfg.SimTLB, err = applyYesNo(cmd, "tlb-sim", flagTLBSim, cfg.SimTLB); err != nil {
		return err
	}
	if cfg.SimPages, err = applyYesNo(cmd, "tlb-page-sim", flagPageSim, cfg.SimPages); err != nil {
		return err
	}
	if cmd.Flags().Changed("tlb-vas-size") {
		cfg.VASBits = flagVASSize
	}
	if cmd.Flags().Changed("tlb-rep-pol") {
		cfg.RepPol = flagRepPol
	}
	if cmd.Flags().Changed("tlb-seed") {
		cfg.Seed = flagSeed
	}
	if err := cfg.Normalize(log); err != nil {
		return err
	}

	resolved, err := cfg.Resolve(hwdetect.New(), log)
	if err != nil {
		return err
	}

	h, err := tlb.NewHierarchy(tlb.Config{
		ITLB:     levelSpec(resolved.ITLB, resolved.EnableITLB),
		DTLB:     levelSpec(resolved.DTLB, resolved.EnableDTLB),
		L2TLB:    levelSpec(resolved.L2TLB, resolved.EnableL2TLB),
		Policy:   tlb.Policy(cfg.RepPol),
		VASBits:  cfg.VASBits,
		SimTLB:   cfg.SimTLB,
		SimPages: cfg.SimPages,
		Seed:     cfg.Seed,
	})
	if err != nil {
		return err
	}

	in := os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	start := time.Now()
	stats, err := trace.Read(in, h, log)
	if err != nil {
		return fmt.Errorf("reading trace: %w", err)
	}
	log.Debug().
		Uint64("references", stats.References()).
		Uint64("malformed", stats.Malformed).
		Uint64("l1_misses", h.L1Misses()).
		Uint64("l2_misses", h.L2Misses()).
		Dur("elapsed", time.Since(start)).
		Msg("simulation finished")

	h.WriteReport(os.Stdout)
	return nil
}

// levelSpec converts a resolved TLB descriptor into a level spec, or nil
// when the level is disabled. For TLB slots the descriptor triple is
// (page_size, assoc, entries).
func levelSpec(d config.Descriptor, enabled bool) *tlb.LevelSpec {
	if !enabled {
		return nil
	}
	return &tlb.LevelSpec{
		PageSize: uint64(d.Size),
		Assoc:    int(d.Assoc),
		Entries:  int(d.LineSize),
	}
}

func applyYesNo(cmd *cobra.Command, name, raw string, current bool) (bool, error) {
	if !cmd.Flags().Changed(name) {
		return current, nil
	}
	return config.ParseYesNo(name, raw)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
