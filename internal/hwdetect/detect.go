package hwdetect

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/skaparelos/tlbgrind/internal/config"
)

// Sysfs detects the host CPU cache topology from the Linux sysfs cache
// directory. TLB geometry is not exposed there, so the TLB slots are always
// left undefined; a TLB level is only simulated when the user supplies it.
type Sysfs struct {
	Root string
}

// New returns a detector rooted at cpu0's cache directory.
func New() *Sysfs {
	return &Sysfs{Root: "/sys/devices/system/cpu/cpu0/cache"}
}

// Fallback descriptors for hosts where sysfs is unavailable or incomplete.
var (
	defaultI1 = config.Descriptor{Size: 32768, Assoc: 8, LineSize: 64}
	defaultD1 = config.Descriptor{Size: 32768, Assoc: 8, LineSize: 64}
	defaultL2 = config.Descriptor{Size: 262144, Assoc: 8, LineSize: 64}
	defaultLL = config.Descriptor{Size: 8388608, Assoc: 16, LineSize: 64}
)

// DetectCaches implements config.Detector. Slots that cannot be read fall
// back to representative defaults so the simulator can still start; the
// validator downstream decides whether the result is usable.
func (s *Sysfs) DetectCaches(i1, d1, l2, ll, itlb, dtlb, l2tlb *config.Descriptor, allUserDefined bool) {
	_ = itlb
	_ = dtlb
	_ = l2tlb

	*i1, *d1, *l2, *ll = defaultI1, defaultD1, defaultL2, defaultLL
	if allUserDefined {
		// Every CPU slot came from the command line; probing would be
		// overwritten anyway.
		return
	}

	dirs, err := os.ReadDir(s.Root)
	if err != nil {
		return
	}

	llLevel := 0
	for _, dir := range dirs {
		if !strings.HasPrefix(dir.Name(), "index") {
			continue
		}
		idx := filepath.Join(s.Root, dir.Name())
		level, ok := s.readInt(idx, "level")
		if !ok {
			continue
		}
		typ, ok := s.readString(idx, "type")
		if !ok {
			continue
		}
		d, ok := s.readDescriptor(idx)
		if !ok {
			continue
		}

		switch {
		case level == 1 && typ == "Instruction":
			*i1 = d
		case level == 1 && typ == "Data":
			*d1 = d
		case level == 2 && typ == "Unified":
			*l2 = d
		}
		// The last level is the highest-numbered unified cache.
		if typ == "Unified" && level > llLevel {
			llLevel = level
			*ll = d
		}
	}
}

func (s *Sysfs) readDescriptor(idx string) (config.Descriptor, bool) {
	size, ok := s.readSize(idx, "size")
	if !ok {
		return config.Descriptor{}, false
	}
	ways, ok := s.readInt(idx, "ways_of_associativity")
	if !ok {
		return config.Descriptor{}, false
	}
	line, ok := s.readInt(idx, "coherency_line_size")
	if !ok {
		return config.Descriptor{}, false
	}
	return config.Descriptor{Size: int32(size), Assoc: int32(ways), LineSize: int32(line)}, true
}

func (s *Sysfs) readString(idx, name string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(idx, name))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

func (s *Sysfs) readInt(idx, name string) (int, bool) {
	raw, ok := s.readString(idx, name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// readSize parses sysfs size strings like "32K" or "8M" into bytes.
func (s *Sysfs) readSize(idx, name string) (int64, bool) {
	raw, ok := s.readString(idx, name)
	if !ok {
		return 0, false
	}
	mult := int64(1)
	switch {
	case strings.HasSuffix(raw, "K"):
		mult, raw = 1024, strings.TrimSuffix(raw, "K")
	case strings.HasSuffix(raw, "M"):
		mult, raw = 1024*1024, strings.TrimSuffix(raw, "M")
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n * mult, true
}
