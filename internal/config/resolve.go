package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Detector fills cache descriptors by probing the host. A slot the detector
// cannot supply is left at the Undefined sentinel.
type Detector interface {
	DetectCaches(i1, d1, l2, ll, itlb, dtlb, l2tlb *Descriptor, allUserDefined bool)
}

// Resolved is the final post-resolution configuration: concrete CPU cache
// descriptors and, per TLB level, the descriptor plus its enable flag.
type Resolved struct {
	I1, D1, L2, LL Descriptor

	ITLB, DTLB, L2TLB Descriptor

	EnableITLB, EnableDTLB, EnableL2TLB bool
}

// checkOrOverride verifies an auto-detected CPU cache descriptor. An
// invalid value is fatal unless the user supplied an override for the same
// slot, in which case the failure is tolerated and the override wins later.
func checkOrOverride(name string, d Descriptor, overridden bool, log zerolog.Logger) error {
	err := d.CheckCache()
	if err == nil {
		return nil
	}
	log.Warn().
		Str("cache", name).
		Int32("size", d.Size).Int32("assoc", d.Assoc).Int32("line_size", d.LineSize).
		Msgf("auto-detected %s cache configuration not supported: %v", name, err)
	if !overridden {
		log.Error().Msgf("as it probably should be supported, please report a bug! Bypass this message by using option --%s=...", name)
		return fmt.Errorf("auto-detected %s cache invalid and no --%s override given: %w", name, name, err)
	}
	return nil
}

// Resolve runs the post-parse phase: the detector fills slots the user did
// not supply, auto-detected CPU caches are re-validated, user overrides are
// copied over the detected values, and a TLB level is enabled exactly when
// the user supplied its slot.
func (c *Config) Resolve(det Detector, log zerolog.Logger) (Resolved, error) {
	allUserDefined := c.I1.Supplied && c.D1.Supplied && c.L2.Supplied && c.LL.Supplied

	var r Resolved
	r.I1, r.D1, r.L2, r.LL = Undefined, Undefined, Undefined, Undefined
	r.ITLB, r.DTLB, r.L2TLB = Undefined, Undefined, Undefined
	det.DetectCaches(&r.I1, &r.D1, &r.L2, &r.LL, &r.ITLB, &r.DTLB, &r.L2TLB, allUserDefined)

	cpu := []struct {
		name string
		det  *Descriptor
		slot *Slot
	}{
		{"I1", &r.I1, &c.I1},
		{"D1", &r.D1, &c.D1},
		{"L2", &r.L2, &c.L2},
		{"LL", &r.LL, &c.LL},
	}
	for _, s := range cpu {
		if err := checkOrOverride(s.name, *s.det, s.slot.Supplied, log); err != nil {
			return Resolved{}, err
		}
	}
	for _, s := range cpu {
		if s.slot.Supplied {
			*s.det = s.slot.Descriptor
		}
	}

	if c.ITLB.Supplied {
		r.ITLB = c.ITLB.Descriptor
		r.EnableITLB = true
	}
	if c.DTLB.Supplied {
		r.DTLB = c.DTLB.Descriptor
		r.EnableDTLB = true
	}
	if c.L2TLB.Supplied {
		r.L2TLB = c.L2TLB.Descriptor
		r.EnableL2TLB = true
	}

	log.Debug().
		Str("I1", cacheImg(r.I1)).Str("D1", cacheImg(r.D1)).
		Str("L2", cacheImg(r.L2)).Str("LL", cacheImg(r.LL)).
		Msg("cache configuration used")

	return r, nil
}

func cacheImg(d Descriptor) string {
	return fmt.Sprintf("%d B, %d-way, %d B lines", d.Size, d.Assoc, d.LineSize)
}
