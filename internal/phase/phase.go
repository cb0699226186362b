// Package phase maps recovery days to named recovery phases.
//
// Phase boundaries are data: a Table is an ordered list of inclusive day
// ranges. Two built-in tables cover the usual granularities and protocols can
// supply their own per surgery type.
package phase

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/yndrdev/totalrecover/internal/models"
)

const (
	GranularityStandard = "standard"
	GranularityFine     = "fine"
)

// Range is an inclusive span of recovery days belonging to one phase.
type Range struct {
	Phase models.Phase `json:"phase" yaml:"phase"`
	Start int          `json:"start" yaml:"start"`
	End   int          `json:"end" yaml:"end"`
}

// Contains reports whether day lies within the range.
func (r Range) Contains(day int) bool {
	return day >= r.Start && day <= r.End
}

// Table is an ordered phase table. Days outside every range are maintenance.
type Table struct {
	Name   string  `json:"name" yaml:"name"`
	Ranges []Range `json:"ranges" yaml:"ranges"`
}

// InvalidTableError reports a phase table whose ranges are not contiguous.
type InvalidTableError struct {
	Table  string
	Reason string
}

func (e *InvalidTableError) Error() string {
	return fmt.Sprintf("invalid phase table %q: %s", e.Table, e.Reason)
}

// Standard returns the default phase table.
func Standard() Table {
	return Table{
		Name: GranularityStandard,
		Ranges: []Range{
			{Phase: models.PhasePreSurgery, Start: -45, End: -1},
			{Phase: models.PhaseImmediatePostOp, Start: 0, End: 3},
			{Phase: models.PhaseEarlyRecovery, Start: 4, End: 30},
			{Phase: models.PhaseActiveRecovery, Start: 31, End: 90},
			{Phase: models.PhaseLateRecovery, Start: 91, End: 200},
		},
	}
}

// Fine returns the table with a longer immediate post-op window and a short
// early recovery phase.
func Fine() Table {
	return Table{
		Name: GranularityFine,
		Ranges: []Range{
			{Phase: models.PhasePreSurgery, Start: -45, End: -1},
			{Phase: models.PhaseImmediatePostOp, Start: 0, End: 7},
			{Phase: models.PhaseEarlyRecovery, Start: 8, End: 14},
			{Phase: models.PhaseActiveRecovery, Start: 15, End: 90},
			{Phase: models.PhaseLateRecovery, Start: 91, End: 200},
		},
	}
}

// ForGranularity returns the built-in table for a granularity setting.
func ForGranularity(granularity string) (Table, error) {
	switch granularity {
	case "", GranularityStandard:
		return Standard(), nil
	case GranularityFine:
		return Fine(), nil
	default:
		return Table{}, fmt.Errorf("unknown phase granularity %q (expected %s or %s)", granularity, GranularityStandard, GranularityFine)
	}
}

// Classify returns the phase of the first range containing day, or
// maintenance when none does.
func (t Table) Classify(day int) models.Phase {
	if r, ok := t.RangeFor(day); ok {
		return r.Phase
	}
	return models.PhaseMaintenance
}

// RangeFor returns the range containing day.
func (t Table) RangeFor(day int) (Range, bool) {
	for _, r := range t.Ranges {
		if r.Contains(day) {
			return r, true
		}
	}
	return Range{}, false
}

// Reaches reports whether any day in [first, last] classifies as p. It works
// on range bounds, so the span may be arbitrarily long.
func (t Table) Reaches(p models.Phase, first, last int) bool {
	if last < first {
		return false
	}
	if p == models.PhaseMaintenance {
		return uncovered(first, last, t.Ranges)
	}
	for i, r := range t.Ranges {
		if r.Phase != p {
			continue
		}
		lo, hi := max(first, r.Start), min(last, r.End)
		// Earlier ranges shadow later ones, as in Classify.
		if lo <= hi && uncovered(lo, hi, t.Ranges[:i]) {
			return true
		}
	}
	return false
}

// uncovered reports whether some day in [lo, hi] lies outside every range.
func uncovered(lo, hi int, ranges []Range) bool {
	sorted := slices.Clone(ranges)
	slices.SortFunc(sorted, func(a, b Range) int { return cmp.Compare(a.Start, b.Start) })

	cursor := lo
	for _, r := range sorted {
		if r.End < cursor || r.End < r.Start {
			continue
		}
		if r.Start > cursor {
			return true
		}
		if r.End >= hi {
			return false
		}
		cursor = r.End + 1
	}
	return true
}

// Validate checks that ranges are well formed, ascending and contiguous.
func (t Table) Validate() error {
	if len(t.Ranges) == 0 {
		return &InvalidTableError{Table: t.Name, Reason: "no ranges"}
	}

	seen := make(map[models.Phase]bool, len(t.Ranges))
	for i, r := range t.Ranges {
		if !models.IsValidPhase(r.Phase) {
			return &InvalidTableError{Table: t.Name, Reason: fmt.Sprintf("unknown phase %q", r.Phase)}
		}
		if r.Phase == models.PhaseMaintenance {
			return &InvalidTableError{Table: t.Name, Reason: "maintenance is the fallback phase and cannot be given a range"}
		}
		if seen[r.Phase] {
			return &InvalidTableError{Table: t.Name, Reason: fmt.Sprintf("phase %q appears more than once", r.Phase)}
		}
		seen[r.Phase] = true

		if r.End < r.Start {
			return &InvalidTableError{Table: t.Name, Reason: fmt.Sprintf("%s ends (%d) before it starts (%d)", r.Phase, r.End, r.Start)}
		}
		if i > 0 {
			prev := t.Ranges[i-1]
			if r.Start <= prev.End {
				return &InvalidTableError{Table: t.Name, Reason: fmt.Sprintf("%s overlaps %s", r.Phase, prev.Phase)}
			}
			if r.Start != prev.End+1 {
				return &InvalidTableError{Table: t.Name, Reason: fmt.Sprintf("gap between %s and %s (days %d-%d)", prev.Phase, r.Phase, prev.End+1, r.Start-1)}
			}
		}
	}
	return nil
}

// Resolver picks the phase table for a surgery type, falling back to a
// default table.
type Resolver struct {
	Default   Table
	Overrides map[string]Table
}

// NewResolver returns a resolver with the given default table.
func NewResolver(def Table) *Resolver {
	return &Resolver{Default: def, Overrides: make(map[string]Table)}
}

// Register adds an override table for a surgery type after validating it.
func (r *Resolver) Register(surgeryType string, table Table) error {
	if err := table.Validate(); err != nil {
		return err
	}
	r.Overrides[surgeryType] = table
	return nil
}

// For returns the table used for a surgery type.
func (r *Resolver) For(surgeryType string) Table {
	if t, ok := r.Overrides[surgeryType]; ok {
		return t
	}
	return r.Default
}
