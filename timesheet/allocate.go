/*
allocate.go - Regular/overtime bucket allocation for one employee-day

PURPOSE:
  Folds a day's work blocks into a DayAllocation under the company's
  "8-hour regular allocation, overflow to overtime" policy:

  1. Each block's minutes split into three non-overlapping buckets
     against the regular window (default 08:00-17:30): early (before),
     in-window, late (after).
  2. Fixed break windows (10:00-10:15, 12:00-13:00, 15:00-15:15) are
     deducted from the in-window bucket, but only when the block fully
     contains the break. A block that starts inside a break already
     lost that time; deducting again would double-penalize partial
     attendance.
  3. Late minutes are absorbed into regular up to the 480-minute cap -
     a worker who started late still fills the 8-hour quota first.
     The remainder overflows to overtime. Field minutes from the late
     bucket follow the same absorbed/overflow ratio.
  4. Early minutes always count as overtime in full. Arriving before
     the window never fills the regular quota.

  Two attendance-export overrides short-circuit or reshape the day:
  - Holiday work: the day's hours come entirely from the attendance
    source; blocks are ignored.
  - Half-day: when the first block starts at or after 12:00, the
    regular window opens at that block's start for this day only.

INVARIANTS:
  regularField <= regular, overtimeField <= overtime, all outputs >= 0.

SEE ALSO:
  - classify.go: field/office keyword strategy
  - clock.go: Interval arithmetic
*/
package timesheet

import "github.com/shopspring/decimal"

const noonMinute = 720

// WorkBlock is one reported activity segment: a time range, the free
// text task description, and the optional overtime-type tag.
type WorkBlock struct {
	Range        Interval
	Task         string
	OvertimeType string
}

// DayAllocation is the per-employee-per-date outcome, in hours.
type DayAllocation struct {
	Regular       decimal.Decimal
	RegularField  decimal.Decimal
	Overtime      decimal.Decimal
	OvertimeField decimal.Decimal
	HolidayWork   decimal.Decimal
}

// DayContext carries the attendance-export flags that modify
// allocation for a single day.
type DayContext struct {
	HalfDay      bool
	HolidayWork  bool
	HolidayHours decimal.Decimal
}

// AllocatorConfig holds the allocation policy knobs.
type AllocatorConfig struct {
	RegularStart int // minutes from midnight
	RegularEnd   int
	RegularCap   int
	Breaks       []Interval
	Classifier   Classifier
}

// DefaultAllocatorConfig returns the production policy: 08:00-17:30
// regular window, 8-hour cap, the three fixed breaks, keyword
// classification.
func DefaultAllocatorConfig() AllocatorConfig {
	return AllocatorConfig{
		RegularStart: 8 * 60,
		RegularEnd:   17*60 + 30,
		RegularCap:   8 * 60,
		Breaks: []Interval{
			{Start: 10 * 60, End: 10*60 + 15},
			{Start: 12 * 60, End: 13 * 60},
			{Start: 15 * 60, End: 15*60 + 15},
		},
		Classifier: NewKeywordClassifier(),
	}
}

// Allocator converts a day's work blocks into a DayAllocation.
type Allocator struct {
	cfg AllocatorConfig
}

// NewAllocator creates an allocator with the given policy.
func NewAllocator(cfg AllocatorConfig) *Allocator {
	if cfg.Classifier == nil {
		cfg.Classifier = NewKeywordClassifier()
	}
	return &Allocator{cfg: cfg}
}

// Allocate computes the day's allocation. A day with zero blocks
// yields an all-zero allocation; blocks with empty ranges contribute
// nothing.
func (a *Allocator) Allocate(blocks []WorkBlock, day DayContext) DayAllocation {
	// Holiday work: the attendance export is authoritative for the
	// whole day, whatever the CBO blocks say.
	if day.HolidayWork {
		hours := day.HolidayHours
		if hours.IsNegative() {
			hours = decimal.Zero
		}
		return DayAllocation{
			Regular:       decimal.Zero,
			RegularField:  decimal.Zero,
			Overtime:      decimal.Zero,
			OvertimeField: decimal.Zero,
			HolidayWork:   hours,
		}
	}

	windowStart := a.cfg.RegularStart
	windowEnd := a.cfg.RegularEnd

	// Afternoon half-day: the regular window opens where the first
	// block starts. Morning half-days need no special case - the
	// window overlap shrinks naturally.
	if day.HalfDay {
		if first, ok := firstBlockStart(blocks); ok && first >= noonMinute {
			windowStart = first
		}
	}

	var (
		rawIn, rawEarly, rawLate          int
		inField, earlyField, lateFieldMin int
	)

	for _, b := range blocks {
		iv := b.Range
		if iv.Minutes() == 0 {
			continue
		}

		early := iv.Overlap(0, windowStart)
		in := iv.Overlap(windowStart, windowEnd)
		late := iv.Overlap(windowEnd, 2*minutesPerDay)

		for _, br := range a.cfg.Breaks {
			if iv.Contains(br.Start, br.End) {
				in -= Interval{Start: br.Start, End: br.End}.Overlap(windowStart, windowEnd)
			}
		}
		if in < 0 {
			in = 0
		}

		rawIn += in
		rawEarly += early
		rawLate += late

		if a.cfg.Classifier.ClassifyTask(b.Task) == FieldWork {
			inField += in
			earlyField += early
		}
		if a.cfg.Classifier.ClassifyOvertime(b.OvertimeType, b.Task) == FieldWork {
			lateFieldMin += late
		}
	}

	// Fill the regular quota from the late bucket before anything
	// overflows into overtime.
	capacity := a.cfg.RegularCap - rawIn
	if capacity < 0 {
		capacity = 0
	}
	absorbed := min(rawLate, capacity)
	overflow := rawLate - absorbed

	// Late field minutes split by the absorbed/overflow ratio.
	absorbedField := decimal.Zero
	if rawLate > 0 && lateFieldMin > 0 {
		absorbedField = decimal.NewFromInt(int64(lateFieldMin * absorbed)).
			Div(decimal.NewFromInt(int64(rawLate))).
			Div(sixty)
	}
	lateField := minutesToHours(lateFieldMin)

	return DayAllocation{
		Regular:       minutesToHours(rawIn + absorbed),
		RegularField:  minutesToHours(inField).Add(absorbedField),
		Overtime:      minutesToHours(rawEarly + overflow),
		OvertimeField: minutesToHours(earlyField).Add(lateField.Sub(absorbedField)),
		HolidayWork:   decimal.Zero,
	}
}

func firstBlockStart(blocks []WorkBlock) (int, bool) {
	first := -1
	for _, b := range blocks {
		if b.Range.Minutes() == 0 {
			continue
		}
		if first == -1 || b.Range.Start < first {
			first = b.Range.Start
		}
	}
	return first, first != -1
}
