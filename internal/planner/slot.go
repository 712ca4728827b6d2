package planner

import (
	"fmt"
	"strings"
)

// Day identifies a day of the planning week.
type Day string

const (
	Monday    Day = "mon"
	Tuesday   Day = "tue"
	Wednesday Day = "wed"
	Thursday  Day = "thu"
	Friday    Day = "fri"
	Saturday  Day = "sat"
	Sunday    Day = "sun"
)

// Week lists every day in planning order.
var Week = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Weekdays lists the days on which lunch and snacks are scheduled.
var Weekdays = []Day{Monday, Tuesday, Wednesday, Thursday, Friday}

var dayNames = map[Day]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
	Saturday:  "Saturday",
	Sunday:    "Sunday",
}

// Index returns the position of the day in the week, or -1 for an unknown day.
func (d Day) Index() int {
	for i, w := range Week {
		if w == d {
			return i
		}
	}
	return -1
}

// Name returns the full English name of the day.
func (d Day) Name() string {
	return dayNames[d]
}

// ParseDay accepts short ("mon") or full ("Monday") day names.
func ParseDay(s string) (Day, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, d := range Week {
		if v == string(d) || v == strings.ToLower(dayNames[d]) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: unknown day %q", ErrInvalidInput, s)
}

// SlotType is a meal slot within a day.
type SlotType string

const (
	Dinner      SlotType = "dinner"
	Lunch       SlotType = "lunch"
	SchoolSnack SlotType = "school_snack"
	HomeSnack   SlotType = "home_snack"
)

var slotOrder = []SlotType{Dinner, Lunch, SchoolSnack, HomeSnack}

// ParseSlotType parses a slot identifier. Hyphens are accepted in place of underscores.
func ParseSlotType(s string) (SlotType, error) {
	v := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, st := range slotOrder {
		if v == string(st) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown slot %q", ErrInvalidInput, s)
}

// IsSnack reports whether the slot is one of the bulk-scheduled snack slots.
func (s SlotType) IsSnack() bool {
	return s == SchoolSnack || s == HomeSnack
}

// Days returns the days on which the slot is scheduled.
func (s SlotType) Days() []Day {
	if s == Dinner {
		return Week
	}
	return Weekdays
}

func (s SlotType) order() int {
	for i, st := range slotOrder {
		if st == s {
			return i
		}
	}
	return len(slotOrder)
}

// SlotKey addresses a single (day, slot) cell.
type SlotKey struct {
	Day  Day      `json:"day"`
	Slot SlotType `json:"slot_type"`
}

// Key builds a SlotKey.
func Key(d Day, s SlotType) SlotKey {
	return SlotKey{Day: d, Slot: s}
}

func (k SlotKey) String() string {
	return string(k.Day) + "-" + string(k.Slot)
}

// Validate checks that the key names a schedulable cell.
func (k SlotKey) Validate() error {
	if k.Day.Index() < 0 {
		return fmt.Errorf("%w: unknown day %q", ErrInvalidInput, k.Day)
	}
	if k.Slot.order() == len(slotOrder) {
		return fmt.Errorf("%w: unknown slot %q", ErrInvalidInput, k.Slot)
	}
	if k.Slot != Dinner && k.Day.Index() >= len(Weekdays) {
		return fmt.Errorf("%w: %s is only scheduled mon-fri", ErrInvalidInput, k.Slot)
	}
	return nil
}

func lessKey(a, b SlotKey) bool {
	if a.Day != b.Day {
		return a.Day.Index() < b.Day.Index()
	}
	return a.Slot.order() < b.Slot.order()
}

// Phase is one planning pass over a group of slots.
type Phase string

const (
	PhaseDinners Phase = "dinners"
	PhaseLunches Phase = "lunches"
	PhaseSnacks  Phase = "snacks"
)

// Phases lists every phase in planning order.
var Phases = []Phase{PhaseDinners, PhaseLunches, PhaseSnacks}

// ParsePhase accepts the phase name or the name of one of its slots.
func ParsePhase(s string) (Phase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dinners", "dinner":
		return PhaseDinners, nil
	case "lunches", "lunch":
		return PhaseLunches, nil
	case "snacks", "snack", string(SchoolSnack), string(HomeSnack):
		return PhaseSnacks, nil
	}
	return "", fmt.Errorf("%w: unknown phase %q", ErrInvalidInput, s)
}

// Slots returns the slot types planned in the phase.
func (p Phase) Slots() []SlotType {
	switch p {
	case PhaseDinners:
		return []SlotType{Dinner}
	case PhaseLunches:
		return []SlotType{Lunch}
	case PhaseSnacks:
		return []SlotType{SchoolSnack, HomeSnack}
	}
	return nil
}

// Keys returns every slot key of the phase in day order.
func (p Phase) Keys() []SlotKey {
	var keys []SlotKey
	for _, s := range p.Slots() {
		for _, d := range s.Days() {
			keys = append(keys, Key(d, s))
		}
	}
	sortKeys(keys)
	return keys
}

func (p Phase) valid() bool {
	return len(p.Slots()) > 0
}

// PhaseOf returns the phase that plans the given slot type.
func PhaseOf(s SlotType) Phase {
	switch s {
	case Dinner:
		return PhaseDinners
	case Lunch:
		return PhaseLunches
	}
	return PhaseSnacks
}

// LockedDays is the set of days regeneration must leave untouched.
type LockedDays map[Day]bool

// NewLockedDays builds a set from the given days.
func NewLockedDays(days ...Day) LockedDays {
	l := LockedDays{}
	for _, d := range days {
		l[d] = true
	}
	return l
}

// Has reports whether the day is locked. A nil set locks nothing.
func (l LockedDays) Has(d Day) bool {
	return l[d]
}

// Sorted returns the locked days in week order.
func (l LockedDays) Sorted() []Day {
	var out []Day
	for _, d := range Week {
		if l[d] {
			out = append(out, d)
		}
	}
	return out
}
