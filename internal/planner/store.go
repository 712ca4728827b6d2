package planner

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Store is the plan in progress. It is an immutable value: every operation that
// changes it returns a new Store and leaves the receiver untouched, so a Store can
// be shared freely between goroutines and kept as a snapshot.
//
// For every slot key at most one of a Selection or a LeftoverAssignment exists.
type Store struct {
	selections map[SlotKey]Selection
	leftovers  map[SlotKey]LeftoverAssignment
	confirmed  map[SlotKey]bool
}

// NewStore returns an empty store.
func NewStore() Store {
	return Store{}
}

// Cell reports what fills the slot.
func (s Store) Cell(k SlotKey) Cell {
	c := Cell{Key: k, Kind: CellEmpty, Confirmed: s.confirmed[k]}
	if sel, ok := s.selections[k]; ok {
		c.Kind = CellRecipe
		c.Selection = sel
	} else if lo, ok := s.leftovers[k]; ok {
		c.Kind = CellLeftover
		c.Leftover = lo
	}
	return c
}

// Selection returns the recipe filling the slot, if any.
func (s Store) Selection(k SlotKey) (Selection, bool) {
	sel, ok := s.selections[k]
	return sel, ok
}

// Leftover returns the leftover filling the slot, if any.
func (s Store) Leftover(k SlotKey) (LeftoverAssignment, bool) {
	lo, ok := s.leftovers[k]
	return lo, ok
}

// IsFilled reports whether the slot has a Selection or a LeftoverAssignment.
func (s Store) IsFilled(k SlotKey) bool {
	if _, ok := s.selections[k]; ok {
		return true
	}
	_, ok := s.leftovers[k]
	return ok
}

// IsConfirmed reports whether the user acknowledged the slot.
func (s Store) IsConfirmed(k SlotKey) bool {
	return s.confirmed[k]
}

// LeftoverCount counts the assignments consuming the named item. It is the only
// record of provisional consumption and is always derived from the store itself.
func (s Store) LeftoverCount(itemName string) int {
	n := 0
	for _, lo := range s.leftovers {
		if lo.ItemName == itemName {
			n++
		}
	}
	return n
}

// Len returns the number of filled slots.
func (s Store) Len() int {
	return len(s.selections) + len(s.leftovers)
}

// Selections returns every selection ordered by day then slot.
func (s Store) Selections() []Selection {
	out := make([]Selection, 0, len(s.selections))
	for _, sel := range s.selections {
		out = append(out, sel)
	}
	sort.Slice(out, func(i, j int) bool { return lessKey(out[i].Key(), out[j].Key()) })
	return out
}

// Leftovers returns every leftover assignment ordered by day then slot.
func (s Store) Leftovers() []LeftoverAssignment {
	out := make([]LeftoverAssignment, 0, len(s.leftovers))
	for _, lo := range s.leftovers {
		out = append(out, lo)
	}
	sort.Slice(out, func(i, j int) bool { return lessKey(out[i].Key(), out[j].Key()) })
	return out
}

// ConfirmedKeys returns the acknowledged slots in day order.
func (s Store) ConfirmedKeys() []SlotKey {
	var out []SlotKey
	for k, ok := range s.confirmed {
		if ok {
			out = append(out, k)
		}
	}
	sortKeys(out)
	return out
}

// Equal reports whether both stores hold the same assignments and confirmations.
func (s Store) Equal(o Store) bool {
	if len(s.selections) != len(o.selections) || len(s.leftovers) != len(o.leftovers) {
		return false
	}
	for k, v := range s.selections {
		if ov, ok := o.selections[k]; !ok || ov != v {
			return false
		}
	}
	for k, v := range s.leftovers {
		if ov, ok := o.leftovers[k]; !ok || ov != v {
			return false
		}
	}
	return fmt.Sprint(s.ConfirmedKeys()) == fmt.Sprint(o.ConfirmedKeys())
}

// clone returns a deep copy that can be mutated before being handed back.
func (s Store) clone() Store {
	c := Store{
		selections: make(map[SlotKey]Selection, len(s.selections)),
		leftovers:  make(map[SlotKey]LeftoverAssignment, len(s.leftovers)),
		confirmed:  make(map[SlotKey]bool, len(s.confirmed)),
	}
	for k, v := range s.selections {
		c.selections[k] = v
	}
	for k, v := range s.leftovers {
		c.leftovers[k] = v
	}
	for k, v := range s.confirmed {
		c.confirmed[k] = v
	}
	return c
}

// The setters below are only ever called on a fresh clone.

func (s *Store) putSelection(sel Selection) {
	k := sel.Key()
	delete(s.leftovers, k)
	s.selections[k] = sel
}

func (s *Store) putLeftover(lo LeftoverAssignment) {
	k := lo.Key()
	delete(s.selections, k)
	s.leftovers[k] = lo
}

func (s *Store) clear(k SlotKey) {
	delete(s.selections, k)
	delete(s.leftovers, k)
	delete(s.confirmed, k)
}

type storeJSON struct {
	Selections          []Selection          `json:"selections"`
	LeftoverAssignments []LeftoverAssignment `json:"leftoverAssignments"`
	ConfirmedSelections map[string]bool      `json:"confirmedSelections,omitempty"`
}

// MarshalJSON encodes the store as the opaque blob handed to persistence layers.
func (s Store) MarshalJSON() ([]byte, error) {
	out := storeJSON{
		Selections:          s.Selections(),
		LeftoverAssignments: s.Leftovers(),
	}
	if keys := s.ConfirmedKeys(); len(keys) > 0 {
		out.ConfirmedSelections = make(map[string]bool, len(keys))
		for _, k := range keys {
			out.ConfirmedSelections[k.String()] = true
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a blob produced by MarshalJSON. Invalid keys and entries that
// would break slot exclusivity are rejected.
func (s *Store) UnmarshalJSON(data []byte) error {
	var in storeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := Store{}.clone()
	for _, sel := range in.Selections {
		if err := sel.Key().Validate(); err != nil {
			return err
		}
		if out.IsFilled(sel.Key()) {
			return fmt.Errorf("%w: slot %s assigned twice", ErrInvalidInput, sel.Key())
		}
		out.selections[sel.Key()] = sel
	}
	for _, lo := range in.LeftoverAssignments {
		if err := lo.Key().Validate(); err != nil {
			return err
		}
		if out.IsFilled(lo.Key()) {
			return fmt.Errorf("%w: slot %s assigned twice", ErrInvalidInput, lo.Key())
		}
		out.leftovers[lo.Key()] = lo
	}
	for raw, ok := range in.ConfirmedSelections {
		k, err := parseKey(raw)
		if err != nil {
			return err
		}
		if ok {
			out.confirmed[k] = true
		}
	}
	*s = out
	return nil
}

// parseKey is the inverse of SlotKey.String.
func parseKey(raw string) (SlotKey, error) {
	if len(raw) < 5 || raw[3] != '-' {
		return SlotKey{}, fmt.Errorf("%w: malformed slot key %q", ErrInvalidInput, raw)
	}
	d, err := ParseDay(raw[:3])
	if err != nil {
		return SlotKey{}, err
	}
	st, err := ParseSlotType(raw[4:])
	if err != nil {
		return SlotKey{}, err
	}
	k := Key(d, st)
	return k, k.Validate()
}

func sortKeys(keys []SlotKey) {
	sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })
}
