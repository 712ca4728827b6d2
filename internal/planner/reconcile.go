package planner

import "sort"

// OverAllocation reports an item referenced by more leftover assignments than the
// inventory holds. It is a warning, never an error.
type OverAllocation struct {
	ItemName  string
	Available int
	Assigned  int
	Slots     []SlotKey
}

// Excess returns how many assignments exceed the available quantity.
func (o OverAllocation) Excess() int {
	return o.Assigned - o.Available
}

// Reconcile compares the store's leftover assignments with a live inventory snapshot.
// Items missing from the snapshot count as zero available.
func Reconcile(store Store, inventory []InventoryMealItem) []OverAllocation {
	available := make(map[string]int, len(inventory))
	for _, item := range inventory {
		available[item.Name] += item.Quantity
	}

	slots := make(map[string][]SlotKey)
	for _, lo := range store.Leftovers() {
		slots[lo.ItemName] = append(slots[lo.ItemName], lo.Key())
	}

	var out []OverAllocation
	for name, keys := range slots {
		if len(keys) > available[name] {
			out = append(out, OverAllocation{
				ItemName:  name,
				Available: available[name],
				Assigned:  len(keys),
				Slots:     keys,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemName < out[j].ItemName })
	return out
}
