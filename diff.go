package arbor

import "slices"

// Changes is the keyed partition produced by Diff. Each list is sorted by id.
type Changes struct {
	Enter  []uint32
	Update []uint32
	Exit   []uint32
}

// Len returns the total number of classified ids.
func (c Changes) Len() int {
	return len(c.Enter) + len(c.Update) + len(c.Exit)
}

// Diff partitions two keyed sets: ids only in curr enter, ids in both update,
// ids only in prev exit. It has no side effects.
func Diff[P, C any](prev map[uint32]P, curr map[uint32]C) Changes {
	var c Changes
	for id := range curr {
		if _, ok := prev[id]; ok {
			c.Update = append(c.Update, id)
		} else {
			c.Enter = append(c.Enter, id)
		}
	}
	for id := range prev {
		if _, ok := curr[id]; !ok {
			c.Exit = append(c.Exit, id)
		}
	}
	slices.Sort(c.Enter)
	slices.Sort(c.Update)
	slices.Sort(c.Exit)
	return c
}
