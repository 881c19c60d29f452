package dirty

import "maps"

// Field is the current serialized value of one field, keyed by its label.
type Field struct {
	Label string
	Value string
}

// Index maps field labels to the hash of their last seen value.
type Index map[string]uint64

// Update compares current against index and returns the fields whose value
// changed together with the updated index. A field seen for the first time
// is recorded but never reported as changed. index is not modified.
func Update(index Index, current []Field) ([]Field, Index) {
	next := make(Index, len(index)+len(current))
	maps.Copy(next, index)

	var changed []Field
	for _, f := range current {
		h := Hash(f.Value)
		prev, seen := next[f.Label]
		if seen && prev != h {
			changed = append(changed, f)
		}
		next[f.Label] = h
	}
	return changed, next
}
