package reconcile

import "github.com/alucardeht/docsync/internal/annotations"

// Merge folds missing into store without overwriting anything already there,
// including empty annotations. A nested group in missing whose key holds an
// annotation in store is left alone; FindConflicts reports those. Merge
// mutates store and returns it; a nil store starts empty.
func Merge(store, missing *annotations.Group) *annotations.Group {
	merged, _ := MergeCount(store, missing)
	return merged
}

// MergeCount is Merge that also returns the number of annotations inserted.
// Zero means store is unchanged, even when missing was not empty.
func MergeCount(store, missing *annotations.Group) (*annotations.Group, int) {
	if store == nil {
		store = annotations.NewGroup()
	}
	return store, merge(store, missing)
}

func merge(store, missing *annotations.Group) int {
	added := 0
	for _, k := range missing.Keys() {
		v, _ := missing.Get(k)

		switch val := v.(type) {
		case *annotations.Group:
			existing, found := store.Get(k)
			if !found {
				sub := annotations.NewGroup()
				added += merge(sub, val)
				if sub.Len() > 0 {
					store.Set(k, sub)
				}
				continue
			}
			if sub, ok := existing.(*annotations.Group); ok {
				added += merge(sub, val)
			}
		case annotations.Annotation:
			if !store.Has(k) {
				store.Set(k, val)
				added++
			}
		}
	}
	return added
}
