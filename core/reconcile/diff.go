package reconcile

// DiffResult partitions the keys of two item sets by the work needed to
// make target look like origin. The partitions are disjoint and cover the
// union of both key sets (unchanged keys appear in none of them).
type DiffResult struct {
	// Missing holds origin items absent from target: create these.
	Missing map[Key]Fields

	// Changed holds origin items whose target counterpart disagrees on at
	// least one compared field: update these. The stored fields are the
	// origin's, the desired state.
	Changed map[Key]Fields

	// Extra holds target items absent from origin: delete these. The
	// stored fields are the target's own projection.
	Extra map[Key]Fields
}

// Empty reports whether the diff found nothing to do.
func (d *DiffResult) Empty() bool {
	return len(d.Missing) == 0 && len(d.Changed) == 0 && len(d.Extra) == 0
}

// Counts returns the partition sizes in missing, changed, extra order.
func (d *DiffResult) Counts() (missing, changed, extra int) {
	return len(d.Missing), len(d.Changed), len(d.Extra)
}

// Diff compares origin against target and partitions their keys.
// Change detection considers only the named compare fields; with an empty
// list every field of the origin item is compared. Fields present only on
// the target side never count as changes.
func Diff(origin, target *ItemSet, compare []string) *DiffResult {
	d := &DiffResult{
		Missing: make(map[Key]Fields),
		Changed: make(map[Key]Fields),
		Extra:   make(map[Key]Fields),
	}

	for key, item := range origin.Items() {
		found, ok := target.Get(key)
		if !ok {
			d.Missing[key] = item
			continue
		}
		if !item.Equal(found, compare) {
			d.Changed[key] = item
		}
	}

	for key, item := range target.Items() {
		if _, ok := origin.Get(key); !ok {
			d.Extra[key] = item
		}
	}

	return d
}
