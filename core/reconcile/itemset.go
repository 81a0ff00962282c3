package reconcile

// ItemSet is a keyed view over one side of a reconciliation. It holds the
// flat item projection used for diffing plus the raw source record each
// item came from, so mutation planning can recover identifiers (remote
// ids, row ids) that the projection deliberately leaves out.
type ItemSet struct {
	items   map[Key]Fields
	records map[Key]any
}

// NewItemSet returns an empty set.
func NewItemSet() *ItemSet {
	return &ItemSet{
		items:   make(map[Key]Fields),
		records: make(map[Key]any),
	}
}

// Put stores an item and its source record under key. Duplicate keys are
// last-write-wins: the later record replaces the earlier one entirely.
func (s *ItemSet) Put(key Key, item Fields, record any) {
	s.items[key] = item
	s.records[key] = record
}

// Get returns the item stored under key.
func (s *ItemSet) Get(key Key) (Fields, bool) {
	item, ok := s.items[key]
	return item, ok
}

// Record returns the raw source record stored under key, or nil.
func (s *ItemSet) Record(key Key) any {
	return s.records[key]
}

// Items returns the live key-to-item map. Callers iterate it; they must
// not mutate it.
func (s *ItemSet) Items() map[Key]Fields {
	return s.items
}

// Len returns the number of items in the set.
func (s *ItemSet) Len() int {
	return len(s.items)
}

// Keys returns the set's keys in map order.
func (s *ItemSet) Keys() []Key {
	keys := make([]Key, 0, len(s.items))
	for key := range s.items {
		keys = append(keys, key)
	}
	return keys
}

// Build projects records into an ItemSet. itemize flattens one record
// into comparable fields and may return nil to drop the record; keyFn
// derives the item's key from those fields. Records that itemize to the
// same key overwrite each other, last write wins.
func Build[R any](records []R, itemize func(R) Fields, keyFn func(Fields) Key) *ItemSet {
	set := NewItemSet()
	for _, record := range records {
		item := itemize(record)
		if item == nil {
			continue
		}
		set.Put(keyFn(item), item, record)
	}
	return set
}
