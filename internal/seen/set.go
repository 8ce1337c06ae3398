package seen

// Set is an insertion-ordered set of identifiers. It is not safe for
// concurrent use.
type Set struct {
	order []string
	index map[string]struct{}
}

// NewSet returns a Set holding ids in order, skipping repeats.
func NewSet(ids ...string) *Set {
	s := &Set{index: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Has reports whether id is in the set.
func (s *Set) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Add appends id and reports whether it was new.
func (s *Set) Add(id string) bool {
	if s.Has(id) {
		return false
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Len returns the number of ids.
func (s *Set) Len() int { return len(s.order) }

// Slice returns a copy of the ids in insertion order.
func (s *Set) Slice() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Missing returns the ids that are not in the set, in order and without
// repeats.
func (s *Set) Missing(ids []string) []string {
	var out []string
	batch := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if s.Has(id) {
			continue
		}
		if _, dup := batch[id]; dup {
			continue
		}
		batch[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
