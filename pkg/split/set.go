package split

import "slices"

// orderedSet is a string set that iterates in insertion order. Partition
// inputs and outputs live in these so that placeholder declaration, output
// tuple construction, and call argument emission all walk the identical
// sequence; plain maps would make those walks independently unordered.
type orderedSet struct {
	keys []string
	seen map[string]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(k string) {
	if _, ok := s.seen[k]; ok {
		return
	}
	s.seen[k] = struct{}{}
	s.keys = append(s.keys, k)
}

func (s *orderedSet) remove(k string) {
	if _, ok := s.seen[k]; !ok {
		return
	}
	delete(s.seen, k)
	s.keys = slices.DeleteFunc(s.keys, func(e string) bool { return e == k })
}

func (s *orderedSet) has(k string) bool {
	_, ok := s.seen[k]
	return ok
}

func (s *orderedSet) len() int { return len(s.keys) }

// values returns the members in insertion order as a read-only view.
func (s *orderedSet) values() []string { return s.keys }
