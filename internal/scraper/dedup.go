package scraper

// bodySet tracks the review bodies already present in one company store.
type bodySet struct {
	hasher Hasher
	keys   map[string]struct{}
}

func newBodySet(hasher Hasher, reviews []Review) *bodySet {
	s := &bodySet{hasher: hasher, keys: make(map[string]struct{}, len(reviews))}
	for _, r := range reviews {
		s.add(s.key(r.Body))
	}
	return s
}

// key returns the digest of body, or body itself when no hasher is set or hashing fails.
func (s *bodySet) key(body string) string {
	if s.hasher == nil {
		return body
	}
	sum, err := s.hasher.Hash([]byte(body))
	if err != nil {
		return body
	}
	return sum
}

func (s *bodySet) has(key string) bool {
	_, ok := s.keys[key]
	return ok
}

func (s *bodySet) add(key string) {
	s.keys[key] = struct{}{}
}
