package scraper

// seenSet remembers the most recent log entry keys so already forwarded
// entries are not pushed again. The modem returns a sliding window of its
// log on every poll, so overlap between polls is the normal case.
type seenSet struct {
	keys  map[string]struct{}
	order []string
	cap   int
}

func newSeenSet(capacity int) *seenSet {
	return &seenSet{
		keys: make(map[string]struct{}, capacity),
		cap:  capacity,
	}
}

// Add records the key and reports whether it was new. Once the set is full
// the oldest key is evicted first.
func (s *seenSet) Add(key string) bool {
	if _, ok := s.keys[key]; ok {
		return false
	}
	if len(s.order) >= s.cap {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.keys, oldest)
	}
	s.keys[key] = struct{}{}
	s.order = append(s.order, key)
	return true
}
