package social

// Snapshot is a frozen copy of every nation taken at the start of a cycle.
// Assessments read it concurrently; nothing writes to it after NewSnapshot.
type Snapshot struct {
	Tick    uint64
	nations []Nation
	index   map[NationCode]int
}

// NewSnapshot deep-copies the given nations.
func NewSnapshot(tick uint64, nations []*Nation) *Snapshot {
	s := &Snapshot{
		Tick:    tick,
		nations: make([]Nation, 0, len(nations)),
		index:   make(map[NationCode]int, len(nations)),
	}
	for _, n := range nations {
		s.index[n.Code] = len(s.nations)
		s.nations = append(s.nations, n.Clone())
	}
	return s
}

// Get returns the snapshot copy of a nation.
func (s *Snapshot) Get(code NationCode) (Nation, bool) {
	i, ok := s.index[code]
	if !ok {
		return Nation{}, false
	}
	return s.nations[i], true
}

// Nations returns every nation in the snapshot. Callers must not modify it.
func (s *Snapshot) Nations() []Nation {
	return s.nations
}

// Len returns the number of nations.
func (s *Snapshot) Len() int {
	return len(s.nations)
}

// RivalPower returns the power of the strongest nation that is neither the
// given nation nor one of its allies.
func (s *Snapshot) RivalPower(self *Nation) float64 {
	var rival float64
	for i := range s.nations {
		o := &s.nations[i]
		if o.Code == self.Code || o.Annexed || self.IsAlly(o.Code) {
			continue
		}
		rival = max(rival, o.Power)
	}
	return rival
}
