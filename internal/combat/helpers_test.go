package combat

import "math"

// scriptedDice replays fixed die faces (1–6) in order, then repeats the last.
type scriptedDice struct {
	faces []int
	pos   int
}

func (s *scriptedDice) Intn(n int) int {
	face := s.faces[len(s.faces)-1]
	if s.pos < len(s.faces) {
		face = s.faces[s.pos]
		s.pos++
	}
	return (face - 1) % n
}

func (s *scriptedDice) Float64() float64 { return 0.5 }

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
