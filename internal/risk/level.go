package risk

import "strings"

// Level is the tri-level risk classification of a visit.
type Level string

const (
	LevelGreen Level = "GREEN"
	LevelAmber Level = "AMBER"
	LevelRed   Level = "RED"
)

// rank orders levels GREEN < AMBER < RED. Unknown values rank as GREEN.
func (l Level) rank() int {
	switch l {
	case LevelRed:
		return 2
	case LevelAmber:
		return 1
	default:
		return 0
	}
}

// Max returns the more severe of l and other.
func (l Level) Max(other Level) Level {
	if other.rank() > l.rank() {
		return other
	}
	if l.rank() == 0 {
		return LevelGreen
	}
	return l
}

// AtLeast reports whether l is as severe as other or more.
func (l Level) AtLeast(other Level) bool {
	return l.rank() >= other.rank()
}

// Valid reports whether l is one of the three known levels.
func (l Level) Valid() bool {
	switch l {
	case LevelGreen, LevelAmber, LevelRed:
		return true
	}
	return false
}

// ParseLevel parses a level name case-insensitively.
func ParseLevel(s string) (Level, bool) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	return l, l.Valid()
}
