package actions

import "fmt"

// Possibility is the result of validating a proposal against the world:
// allowed with a duration in ticks, or denied with a reason for the player.
type Possibility struct {
	OK       bool
	Duration int
	Reason   string
}

func Yes(duration int) Possibility {
	if duration < 1 {
		duration = 1
	}
	return Possibility{OK: true, Duration: duration}
}

func No(format string, args ...any) Possibility {
	return Possibility{Reason: fmt.Sprintf(format, args...)}
}

func (p Possibility) String() string {
	if p.OK {
		return fmt.Sprintf("yes (%d ticks)", p.Duration)
	}
	return "no: " + p.Reason
}
