package bestlap

type Decision uint8

const (
	Accept Decision = iota
	RejectCuts
	RejectBelowMinimum
)

func (d Decision) String() string {
	switch d {
	case Accept:
		return "accept"
	case RejectCuts:
		return "reject_cuts"
	case RejectBelowMinimum:
		return "reject_below_minimum"
	default:
		return "unknown"
	}
}

// Evaluate decides whether a lap may be considered at all. Cuts are checked before the
// minimum lap time.
func Evaluate(cuts, lapTimeMs uint32, config Config) Decision {
	if cuts > config.MaxAllowedCuts {
		return RejectCuts
	}

	if lapTimeMs < config.MinimumLapTimeMs {
		return RejectBelowMinimum
	}

	return Accept
}

// ShouldNotify reports whether an accepted lap is sent to the collector.
func ShouldNotify(config Config, isNewAllTimeBest, isNewSessionBest bool) bool {
	switch {
	case config.SubmitAllLaps:
		return true
	case config.SessionMode:
		return isNewSessionBest
	default:
		return isNewAllTimeBest
	}
}
