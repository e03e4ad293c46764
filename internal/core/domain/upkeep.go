package domain

const (
	UpkeepNeeded UpkeepReason = iota
	UpkeepNotOpen
	UpkeepIntervalNotElapsed
	UpkeepNoParticipants
	UpkeepNoBalance
)

// UpkeepReason tells why an upkeep check did or did not pass.
type UpkeepReason int

func (r UpkeepReason) String() string {
	switch r {
	case UpkeepNeeded:
		return "upkeep needed"
	case UpkeepNotOpen:
		return "raffle not open"
	case UpkeepIntervalNotElapsed:
		return "interval not elapsed"
	case UpkeepNoParticipants:
		return "no participants"
	case UpkeepNoBalance:
		return "no balance"
	default:
		return "unknown"
	}
}

// CheckUpkeep reports whether a winner draw is due at the given time.
// All of the following must hold: the raffle is open, the interval has
// elapsed since the round opened, and the round has at least one participant
// and a positive balance. It never mutates the raffle.
func (r *Raffle) CheckUpkeep(now int64) (bool, UpkeepReason) {
	reason := checkUpkeep(
		r.State, r.OpenedAt, r.Config.Interval, r.ledger, now,
	)
	return reason == UpkeepNeeded, reason
}

func checkUpkeep(
	state RaffleState, openedAt, interval int64, ledger Ledger, now int64,
) UpkeepReason {
	if state != RaffleOpen {
		return UpkeepNotOpen
	}
	if now-openedAt < interval {
		return UpkeepIntervalNotElapsed
	}
	if ledger.Count() <= 0 {
		return UpkeepNoParticipants
	}
	if ledger.Balance() <= 0 {
		return UpkeepNoBalance
	}
	return UpkeepNeeded
}

func (r *Raffle) upkeepNotNeeded(reason UpkeepReason) error {
	return &UpkeepNotNeededError{
		Balance:      r.ledger.Balance(),
		Participants: r.ledger.Count(),
		State:        r.State,
		Reason:       reason,
	}
}
