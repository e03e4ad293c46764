package domain

import (
	"fmt"
	"math"
)

// Ledger holds the entries of the current round: the ordered list of
// participants (one element per entry, duplicates allowed) and the pooled
// balance. It is only mutated through the events applied to a Raffle.
type Ledger struct {
	participants []string
	balance      uint64
}

func (l Ledger) Count() uint64 {
	return uint64(len(l.participants))
}

func (l Ledger) Balance() uint64 {
	return l.balance
}

func (l Ledger) ParticipantAt(index uint64) (string, error) {
	if index >= l.Count() {
		return "", fmt.Errorf(
			"%w: index %d, participants %d", ErrIndexOutOfRange, index, l.Count(),
		)
	}
	return l.participants[index], nil
}

func (l Ledger) Participants() []string {
	return append([]string{}, l.participants...)
}

func (l Ledger) canAdd(amount uint64) error {
	if l.balance > math.MaxUint64-amount {
		return fmt.Errorf("pooled balance overflow")
	}
	return nil
}

func (l *Ledger) add(participant string, amount uint64) {
	l.participants = append(l.participants, participant)
	l.balance += amount
}

func (l *Ledger) clear() {
	l.participants = nil
	l.balance = 0
}

func validateEntry(participant string, fee, payment uint64) error {
	if len(participant) <= 0 {
		return fmt.Errorf("%w: missing participant", ErrInvalidParticipant)
	}
	if payment < fee {
		return fmt.Errorf(
			"%w: got %d, entrance fee is %d", ErrInsufficientPayment, payment, fee,
		)
	}
	if payment > fee {
		return fmt.Errorf(
			"%w: got %d, entrance fee is %d", ErrExcessPayment, payment, fee,
		)
	}
	return nil
}
