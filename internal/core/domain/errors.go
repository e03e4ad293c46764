package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientPayment       = errors.New("insufficient payment to enter the raffle")
	ErrExcessPayment             = errors.New("payment exceeds the raffle entrance fee")
	ErrRoundNotOpen              = errors.New("raffle round is not open")
	ErrUpkeepNotNeeded           = errors.New("upkeep not needed")
	ErrUnknownRequest            = errors.New("unknown randomness request")
	ErrIndexOutOfRange           = errors.New("participant index out of range")
	ErrTransferFailed            = errors.New("transfer to winner failed")
	ErrOracleRequestFailed       = errors.New("randomness request to oracle failed")
	ErrOnlyCoordinatorCanFulfill = errors.New("only the oracle coordinator can fulfill randomness requests")
	ErrReentrantCall             = errors.New("settlement in progress")
	ErrNoSettlementPending       = errors.New("no settlement pending")
	ErrNoParticipants            = errors.New("no participants to select a winner from")
	ErrInvalidParticipant        = errors.New("invalid participant")
	ErrRaffleNotStarted          = errors.New("raffle not started")
	ErrRoundNotFound             = errors.New("not found")
)

// UpkeepNotNeededError carries the raffle snapshot that made the upkeep
// check fail, so callers can tell why a trigger was refused.
type UpkeepNotNeededError struct {
	Balance      uint64
	Participants uint64
	State        RaffleState
	Reason       UpkeepReason
}

func (e *UpkeepNotNeededError) Error() string {
	return fmt.Sprintf(
		"%s: %s (balance: %d, participants: %d, state: %s)",
		ErrUpkeepNotNeeded, e.Reason, e.Balance, e.Participants, e.State,
	)
}

func (e *UpkeepNotNeededError) Unwrap() error {
	return ErrUpkeepNotNeeded
}
