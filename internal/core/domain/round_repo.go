package domain

import "context"

// SettledRound is the archived outcome of a round whose payout succeeded.
type SettledRound struct {
	RaffleId     string
	RoundId      uint64
	RequestId    string
	RandomWord   string
	WinnerIndex  uint64
	Winner       string
	Payout       uint64
	Participants uint64
	Txid         string
	OpenedAt     int64
	SettledAt    int64
}

func NewSettledRound(event WinnerPicked) SettledRound {
	return SettledRound{
		RaffleId:     event.Id,
		RoundId:      event.RoundId,
		RequestId:    event.RequestId,
		RandomWord:   event.RandomWord,
		WinnerIndex:  event.WinnerIndex,
		Winner:       event.Winner,
		Payout:       event.Payout,
		Participants: event.Participants,
		Txid:         event.Txid,
		OpenedAt:     event.OpenedAt,
		SettledAt:    event.Timestamp,
	}
}

type RoundRepository interface {
	AddRound(ctx context.Context, round SettledRound) error
	GetRound(ctx context.Context, raffleId string, roundId uint64) (*SettledRound, error)
	GetRounds(ctx context.Context, raffleId string) ([]SettledRound, error)
	Close()
}
