package application

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/raffle-network/raffle/internal/core/domain"
)

type Service interface {
	Start() error
	Stop()
	Enter(ctx context.Context, participant string, payment uint64) error
	CheckUpkeep(ctx context.Context) (bool, domain.UpkeepReason)
	PerformUpkeep(ctx context.Context) (string, error)
	FulfillRandomness(
		ctx context.Context, caller, requestId string, randomWords []*uint256.Int,
	) error
	RetrySettlement(ctx context.Context) error
	GetInfo(ctx context.Context) (*RaffleInfo, error)
	GetParticipant(ctx context.Context, index uint64) (string, error)
	GetParticipants(ctx context.Context) ([]string, error)
	GetRound(ctx context.Context, roundId uint64) (*domain.SettledRound, error)
	GetRounds(ctx context.Context) ([]domain.SettledRound, error)
	GetEventsChannel(ctx context.Context) <-chan domain.Event
}

type RaffleInfo struct {
	Name                 string
	EntranceFee          uint64
	Interval             int64
	Coordinator          string
	KeyHash              string
	SubscriptionId       uint64
	RequestConfirmations uint16
	CallbackGasLimit     uint32
	NumWords             uint32
	State                domain.RaffleState
	RoundId              uint64
	OpenedAt             int64
	Participants         uint64
	Balance              uint64
	RecentWinner         string
	UpkeepNeeded         bool
	UpkeepReason         domain.UpkeepReason
	PendingRequest       *domain.PendingRequest
	PendingRequestAge    int64
	PendingSettlement    *domain.PendingSettlement
}
