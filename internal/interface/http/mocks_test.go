package httpservice

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/raffle-network/raffle/internal/core/application"
	"github.com/raffle-network/raffle/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type mockedAppService struct {
	mock.Mock
	events chan domain.Event
}

func (m *mockedAppService) Start() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockedAppService) Stop() {
	m.Called()
}

func (m *mockedAppService) Enter(
	ctx context.Context, participant string, payment uint64,
) error {
	args := m.Called(ctx, participant, payment)
	return args.Error(0)
}

func (m *mockedAppService) CheckUpkeep(ctx context.Context) (bool, domain.UpkeepReason) {
	args := m.Called(ctx)
	return args.Bool(0), args.Get(1).(domain.UpkeepReason)
}

func (m *mockedAppService) PerformUpkeep(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockedAppService) FulfillRandomness(
	ctx context.Context, caller, requestId string, randomWords []*uint256.Int,
) error {
	args := m.Called(ctx, caller, requestId, randomWords)
	return args.Error(0)
}

func (m *mockedAppService) RetrySettlement(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockedAppService) GetInfo(ctx context.Context) (*application.RaffleInfo, error) {
	args := m.Called(ctx)

	var res *application.RaffleInfo
	if a := args.Get(0); a != nil {
		res = a.(*application.RaffleInfo)
	}
	return res, args.Error(1)
}

func (m *mockedAppService) GetParticipant(ctx context.Context, index uint64) (string, error) {
	args := m.Called(ctx, index)
	return args.String(0), args.Error(1)
}

func (m *mockedAppService) GetParticipants(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)

	var res []string
	if a := args.Get(0); a != nil {
		res = a.([]string)
	}
	return res, args.Error(1)
}

func (m *mockedAppService) GetRound(
	ctx context.Context, roundId uint64,
) (*domain.SettledRound, error) {
	args := m.Called(ctx, roundId)

	var res *domain.SettledRound
	if a := args.Get(0); a != nil {
		res = a.(*domain.SettledRound)
	}
	return res, args.Error(1)
}

func (m *mockedAppService) GetRounds(ctx context.Context) ([]domain.SettledRound, error) {
	args := m.Called(ctx)

	var res []domain.SettledRound
	if a := args.Get(0); a != nil {
		res = a.([]domain.SettledRound)
	}
	return res, args.Error(1)
}

func (m *mockedAppService) GetEventsChannel(_ context.Context) <-chan domain.Event {
	return m.events
}
