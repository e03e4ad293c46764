package application

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/raffle-network/raffle/internal/core/domain"
	"github.com/raffle-network/raffle/internal/core/ports"
)

// requestManager drives the randomness handshake with the oracle. Callers
// must hold the service lock.
type requestManager struct {
	oracle ports.RandomnessOracle
}

func newRequestManager(oracle ports.RandomnessOracle) *requestManager {
	return &requestManager{oracle}
}

func (m *requestManager) requestRandomness(
	ctx context.Context, raffle *domain.Raffle, now int64,
) (string, []domain.Event, error) {
	if ok, reason := raffle.CheckUpkeep(now); !ok {
		return "", nil, &domain.UpkeepNotNeededError{
			Balance:      raffle.Balance(),
			Participants: raffle.NumberOfParticipants(),
			State:        raffle.State,
			Reason:       reason,
		}
	}

	requestId, err := m.oracle.RequestRandomness(
		ctx, newRandomnessRequest(raffle, raffle.RoundId),
	)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s", domain.ErrOracleRequestFailed, err)
	}

	events, err := raffle.StartCalculating(requestId, now)
	if err != nil {
		return "", nil, err
	}
	return requestId, events, nil
}

func (m *requestManager) resolve(
	raffle *domain.Raffle, requestId string, randomWord *uint256.Int, now int64,
) ([]domain.Event, error) {
	return raffle.FulfillRandomness(requestId, randomWord, now)
}

// resume hands the pending request of a restored raffle back to the oracle,
// if any. It returns the id of the resumed request.
func (m *requestManager) resume(
	ctx context.Context, raffle *domain.Raffle,
) (string, error) {
	pending, ok := raffle.PendingRequest()
	if !ok {
		return "", nil
	}

	if err := m.oracle.ResumeRequest(
		ctx, pending.RequestId, newRandomnessRequest(raffle, pending.RoundId),
	); err != nil {
		return "", fmt.Errorf(
			"failed to resume randomness request %s: %s", pending.RequestId, err,
		)
	}
	return pending.RequestId, nil
}

func newRandomnessRequest(
	raffle *domain.Raffle, roundId uint64,
) ports.RandomnessRequest {
	cfg := raffle.Config
	return ports.RandomnessRequest{
		RaffleId:             raffle.Id,
		RoundId:              roundId,
		KeyHash:              cfg.KeyHash,
		SubscriptionId:       cfg.SubscriptionId,
		RequestConfirmations: cfg.RequestConfirmations,
		CallbackGasLimit:     cfg.CallbackGasLimit,
		NumWords:             cfg.NumWords,
	}
}
