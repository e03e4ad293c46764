package application

import (
	"context"

	"github.com/raffle-network/raffle/internal/core/domain"
	"github.com/raffle-network/raffle/internal/core/ports"
)

// settlementEngine pays out the winner recorded in a pending settlement.
// The transfer runs without the service lock, the service marks the
// settlement as in flight for the duration of the call.
type settlementEngine struct {
	wallet ports.WalletService
}

func newSettlementEngine(wallet ports.WalletService) *settlementEngine {
	return &settlementEngine{wallet}
}

func (e *settlementEngine) pay(
	ctx context.Context, raffleId string, settlement domain.PendingSettlement,
) (string, error) {
	return e.wallet.Transfer(ctx, ports.TransferRequest{
		Reference: settlementReference(raffleId, settlement.RoundId),
		Recipient: settlement.Winner,
		Amount:    settlement.Amount,
	})
}

// complete records the outcome of the payout: on success the ledger is
// cleared and the next round opens, on failure the round stays calculating.
func (e *settlementEngine) complete(
	raffle *domain.Raffle, txid string, payErr error, now int64,
) ([]domain.Event, error) {
	if payErr != nil {
		return raffle.FailSettlement(payErr.Error(), now)
	}
	return raffle.PickWinner(txid, now)
}
