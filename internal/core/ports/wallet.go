package ports

import "context"

// TransferRequest moves Amount from the raffle pool to Recipient.
// Reference identifies the payout so that a retried transfer for the same
// round is not executed twice by wallets supporting idempotency.
type TransferRequest struct {
	Reference string
	Recipient string
	Amount    uint64
}

type WalletService interface {
	// Transfer returns the id of the payout transaction. An error means no
	// funds were moved.
	Transfer(ctx context.Context, req TransferRequest) (string, error)
	Close()
}
