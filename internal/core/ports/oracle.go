package ports

import (
	"context"

	"github.com/holiman/uint256"
)

type RandomnessRequest struct {
	RaffleId             string
	RoundId              uint64
	KeyHash              string
	SubscriptionId       uint64
	RequestConfirmations uint16
	CallbackGasLimit     uint32
	NumWords             uint32
}

type Fulfillment struct {
	RequestId   string
	RandomWords []*uint256.Int
}

type RandomnessOracle interface {
	// Coordinator is the identity fulfillments must come from.
	Coordinator() string
	RequestRandomness(ctx context.Context, req RandomnessRequest) (string, error)
	// ResumeRequest re-arms the delivery of a request made before a restart.
	// Nothing is requested again, the fulfillment carries the same requestId.
	ResumeRequest(ctx context.Context, requestId string, req RandomnessRequest) error
	// GetFulfillmentChannel returns the channel the oracle delivers random
	// words on. Oracles calling back over the HTTP interface may return a
	// channel that never fires.
	GetFulfillmentChannel(ctx context.Context) <-chan Fulfillment
	Close()
}
