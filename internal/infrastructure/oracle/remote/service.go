package remoteoracle

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dghubble/sling"
	"github.com/raffle-network/raffle/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

type randomnessRequest struct {
	RaffleId             string `json:"raffleId"`
	RoundId              uint64 `json:"roundId,string"`
	KeyHash              string `json:"keyHash"`
	SubscriptionId       uint64 `json:"subscriptionId,string"`
	RequestConfirmations uint16 `json:"requestConfirmations"`
	CallbackGasLimit     uint32 `json:"callbackGasLimit"`
	NumWords             uint32 `json:"numWords"`
}

type randomnessResponse struct {
	RequestId string `json:"requestId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// service hands randomness requests to an external VRF coordinator exposing
// POST /v1/requests. The coordinator keeps track of its requests and calls
// back over the http interface, nothing is ever delivered on the
// fulfillments channel.
type service struct {
	client      *sling.Sling
	http        *http.Client
	coordinator string

	lock   *sync.Mutex
	ch     chan ports.Fulfillment
	closed bool
}

func NewService(url, coordinator string) (ports.RandomnessOracle, error) {
	if len(url) <= 0 {
		return nil, fmt.Errorf("missing oracle url")
	}
	if len(coordinator) <= 0 {
		return nil, fmt.Errorf("missing coordinator")
	}
	if !strings.HasSuffix(url, "/") {
		url += "/"
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:    10,
			IdleConnTimeout: 10 * time.Second,
		},
		Timeout: 30 * time.Second,
	}
	return &service{
		client:      sling.New().Base(url).Client(httpClient),
		http:        httpClient,
		coordinator: coordinator,
		lock:        &sync.Mutex{},
		ch:          make(chan ports.Fulfillment),
	}, nil
}

func (s *service) Coordinator() string {
	return s.coordinator
}

func (s *service) RequestRandomness(
	ctx context.Context, req ports.RandomnessRequest,
) (string, error) {
	if req.NumWords <= 0 {
		return "", fmt.Errorf("number of words must be at least 1")
	}
	if s.isClosed() {
		return "", fmt.Errorf("oracle closed")
	}

	body := randomnessRequest{
		RaffleId:             req.RaffleId,
		RoundId:              req.RoundId,
		KeyHash:              req.KeyHash,
		SubscriptionId:       req.SubscriptionId,
		RequestConfirmations: req.RequestConfirmations,
		CallbackGasLimit:     req.CallbackGasLimit,
		NumWords:             req.NumWords,
	}
	httpReq, err := s.client.New().Post("v1/requests").BodyJSON(body).Request()
	if err != nil {
		return "", err
	}

	success := &randomnessResponse{}
	failure := &errorResponse{}
	resp, err := s.client.Do(httpReq.WithContext(ctx), success, failure)
	if err != nil {
		return "", fmt.Errorf("failed to request randomness: %s", err)
	}
	if resp.StatusCode != http.StatusOK {
		if len(failure.Error) > 0 {
			return "", fmt.Errorf("failed to request randomness: %s", failure.Error)
		}
		return "", fmt.Errorf("failed to request randomness: %s", resp.Status)
	}
	if len(success.RequestId) <= 0 {
		return "", fmt.Errorf(
			"failed to request randomness: missing request id in response",
		)
	}
	return success.RequestId, nil
}

func (s *service) ResumeRequest(
	_ context.Context, requestId string, req ports.RandomnessRequest,
) error {
	if len(requestId) <= 0 {
		return fmt.Errorf("missing request id")
	}
	if s.isClosed() {
		return fmt.Errorf("oracle closed")
	}

	log.Debugf(
		"waiting for coordinator %s to fulfill request %s of round %d",
		s.coordinator, requestId, req.RoundId,
	)
	return nil
}

func (s *service) GetFulfillmentChannel(_ context.Context) <-chan ports.Fulfillment {
	return s.ch
}

func (s *service) Close() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
	s.http.CloseIdleConnections()
}

func (s *service) isClosed() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.closed
}
