package localoracle

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/raffle-network/raffle/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

const fulfillmentsBufferSize = 16

// Oracle lets callers fulfill requests by hand on top of the oracle port.
type Oracle interface {
	ports.RandomnessOracle
	FulfillRequest(requestId string, words ...*uint256.Int) error
}

// service is a development oracle producing random words locally, the way
// a mocked VRF coordinator does. It offers no verifiability and must not be
// used where participants need to trust the draw.
type service struct {
	coordinator string
	delay       time.Duration

	lock     *sync.Mutex
	nonce    uint64
	requests map[string]ports.RandomnessRequest
	timers   map[string]*time.Timer
	ch       chan ports.Fulfillment
	closed   bool
}

// NewService returns a local oracle that fulfills every request after delay.
// A negative delay disables automatic fulfillment, requests are then
// fulfilled only through FulfillRequest.
func NewService(coordinator string, delay time.Duration) (Oracle, error) {
	if len(coordinator) <= 0 {
		return nil, fmt.Errorf("missing coordinator")
	}
	return &service{
		coordinator: coordinator,
		delay:       delay,
		lock:        &sync.Mutex{},
		requests:    make(map[string]ports.RandomnessRequest),
		timers:      make(map[string]*time.Timer),
		ch:          make(chan ports.Fulfillment, fulfillmentsBufferSize),
	}, nil
}

func (s *service) Coordinator() string {
	return s.coordinator
}

func (s *service) RequestRandomness(
	_ context.Context, req ports.RandomnessRequest,
) (string, error) {
	if req.NumWords <= 0 {
		return "", fmt.Errorf("number of words must be at least 1")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return "", fmt.Errorf("oracle closed")
	}

	s.nonce++
	requestId := deriveRequestId(req.RaffleId, req.RoundId, s.nonce)
	s.requests[requestId] = req

	s.scheduleFulfillment(requestId)

	log.Debugf(
		"received randomness request %s for round %d of raffle %s",
		requestId, req.RoundId, req.RaffleId,
	)
	return requestId, nil
}

func (s *service) ResumeRequest(
	_ context.Context, requestId string, req ports.RandomnessRequest,
) error {
	if len(requestId) <= 0 {
		return fmt.Errorf("missing request id")
	}
	if req.NumWords <= 0 {
		return fmt.Errorf("number of words must be at least 1")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return fmt.Errorf("oracle closed")
	}
	if _, ok := s.requests[requestId]; ok {
		return nil
	}

	s.requests[requestId] = req
	s.scheduleFulfillment(requestId)

	log.Debugf(
		"resumed randomness request %s for round %d of raffle %s",
		requestId, req.RoundId, req.RaffleId,
	)
	return nil
}

// FulfillRequest delivers random words for a pending request. If no words
// are given they are drawn from crypto/rand.
func (s *service) FulfillRequest(requestId string, words ...*uint256.Int) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return fmt.Errorf("oracle closed")
	}
	req, ok := s.requests[requestId]
	if !ok {
		return fmt.Errorf("nonexistent request %s", requestId)
	}

	if len(words) <= 0 {
		randomWords, err := randomWords(req.NumWords)
		if err != nil {
			return err
		}
		words = randomWords
	}

	select {
	case s.ch <- ports.Fulfillment{RequestId: requestId, RandomWords: words}:
	default:
		return fmt.Errorf("fulfillments queue is full")
	}

	delete(s.requests, requestId)
	if timer, ok := s.timers[requestId]; ok {
		timer.Stop()
		delete(s.timers, requestId)
	}
	return nil
}

// scheduleFulfillment must be called with the lock held.
func (s *service) scheduleFulfillment(requestId string) {
	if s.delay < 0 {
		return
	}
	s.timers[requestId] = time.AfterFunc(s.delay, func() {
		if err := s.FulfillRequest(requestId); err != nil {
			log.WithError(err).Warnf("failed to fulfill request %s", requestId)
		}
	})
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
	for _, timer := range s.timers {
		timer.Stop()
	}
	close(s.ch)
}

// deriveRequestId hashes the request coordinates into a positive decimal id,
// unique per oracle instance thanks to the nonce.
func deriveRequestId(raffleId string, roundId, nonce uint64) string {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], roundId)
	binary.BigEndian.PutUint64(buf[8:], nonce)
	hash := crypto.Keccak256Hash([]byte(raffleId), buf)
	return new(uint256.Int).SetBytes(hash.Bytes()).Dec()
}

func randomWords(numWords uint32) ([]*uint256.Int, error) {
	words := make([]*uint256.Int, 0, numWords)
	for i := uint32(0); i < numWords; i++ {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate random word: %s", err)
		}
		words = append(words, new(uint256.Int).SetBytes(buf))
	}
	return words, nil
}
