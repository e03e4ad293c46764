package drandoracle

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dghubble/sling"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/raffle-network/raffle/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

const (
	defaultMaxIdleConns    = 10
	defaultIdleConnTimeout = 10 * time.Second
	fulfillmentsBufferSize = 16
)

type beacon struct {
	Round             uint64 `json:"round"`
	Randomness        string `json:"randomness"`
	Signature         string `json:"signature"`
	PreviousSignature string `json:"previous_signature,omitempty"`
}

// service sources randomness from a drand network over its HTTP API.
// A request is bound to a beacon round emitted after the request was made,
// so nobody can know the random word at request time. The round is part of
// the request id, which is all it takes to resume waiting after a restart.
// The relay is trusted to serve beacons signed by the drand group, only the
// link between signature and randomness is checked here.
type service struct {
	client       *sling.Sling
	coordinator  string
	pollInterval time.Duration
	ch           chan ports.Fulfillment

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService returns an oracle polling the drand relay at url. coordinator is
// the identity fulfillments are attributed to, it defaults to url.
func NewService(
	url, coordinator string, pollInterval time.Duration,
) (ports.RandomnessOracle, error) {
	if len(url) <= 0 {
		return nil, fmt.Errorf("missing drand url")
	}
	if pollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be greater than 0")
	}
	if !strings.HasSuffix(url, "/") {
		url += "/"
	}
	if len(coordinator) <= 0 {
		coordinator = strings.TrimSuffix(url, "/")
	}

	tr := &http.Transport{
		MaxIdleConns:    defaultMaxIdleConns,
		IdleConnTimeout: defaultIdleConnTimeout,
	}
	httpClient := &http.Client{Transport: tr, Timeout: 30 * time.Second}
	ctx, cancel := context.WithCancel(context.Background())

	return &service{
		client:       sling.New().Base(url).Client(httpClient),
		coordinator:  coordinator,
		pollInterval: pollInterval,
		ch:           make(chan ports.Fulfillment, fulfillmentsBufferSize),
		ctx:          ctx,
		cancel:       cancel,
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
	if s.ctx.Err() != nil {
		return "", fmt.Errorf("oracle closed")
	}

	latest, err := s.getBeacon(ctx, "public/latest")
	if err != nil {
		return "", err
	}

	confirmations := uint64(req.RequestConfirmations)
	if confirmations <= 0 {
		confirmations = 1
	}
	targetRound := latest.Round + confirmations
	requestId := fmt.Sprintf("%d-%s", targetRound, uuid.New().String())

	s.wg.Add(1)
	go s.waitForBeacon(requestId, targetRound, req.NumWords)

	log.Debugf(
		"randomness request %s bound to drand round %d", requestId, targetRound,
	)
	return requestId, nil
}

func (s *service) ResumeRequest(
	_ context.Context, requestId string, req ports.RandomnessRequest,
) error {
	if req.NumWords <= 0 {
		return fmt.Errorf("number of words must be at least 1")
	}
	if s.ctx.Err() != nil {
		return fmt.Errorf("oracle closed")
	}

	targetRound, err := parseRequestId(requestId)
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go s.waitForBeacon(requestId, targetRound, req.NumWords)

	log.Debugf(
		"resumed randomness request %s bound to drand round %d",
		requestId, targetRound,
	)
	return nil
}

func (s *service) GetFulfillmentChannel(_ context.Context) <-chan ports.Fulfillment {
	return s.ch
}

func (s *service) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *service) waitForBeacon(requestId string, round uint64, numWords uint32) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	path := fmt.Sprintf("public/%d", round)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			b, err := s.getBeacon(s.ctx, path)
			if err != nil {
				log.WithError(err).Debugf("drand round %d not available yet", round)
				continue
			}

			if err := b.verify(round); err != nil {
				log.WithError(err).Warnf("invalid beacon for drand round %d", round)
				continue
			}
			words, err := deriveWords(b.Randomness, numWords)
			if err != nil {
				log.WithError(err).Warnf("invalid beacon for drand round %d", round)
				continue
			}

			select {
			case <-s.ctx.Done():
			case s.ch <- ports.Fulfillment{RequestId: requestId, RandomWords: words}:
			}
			return
		}
	}
}

func (s *service) getBeacon(ctx context.Context, path string) (*beacon, error) {
	req, err := s.client.New().Get(path).Request()
	if err != nil {
		return nil, err
	}

	b := &beacon{}
	resp, err := s.client.Do(req.WithContext(ctx), b, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get drand beacon: %s", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get drand beacon: %s", resp.Status)
	}
	return b, nil
}

// verify checks that the beacon is the expected round and that its
// randomness is the sha256 of its signature, as drand defines it.
func (b *beacon) verify(round uint64) error {
	if b.Round != round {
		return fmt.Errorf("got round %d, expected %d", b.Round, round)
	}
	sig, err := hex.DecodeString(b.Signature)
	if err != nil || len(sig) <= 0 {
		return fmt.Errorf("invalid signature")
	}
	randomness, err := hex.DecodeString(b.Randomness)
	if err != nil {
		return fmt.Errorf("invalid randomness: %s", err)
	}
	hash := sha256.Sum256(sig)
	if !bytes.Equal(hash[:], randomness) {
		return fmt.Errorf("randomness does not match signature")
	}
	return nil
}

// parseRequestId returns the beacon round a request id is bound to.
func parseRequestId(requestId string) (uint64, error) {
	prefix, _, ok := strings.Cut(requestId, "-")
	if !ok {
		return 0, fmt.Errorf("invalid request id %s", requestId)
	}
	round, err := strconv.ParseUint(prefix, 10, 64)
	if err != nil || round <= 0 {
		return 0, fmt.Errorf("invalid request id %s", requestId)
	}
	return round, nil
}

// deriveWords expands a beacon randomness into numWords words. The first
// word is the randomness itself, the following ones are keccak256 of the
// randomness and the word index.
func deriveWords(randomness string, numWords uint32) ([]*uint256.Int, error) {
	buf, err := hex.DecodeString(randomness)
	if err != nil {
		return nil, fmt.Errorf("invalid randomness: %s", err)
	}
	if len(buf) != 32 {
		return nil, fmt.Errorf("invalid randomness length %d", len(buf))
	}

	words := make([]*uint256.Int, 0, numWords)
	words = append(words, new(uint256.Int).SetBytes(buf))
	for i := uint32(1); i < numWords; i++ {
		index := make([]byte, 4)
		binary.BigEndian.PutUint32(index, i)
		hash := crypto.Keccak256Hash(buf, index)
		words = append(words, new(uint256.Int).SetBytes(hash.Bytes()))
	}
	return words, nil
}
