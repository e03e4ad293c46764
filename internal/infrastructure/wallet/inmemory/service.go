package inmemorywallet

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/raffle-network/raffle/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

type Payout struct {
	Txid string
	ports.TransferRequest
}

// Wallet keeps payouts in memory. Transfers to rejected recipients fail the
// way a recipient refusing funds would, transfers are idempotent by
// reference.
type Wallet interface {
	ports.WalletService
	Payouts() []Payout
	RejectRecipient(recipient string)
	AcceptRecipient(recipient string)
}

type service struct {
	lock     sync.Mutex
	rejected map[string]struct{}
	byRef    map[string]Payout
	payouts  []Payout
	closed   bool
}

func NewService(rejectedRecipients ...string) Wallet {
	rejected := make(map[string]struct{})
	for _, r := range rejectedRecipients {
		if r = strings.TrimSpace(r); len(r) > 0 {
			rejected[strings.ToLower(r)] = struct{}{}
		}
	}
	return &service{
		rejected: rejected,
		byRef:    make(map[string]Payout),
		payouts:  make([]Payout, 0),
	}
}

func (s *service) Transfer(
	_ context.Context, req ports.TransferRequest,
) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return "", fmt.Errorf("wallet closed")
	}
	if len(req.Recipient) <= 0 {
		return "", fmt.Errorf("missing recipient")
	}
	if len(req.Reference) > 0 {
		if payout, ok := s.byRef[req.Reference]; ok {
			log.Debugf("transfer %s already executed with txid %s", req.Reference, payout.Txid)
			return payout.Txid, nil
		}
	}
	if _, ok := s.rejected[strings.ToLower(req.Recipient)]; ok {
		return "", fmt.Errorf("recipient %s rejected the transfer", req.Recipient)
	}

	amount := make([]byte, 8)
	binary.BigEndian.PutUint64(amount, req.Amount)
	nonce := make([]byte, 8)
	binary.BigEndian.PutUint64(nonce, uint64(len(s.payouts)))
	txid := crypto.Keccak256Hash(
		[]byte(req.Reference), []byte(req.Recipient), amount, nonce,
	).Hex()

	payout := Payout{Txid: txid, TransferRequest: req}
	s.payouts = append(s.payouts, payout)
	if len(req.Reference) > 0 {
		s.byRef[req.Reference] = payout
	}
	return txid, nil
}

func (s *service) Payouts() []Payout {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]Payout{}, s.payouts...)
}

func (s *service) RejectRecipient(recipient string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.rejected[strings.ToLower(recipient)] = struct{}{}
}

func (s *service) AcceptRecipient(recipient string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.rejected, strings.ToLower(recipient))
}

func (s *service) Close() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.closed = true
}
