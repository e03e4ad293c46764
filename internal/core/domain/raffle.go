package domain

import (
	"fmt"

	"github.com/holiman/uint256"
)

const (
	RaffleOpen RaffleState = iota
	RaffleCalculating
)

// RaffleState values are part of the public interface and must not be
// reordered.
type RaffleState int

func (s RaffleState) String() string {
	switch s {
	case RaffleOpen:
		return "OPEN"
	case RaffleCalculating:
		return "CALCULATING"
	default:
		return "UNKNOWN"
	}
}

// Config is the immutable configuration of a raffle instance. It is
// recorded in the first event of the raffle and never changes afterwards.
type Config struct {
	EntranceFee          uint64
	Interval             int64
	Coordinator          string
	KeyHash              string
	SubscriptionId       uint64
	RequestConfirmations uint16
	CallbackGasLimit     uint32
	NumWords             uint32
}

func (c Config) Validate() error {
	if c.EntranceFee <= 0 {
		return fmt.Errorf("entrance fee must be greater than 0")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be greater than 0")
	}
	if len(c.Coordinator) <= 0 {
		return fmt.Errorf("missing oracle coordinator")
	}
	if c.NumWords <= 0 {
		return fmt.Errorf("number of random words must be at least 1")
	}
	return nil
}

// PendingRequest binds the outstanding randomness request to the round it
// was issued for. There is at most one at any time.
type PendingRequest struct {
	RequestId   string
	RoundId     uint64
	RequestedAt int64
}

// PendingSettlement is the winner selected for a round whose payout has
// not been transferred yet.
type PendingSettlement struct {
	RoundId      uint64
	RequestId    string
	RandomWord   string
	WinnerIndex  uint64
	Winner       string
	Amount       uint64
	Participants uint64
	FulfilledAt  int64
	Attempts     int
	LastError    string
}

type Raffle struct {
	Id           string
	Config       Config
	RoundId      uint64
	State        RaffleState
	OpenedAt     int64
	RecentWinner string
	Version      uint
	ledger       Ledger
	pending      *PendingRequest
	settlement   *PendingSettlement
	started      bool
	changes      []Event
}

func NewRaffle(id string, config Config) *Raffle {
	return &Raffle{
		Id:      id,
		Config:  config,
		changes: make([]Event, 0),
	}
}

func NewRaffleFromEvents(events []Event) *Raffle {
	r := &Raffle{}

	for _, event := range events {
		r.On(event, true)
	}

	r.changes = append([]Event{}, events...)

	return r
}

func (r *Raffle) Events() []Event {
	return r.changes
}

func (r *Raffle) On(event Event, replayed bool) {
	switch e := event.(type) {
	case RaffleStarted:
		r.Id = e.Id
		r.Config = e.Config
		r.State = RaffleOpen
		r.OpenedAt = e.Timestamp
		r.started = true
	case RaffleEntered:
		r.ledger.add(e.Participant, e.Amount)
	case UpkeepPerformed:
		r.State = RaffleCalculating
		r.pending = &PendingRequest{
			RequestId:   e.RequestId,
			RoundId:     e.RoundId,
			RequestedAt: e.Timestamp,
		}
	case RandomnessFulfilled:
		r.pending = nil
		r.settlement = &PendingSettlement{
			RoundId:      e.RoundId,
			RequestId:    e.RequestId,
			RandomWord:   e.RandomWord,
			WinnerIndex:  e.WinnerIndex,
			Winner:       e.Winner,
			Amount:       e.Amount,
			Participants: e.Participants,
			FulfilledAt:  e.Timestamp,
		}
	case SettlementFailed:
		if r.settlement != nil {
			settlement := *r.settlement
			settlement.Attempts++
			settlement.LastError = e.Reason
			r.settlement = &settlement
		}
	case WinnerPicked:
		r.ledger.clear()
		r.settlement = nil
		r.RecentWinner = e.Winner
		r.State = RaffleOpen
		r.RoundId = e.RoundId + 1
		r.OpenedAt = e.Timestamp
	}

	if replayed {
		r.Version++
	}
}

func (r *Raffle) Start(now int64) ([]Event, error) {
	if r.started {
		return nil, fmt.Errorf("raffle already started")
	}
	if len(r.Id) <= 0 {
		return nil, fmt.Errorf("missing raffle id")
	}
	if err := r.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid raffle config: %s", err)
	}

	event := RaffleStarted{
		RaffleEvent: RaffleEvent{Id: r.Id, Type: EventTypeRaffleStarted},
		Config:      r.Config,
		Timestamp:   now,
	}
	r.raise(event)

	return []Event{event}, nil
}

func (r *Raffle) Enter(participant string, payment uint64) ([]Event, error) {
	if !r.started {
		return nil, ErrRaffleNotStarted
	}
	if err := validateEntry(participant, r.Config.EntranceFee, payment); err != nil {
		return nil, err
	}
	if r.State != RaffleOpen {
		return nil, ErrRoundNotOpen
	}
	if err := r.ledger.canAdd(payment); err != nil {
		return nil, err
	}

	event := RaffleEntered{
		RaffleEvent: RaffleEvent{Id: r.Id, Type: EventTypeRaffleEntered},
		RoundId:     r.RoundId,
		Participant: participant,
		Amount:      payment,
	}
	r.raise(event)

	return []Event{event}, nil
}

// StartCalculating closes the current round to new entries and binds it to
// the given randomness request. The upkeep conditions are verified again
// here, whatever the caller checked before.
func (r *Raffle) StartCalculating(requestId string, now int64) ([]Event, error) {
	if !r.started {
		return nil, ErrRaffleNotStarted
	}
	if ok, reason := r.CheckUpkeep(now); !ok {
		return nil, r.upkeepNotNeeded(reason)
	}
	if len(requestId) <= 0 {
		return nil, fmt.Errorf("missing request id")
	}

	event := UpkeepPerformed{
		RaffleEvent: RaffleEvent{Id: r.Id, Type: EventTypeUpkeepPerformed},
		RoundId:     r.RoundId,
		RequestId:   requestId,
		Timestamp:   now,
	}
	r.raise(event)

	return []Event{event}, nil
}

// FulfillRandomness consumes the pending request matching requestId and
// records the winner selected with randomWord. The payout is not part of
// this step, see PickWinner and FailSettlement.
func (r *Raffle) FulfillRandomness(
	requestId string, randomWord *uint256.Int, now int64,
) ([]Event, error) {
	if r.State != RaffleCalculating || r.pending == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRequest, requestId)
	}
	if r.pending.RequestId != requestId {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRequest, requestId)
	}
	if randomWord == nil {
		return nil, fmt.Errorf("missing random word")
	}

	index, err := SelectWinner(randomWord, r.ledger.Count())
	if err != nil {
		return nil, err
	}
	winner, err := r.ledger.ParticipantAt(index)
	if err != nil {
		return nil, err
	}

	event := RandomnessFulfilled{
		RaffleEvent:  RaffleEvent{Id: r.Id, Type: EventTypeRandomnessFulfilled},
		RoundId:      r.pending.RoundId,
		RequestId:    requestId,
		RandomWord:   randomWord.Dec(),
		WinnerIndex:  index,
		Winner:       winner,
		Amount:       r.ledger.Balance(),
		Participants: r.ledger.Count(),
		Timestamp:    now,
	}
	r.raise(event)

	return []Event{event}, nil
}

// PickWinner completes the settlement of the round once the payout has been
// transferred: the ledger is cleared and the next round opens.
func (r *Raffle) PickWinner(txid string, now int64) ([]Event, error) {
	if r.settlement == nil {
		return nil, ErrNoSettlementPending
	}
	if len(txid) <= 0 {
		return nil, fmt.Errorf("missing payout txid")
	}

	s := r.settlement
	event := WinnerPicked{
		RaffleEvent:  RaffleEvent{Id: r.Id, Type: EventTypeWinnerPicked},
		RoundId:      s.RoundId,
		RequestId:    s.RequestId,
		RandomWord:   s.RandomWord,
		WinnerIndex:  s.WinnerIndex,
		Winner:       s.Winner,
		Payout:       s.Amount,
		Participants: s.Participants,
		Txid:         txid,
		OpenedAt:     r.OpenedAt,
		Timestamp:    now,
	}
	r.raise(event)

	return []Event{event}, nil
}

// FailSettlement records a failed payout attempt. The round stays in the
// calculating state with its ledger untouched.
func (r *Raffle) FailSettlement(reason string, now int64) ([]Event, error) {
	if r.settlement == nil {
		return nil, ErrNoSettlementPending
	}

	event := SettlementFailed{
		RaffleEvent: RaffleEvent{Id: r.Id, Type: EventTypeSettlementFailed},
		RoundId:     r.settlement.RoundId,
		Winner:      r.settlement.Winner,
		Amount:      r.settlement.Amount,
		Reason:      reason,
		Timestamp:   now,
	}
	r.raise(event)

	return []Event{event}, nil
}

func (r *Raffle) IsStarted() bool {
	return r.started
}

func (r *Raffle) IsOpen() bool {
	return r.started && r.State == RaffleOpen
}

func (r *Raffle) IsCalculating() bool {
	return r.started && r.State == RaffleCalculating
}

func (r *Raffle) Balance() uint64 {
	return r.ledger.Balance()
}

func (r *Raffle) NumberOfParticipants() uint64 {
	return r.ledger.Count()
}

func (r *Raffle) ParticipantAt(index uint64) (string, error) {
	return r.ledger.ParticipantAt(index)
}

func (r *Raffle) Participants() []string {
	return r.ledger.Participants()
}

func (r *Raffle) PendingRequest() (PendingRequest, bool) {
	if r.pending == nil {
		return PendingRequest{}, false
	}
	return *r.pending, true
}

func (r *Raffle) PendingSettlement() (PendingSettlement, bool) {
	if r.settlement == nil {
		return PendingSettlement{}, false
	}
	return *r.settlement, true
}

func (r *Raffle) raise(event Event) {
	if r.changes == nil {
		r.changes = make([]Event, 0)
	}
	r.changes = append(r.changes, event)
	r.On(event, false)
}
