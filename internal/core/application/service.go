package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/raffle-network/raffle/internal/core/domain"
	"github.com/raffle-network/raffle/internal/core/ports"
	"github.com/raffle-network/raffle/internal/metric"
	log "github.com/sirupsen/logrus"
)

type service struct {
	name                    string
	automationInterval      time.Duration
	pendingRequestWarnAfter time.Duration

	oracle      ports.RandomnessOracle
	wallet      ports.WalletService
	repoManager ports.RepoManager
	scheduler   ports.SchedulerService
	requests    *requestManager
	settlement  *settlementEngine
	listeners   *listenersMap
	now         func() time.Time

	// lock serializes every state-changing operation on the raffle.
	lock     *sync.Mutex
	raffle   *domain.Raffle
	settling bool

	stopFulfillments context.CancelFunc
	wg               sync.WaitGroup
}

// NewService restores the raffle with the given name from the event store,
// or starts a new one with config if none exists yet.
// A nil scheduler disables the in-process keeper, leaving upkeeps to an
// external automation network.
func NewService(
	name string, config domain.Config,
	oracle ports.RandomnessOracle, wallet ports.WalletService,
	repoManager ports.RepoManager, scheduler ports.SchedulerService,
	automationInterval, pendingRequestWarnAfter time.Duration,
) (Service, error) {
	return newService(
		name, config, oracle, wallet, repoManager, scheduler,
		automationInterval, pendingRequestWarnAfter, time.Now,
	)
}

func newService(
	name string, config domain.Config,
	oracle ports.RandomnessOracle, wallet ports.WalletService,
	repoManager ports.RepoManager, scheduler ports.SchedulerService,
	automationInterval, pendingRequestWarnAfter time.Duration,
	now func() time.Time,
) (*service, error) {
	if !strings.EqualFold(config.Coordinator, oracle.Coordinator()) {
		return nil, fmt.Errorf(
			"configured coordinator %s does not match oracle coordinator %s",
			config.Coordinator, oracle.Coordinator(),
		)
	}
	if scheduler != nil && automationInterval <= 0 {
		return nil, fmt.Errorf("automation interval must be greater than 0")
	}

	svc := &service{
		name:                    name,
		automationInterval:      automationInterval,
		pendingRequestWarnAfter: pendingRequestWarnAfter,
		oracle:                  oracle,
		wallet:                  wallet,
		repoManager:             repoManager,
		scheduler:               scheduler,
		requests:                newRequestManager(oracle),
		settlement:              newSettlementEngine(wallet),
		listeners:               newListenersMap(),
		now:                     now,
		lock:                    &sync.Mutex{},
	}

	repoManager.Events().RegisterEventsHandler(svc.onEvents)

	ctx := context.Background()
	raffle, err := repoManager.Events().Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load raffle %s: %s", name, err)
	}

	if raffle.IsStarted() {
		if raffle.Config != config {
			return nil, fmt.Errorf(
				"raffle %s already exists with a different configuration", name,
			)
		}
		svc.raffle = raffle
		svc.restoreSettledRounds(ctx)
		metric.PooledBalance.Set(float64(raffle.Balance()))
		metric.CurrentRound.Set(float64(raffle.RoundId))
		log.Infof(
			"restored raffle %s at round %d in state %s",
			name, raffle.RoundId, raffle.State,
		)
		return svc, nil
	}

	raffle = domain.NewRaffle(name, config)
	events, err := raffle.Start(svc.timestamp())
	if err != nil {
		return nil, err
	}
	if _, err := repoManager.Events().Save(ctx, name, events...); err != nil {
		return nil, fmt.Errorf("failed to store new raffle events: %s", err)
	}
	svc.raffle = raffle
	log.Infof("started new raffle %s", name)

	return svc, nil
}

func (s *service) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopFulfillments = cancel

	s.wg.Add(1)
	go s.listenToFulfillments(ctx)

	if err := s.resumePendingRequest(ctx); err != nil {
		return err
	}

	if s.scheduler == nil {
		log.Info("in-process automation disabled, waiting for external upkeeps")
		return nil
	}

	startImmediately := true
	if err := s.scheduler.ScheduleTask(
		s.automationInterval, startImmediately, s.performUpkeepIfNeeded,
	); err != nil {
		return err
	}
	s.scheduler.Start()
	log.Debugf("scheduled upkeep checks every %s", s.automationInterval)
	return nil
}

func (s *service) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
		log.Debug("stopped scheduler")
	}
	if s.stopFulfillments != nil {
		s.stopFulfillments()
	}
	s.oracle.Close()
	s.wg.Wait()
	log.Debug("closed oracle")

	s.wallet.Close()
	log.Debug("closed wallet")

	s.repoManager.Close()
	log.Debug("closed connection to db")

	s.listeners.closeAll()
}

func (s *service) Enter(
	ctx context.Context, participant string, payment uint64,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	events, err := s.raffle.Enter(participant, payment)
	if err != nil {
		return err
	}
	if err := s.save(ctx, events); err != nil {
		return err
	}

	log.Debugf(
		"%s entered round %d of raffle %s", participant, s.raffle.RoundId, s.name,
	)
	return nil
}

func (s *service) CheckUpkeep(_ context.Context) (bool, domain.UpkeepReason) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.raffle.CheckUpkeep(s.timestamp())
}

func (s *service) PerformUpkeep(ctx context.Context) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	requestId, events, err := s.requests.requestRandomness(
		ctx, s.raffle, s.timestamp(),
	)
	if err != nil {
		return "", err
	}
	if err := s.save(ctx, events); err != nil {
		return "", err
	}

	log.Infof(
		"requested randomness for round %d of raffle %s with request id %s",
		s.raffle.RoundId, s.name, requestId,
	)
	return requestId, nil
}

func (s *service) FulfillRandomness(
	ctx context.Context, caller, requestId string, randomWords []*uint256.Int,
) error {
	if !strings.EqualFold(caller, s.oracle.Coordinator()) {
		return fmt.Errorf(
			"%w: got %s, expected %s",
			domain.ErrOnlyCoordinatorCanFulfill, caller, s.oracle.Coordinator(),
		)
	}
	if len(randomWords) <= 0 || randomWords[0] == nil {
		return fmt.Errorf("missing random words")
	}

	s.lock.Lock()
	if s.settling {
		s.lock.Unlock()
		return domain.ErrReentrantCall
	}

	pending, _ := s.raffle.PendingRequest()
	now := s.timestamp()
	events, err := s.requests.resolve(s.raffle, requestId, randomWords[0], now)
	if err != nil {
		s.lock.Unlock()
		return err
	}
	if err := s.save(ctx, events); err != nil {
		s.lock.Unlock()
		return err
	}
	metric.ObserveFulfillment(s.name, pending.RequestedAt, now)

	settlement, _ := s.raffle.PendingSettlement()
	s.settling = true
	s.lock.Unlock()

	log.Infof(
		"selected winner %s (index %d of %d) for round %d of raffle %s",
		settlement.Winner, settlement.WinnerIndex, settlement.Participants,
		settlement.RoundId, s.name,
	)

	return s.settle(ctx, settlement)
}

func (s *service) RetrySettlement(ctx context.Context) error {
	s.lock.Lock()
	if s.settling {
		s.lock.Unlock()
		return domain.ErrReentrantCall
	}
	settlement, ok := s.raffle.PendingSettlement()
	if !ok {
		s.lock.Unlock()
		return domain.ErrNoSettlementPending
	}
	s.settling = true
	s.lock.Unlock()

	log.Infof(
		"retrying payout for round %d of raffle %s (attempt %d)",
		settlement.RoundId, s.name, settlement.Attempts+1,
	)

	return s.settle(ctx, settlement)
}

func (s *service) GetInfo(_ context.Context) (*RaffleInfo, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	r := s.raffle
	now := s.timestamp()
	upkeepNeeded, upkeepReason := r.CheckUpkeep(now)
	info := &RaffleInfo{
		Name:                 r.Id,
		EntranceFee:          r.Config.EntranceFee,
		Interval:             r.Config.Interval,
		Coordinator:          r.Config.Coordinator,
		KeyHash:              r.Config.KeyHash,
		SubscriptionId:       r.Config.SubscriptionId,
		RequestConfirmations: r.Config.RequestConfirmations,
		CallbackGasLimit:     r.Config.CallbackGasLimit,
		NumWords:             r.Config.NumWords,
		State:                r.State,
		RoundId:              r.RoundId,
		OpenedAt:             r.OpenedAt,
		Participants:         r.NumberOfParticipants(),
		Balance:              r.Balance(),
		RecentWinner:         r.RecentWinner,
		UpkeepNeeded:         upkeepNeeded,
		UpkeepReason:         upkeepReason,
	}
	if pending, ok := r.PendingRequest(); ok {
		info.PendingRequest = &pending
		info.PendingRequestAge = now - pending.RequestedAt
	}
	if settlement, ok := r.PendingSettlement(); ok {
		info.PendingSettlement = &settlement
	}
	return info, nil
}

func (s *service) GetParticipant(_ context.Context, index uint64) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.raffle.ParticipantAt(index)
}

func (s *service) GetParticipants(_ context.Context) ([]string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.raffle.Participants(), nil
}

func (s *service) GetRound(
	ctx context.Context, roundId uint64,
) (*domain.SettledRound, error) {
	return s.repoManager.Rounds().GetRound(ctx, s.name, roundId)
}

func (s *service) GetRounds(ctx context.Context) ([]domain.SettledRound, error) {
	return s.repoManager.Rounds().GetRounds(ctx, s.name)
}

func (s *service) GetEventsChannel(ctx context.Context) <-chan domain.Event {
	l := s.listeners.push()
	go func() {
		<-ctx.Done()
		s.listeners.delete(l.id)
	}()
	return l.ch
}

// settle transfers the payout outside of the lock. The settling flag keeps
// any other fulfillment or retry out until the outcome is recorded.
func (s *service) settle(
	ctx context.Context, settlement domain.PendingSettlement,
) error {
	txid, payErr := s.settlement.pay(ctx, s.name, settlement)

	s.lock.Lock()
	defer s.lock.Unlock()
	defer func() { s.settling = false }()

	events, err := s.settlement.complete(s.raffle, txid, payErr, s.timestamp())
	if err != nil {
		return err
	}
	if err := s.save(ctx, events); err != nil {
		if payErr == nil {
			log.WithError(err).Errorf(
				"payout %s of round %d was transferred but not recorded, "+
					"settlement must be retried", txid, settlement.RoundId,
			)
		}
		return err
	}

	if payErr != nil {
		log.WithError(payErr).Warnf(
			"failed to pay out round %d of raffle %s to %s",
			settlement.RoundId, s.name, settlement.Winner,
		)
		return fmt.Errorf("%w: %s", domain.ErrTransferFailed, payErr)
	}

	log.Infof(
		"paid %d to winner %s of round %d of raffle %s (txid: %s)",
		settlement.Amount, settlement.Winner, settlement.RoundId, s.name, txid,
	)
	return nil
}

// save persists events already applied to the in-memory raffle. If that
// fails the raffle is rebuilt from the store so that it doesn't diverge
// from what was persisted.
func (s *service) save(ctx context.Context, events []domain.Event) error {
	if len(events) <= 0 {
		return nil
	}

	if _, err := s.repoManager.Events().Save(ctx, s.name, events...); err != nil {
		raffle, loadErr := s.repoManager.Events().Load(ctx, s.name)
		if loadErr != nil {
			log.WithError(loadErr).Errorf("failed to restore raffle %s", s.name)
		} else {
			s.raffle = raffle
		}
		return fmt.Errorf("failed to store raffle events: %s", err)
	}

	metric.PooledBalance.Set(float64(s.raffle.Balance()))
	metric.CurrentRound.Set(float64(s.raffle.RoundId))
	return nil
}

func (s *service) onEvents(events []domain.Event) {
	ctx := context.Background()

	for _, event := range events {
		switch e := event.(type) {
		case domain.RaffleEntered:
			metric.Entries.Inc()
		case domain.UpkeepPerformed:
			metric.UpkeepsPerformed.Inc()
		case domain.SettlementFailed:
			metric.SettlementFailures.Inc()
		case domain.WinnerPicked:
			metric.WinnersPicked.Inc()

			if err := s.repoManager.Rounds().AddRound(
				ctx, domain.NewSettledRound(e),
			); err != nil {
				log.WithError(err).Warnf("failed to archive round %d", e.RoundId)
			}
		}

		s.listeners.broadcast(event)
	}
}

func (s *service) listenToFulfillments(ctx context.Context) {
	defer s.wg.Done()

	ch := s.oracle.GetFulfillmentChannel(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case fulfillment, ok := <-ch:
			if !ok {
				return
			}
			if err := s.FulfillRandomness(
				ctx, s.oracle.Coordinator(), fulfillment.RequestId,
				fulfillment.RandomWords,
			); err != nil {
				log.WithError(err).Warnf(
					"failed to fulfill randomness request %s", fulfillment.RequestId,
				)
			}
		}
	}
}

// resumePendingRequest re-arms the oracle for a request made before the
// service was restarted.
func (s *service) resumePendingRequest(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	requestId, err := s.requests.resume(ctx, s.raffle)
	if err != nil {
		return err
	}
	if len(requestId) > 0 {
		log.Infof(
			"resumed randomness request %s for round %d of raffle %s",
			requestId, s.raffle.RoundId, s.name,
		)
	}
	return nil
}

// restoreSettledRounds archives again the settled rounds missing from the
// rounds store, for example because the events handler failed to do it.
func (s *service) restoreSettledRounds(ctx context.Context) {
	for _, event := range s.raffle.Events() {
		e, ok := event.(domain.WinnerPicked)
		if !ok {
			continue
		}

		_, err := s.repoManager.Rounds().GetRound(ctx, s.name, e.RoundId)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrRoundNotFound) {
			log.WithError(err).Warnf("failed to get round %d", e.RoundId)
			continue
		}

		if err := s.repoManager.Rounds().AddRound(
			ctx, domain.NewSettledRound(e),
		); err != nil {
			log.WithError(err).Warnf("failed to archive round %d", e.RoundId)
			continue
		}
		log.Infof("archived missing round %d of raffle %s", e.RoundId, s.name)
	}
}

func (s *service) performUpkeepIfNeeded() {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("recovered from panic in upkeep: %v", r)
		}
	}()

	ctx := context.Background()
	s.warnIfStuck()

	if ok, reason := s.CheckUpkeep(ctx); !ok {
		log.Debugf("upkeep not needed for raffle %s: %s", s.name, reason)
		return
	}

	if _, err := s.PerformUpkeep(ctx); err != nil {
		log.WithError(err).Warn("failed to perform upkeep")
	}
}

// warnIfStuck reports rounds left in the calculating state. Randomness is
// never requested again for the same round, an operator has to step in.
func (s *service) warnIfStuck() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if pending, ok := s.raffle.PendingRequest(); ok {
		age := time.Duration(s.timestamp()-pending.RequestedAt) * time.Second
		if s.pendingRequestWarnAfter > 0 && age >= s.pendingRequestWarnAfter {
			log.Warnf(
				"randomness request %s for round %d is still pending after %s",
				pending.RequestId, pending.RoundId, age,
			)
		}
	}
	if settlement, ok := s.raffle.PendingSettlement(); ok && !s.settling {
		log.Warnf(
			"payout of round %d to %s failed %d time(s), last error: %s",
			settlement.RoundId, settlement.Winner, settlement.Attempts,
			settlement.LastError,
		)
	}
}

func (s *service) timestamp() int64 {
	return s.now().Unix()
}
