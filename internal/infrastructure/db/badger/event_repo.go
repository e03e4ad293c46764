package badgerdb

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/raffle-network/raffle/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
	log "github.com/sirupsen/logrus"
)

const (
	eventStoreDir   = "raffle-events"
	eventsQueueSize = 128
)

type eventsDTO struct {
	Events [][]byte
}

type eventRepository struct {
	store     *badgerhold.Store
	lock      *sync.Mutex
	chUpdates chan []domain.Event
	handler   func(events []domain.Event)
	done      chan struct{}
	wg        sync.WaitGroup
}

func NewRaffleEventRepository(config ...interface{}) (domain.RaffleEventRepository, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}

	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return nil, fmt.Errorf("invalid logger")
		}
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, eventStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open raffle events store: %s", err)
	}
	repo := &eventRepository{
		store:     store,
		lock:      &sync.Mutex{},
		chUpdates: make(chan []domain.Event, eventsQueueSize),
		done:      make(chan struct{}),
	}
	repo.wg.Add(1)
	go repo.listen()
	return repo, nil
}

// Save appends events to the stream of the raffle with the given id and
// returns the raffle rebuilt from the whole stream. Handlers receive the
// saved batches in order.
// TODO: compact the events of settled rounds into a snapshot, the stream of a
// long running raffle grows with every entry.
func (r *eventRepository) Save(
	ctx context.Context, id string, events ...domain.Event,
) (*domain.Raffle, error) {
	allEvents, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}

	allEvents = append(allEvents, events...)
	if err := r.upsert(ctx, id, allEvents); err != nil {
		return nil, err
	}

	r.publishEvents(events)
	return domain.NewRaffleFromEvents(allEvents), nil
}

func (r *eventRepository) Load(
	ctx context.Context, id string,
) (*domain.Raffle, error) {
	events, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.NewRaffleFromEvents(events), nil
}

func (r *eventRepository) RegisterEventsHandler(
	handler func(events []domain.Event),
) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.handler = handler
}

func (r *eventRepository) Close() {
	close(r.done)
	r.wg.Wait()
	r.store.Close()
}

func (r *eventRepository) get(
	ctx context.Context, id string,
) ([]domain.Event, error) {
	dto := eventsDTO{}
	var err error
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxGet(tx, id, &dto)
	} else {
		err = r.store.Get(id, &dto)
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get events with id %s: %s", id, err)
	}

	return deserializeEvents(dto.Events)
}

func (r *eventRepository) upsert(
	ctx context.Context, id string, events []domain.Event,
) error {
	buf, err := serializeEvents(events)
	if err != nil {
		return err
	}
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxUpsert(tx, id, buf)
	} else {
		err = r.store.Upsert(id, buf)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert events with id %s: %s", id, err)
	}
	return nil
}

func (r *eventRepository) listen() {
	defer r.wg.Done()

	for {
		select {
		case <-r.done:
			// flush what was saved before closing
			for {
				select {
				case events := <-r.chUpdates:
					r.runHandler(events)
				default:
					return
				}
			}
		case events := <-r.chUpdates:
			r.runHandler(events)
		}
	}
}

func (r *eventRepository) publishEvents(events []domain.Event) {
	select {
	case <-r.done:
	case r.chUpdates <- events:
	}
}

func (r *eventRepository) runHandler(events []domain.Event) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.handler == nil {
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("recovered from panic in events handler: %v", rec)
		}
	}()
	r.handler(events)
}
