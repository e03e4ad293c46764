package badgerdb

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/raffle-network/raffle/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

func createDB(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	if !isInMemory {
		ticker := time.NewTicker(30 * time.Minute)

		go func() {
			for {
				<-ticker.C
				err := db.Badger().RunValueLogGC(0.5)
				if err != nil && err != badger.ErrNoRewrite && logger != nil {
					logger.Errorf("%s", err)
				}
			}
		}()
	}

	return db, nil
}

func serializeEvents(events []domain.Event) (*eventsDTO, error) {
	rawEvents := make([][]byte, 0, len(events))
	for _, event := range events {
		buf, err := json.Marshal(event)
		if err != nil {
			return nil, err
		}
		rawEvents = append(rawEvents, buf)
	}
	return &eventsDTO{rawEvents}, nil
}

func deserializeEvents(rawEvents [][]byte) ([]domain.Event, error) {
	events := make([]domain.Event, 0, len(rawEvents))
	for _, buf := range rawEvents {
		event, err := deserializeEvent(buf)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func deserializeEvent(buf []byte) (domain.Event, error) {
	var header domain.RaffleEvent
	if err := json.Unmarshal(buf, &header); err != nil {
		return nil, err
	}

	switch header.Type {
	case domain.EventTypeRaffleStarted:
		return unmarshalEvent[domain.RaffleStarted](buf)
	case domain.EventTypeRaffleEntered:
		return unmarshalEvent[domain.RaffleEntered](buf)
	case domain.EventTypeUpkeepPerformed:
		return unmarshalEvent[domain.UpkeepPerformed](buf)
	case domain.EventTypeRandomnessFulfilled:
		return unmarshalEvent[domain.RandomnessFulfilled](buf)
	case domain.EventTypeWinnerPicked:
		return unmarshalEvent[domain.WinnerPicked](buf)
	case domain.EventTypeSettlementFailed:
		return unmarshalEvent[domain.SettlementFailed](buf)
	default:
		return nil, fmt.Errorf("unknown event type %d", header.Type)
	}
}

func unmarshalEvent[T domain.Event](buf []byte) (domain.Event, error) {
	var event T
	if err := json.Unmarshal(buf, &event); err != nil {
		return nil, err
	}
	return event, nil
}
