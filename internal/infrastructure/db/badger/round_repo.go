package badgerdb

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/raffle-network/raffle/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const roundStoreDir = "rounds"

type roundRepository struct {
	store *badgerhold.Store
}

func NewRoundRepository(config ...interface{}) (domain.RoundRepository, error) {
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
		dir = filepath.Join(baseDir, roundStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open round store: %s", err)
	}

	return &roundRepository{store}, nil
}

func (r *roundRepository) AddRound(
	ctx context.Context, round domain.SettledRound,
) error {
	key := roundKey(round.RaffleId, round.RoundId)
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		return r.store.TxUpsert(tx, key, round)
	}
	return r.store.Upsert(key, round)
}

func (r *roundRepository) GetRound(
	ctx context.Context, raffleId string, roundId uint64,
) (*domain.SettledRound, error) {
	query := badgerhold.Where("RaffleId").Eq(raffleId).And("RoundId").Eq(roundId)
	rounds, err := r.findRounds(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(rounds) <= 0 {
		return nil, fmt.Errorf(
			"round %d of raffle %s %w", roundId, raffleId, domain.ErrRoundNotFound,
		)
	}
	round := &rounds[0]
	return round, nil
}

func (r *roundRepository) GetRounds(
	ctx context.Context, raffleId string,
) ([]domain.SettledRound, error) {
	query := badgerhold.Where("RaffleId").Eq(raffleId)
	rounds, err := r.findRounds(ctx, query)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rounds, func(i, j int) bool {
		return rounds[i].RoundId < rounds[j].RoundId
	})
	return rounds, nil
}

func (r *roundRepository) Close() {
	r.store.Close()
}

func (r *roundRepository) findRounds(
	ctx context.Context, query *badgerhold.Query,
) ([]domain.SettledRound, error) {
	var rounds []domain.SettledRound
	var err error

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxFind(tx, &rounds, query)
	} else {
		err = r.store.Find(&rounds, query)
	}

	return rounds, err
}

func roundKey(raffleId string, roundId uint64) string {
	return fmt.Sprintf("%s/%d", raffleId, roundId)
}
