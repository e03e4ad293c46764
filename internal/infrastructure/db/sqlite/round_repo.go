package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/raffle-network/raffle/internal/core/domain"
	"github.com/raffle-network/raffle/internal/infrastructure/db/sqlite/sqlc/queries"
)

type roundRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewRoundRepository(config ...interface{}) (domain.RoundRepository, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config")
	}
	db, ok := config[0].(*sql.DB)
	if !ok {
		return nil, fmt.Errorf("cannot open round repository: invalid config, expected db at 0")
	}

	return &roundRepository{
		db:      db,
		querier: queries.New(db),
	}, nil
}

func (r *roundRepository) Close() {
	_ = r.db.Close()
}

func (r *roundRepository) AddRound(
	ctx context.Context, round domain.SettledRound,
) error {
	txBody := func(querierWithTx *queries.Queries) error {
		return querierWithTx.UpsertSettledRound(
			ctx,
			queries.UpsertSettledRoundParams{
				RaffleID:     round.RaffleId,
				RoundID:      int64(round.RoundId),
				RequestID:    round.RequestId,
				RandomWord:   round.RandomWord,
				WinnerIndex:  int64(round.WinnerIndex),
				Winner:       round.Winner,
				Payout:       strconv.FormatUint(round.Payout, 10),
				Participants: int64(round.Participants),
				Txid:         round.Txid,
				OpenedAt:     round.OpenedAt,
				SettledAt:    round.SettledAt,
			},
		)
	}

	return execTx(ctx, r.db, txBody)
}

func (r *roundRepository) GetRound(
	ctx context.Context, raffleId string, roundId uint64,
) (*domain.SettledRound, error) {
	row, err := r.querier.SelectSettledRound(ctx, queries.SelectSettledRoundParams{
		RaffleID: raffleId,
		RoundID:  int64(roundId),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf(
				"round %d of raffle %s %w", roundId, raffleId, domain.ErrRoundNotFound,
			)
		}
		return nil, err
	}

	round, err := rowToSettledRound(row)
	if err != nil {
		return nil, err
	}
	return &round, nil
}

func (r *roundRepository) GetRounds(
	ctx context.Context, raffleId string,
) ([]domain.SettledRound, error) {
	rows, err := r.querier.SelectSettledRounds(ctx, raffleId)
	if err != nil {
		return nil, err
	}

	rounds := make([]domain.SettledRound, 0, len(rows))
	for _, row := range rows {
		round, err := rowToSettledRound(row)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, round)
	}
	return rounds, nil
}

func rowToSettledRound(row queries.SettledRound) (domain.SettledRound, error) {
	payout, err := strconv.ParseUint(row.Payout, 10, 64)
	if err != nil {
		return domain.SettledRound{}, fmt.Errorf("invalid payout %s: %s", row.Payout, err)
	}

	return domain.SettledRound{
		RaffleId:     row.RaffleID,
		RoundId:      uint64(row.RoundID),
		RequestId:    row.RequestID,
		RandomWord:   row.RandomWord,
		WinnerIndex:  uint64(row.WinnerIndex),
		Winner:       row.Winner,
		Payout:       payout,
		Participants: uint64(row.Participants),
		Txid:         row.Txid,
		OpenedAt:     row.OpenedAt,
		SettledAt:    row.SettledAt,
	}, nil
}
