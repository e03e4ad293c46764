package ports

import "github.com/raffle-network/raffle/internal/core/domain"

type RepoManager interface {
	Events() domain.RaffleEventRepository
	Rounds() domain.RoundRepository
	Close()
}
