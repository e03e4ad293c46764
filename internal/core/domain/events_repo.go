package domain

import "context"

type RaffleEventRepository interface {
	Save(ctx context.Context, id string, events ...Event) (*Raffle, error)
	Load(ctx context.Context, id string) (*Raffle, error)
	// RegisterEventsHandler sets the function called with every batch of
	// events right after it is persisted.
	RegisterEventsHandler(handler func(events []Event))
	Close()
}
