package repository

import "context"

// TxRepos bundles the repositories scoped to one store transaction.
type TxRepos struct {
	Trips        TripRepository
	Reservations ReservationRepository
}

// TxManager runs a function against the store as a single atomic unit.
// Every write made through the TxRepos commits together or not at all;
// this is the only serialization point in the engine.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(TxRepos) error) error
}
