package confirmation

import (
	"context"
	"errors"

	domain "pokerfinder/internal/domain/confirmation"
)

// ErrExpired is returned by AppendUnique when the aggregate already exists
// and expired before the entry's confirmation time.
var ErrExpired = errors.New("confirmation aggregate has expired")

// Store persists crowd confirmations.
type Store interface {
	Get(ctx context.Context, key string) (domain.Aggregate, bool, error)
	AppendUnique(ctx context.Context, seed domain.Aggregate, entry domain.Entry) (domain.Aggregate, bool, error)
}
