package favorite

import "context"

// Store persists each account's favourite venues.
type Store interface {
	ListVenues(ctx context.Context, accountID string) ([]string, error)
	Add(ctx context.Context, accountID, venue string) error
	Remove(ctx context.Context, accountID, venue string) error
}
