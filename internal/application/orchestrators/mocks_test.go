package orchestrators

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	confirmStore "pokerfinder/internal/adapters/storage/confirmation"
	"pokerfinder/internal/domain/account"
	"pokerfinder/internal/domain/confirmation"
	"pokerfinder/internal/domain/listing"
	"pokerfinder/internal/domain/region"
)

// mockConfirmationStore implements ConfirmationStoreForConfirm in memory.
type mockConfirmationStore struct {
	aggregates map[string]confirmation.Aggregate
	err        error
}

func newMockConfirmationStore() *mockConfirmationStore {
	return &mockConfirmationStore{aggregates: make(map[string]confirmation.Aggregate)}
}

// AppendUnique implements ConfirmationStoreForConfirm.
// PRE: seed.Key is non-empty
// POST: entry is added once per user; Count tracks len(Entries)
func (m *mockConfirmationStore) AppendUnique(_ context.Context, seed confirmation.Aggregate, entry confirmation.Entry) (confirmation.Aggregate, bool, error) {
	if m.err != nil {
		return confirmation.Aggregate{}, false, m.err
	}
	agg, ok := m.aggregates[seed.Key]
	if !ok {
		agg = seed
		agg.Entries = nil
		agg.LastConfirmedAt = entry.ConfirmedAt
	}
	if entry.ConfirmedAt.After(agg.ExpiresAt) {
		return confirmation.Aggregate{}, false, confirmStore.ErrExpired
	}
	if agg.HasUser(entry.UserID) {
		return agg, false, nil
	}
	agg.Entries = append(agg.Entries, entry)
	agg.Count = len(agg.Entries)
	agg.LastConfirmedAt = entry.ConfirmedAt
	m.aggregates[seed.Key] = agg
	return agg, true, nil
}

// mockAccountStore implements the account store interfaces in memory.
type mockAccountStore struct {
	accounts map[string]account.Account // by ID
	saves    int
}

func newMockAccountStore(accts ...account.Account) *mockAccountStore {
	m := &mockAccountStore{accounts: make(map[string]account.Account)}
	for _, a := range accts {
		m.accounts[a.ID] = a
	}
	return m
}

// GetByEmail implements AccountStoreForLogin.
func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (account.Account, error) {
	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return account.Account{}, fmt.Errorf("account not found: %w", sql.ErrNoRows)
}

// Save implements AccountStoreForLogin.
func (m *mockAccountStore) Save(_ context.Context, a account.Account) error {
	m.accounts[a.ID] = a
	m.saves++
	return nil
}

// Count implements AccountStoreForRegister.
func (m *mockAccountStore) Count(_ context.Context) (int, error) {
	return len(m.accounts), nil
}

// mockFeed implements FeedFetcher.
type mockFeed struct {
	listings map[string][]listing.GameListing
	changed  bool
	err      error
	calls    int
}

// Fetch implements FeedFetcher.
func (m *mockFeed) Fetch(_ context.Context, r region.Region) ([]listing.GameListing, bool, error) {
	m.calls++
	if m.err != nil {
		return nil, false, m.err
	}
	return m.listings[r.Slug], m.changed, nil
}

// mockListingStore implements ListingStoreForRefresh.
type mockListingStore struct {
	byRegion map[string][]listing.GameListing
}

// ReplaceRegion implements ListingStoreForRefresh.
func (m *mockListingStore) ReplaceRegion(_ context.Context, region string, listings []listing.GameListing) error {
	if m.byRegion == nil {
		m.byRegion = make(map[string][]listing.GameListing)
	}
	m.byRegion[region] = listings
	return nil
}
