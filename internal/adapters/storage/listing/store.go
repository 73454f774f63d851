package listing

import (
	"context"

	domain "pokerfinder/internal/domain/listing"
	"pokerfinder/internal/domain/slot"
)

// Store persists the cached game feed per region.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.GameListing, error)
	ListByRegion(ctx context.Context, region string) ([]domain.GameListing, error)
	ListByRegionAndDay(ctx context.Context, region string, day slot.Weekday, date string) ([]domain.GameListing, error)
	ReplaceRegion(ctx context.Context, region string, listings []domain.GameListing) error
	CountByRegion(ctx context.Context, region string) (int, error)
}
