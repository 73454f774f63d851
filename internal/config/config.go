// Package config loads process settings from the environment and the
// region table from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"pokerfinder/internal/domain/geo"
	"pokerfinder/internal/domain/occurrence"
	"pokerfinder/internal/domain/region"
)

// Prefix is the environment variable prefix, e.g. POKER_ADDR.
const Prefix = "POKER"

// Config is the process configuration.
type Config struct {
	Addr        string `envconfig:"ADDR" default:":8080"`
	DBPath      string `envconfig:"DB_PATH" default:"pokerfinder.db"`
	Env         string `envconfig:"ENV" default:"development"`
	RegionsFile string `envconfig:"REGIONS_FILE"`
	RefreshCron string `envconfig:"REFRESH_CRON" default:"*/15 * * * *"`
	CSRFKey     string `envconfig:"CSRF_KEY"`
	AdminEmail  string `envconfig:"ADMIN_EMAIL"`
	AdminPass   string `envconfig:"ADMIN_PASSWORD"`

	SlowQueryMs   int `envconfig:"SLOW_QUERY_MS" default:"50"`
	SlowRequestMs int `envconfig:"SLOW_REQUEST_MS" default:"200"`

	ConfirmationExpiry time.Duration `envconfig:"CONFIRMATION_EXPIRY" default:"6h"`
	CompletedAfter     time.Duration `envconfig:"COMPLETED_AFTER" default:"5h"`
	ConfirmableFor     time.Duration `envconfig:"CONFIRMABLE_FOR" default:"5h"`
	StartingSoonWithin time.Duration `envconfig:"STARTING_SOON_WITHIN" default:"2h"`
}

// ErrInvalidPolicy is returned when a policy duration is not positive.
var ErrInvalidPolicy = errors.New("policy durations must be positive")

// Load reads Config from POKER_* variables.
// PRE: none
// POST: Returns a Config with defaults applied, or an error naming the bad variable
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return Config{}, err
	}
	p := c.Policy()
	if p.ConfirmationExpiry <= 0 || p.CompletedAfter <= 0 || p.ConfirmableFor <= 0 || p.StartingSoonWithin <= 0 {
		return Config{}, ErrInvalidPolicy
	}
	return c, nil
}

// IsProduction reports whether the process runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// SlowQuery returns the slow query threshold.
func (c Config) SlowQuery() time.Duration {
	return time.Duration(c.SlowQueryMs) * time.Millisecond
}

// SlowRequest returns the slow request threshold.
func (c Config) SlowRequest() time.Duration {
	return time.Duration(c.SlowRequestMs) * time.Millisecond
}

// Policy returns the occurrence thresholds.
func (c Config) Policy() occurrence.Policy {
	return occurrence.Policy{
		ConfirmationExpiry: c.ConfirmationExpiry,
		CompletedAfter:     c.CompletedAfter,
		ConfirmableFor:     c.ConfirmableFor,
		StartingSoonWithin: c.StartingSoonWithin,
	}
}

// regionsFile is the YAML layout of the regions file.
type regionsFile struct {
	Regions []region.Region `yaml:"regions"`
}

// LoadRegions reads the region table. An empty path yields DefaultRegions.
// PRE: none
// POST: Every returned region is valid and slugs are unique
func LoadRegions(path string) ([]region.Region, error) {
	if path == "" {
		return DefaultRegions(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read regions file: %w", err)
	}
	return ParseRegions(b)
}

// ParseRegions decodes and validates a regions document.
func ParseRegions(b []byte) ([]region.Region, error) {
	var f regionsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse regions: %w", err)
	}
	if len(f.Regions) == 0 {
		return nil, errors.New("regions file lists no regions")
	}
	seen := make(map[string]bool, len(f.Regions))
	for _, r := range f.Regions {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("region %q: %w", r.Slug, err)
		}
		if seen[r.Slug] {
			return nil, fmt.Errorf("region %q listed twice", r.Slug)
		}
		seen[r.Slug] = true
	}
	return f.Regions, nil
}

// DefaultRegions is used when no regions file is configured. It has no
// feed URLs, so listings only arrive through an admin refresh once a file
// is provided.
func DefaultRegions() []region.Region {
	return []region.Region{
		{
			Slug:     "auckland",
			Name:     "Auckland",
			Timezone: "Pacific/Auckland",
			Venues: map[string]region.VenueCoordinate{
				"Sky City": {Coordinate: geo.Coordinate{Lat: -36.8485, Lng: 174.7622}, Address: "Victoria St W, Auckland CBD"},
			},
		},
		{
			Slug:     "wellington",
			Name:     "Wellington",
			Timezone: "Pacific/Auckland",
			Venues:   map[string]region.VenueCoordinate{},
		},
	}
}
