package ports

import (
	"context"

	"github.com/bft-labs/aq2rdb/internal/domain"
)

// StationMetadataService looks up station metadata.
type StationMetadataService interface {
	// Station returns the metadata of agency/station.
	// Returns an error wrapping domain.ErrStationNotFound when unknown.
	Station(ctx context.Context, agency, station string) (domain.Station, error)
}

// PrimaryDDResolver finds the primary descriptor for a parameter code at
// a station.
type PrimaryDDResolver interface {
	// PrimaryDD returns the 4-character descriptor id.
	// Returns an error wrapping domain.ErrNoPrimaryDD on a miss.
	PrimaryDD(ctx context.Context, agency, station, parameter string) (string, error)
}
