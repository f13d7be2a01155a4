package catalog

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v2"

	"github.com/bft-labs/aq2rdb/internal/domain"
)

// Seed is the YAML document accepted by Load.
type Seed struct {
	Stations  []SeedStation   `yaml:"stations"`
	PrimaryDD []SeedPrimaryDD `yaml:"primary_dd"`
}

// SeedStation is one station entry of a seed document.
type SeedStation struct {
	Agency   string `yaml:"agency"`
	Number   string `yaml:"number"`
	Name     string `yaml:"name"`
	TimeZone string `yaml:"time_zone"`
	DST      bool   `yaml:"dst"`
}

// SeedPrimaryDD is one primary descriptor entry of a seed document.
type SeedPrimaryDD struct {
	Agency    string `yaml:"agency"`
	Station   string `yaml:"station"`
	Parameter string `yaml:"parameter"`
	DDID      string `yaml:"ddid"`
}

// Load reads a YAML seed document from r and stores its entries. It
// returns the number of stations and descriptors stored.
func (c *Catalog) Load(ctx context.Context, r io.Reader) (int, int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, 0, fmt.Errorf("read seed: %w", err)
	}
	var seed Seed
	if err := yaml.UnmarshalStrict(data, &seed); err != nil {
		return 0, 0, fmt.Errorf("parse seed: %w", err)
	}

	for _, s := range seed.Stations {
		agency := s.Agency
		if agency == "" {
			agency = domain.DefaultAgency
		}
		st := domain.Station{Agency: agency, Number: s.Number, Name: s.Name, TimeZone: s.TimeZone, DST: s.DST}
		if err := c.PutStation(ctx, st); err != nil {
			return 0, 0, err
		}
	}
	for _, p := range seed.PrimaryDD {
		agency := p.Agency
		if agency == "" {
			agency = domain.DefaultAgency
		}
		if err := c.PutPrimaryDD(ctx, agency, p.Station, p.Parameter, p.DDID); err != nil {
			return len(seed.Stations), 0, err
		}
	}
	return len(seed.Stations), len(seed.PrimaryDD), nil
}
