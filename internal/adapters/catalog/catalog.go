// Package catalog implements station metadata and primary descriptor
// lookups over a SQL database (sqlite3 or Postgres through pgx).
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/bft-labs/aq2rdb/internal/domain"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS station (
		agency_cd TEXT NOT NULL,
		site_no TEXT NOT NULL,
		station_nm TEXT NOT NULL DEFAULT '',
		tz_cd TEXT NOT NULL DEFAULT '',
		local_time_fg TEXT NOT NULL DEFAULT 'N',
		PRIMARY KEY (agency_cd, site_no)
	)`,
	`CREATE TABLE IF NOT EXISTS primary_dd (
		agency_cd TEXT NOT NULL,
		site_no TEXT NOT NULL,
		parm_cd TEXT NOT NULL,
		dd_id TEXT NOT NULL,
		PRIMARY KEY (agency_cd, site_no, parm_cd)
	)`,
}

// Catalog answers station and descriptor queries from a database.
type Catalog struct {
	db     *sql.DB
	driver string
}

// Open connects to the catalog database.
func Open(ctx context.Context, driver, dsn string) (*Catalog, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: unsupported catalog driver %q", domain.ErrConfiguration, driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open catalog: %v", domain.ErrResource, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: connect catalog: %v", domain.ErrResource, err)
	}
	return New(db, driver), nil
}

// New wraps an open database handle.
func New(db *sql.DB, driver string) *Catalog {
	return &Catalog{db: db, driver: driver}
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Migrate creates the catalog tables if they do not exist.
func (c *Catalog) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate catalog: %w", err)
		}
	}
	return nil
}

// Station returns the metadata of agency/station.
func (c *Catalog) Station(ctx context.Context, agency, station string) (domain.Station, error) {
	s := domain.Station{Agency: agency, Number: station}
	var localTime string
	err := c.db.QueryRowContext(ctx, c.rebind(
		`SELECT station_nm, tz_cd, local_time_fg FROM station WHERE agency_cd = ? AND site_no = ?`),
		agency, station).Scan(&s.Name, &s.TimeZone, &localTime)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Station{}, fmt.Errorf("%w: %s %s", domain.ErrStationNotFound, agency, station)
	}
	if err != nil {
		return domain.Station{}, fmt.Errorf("%w: station lookup: %v", domain.ErrCollaborator, err)
	}
	s.DST = strings.EqualFold(localTime, "Y")
	return s, nil
}

// PrimaryDD returns the primary descriptor for parameter at agency/station.
func (c *Catalog) PrimaryDD(ctx context.Context, agency, station, parameter string) (string, error) {
	var dd string
	err := c.db.QueryRowContext(ctx, c.rebind(
		`SELECT dd_id FROM primary_dd WHERE agency_cd = ? AND site_no = ? AND parm_cd = ?`),
		agency, station, parameter).Scan(&dd)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNoPrimaryDD
	}
	if err != nil {
		return "", fmt.Errorf("%w: primary descriptor lookup: %v", domain.ErrCollaborator, err)
	}
	return dd, nil
}

// PutStation inserts or replaces a station.
func (c *Catalog) PutStation(ctx context.Context, s domain.Station) error {
	localTime := "N"
	if s.DST {
		localTime = "Y"
	}
	_, err := c.db.ExecContext(ctx, c.rebind(
		`INSERT INTO station (agency_cd, site_no, station_nm, tz_cd, local_time_fg) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (agency_cd, site_no) DO UPDATE SET
			station_nm = excluded.station_nm, tz_cd = excluded.tz_cd, local_time_fg = excluded.local_time_fg`),
		s.Agency, s.Number, s.Name, s.TimeZone, localTime)
	if err != nil {
		return fmt.Errorf("put station %s %s: %w", s.Agency, s.Number, err)
	}
	return nil
}

// PutPrimaryDD inserts or replaces the primary descriptor of a parameter.
func (c *Catalog) PutPrimaryDD(ctx context.Context, agency, station, parameter, dd string) error {
	_, err := c.db.ExecContext(ctx, c.rebind(
		`INSERT INTO primary_dd (agency_cd, site_no, parm_cd, dd_id) VALUES (?, ?, ?, ?)
		ON CONFLICT (agency_cd, site_no, parm_cd) DO UPDATE SET dd_id = excluded.dd_id`),
		agency, station, parameter, dd)
	if err != nil {
		return fmt.Errorf("put primary descriptor %s %s %s: %w", agency, station, parameter, err)
	}
	return nil
}

// rebind rewrites ? placeholders as $n for Postgres.
func (c *Catalog) rebind(query string) string {
	if c.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
