package catalog

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/aq2rdb/internal/domain"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	ctx := context.Background()
	c, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	require.NoError(t, c.Migrate(ctx))
	return c
}

func TestCatalog_Station(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)

	_, err := c.Station(ctx, "USGS", "01646500")
	assert.ErrorIs(t, err, domain.ErrStationNotFound)
	assert.ErrorIs(t, err, domain.ErrCollaborator)

	want := domain.Station{Agency: "USGS", Number: "01646500", Name: "POTOMAC RIVER NEAR WASH, DC", TimeZone: "EST", DST: true}
	require.NoError(t, c.PutStation(ctx, want))
	got, err := c.Station(ctx, "USGS", "01646500")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	want.DST = false
	want.TimeZone = "UTC"
	require.NoError(t, c.PutStation(ctx, want))
	got, err = c.Station(ctx, "USGS", "01646500")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCatalog_PrimaryDD(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)

	_, err := c.PrimaryDD(ctx, "USGS", "01646500", "00060")
	assert.ErrorIs(t, err, domain.ErrNoPrimaryDD)

	require.NoError(t, c.PutPrimaryDD(ctx, "USGS", "01646500", "00060", "0003"))
	dd, err := c.PrimaryDD(ctx, "USGS", "01646500", "00060")
	require.NoError(t, err)
	assert.Equal(t, "0003", dd)
}

func TestCatalog_Load(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)

	seed := `
stations:
  - number: "01646500"
    name: POTOMAC RIVER NEAR WASH, DC
    time_zone: EST
    dst: true
primary_dd:
  - station: "01646500"
    parameter: "00060"
    ddid: "0003"
  - agency: USGS
    station: "01646500"
    parameter: "00065"
    ddid: "0001"
`
	stations, dds, err := c.Load(ctx, strings.NewReader(seed))
	require.NoError(t, err)
	assert.Equal(t, 1, stations)
	assert.Equal(t, 2, dds)

	st, err := c.Station(ctx, domain.DefaultAgency, "01646500")
	require.NoError(t, err)
	assert.Equal(t, "EST", st.TimeZone)
	dd, err := c.PrimaryDD(ctx, "USGS", "01646500", "00065")
	require.NoError(t, err)
	assert.Equal(t, "0001", dd)

	_, _, err = c.Load(ctx, strings.NewReader("stations:\n  - bogus: 1\n"))
	assert.Error(t, err)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRebind(t *testing.T) {
	pg := New(nil, DriverPostgres)
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2", pg.rebind("SELECT a FROM t WHERE b = ? AND c = ?"))
	lite := New(nil, DriverSQLite)
	assert.Equal(t, "WHERE b = ?", lite.rebind("WHERE b = ?"))
}
