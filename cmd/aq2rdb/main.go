package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/aq2rdb/internal/adapters/catalog"
	"github.com/bft-labs/aq2rdb/internal/adapters/fs"
	logAdapter "github.com/bft-labs/aq2rdb/internal/adapters/log"
	"github.com/bft-labs/aq2rdb/internal/adapters/metrics"
	"github.com/bft-labs/aq2rdb/internal/adapters/prompt"
	"github.com/bft-labs/aq2rdb/internal/app"
	"github.com/bft-labs/aq2rdb/internal/cliconfig"
	"github.com/bft-labs/aq2rdb/internal/domain"
	"github.com/bft-labs/aq2rdb/internal/ports"
)

const longHelp = `Write NWIS time-series requests out as RDB reports.

A single request is given with flags. A control file (-f) holds one
request per row and is written to one file, one file per row (-m) or
standard output.

Exit status: 0 ok, 1 provisional data, 2 no data, 3 bad date range or
run failure, 119..126 usage and hydra errors, 127 file open errors.`

var exampleUsage = strings.TrimSpace(`
  aq2rdb -t dv -n 01646500 -p 00060 -s 00003 -b 19901001 -e 19910930
  aq2rdb -f requests.ctl -o reports.rdb
  aq2rdb -f requests.ctl -o /tmp/reports -m
  aq2rdb serve --listen 127.0.0.1:8081
  aq2rdb watch -f requests.ctl -o reports.rdb
`)

// errUsage marks command-line parse errors.
var errUsage = errors.New("usage error")

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli carries the configuration and logger shared by every command.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string
	log     *logAdapter.ZerologAdapter

	// status is the exit status of the last run, set only when a run happened.
	status domain.Status
	ran    bool
}

func main() {
	c := &cli{cfg: cliconfig.DefaultConfig()}
	root := newRootCommand(c)

	err := root.Execute()
	if err != nil {
		if c.log != nil {
			c.log.Error("aq2rdb", ports.Err(err))
		} else {
			fmt.Fprintln(os.Stderr, "aq2rdb:", err)
		}
	}
	os.Exit(int(c.exitStatus(err)))
}

func newRootCommand(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:               "aq2rdb",
		Short:             "Write NWIS time-series requests out as RDB reports",
		Long:              longHelp,
		Example:           exampleUsage,
		Version:           fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return c.load(cmd) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			deps, closeDeps, err := c.deps(ctx)
			if err != nil {
				return err
			}
			defer closeDeps()

			runner := app.NewRunner(c.runConfig(), deps)
			summary, err := runner.Run(ctx)
			c.status, c.ran = summary.Status, true
			return err
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	bindRequestFlags(root.PersistentFlags(), &c.cfg)
	bindAmbientFlags(root.PersistentFlags(), c)

	root.AddCommand(newServeCommand(c), newWatchCommand(c), newCatalogCommand(c))
	return root
}

// bindRequestFlags registers the legacy single-letter flags.
func bindRequestFlags(fl *pflag.FlagSet, cfg *cliconfig.Config) {
	fl.StringVarP(&cfg.OutputPath, "output", "o", cfg.OutputPath, "output file, or file name prefix with -m")
	fl.StringVarP(&cfg.CatalogDSN, "catalog-dsn", "z", cfg.CatalogDSN, "station catalog database (default: $HOME/.aq2rdb/catalog.db)")
	fl.StringVarP(&cfg.Datatype, "datatype", "t", cfg.Datatype, "datatype: DV, UV, DC, SV, MS, PK, WL, QW or VT")
	fl.StringVarP(&cfg.Agency, "agency", "a", cfg.Agency, "agency code (default USGS)")
	fl.StringVarP(&cfg.Station, "station", "n", cfg.Station, "station number")
	fl.StringVarP(&cfg.DDID, "ddid", "d", cfg.DDID, "data descriptor id")
	fl.StringVarP(&cfg.Parameter, "parameter", "p", cfg.Parameter, "parameter code, resolved to the primary descriptor")
	fl.StringVarP(&cfg.Stat, "stat", "s", cfg.Stat, "statistic or subtype code")
	fl.StringVarP(&cfg.Begin, "begin", "b", cfg.Begin, "begin date (YYYY[MMDD[hhmmss]])")
	fl.StringVarP(&cfg.End, "end", "e", cfg.End, "end date (YYYY[MMDD[hhmmss]])")
	fl.StringVarP(&cfg.TimeZone, "time-zone", "l", cfg.TimeZone, "time zone code")
	fl.StringVarP(&cfg.ControlFile, "control-file", "f", cfg.ControlFile, "control file of requests")
	fl.StringVarP(&cfg.Transport, "transport", "y", cfg.Transport, "transport code")
	fl.StringVarP(&cfg.Title, "title", "i", cfg.Title, "report title")
	fl.StringVarP(&cfg.Location, "location", "x", cfg.Location, "location number")

	fl.BoolVarP(&cfg.RoundingSuppressed, "rounding-suppressed", "r", cfg.RoundingSuppressed, "suppress rounding")
	fl.BoolVarP(&cfg.WaterYear, "water-year", "w", cfg.WaterYear, "begin and end are water years")
	fl.BoolVarP(&cfg.CombineDateTime, "combine-datetime", "c", cfg.CombineDateTime, "combine date and time columns")
	fl.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "verbose columns")
	fl.BoolVarP(&cfg.MultiFile, "multi-file", "m", cfg.MultiFile, "one output file per control-file row")
	fl.BoolVar(&cfg.Hydra, "hydra", cfg.Hydra, "hydra mode: send the report path to the named pipe given by -o")
}

func bindAmbientFlags(fl *pflag.FlagSet, c *cli) {
	cfg := &c.cfg
	fl.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.aq2rdb/config.toml)")
	fl.StringVar(&cfg.CatalogDriver, "catalog-driver", cfg.CatalogDriver, "catalog driver: sqlite3 or pgx")
	fl.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fl.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: console or json")
	fl.StringVar(&cfg.SummaryPath, "summary", cfg.SummaryPath, "write the run summary as JSON to this file")
}

// load layers the configuration: defaults, config file, environment, flags.
func (c *cli) load(cmd *cobra.Command) error {
	if err := cliconfig.LoadDotEnv(".env"); err != nil {
		return err
	}

	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&c.cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := cliconfig.ApplyEnvConfig(&c.cfg, changed); err != nil {
		return err
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	logger, err := logAdapter.New(os.Stderr, c.cfg.LogLevel, c.cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	c.log = logger
	c.log.Debug("configuration",
		ports.String("catalog_driver", c.cfg.CatalogDriver),
		ports.String("control_file", c.cfg.ControlFile),
		ports.String("output", c.cfg.OutputPath),
		ports.String("time_zone", c.cfg.TimeZone),
	)
	return nil
}

func (c *cli) runConfig() app.RunConfig {
	return app.RunConfig{
		ControlFile: c.cfg.ControlFile,
		Request:     c.cfg.RawRequest(),
		Options:     c.cfg.ResolveOptions(),
		Stdout:      os.Stdout,
	}
}

// deps opens the catalog and builds the collaborators of a run. The
// returned func closes the catalog.
func (c *cli) deps(ctx context.Context) (app.Deps, func(), error) {
	cat, err := c.openCatalog(ctx)
	if err != nil {
		return app.Deps{}, nil, err
	}

	obs, err := metrics.NewObserver(prometheus.DefaultRegisterer)
	if err != nil {
		cat.Close()
		return app.Deps{}, nil, fmt.Errorf("register metrics: %w", err)
	}

	deps := app.Deps{
		Stations: cat,
		Primary:  cat,
		Prompter: prompt.FailClosed{},
		Observer: obs,
		Logger:   c.log,
	}
	if c.cfg.SummaryPath != "" {
		deps.Summaries = fs.NewSummaryFileRepository(c.cfg.SummaryPath)
	}
	return deps, func() { cat.Close() }, nil
}

func (c *cli) openCatalog(ctx context.Context) (*catalog.Catalog, error) {
	dsn := c.cfg.CatalogDSN
	if dsn == "" {
		if c.cfg.CatalogDriver != cliconfig.DriverSQLite {
			return nil, fmt.Errorf("%w: catalog-dsn is required for driver %s", domain.ErrConfiguration, c.cfg.CatalogDriver)
		}
		dsn = defaultCatalogPath()
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("%w: create catalog directory: %v", domain.ErrResource, err)
		}
	}

	cat, err := catalog.Open(ctx, c.cfg.CatalogDriver, dsn)
	if err != nil {
		return nil, err
	}
	if err := cat.Migrate(ctx); err != nil {
		cat.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrResource, err)
	}
	return cat, nil
}

func defaultCatalogPath() string {
	return filepath.Join(filepath.Dir(cliconfig.DefaultConfigPath()), "catalog.db")
}

// exitStatus maps the outcome of Execute to the process exit status.
func (c *cli) exitStatus(err error) domain.Status {
	switch {
	case c.ran:
		return c.status
	case err == nil:
		return domain.StatusOK
	case errors.Is(err, errUsage):
		return domain.StatusUsage
	default:
		return domain.StatusOf(err)
	}
}
