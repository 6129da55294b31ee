package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mchmarny/partscore/pkg/config"
	"github.com/mchmarny/partscore/pkg/data"
	"github.com/mchmarny/partscore/pkg/logging"
	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "partscore"
	appConfigKey = "app-config"

	exitCodePartialFailure = 2
	limitDefault           = 10

	debugFlagName  = "debug"
	configFlagName = "config"
	driverFlagName = "driver"
	dbFlagName     = "db"
	formatFlagName = "format"
	typeFlagName   = "type"
	limitFlagName  = "limit"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefaultCLILogger("info")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newApp().Run(ctx, os.Args)
	if err == nil {
		return
	}

	var ec urfave.ExitCoder
	if errors.As(err, &ec) {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(ec.ExitCode())
	}

	slog.Error("fatal error", "error", err)
	stop()
	os.Exit(1)
}

type appConfig struct {
	Config     *config.Config
	ConfigPath string
	Store      *data.Store
}

// openStore connects on first use; commands that do not need the database
// never open it.
func (a *appConfig) openStore(ctx context.Context) (*data.Store, error) {
	if a.Store != nil {
		return a.Store, nil
	}

	s, err := data.Open(ctx, a.Config.Driver, config.ResolveDSN(a.Config.Driver, a.Config.DSN))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.Store = s
	return s, nil
}

func newApp() *urfave.Command {
	return &urfave.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Usage:                 "Score PC hardware components from their stored specifications",
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Metadata:              map[string]any{},
		Flags: []urfave.Flag{
			&urfave.BoolFlag{
				Name:  debugFlagName,
				Usage: "Prints verbose logs (optional, default: false)",
			},
			&urfave.StringFlag{
				Name:  configFlagName,
				Usage: "Path to the config file (default: ~/.partscore/config.yaml)",
			},
			&urfave.StringFlag{
				Name:  driverFlagName,
				Usage: "Database driver [sqlite, postgres]",
			},
			&urfave.StringFlag{
				Name:  dbFlagName,
				Usage: "Database DSN, or the path to the sqlite file",
			},
			&urfave.StringFlag{
				Name:  formatFlagName,
				Usage: "Output format [json, yaml]",
			},
		},
		Commands: []*urfave.Command{
			newScoreCmd(),
			newCalcCmd(),
			newTopCmd(),
			newRunsCmd(),
			newStatusCmd(),
			newResetCmd(),
			newServeCmd(),
			newConfigCmd(),
		},
		// exit codes are handled by Execute so tests can run the app
		ExitErrHandler: func(context.Context, *urfave.Command, error) {},
		After: func(_ context.Context, cmd *urfave.Command) error {
			if cfg, ok := cmd.Metadata[appConfigKey].(*appConfig); ok && cfg.Store != nil {
				if err := cfg.Store.Close(); err != nil {
					slog.Debug("error closing database", "error", err)
				}
				cfg.Store = nil
			}
			return nil
		},
	}
}

// applyFlags loads the config once per run and lays the global flags over
// it. Called by every command so flags work before or after the command
// name.
func applyFlags(cmd *urfave.Command) (*appConfig, error) {
	root := cmd.Root()
	if cfg, ok := root.Metadata[appConfigKey].(*appConfig); ok {
		return cfg, nil
	}

	path := cmd.String(configFlagName)
	c, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cmd.IsSet(driverFlagName) {
		c.Driver = cmd.String(driverFlagName)
	}
	if cmd.IsSet(dbFlagName) {
		c.DSN = cmd.String(dbFlagName)
	}
	if cmd.IsSet(formatFlagName) {
		c.Format = cmd.String(formatFlagName)
	}
	if cmd.Bool(debugFlagName) {
		c.LogLevel = "debug"
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Driver, err = data.ParseDriver(c.Driver); err != nil {
		return nil, err
	}

	logging.SetDefaultCLILogger(c.LogLevel)
	slog.Debug("config", "driver", c.Driver, "format", c.Format, "parallel", c.Parallel)

	cfg := &appConfig{Config: c, ConfigPath: path}
	root.Metadata[appConfigKey] = cfg
	return cfg, nil
}

func getConfig(cmd *urfave.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

func encode(w io.Writer, format string, v any) error {
	if format == config.FormatYAML {
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}

// output writes v to the command's writer in the configured format.
func output(cmd *urfave.Command, v any) error {
	return encode(cmd.Root().Writer, getConfig(cmd).Config.Format, v)
}
