package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mchmarny/partscore/pkg/config"
	"github.com/mchmarny/partscore/pkg/data"
	urfave "github.com/urfave/cli/v3"
	"golang.org/x/term"
)

func newConfigCmd() *urfave.Command {
	return &urfave.Command{
		Name:  "config",
		Usage: "Show, save or secure the configuration",
		Commands: []*urfave.Command{
			{
				Name:   "show",
				Usage:  "Print the effective configuration",
				Action: cmdConfigShow,
			},
			{
				Name:   "save",
				Usage:  "Write the effective configuration to the config file",
				Action: cmdConfigSave,
			},
			{
				Name:   "password",
				Usage:  "Store the postgres password in the OS keyring (read from stdin)",
				Action: cmdConfigPassword,
			},
		},
	}
}

func cmdConfigShow(_ context.Context, cmd *urfave.Command) error {
	cfg, err := applyFlags(cmd)
	if err != nil {
		return err
	}
	return output(cmd, cfg.Config)
}

// SavedConfig is the output of config save.
type SavedConfig struct {
	Path string `json:"path" yaml:"path"`
}

func cmdConfigSave(_ context.Context, cmd *urfave.Command) error {
	cfg, err := applyFlags(cmd)
	if err != nil {
		return err
	}

	path := cfg.ConfigPath
	if path == "" {
		if path, err = config.DefaultPath(); err != nil {
			return fmt.Errorf("resolving config path: %w", err)
		}
	}

	if err := config.Save(path, cfg.Config); err != nil {
		return err
	}
	slog.Info("config saved", "path", path)

	return output(cmd, &SavedConfig{Path: path})
}

// StoredPassword is the output of config password.
type StoredPassword struct {
	Account string `json:"account" yaml:"account"`
}

func cmdConfigPassword(_ context.Context, cmd *urfave.Command) error {
	cfg, err := applyFlags(cmd)
	if err != nil {
		return err
	}

	if cfg.Config.Driver != data.DriverPostgres {
		return fmt.Errorf("passwords are only used with the %s driver", data.DriverPostgres)
	}

	account, err := config.PasswordAccount(cfg.Config.DSN)
	if err != nil {
		return fmt.Errorf("dsn %q: %w", cfg.Config.DSN, err)
	}

	fmt.Fprintf(cmd.Root().ErrWriter, "Password for %s: ", account)
	password, err := readPassword(cmd.Root().Reader)
	fmt.Fprintln(cmd.Root().ErrWriter)
	if err != nil {
		return err
	}

	if err := config.SavePassword(cfg.Config.DSN, password); err != nil {
		return err
	}

	return output(cmd, &StoredPassword{Account: account})
}

// readPassword reads one line, without echo when r is a terminal.
func readPassword(r io.Reader) (string, error) {
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
