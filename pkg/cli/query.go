package cli

import (
	"context"
	"fmt"

	"github.com/mchmarny/partscore/pkg/data"
	"github.com/mchmarny/partscore/pkg/score"
	urfave "github.com/urfave/cli/v3"
)

func limitFlag() *urfave.IntFlag {
	return &urfave.IntFlag{
		Name:    limitFlagName,
		Aliases: []string{"l"},
		Usage:   "Maximum number of results",
		Value:   limitDefault,
	}
}

func newTopCmd() *urfave.Command {
	return &urfave.Command{
		Name:  "top",
		Usage: "List the highest scored components of a type",
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:     typeFlagName,
				Aliases:  []string{"t"},
				Usage:    fmt.Sprintf("Component type [%s]", score.ComponentNames()),
				Required: true,
			},
			limitFlag(),
		},
		Action: cmdTop,
	}
}

func newRunsCmd() *urfave.Command {
	return &urfave.Command{
		Name:   "runs",
		Usage:  "List recent scoring runs",
		Flags:  []urfave.Flag{limitFlag()},
		Action: cmdRuns,
	}
}

func newStatusCmd() *urfave.Command {
	return &urfave.Command{
		Name:   "status",
		Usage:  "Show record and score counts per component",
		Action: cmdStatus,
	}
}

func cmdTop(ctx context.Context, cmd *urfave.Command) error {
	cfg, err := applyFlags(cmd)
	if err != nil {
		return err
	}

	c, err := score.ParseComponent(cmd.String(typeFlagName))
	if err != nil {
		return err
	}

	store, err := cfg.openStore(ctx)
	if err != nil {
		return err
	}

	list, err := store.TopScores(ctx, c, cmd.Int(limitFlagName))
	if err != nil {
		return fmt.Errorf("querying top scores: %w", err)
	}

	return output(cmd, list)
}

func cmdRuns(ctx context.Context, cmd *urfave.Command) error {
	cfg, err := applyFlags(cmd)
	if err != nil {
		return err
	}

	store, err := cfg.openStore(ctx)
	if err != nil {
		return err
	}

	list, err := store.Runs(ctx, cmd.Int(limitFlagName))
	if err != nil {
		return fmt.Errorf("querying runs: %w", err)
	}

	return output(cmd, list)
}

// Status is the output of the status command.
type Status struct {
	Driver string             `json:"driver" yaml:"driver"`
	Tables []*data.TableStats `json:"tables" yaml:"tables"`
}

func cmdStatus(ctx context.Context, cmd *urfave.Command) error {
	cfg, err := applyFlags(cmd)
	if err != nil {
		return err
	}

	store, err := cfg.openStore(ctx)
	if err != nil {
		return err
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("querying stats: %w", err)
	}

	return output(cmd, &Status{Driver: store.DB().DriverName(), Tables: stats})
}
