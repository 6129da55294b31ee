package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mchmarny/partscore/pkg/batch"
	"github.com/mchmarny/partscore/pkg/score"
	urfave "github.com/urfave/cli/v3"
)

const (
	parallelFlagName = "parallel"
	dryRunFlagName   = "dry-run"
	resultsFlagName  = "results"
)

func newScoreCmd() *urfave.Command {
	return &urfave.Command{
		Name:  "score",
		Usage: "Score stored components and save the scores",
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:    typeFlagName,
				Aliases: []string{"t"},
				Usage:   fmt.Sprintf("Component type [%s, %s]", score.ComponentNames(), score.All),
				Value:   score.All,
			},
			&urfave.BoolFlag{
				Name:  parallelFlagName,
				Usage: "Score component types concurrently",
			},
			&urfave.BoolFlag{
				Name:  dryRunFlagName,
				Usage: "Compute scores without saving them",
			},
			&urfave.BoolFlag{
				Name:  resultsFlagName,
				Usage: "Include every record score in the output",
			},
		},
		Action: cmdScore,
	}
}

func cmdScore(ctx context.Context, cmd *urfave.Command) error {
	cfg, err := applyFlags(cmd)
	if err != nil {
		return err
	}

	components, err := score.ParseSelector(cmd.String(typeFlagName))
	if err != nil {
		return err
	}

	store, err := cfg.openStore(ctx)
	if err != nil {
		return err
	}

	opts := batch.Options{
		Parallel:    cfg.Config.Parallel || cmd.Bool(parallelFlagName),
		DryRun:      cmd.Bool(dryRunFlagName),
		KeepResults: cmd.Bool(resultsFlagName),
	}

	rep, runErr := batch.Run(ctx, components, store, store, opts)
	if rep == nil {
		return fmt.Errorf("scoring: %w", runErr)
	}

	if !opts.DryRun {
		// record the run even when interrupted
		if err := store.SaveRun(context.WithoutCancel(ctx), rep); err != nil {
			slog.Error("failed to save run history", "run", rep.ID, "error", err)
		}
	}

	if err := output(cmd, rep); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if runErr != nil {
		return fmt.Errorf("scoring interrupted: %w", runErr)
	}
	if n := rep.Failed(); n > 0 {
		return urfave.Exit(fmt.Sprintf("%d records failed", n), exitCodePartialFailure)
	}

	return nil
}
