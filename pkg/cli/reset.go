package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mchmarny/partscore/pkg/score"
	urfave "github.com/urfave/cli/v3"
)

const yesFlagName = "yes"

func newResetCmd() *urfave.Command {
	return &urfave.Command{
		Name:  "reset",
		Usage: "Clear saved scores",
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:    typeFlagName,
				Aliases: []string{"t"},
				Usage:   fmt.Sprintf("Component type [%s, %s]", score.ComponentNames(), score.All),
				Value:   score.All,
			},
			&urfave.BoolFlag{
				Name:    yesFlagName,
				Aliases: []string{"y"},
				Usage:   "Do not ask for confirmation",
			},
		},
		Action: cmdReset,
	}
}

// ResetResult lists the rows cleared per component.
type ResetResult struct {
	Cleared map[score.Component]int64 `json:"cleared" yaml:"cleared"`
}

func cmdReset(ctx context.Context, cmd *urfave.Command) error {
	cfg, err := applyFlags(cmd)
	if err != nil {
		return err
	}

	components, err := score.ParseSelector(cmd.String(typeFlagName))
	if err != nil {
		return err
	}

	if !cmd.Bool(yesFlagName) {
		w := cmd.Root().ErrWriter
		fmt.Fprintf(w, "This will clear the saved scores of: %s\n", joinComponents(components))
		fmt.Fprint(w, "Are you sure? [y/N]: ")

		reader := bufio.NewReader(cmd.Root().Reader)
		answer, err := reader.ReadString('\n')
		if err != nil && answer == "" {
			return fmt.Errorf("reading input: %w", err)
		}

		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Fprintln(w, "Aborted.")
			return nil
		}
	}

	store, err := cfg.openStore(ctx)
	if err != nil {
		return err
	}

	res := &ResetResult{Cleared: make(map[score.Component]int64, len(components))}
	for _, c := range components {
		n, err := store.ResetScores(ctx, c)
		if err != nil {
			return fmt.Errorf("resetting %s scores: %w", c, err)
		}
		res.Cleared[c] = n
		slog.Info("scores cleared", "component", c, "rows", n)
	}

	return output(cmd, res)
}

func joinComponents(list []score.Component) string {
	names := make([]string, len(list))
	for i, c := range list {
		names[i] = c.String()
	}
	return strings.Join(names, ", ")
}
