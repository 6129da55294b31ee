package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mchmarny/partscore/pkg/net"
	"github.com/mchmarny/partscore/pkg/record"
	"github.com/mchmarny/partscore/pkg/score"
	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	fileFlagName    = "file"
	explainFlagName = "explain"
	stdinFileName   = "-"
)

func newCalcCmd() *urfave.Command {
	return &urfave.Command{
		Name:  "calc",
		Usage: "Score records from a yaml or json file without a database",
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:     typeFlagName,
				Aliases:  []string{"t"},
				Usage:    fmt.Sprintf("Component type [%s]", score.ComponentNames()),
				Required: true,
			},
			&urfave.StringFlag{
				Name:     fileFlagName,
				Aliases:  []string{"f"},
				Usage:    "Path or URL of a yaml or json file with one record or a list of records (- for stdin)",
				Required: true,
			},
			&urfave.BoolFlag{
				Name:  explainFlagName,
				Usage: "Print every sub-score",
			},
		},
		Action: cmdCalc,
	}
}

func cmdCalc(ctx context.Context, cmd *urfave.Command) error {
	if _, err := applyFlags(cmd); err != nil {
		return err
	}

	c, err := score.ParseComponent(cmd.String(typeFlagName))
	if err != nil {
		return err
	}

	records, err := readRecords(ctx, cmd.Root().Reader, cmd.String(fileFlagName))
	if err != nil {
		return err
	}

	if cmd.Bool(explainFlagName) {
		list := make([]score.Breakdown, 0, len(records))
		for _, r := range records {
			b, err := score.Explain(c, r)
			if err != nil {
				return fmt.Errorf("explaining record %d: %w", r.ID, err)
			}
			list = append(list, b)
		}
		return output(cmd, list)
	}

	return output(cmd, score.ScoreAll(c, records))
}

// readRecords reads a yaml or json document holding one record or a list of
// them. Records without an id are numbered by position.
func readRecords(ctx context.Context, stdin io.Reader, path string) ([]*record.Record, error) {
	var b []byte
	var err error
	switch {
	case path == stdinFileName:
		b, err = io.ReadAll(stdin)
	case net.IsURL(path):
		b, err = net.Fetch(ctx, path)
	default:
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parsing records from %s: %w", path, err)
	}

	rows, err := toRows(doc)
	if err != nil {
		return nil, fmt.Errorf("parsing records from %s: %w", path, err)
	}

	return rowsToRecords(rows)
}

func toRows(doc any) ([]map[string]any, error) {
	switch v := doc.(type) {
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		rows := make([]map[string]any, 0, len(v))
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("item %d is not a record", i)
			}
			rows = append(rows, m)
		}
		return rows, nil
	case nil:
		return nil, errors.New("no records")
	default:
		return nil, fmt.Errorf("unexpected document type %T", doc)
	}
}

func rowsToRecords(rows []map[string]any) ([]*record.Record, error) {
	list := make([]*record.Record, 0, len(rows))
	for i, row := range rows {
		if _, ok := row[record.IDField]; !ok {
			row[record.IDField] = int64(i + 1)
		}
		r, err := record.FromMap(row)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		list = append(list, r)
	}
	return list, nil
}
