// Package record holds component records and converts loader output into
// them. Loader specific null markers stop here: everything past FromMap sees
// only field.Value.
package record

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mchmarny/partscore/pkg/field"
)

// IDField is the name of the identifier column.
const IDField = "id"

var (
	// ErrMissingID is returned when a row has no usable identifier.
	ErrMissingID = errors.New("record has no id")

	// nullLiterals are the text forms the import pipeline writes for
	// missing data.
	nullLiterals = map[string]bool{
		"":     true,
		"NaN":  true,
		"NULL": true,
		"None": true,
		"nan":  true,
		"null": true,
	}
)

// Record is one component instance. Records are read-only for scorers.
type Record struct {
	ID     int64
	fields map[string]field.Value
}

// Get returns the named field, or an absent value.
func (r *Record) Get(name string) field.Value {
	if r == nil {
		return field.Absent()
	}
	return r.fields[name]
}

// Name returns the component name, if the record carries one.
func (r *Record) Name() string {
	return r.Get("name").String()
}

// FromMap converts a loosely typed row into a Record. The row must carry an
// integer "id"; every other column goes through Convert.
func FromMap(row map[string]any) (*Record, error) {
	raw, ok := row[IDField]
	if !ok {
		return nil, ErrMissingID
	}

	id, err := toID(raw)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]field.Value, len(row))
	for k, v := range row {
		if k == IDField {
			continue
		}
		fields[k] = Convert(v)
	}

	return &Record{ID: id, fields: fields}, nil
}

// Convert turns a value produced by a database driver or a decoder into a
// field.Value. nil, NaN and the null literals become absent.
func Convert(v any) field.Value {
	switch t := v.(type) {
	case nil:
		return field.Absent()
	case field.Value:
		return t
	case string:
		return convertText(t)
	case []byte:
		return convertText(string(t))
	case bool:
		return field.Bool(t)
	case float64:
		return convertFloat(t)
	case float32:
		return convertFloat(float64(t))
	case int:
		return field.Number(float64(t))
	case int8:
		return field.Number(float64(t))
	case int16:
		return field.Number(float64(t))
	case int32:
		return field.Number(float64(t))
	case int64:
		return field.Number(float64(t))
	case uint:
		return field.Number(float64(t))
	case uint8:
		return field.Number(float64(t))
	case uint16:
		return field.Number(float64(t))
	case uint32:
		return field.Number(float64(t))
	case uint64:
		return field.Number(float64(t))
	case time.Time:
		return field.Text(t.UTC().Format(time.RFC3339))
	case fmt.Stringer:
		return convertText(t.String())
	default:
		return convertText(fmt.Sprint(t))
	}
}

func convertText(s string) field.Value {
	if nullLiterals[strings.TrimSpace(s)] {
		return field.Absent()
	}
	return field.Text(s)
}

func convertFloat(f float64) field.Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return field.Absent()
	}
	return field.Number(f)
}

func toID(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d is out of range", ErrMissingID, t)
		}
		return int64(t), nil
	case float64:
		if t != math.Trunc(t) || math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrMissingID, t)
		}
		// 2^63 is the first float64 past MaxInt64
		if t < math.MinInt64 || t >= math.MaxInt64 {
			return 0, fmt.Errorf("%w: %v is out of range", ErrMissingID, t)
		}
		return int64(t), nil
	case string:
		return parseID(t)
	case []byte:
		return parseID(string(t))
	case nil:
		return 0, ErrMissingID
	default:
		return 0, fmt.Errorf("%w: unsupported id type %T", ErrMissingID, v)
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMissingID, s)
	}
	return id, nil
}
