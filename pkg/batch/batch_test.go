package batch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/mchmarny/partscore/pkg/record"
	"github.com/mchmarny/partscore/pkg/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	records map[score.Component][]*record.Record
	errs    map[score.Component]error
}

func (s *fakeSource) Records(_ context.Context, c score.Component) ([]*record.Record, error) {
	if err := s.errs[c]; err != nil {
		return nil, err
	}
	return s.records[c], nil
}

type fakeSink struct {
	mu     sync.Mutex
	scores map[score.Component]map[int64]int
	failOn map[int64]bool
	calls  int
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		scores: make(map[score.Component]map[int64]int),
		failOn: make(map[int64]bool),
	}
}

func (s *fakeSink) SaveScore(_ context.Context, c score.Component, id int64, v int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failOn[id] {
		return errors.New("connection reset")
	}
	if s.scores[c] == nil {
		s.scores[c] = make(map[int64]int)
	}
	s.scores[c][id] = v
	return nil
}

func rec(t *testing.T, row map[string]any) *record.Record {
	t.Helper()
	r, err := record.FromMap(row)
	require.NoError(t, err)
	return r
}

func TestRun_MixedRecords(t *testing.T) {
	src := &fakeSource{records: map[score.Component][]*record.Record{
		score.CPU: {
			rec(t, map[string]any{"id": 1, "core_count": 8, "thread_count": 16,
				"performance_core_clock": "3.5GHz", "performance_core_boost_clock": "4.8GHz",
				"l3_cache": "32MB", "price_num": 350}),
			rec(t, map[string]any{"id": 2, "core_count": "many", "price_num": "NaN"}),
			nil,
		},
		score.PSU: {
			rec(t, map[string]any{"id": 7, "wattage": 850, "efficiency_rating": "80+ Gold", "modular": "Full", "price_num": 120}),
		},
	}}
	sink := newFakeSink()

	rep, err := Run(context.Background(), []score.Component{score.CPU, score.PSU}, src, sink, Options{KeepResults: true})
	require.NoError(t, err)
	require.NotNil(t, rep)

	assert.NotEmpty(t, rep.ID)
	require.Len(t, rep.Components, 2)
	assert.Equal(t, []string{"cpu", "psu"}, rep.ComponentNames())

	cpu := rep.Components[0]
	assert.Equal(t, 3, cpu.Records)
	assert.Equal(t, 2, cpu.Scored)
	assert.Equal(t, 2, cpu.Saved)
	require.Len(t, cpu.Results, 3)
	assert.Equal(t, 98, cpu.Results[0].Score)
	assert.Equal(t, 0, cpu.Results[2].Score)

	assert.Equal(t, 98, sink.scores[score.CPU][1])
	assert.Contains(t, sink.scores[score.CPU], int64(2))
	assert.Equal(t, 86, sink.scores[score.PSU][7])

	require.Equal(t, 1, rep.Failed())
	assert.Equal(t, FailureScore, rep.Failures[0].Kind)
	assert.Equal(t, score.CPU, rep.Failures[0].Component)
	assert.Equal(t, 3, rep.Scored())
}

func TestRun_AllScoresInRange(t *testing.T) {
	src := &fakeSource{records: map[score.Component][]*record.Record{}}
	for _, c := range score.Components {
		src.records[c] = []*record.Record{
			rec(t, map[string]any{"id": 1}),
			rec(t, map[string]any{"id": 2, "price_num": -10000, "wattage": 99999, "memory": "64 GB"}),
			rec(t, map[string]any{"id": 3, "chipset": "bogus", "modules": "x", "drive_bays": "lots x bays"}),
		}
	}
	sink := newFakeSink()

	rep, err := Run(context.Background(), score.Components, src, sink, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Failed())
	assert.Equal(t, 21, rep.Scored())

	for c, scores := range sink.scores {
		for id, v := range scores {
			assert.GreaterOrEqual(t, v, 0, "%s/%d", c, id)
			assert.LessOrEqual(t, v, 100, "%s/%d", c, id)
		}
	}
}

func TestRun_PersistFailures(t *testing.T) {
	src := &fakeSource{records: map[score.Component][]*record.Record{
		score.GPU: {
			rec(t, map[string]any{"id": 1, "memory": "8 GB"}),
			rec(t, map[string]any{"id": 2, "memory": "12 GB"}),
			rec(t, map[string]any{"id": 3, "memory": "16 GB"}),
		},
	}}
	sink := newFakeSink()
	sink.failOn[2] = true

	rep, err := Run(context.Background(), []score.Component{score.GPU}, src, sink, Options{})
	require.NoError(t, err)

	require.Equal(t, 1, rep.Failed())
	f := rep.Failures[0]
	assert.Equal(t, int64(2), f.ID)
	assert.Equal(t, FailurePersist, f.Kind)
	assert.Contains(t, f.Reason, "connection reset")

	gpu := rep.Components[0]
	assert.Equal(t, 3, gpu.Scored)
	assert.Equal(t, 2, gpu.Saved)
	assert.Len(t, sink.scores[score.GPU], 2)
}

func TestRun_LoadFailureContinues(t *testing.T) {
	src := &fakeSource{
		records: map[score.Component][]*record.Record{
			score.Memory: {rec(t, map[string]any{"id": 4, "modules": "2 x 16GB"})},
		},
		errs: map[score.Component]error{score.Case: errors.New("no such table: case_specs")},
	}
	sink := newFakeSink()

	rep, err := Run(context.Background(), []score.Component{score.Case, score.Memory}, src, sink, Options{})
	require.NoError(t, err)

	require.Equal(t, 1, rep.Failed())
	assert.Equal(t, FailureLoad, rep.Failures[0].Kind)
	assert.Equal(t, score.Case, rep.Failures[0].Component)
	assert.Zero(t, rep.Failures[0].ID)
	assert.Equal(t, 1, rep.Components[1].Saved)
}

func TestRun_DryRun(t *testing.T) {
	src := &fakeSource{records: map[score.Component][]*record.Record{
		score.Cooler: {rec(t, map[string]any{"id": 1, "water_cooled": "yes"})},
	}}

	rep, err := Run(context.Background(), []score.Component{score.Cooler}, src, nil, Options{DryRun: true, KeepResults: true})
	require.NoError(t, err)
	assert.True(t, rep.DryRun)
	assert.Equal(t, 1, rep.Components[0].Scored)
	assert.Equal(t, 0, rep.Components[0].Saved)
	require.Len(t, rep.Components[0].Results, 1)
	assert.Equal(t, 15, rep.Components[0].Results[0].Score)
}

func TestRun_ParallelKeepsOrder(t *testing.T) {
	src := &fakeSource{records: map[score.Component][]*record.Record{}}
	for _, c := range score.Components {
		list := make([]*record.Record, 0, 25)
		for i := 1; i <= 25; i++ {
			list = append(list, rec(t, map[string]any{"id": i, "price_num": i * 10}))
		}
		src.records[c] = list
	}
	sink := newFakeSink()

	rep, err := Run(context.Background(), score.Components, src, sink, Options{Parallel: true})
	require.NoError(t, err)

	names := make([]string, 0, len(score.Components))
	for _, c := range score.Components {
		names = append(names, c.String())
	}
	assert.Equal(t, names, rep.ComponentNames())
	assert.Equal(t, 25*len(score.Components), sink.calls)
	assert.Equal(t, 0, rep.Failed())
}

func TestRun_Canceled(t *testing.T) {
	src := &fakeSource{records: map[score.Component][]*record.Record{
		score.CPU: {rec(t, map[string]any{"id": 1})},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := Run(ctx, []score.Component{score.CPU, score.GPU}, src, newFakeSink(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, rep)
	assert.Equal(t, 0, rep.Scored())
}

func TestRun_Validation(t *testing.T) {
	_, err := Run(context.Background(), nil, &fakeSource{}, newFakeSink(), Options{})
	assert.Error(t, err)

	_, err = Run(context.Background(), score.Components, nil, newFakeSink(), Options{})
	assert.Error(t, err)

	_, err = Run(context.Background(), score.Components, &fakeSource{}, nil, Options{})
	assert.Error(t, err)
}

func TestReport_NilSafe(t *testing.T) {
	var r *Report
	assert.Equal(t, 0, r.Failed())
	assert.Equal(t, 0, r.Scored())
}

func TestRun_FailureOnRecordZero(t *testing.T) {
	src := &fakeSource{records: map[score.Component][]*record.Record{
		score.PSU: {rec(t, map[string]any{"id": 0, "wattage": 650})},
	}}
	sink := newFakeSink()
	sink.failOn[0] = true

	rep, err := Run(context.Background(), []score.Component{score.PSU}, src, sink, Options{})
	require.NoError(t, err)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, FailurePersist, rep.Failures[0].Kind)

	b, err := json.Marshal(rep.Failures[0])
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Contains(t, got, "id")
	assert.InDelta(t, 0.0, got["id"], 0.001)
	assert.Equal(t, "persist", got["kind"])
}
