package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/graphcrm/graphcrm/internal/model"
)

// recordingLog keeps appended lines in memory.
type recordingLog struct {
	mu    sync.Mutex
	lines []string
	ts    []time.Time
	err   error
}

func (l *recordingLog) Append(ts time.Time, summaries ...string) error {
	if l.err != nil {
		return l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range summaries {
		l.lines = append(l.lines, s)
		l.ts = append(l.ts, ts)
	}
	return nil
}

// scriptedGraphQL answers calls in order with raw JSON data or an error.
type scriptedGraphQL struct {
	responses []scripted
	calls     []map[string]any
	queries   []string
}

type scripted struct {
	data string
	err  error
}

func (g *scriptedGraphQL) Do(_ context.Context, query string, variables map[string]any, out any) error {
	vars := make(map[string]any, len(variables))
	for k, v := range variables {
		vars[k] = v
	}
	g.calls = append(g.calls, vars)
	g.queries = append(g.queries, query)

	if len(g.responses) == 0 {
		return errors.New("no scripted response")
	}
	next := g.responses[0]
	g.responses = g.responses[1:]
	if next.err != nil {
		return next.err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal([]byte(next.data), out)
}

type fakeMaintenance struct {
	deleted       int64
	inactiveAfter time.Duration
	report        *model.Report
	err           error
}

func (f *fakeMaintenance) CleanupInactiveCustomers(_ context.Context, inactiveAfter time.Duration) (int64, error) {
	f.inactiveAfter = inactiveAfter
	return f.deleted, f.err
}

func (f *fakeMaintenance) Report(context.Context) (*model.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.report == nil {
		return &model.Report{Revenue: decimal.Zero}, nil
	}
	return f.report, nil
}
