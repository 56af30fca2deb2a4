package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fd1az/dynamic-arb/business/arbitrage/domain"
	"github.com/fd1az/dynamic-arb/internal/apperror"
	"github.com/fd1az/dynamic-arb/internal/logger"
)

type fakeScanner struct {
	result  domain.ScanResult
	err     error
	panics  bool
	release chan struct{}
	calls   atomic.Int32
}

func (f *fakeScanner) Scan(context.Context) (domain.ScanResult, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.panics {
		panic("nil quote")
	}
	return f.result, f.err
}

type fakeTracker struct {
	records []domain.ExecutionRecord
	err     error
}

func (f *fakeTracker) GetExecutions(context.Context) ([]domain.ExecutionRecord, error) {
	return f.records, f.err
}

type recordingReporter struct {
	mu      sync.Mutex
	reports []CycleReport
}

func (r *recordingReporter) ReportCycle(_ context.Context, rep CycleReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, rep)
}

func (r *recordingReporter) last() CycleReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reports[len(r.reports)-1]
}

func profitableResult() domain.ScanResult {
	p := d("0.0035")
	return domain.ScanResult{
		BestAmount:    d("3"),
		BestProfit:    p,
		MaxSeenProfit: &p,
		CEXBuyProfit:  &p,
	}
}

func newTestDispatcher(t *testing.T, s SizeScanner, tr ExecutionTracker, rep Reporter, log logger.LoggerInterface) *Dispatcher {
	t.Helper()
	if log == nil {
		log = logger.NewNop()
	}
	disp, err := NewDispatcher(testConfig(), s, tr, rep, log)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	return disp
}

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestDispatcher_QueuesOpportunity(t *testing.T) {
	rep := &recordingReporter{}
	disp := newTestDispatcher(t, &fakeScanner{result: profitableResult()}, &fakeTracker{}, rep, nil)

	if !disp.OnTick(context.Background(), t0) {
		t.Fatal("expected evaluation to start")
	}
	disp.Wait()

	actions := disp.CreateActionsProposal()
	if len(actions) != 1 {
		t.Fatalf("actions = %d, want 1", len(actions))
	}
	a := actions[0]
	if !a.OrderAmount.Equal(d("3")) || a.Buying.Connector != "binance" || a.Selling.Connector != "uniswap" {
		t.Errorf("action = %+v", a)
	}
	if !a.CreatedAt.Equal(t0) {
		t.Errorf("created at = %s, want tick time", a.CreatedAt)
	}
	if again := disp.CreateActionsProposal(); len(again) != 0 {
		t.Errorf("slot should be empty after collection, got %d", len(again))
	}
	if len(disp.StopActionsProposal()) != 0 {
		t.Error("stop actions should always be empty")
	}

	last := rep.last()
	if last.Action == nil || last.Action.ID != a.ID || last.Err != nil {
		t.Errorf("report = %+v", last)
	}
}

func TestDispatcher_SkipsWhileEvaluating(t *testing.T) {
	s := &fakeScanner{release: make(chan struct{})}
	disp := newTestDispatcher(t, s, &fakeTracker{}, nil, nil)

	if !disp.OnTick(context.Background(), t0) {
		t.Fatal("first tick should start an evaluation")
	}
	for i := 0; i < 3; i++ {
		if disp.OnTick(context.Background(), t0.Add(time.Duration(i+1)*time.Second)) {
			t.Fatal("overlapping tick must not start an evaluation")
		}
	}
	if !disp.Evaluating() {
		t.Error("evaluating flag should be held")
	}

	close(s.release)
	disp.Wait()

	if disp.Evaluating() {
		t.Error("evaluating flag should be released")
	}
	if got := s.calls.Load(); got != 1 {
		t.Errorf("scans = %d, want 1", got)
	}
	if !disp.OnTick(context.Background(), t0.Add(5*time.Second)) {
		t.Error("tick after completion should start an evaluation")
	}
	disp.Wait()
}

func TestDispatcher_Gating(t *testing.T) {
	tests := []struct {
		name    string
		tracker *fakeTracker
		want    bool
	}{
		{"no executions", &fakeTracker{}, true},
		{"only finished executions", &fakeTracker{records: []domain.ExecutionRecord{{ID: "a"}, {ID: "b"}}}, true},
		{"at capacity", &fakeTracker{records: []domain.ExecutionRecord{{ID: "a", Active: true}}}, false},
		{"tracker error", &fakeTracker{err: errors.New("redis down")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeScanner{}
			disp := newTestDispatcher(t, s, tt.tracker, nil, nil)

			if got := disp.OnTick(context.Background(), t0); got != tt.want {
				t.Fatalf("OnTick = %v, want %v", got, tt.want)
			}
			disp.Wait()

			wantCalls := int32(0)
			if tt.want {
				wantCalls = 1
			}
			if got := s.calls.Load(); got != wantCalls {
				t.Errorf("scans = %d, want %d", got, wantCalls)
			}
		})
	}
}

func TestDispatcher_PendingActionBlocksNextEvaluation(t *testing.T) {
	s := &fakeScanner{result: profitableResult()}
	disp := newTestDispatcher(t, s, &fakeTracker{}, nil, nil)

	disp.OnTick(context.Background(), t0)
	disp.Wait()

	if disp.OnTick(context.Background(), t0.Add(time.Second)) {
		t.Fatal("tick must not evaluate while an action awaits collection")
	}
	if got := s.calls.Load(); got != 1 {
		t.Errorf("scans = %d, want 1", got)
	}

	if len(disp.CreateActionsProposal()) != 1 {
		t.Fatal("expected queued action")
	}
	if !disp.OnTick(context.Background(), t0.Add(2*time.Second)) {
		t.Error("tick after collection should evaluate")
	}
	disp.Wait()
}

func TestDispatcher_RecoversFromPanic(t *testing.T) {
	rep := &recordingReporter{}
	s := &fakeScanner{panics: true}
	disp := newTestDispatcher(t, s, &fakeTracker{}, rep, nil)

	disp.OnTick(context.Background(), t0)
	disp.Wait()

	if disp.Evaluating() {
		t.Fatal("evaluating flag should be released after a panic")
	}
	if len(disp.CreateActionsProposal()) != 0 {
		t.Error("no action expected")
	}
	if code := apperror.GetCode(rep.last().Err); code != apperror.CodeInternalError {
		t.Errorf("report error code = %s", code)
	}

	s.panics = false
	if !disp.OnTick(context.Background(), t0.Add(time.Second)) {
		t.Error("strategy should keep ticking after a panic")
	}
	disp.Wait()
}

func TestDispatcher_ScanErrorIsReported(t *testing.T) {
	rep := &recordingReporter{}
	scanErr := apperror.New(apperror.CodeProviderError, apperror.WithContext("cex USDT balance"))
	disp := newTestDispatcher(t, &fakeScanner{err: scanErr}, &fakeTracker{}, rep, nil)

	disp.OnTick(context.Background(), t0)
	disp.Wait()

	if !errors.Is(rep.last().Err, scanErr) {
		t.Errorf("report error = %v", rep.last().Err)
	}
	if len(disp.CreateActionsProposal()) != 0 {
		t.Error("no action expected")
	}
}

func TestDispatcher_NoOpportunityLogIsRateLimited(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.LevelInfo, "test", func(context.Context) string { return "" })

	seen := d("-0.002")
	amount := d("4")
	s := &fakeScanner{result: domain.ScanResult{MaxSeenProfit: &seen, MaxSeenAmount: &amount}}
	disp := newTestDispatcher(t, s, &fakeTracker{}, nil, log)

	for _, offset := range []time.Duration{0, 10 * time.Second, 29 * time.Second, 31 * time.Second} {
		if !disp.OnTick(context.Background(), t0.Add(offset)) {
			t.Fatalf("tick at +%s did not evaluate", offset)
		}
		disp.Wait()
	}

	out := buf.String()
	if got := strings.Count(out, `"msg":"no arbitrage opportunity"`); got != 2 {
		t.Fatalf("no-opportunity logs = %d, want 2\n%s", got, out)
	}
	if !strings.Contains(out, `"best_profit_pct":"-0.2"`) || !strings.Contains(out, `"attempted_amount":"4"`) {
		t.Errorf("log missing diagnostics:\n%s", out)
	}
}

func TestDispatcher_NoValidQuotesLog(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.LevelInfo, "test", func(context.Context) string { return "" })
	disp := newTestDispatcher(t, &fakeScanner{}, &fakeTracker{}, nil, log)

	disp.OnTick(context.Background(), t0)
	disp.Wait()

	if !strings.Contains(buf.String(), "no valid quotes available") {
		t.Errorf("expected no-quotes message:\n%s", buf.String())
	}
}

func TestDispatcher_ZeroTickUsesWallClock(t *testing.T) {
	disp := newTestDispatcher(t, &fakeScanner{result: profitableResult()}, &fakeTracker{}, nil, nil)
	disp.now = func() time.Time { return t0 }

	disp.OnTick(context.Background(), time.Time{})
	disp.Wait()

	actions := disp.CreateActionsProposal()
	if len(actions) != 1 || !actions[0].CreatedAt.Equal(t0) {
		t.Fatalf("actions = %+v", actions)
	}
}
