package executor

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"sweepcore/driver"
	"sweepcore/gridstore"
)

// Config tunes retry/backoff/settling behavior, spec §6.4's "Executor"
// option group.
type Config struct {
	MaxRetries       int
	SettlingDelay    time.Duration
	ExecutionTimeout time.Duration
	WorkerCount      int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:       3,
		SettlingDelay:    100 * time.Millisecond,
		ExecutionTimeout: 5 * time.Second,
		WorkerCount:      2,
	}
}

// GridWriter is the minimal GridStore access Executor needs: bounds
// validation, post-settle re-read, and flag write-back.
type GridWriter interface {
	Bounds() gridstore.Region
	GetCell(x, y int) (symbol gridstore.Symbol, confidence float32, age uint64, frontier bool)
	SetCell(x, y int, symbol gridstore.Symbol, confidence float32, frontier bool)
}

// Executor runs actions against a BrowserDriver, bounded to a small
// worker pool, serializing calls to the same coordinate.
type Executor struct {
	Driver driver.BrowserDriver
	Grid   GridWriter
	Cfg    Config

	// coordLocks serializes BrowserDriver calls per-coordinate (spec §5:
	// "BrowserDriver calls to the same coordinate are serialized
	// per-coord"), implemented as a channel-based mutex map in the
	// teacher's channel-as-semaphore style.
	mu         sync.Mutex
	coordLocks map[[2]int]chan struct{}
}

// New returns an Executor with the documented defaults applied where Cfg
// fields are zero.
func New(d driver.BrowserDriver, grid GridWriter, cfg Config) *Executor {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultConfig().MaxRetries
	}
	if cfg.SettlingDelay == 0 {
		cfg.SettlingDelay = DefaultConfig().SettlingDelay
	}
	if cfg.ExecutionTimeout == 0 {
		cfg.ExecutionTimeout = DefaultConfig().ExecutionTimeout
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = DefaultConfig().WorkerCount
	}
	return &Executor{Driver: d, Grid: grid, Cfg: cfg, coordLocks: make(map[[2]int]chan struct{})}
}

func (e *Executor) lockFor(coord Coord) chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := [2]int{coord.X, coord.Y}
	ch, ok := e.coordLocks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		e.coordLocks[key] = ch
	}
	return ch
}

// Execute runs a single action through validate -> translate -> settle ->
// verify -> write-back, retrying on Failed up to Cfg.MaxRetries with
// exponential backoff 0.1*2^k seconds, per spec §4.8.
func (e *Executor) Execute(ctx context.Context, action Action) Report {
	start := time.Now()

	lock := e.lockFor(action.Coord)
	lock <- struct{}{}
	defer func() { <-lock }()

	ctx, cancel := context.WithTimeout(ctx, e.Cfg.ExecutionTimeout)
	defer cancel()

	if e.Grid != nil && !e.Grid.Bounds().Contains(action.Coord.X, action.Coord.Y) {
		return Report{ActionID: action.ID, Result: InvalidCoordinates, Elapsed: time.Since(start), Error: "coordinate outside solver view bounds"}
	}

	var lastReport Report
	for attempt := 0; attempt <= e.Cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff(attempt)):
			case <-ctx.Done():
				return Report{ActionID: action.ID, Result: Timeout, Elapsed: time.Since(start), RetryAttempt: attempt}
			}
		}

		report := e.attempt(ctx, action, attempt)
		report.Elapsed = time.Since(start)
		if report.Result == Success {
			return report
		}
		if report.Result == InvalidCoordinates {
			return report // hard failure, never retried
		}
		if ctx.Err() != nil {
			report.Result = Timeout
			return report
		}
		lastReport = report
	}
	return lastReport
}

func (e *Executor) attempt(ctx context.Context, action Action, attempt int) Report {
	ok, err := e.translate(ctx, action)
	if err != nil {
		return Report{ActionID: action.ID, Result: Failed, Error: err.Error(), RetryAttempt: attempt}
	}
	if !ok {
		return Report{ActionID: action.ID, Result: Failed, Error: "driver call returned false", RetryAttempt: attempt}
	}

	select {
	case <-time.After(e.Cfg.SettlingDelay):
	case <-ctx.Done():
		return Report{ActionID: action.ID, Result: Timeout, RetryAttempt: attempt}
	}

	return e.verifyAndWriteBack(action, attempt)
}

func (e *Executor) translate(ctx context.Context, action Action) (bool, error) {
	switch action.Kind {
	case Reveal, Guess:
		return e.Driver.ClickCell(ctx, action.Coord.X, action.Coord.Y)
	case Flag:
		return e.Driver.FlagCell(ctx, action.Coord.X, action.Coord.Y)
	default:
		return false, fmt.Errorf("executor: unknown action kind %v", action.Kind)
	}
}

func (e *Executor) verifyAndWriteBack(action Action, attempt int) Report {
	if e.Grid == nil {
		return Report{ActionID: action.ID, Result: Success, RetryAttempt: attempt}
	}

	switch action.Kind {
	case Reveal, Guess:
		sym, _, _, _ := e.Grid.GetCell(action.Coord.X, action.Coord.Y)
		if sym == gridstore.Unknown {
			return Report{ActionID: action.ID, Result: VerificationFailed, RetryAttempt: attempt}
		}
		return Report{ActionID: action.ID, Result: Success, RetryAttempt: attempt}

	case Flag:
		e.Grid.SetCell(action.Coord.X, action.Coord.Y, gridstore.Flagged, 1.0, false)
		return Report{ActionID: action.ID, Result: Success, RetryAttempt: attempt}

	default:
		return Report{ActionID: action.ID, Result: Failed, Error: "unknown action kind", RetryAttempt: attempt}
	}
}

func backoff(attempt int) time.Duration {
	seconds := 0.1 * math.Pow(2, float64(attempt))
	return time.Duration(seconds * float64(time.Second))
}

// ExecuteBatch runs actions concurrently across Cfg.WorkerCount workers
// using an errgroup, collecting a Report per action in input order. One
// action's hard failure does not cancel the others — Execute already
// contains its own retry/backoff, so the group always returns nil error;
// reports carry the individual outcomes.
func (e *Executor) ExecuteBatch(ctx context.Context, actions []Action) []Report {
	reports := make([]Report, len(actions))
	sem := make(chan struct{}, e.Cfg.WorkerCount)
	g, gctx := errgroup.WithContext(ctx)

	for i, action := range actions {
		i, action := i, action
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()
			reports[i] = e.Execute(gctx, action)
			return nil
		})
	}
	_ = g.Wait()
	return reports
}
