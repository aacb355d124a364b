package aggregate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"thirdcoast.systems/vidscan/internal/artifact"
	"thirdcoast.systems/vidscan/internal/stage"
	"thirdcoast.systems/vidscan/internal/videoid"
)

// State is a step of one aggregation run.
type State string

const (
	StateStart       State = "start"
	StateFetching    State = "fetching"
	StateNormalizing State = "normalizing"
	StateUpserting   State = "upserting"
	StateCommitted   State = "committed"
	StateRolledBack  State = "rolled_back"
)

// Status is what a run got out of one stage.
type Status string

const (
	StatusPresent     Status = "present"
	StatusAbsent      Status = "absent"
	StatusFetchFailed Status = "fetch_failed"
	StatusInvalid     Status = "invalid"
)

type StageOutcome struct {
	Status Status
	Err    error
}

// ErrNothingToAggregate is returned when no stage has a usable document.
var ErrNothingToAggregate = errors.New("no stage documents available")

// Result is the outcome of one run. OK is the only success signal; Stages
// is detail for logs.
type Result struct {
	VideoID  string
	OK       bool
	State    State
	Err      error
	Stages   map[stage.Kind]StageOutcome
	Duration time.Duration
}

// Cause is a human-readable reason for a failed run, or "".
func (r Result) Cause() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Orchestrator runs fetch, normalize and upsert for one video at a time.
// It never retries; the caller decides what to do with a failed Result.
type Orchestrator struct {
	fetcher artifact.Fetcher
	engine  *Engine
	logger  *slog.Logger
	now     func() time.Time
	timeout time.Duration
	onState func(videoID string, s State)
}

type Option func(*Orchestrator)

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithClock replaces time.Now as the source for absent document timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithTimeout bounds each run. The transaction is rolled back when it fires.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithStateHook is called on every state transition.
func WithStateHook(fn func(videoID string, s State)) Option {
	return func(o *Orchestrator) { o.onState = fn }
}

func NewOrchestrator(fetcher artifact.Fetcher, engine *Engine, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher: fetcher,
		engine:  engine,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) enter(res *Result, s State) {
	res.State = s
	if o.onState != nil {
		o.onState(res.VideoID, s)
	}
}

// Run performs exactly one aggregation pass for videoID.
func (o *Orchestrator) Run(ctx context.Context, videoID string) Result {
	started := o.now()
	res := Result{VideoID: videoID, Stages: make(map[stage.Kind]StageOutcome, len(stage.Kinds))}
	o.enter(&res, StateStart)

	finish := func(err error) Result {
		res.Duration = o.now().Sub(started)
		if err != nil {
			res.Err = err
			o.enter(&res, StateRolledBack)
			o.logger.Error("aggregation rolled back", "video_id", videoID, "error", err, "duration", res.Duration)
			return res
		}
		res.OK = true
		o.enter(&res, StateCommitted)
		o.logger.Info("aggregation committed", "video_id", videoID, "stages", res.summary(), "duration", res.Duration)
		return res
	}

	if err := videoid.Validate(videoID); err != nil {
		return finish(err)
	}
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	o.enter(&res, StateFetching)
	docs := o.fetchAll(ctx, videoID)
	for i, k := range stage.Kinds {
		switch {
		case docs[i].err != nil:
			res.Stages[k] = StageOutcome{Status: StatusFetchFailed, Err: docs[i].err}
			o.logger.Warn("stage fetch failed", "video_id", videoID, "stage", k, "error", docs[i].err)
		case docs[i].doc == nil:
			res.Stages[k] = StageOutcome{Status: StatusAbsent}
		}
	}

	o.enter(&res, StateNormalizing)
	var recs stage.Records
	for i, k := range stage.Kinds {
		if docs[i].doc == nil {
			continue
		}
		rec, err := stage.Normalize(k, docs[i].doc.Data, started)
		if err != nil {
			res.Stages[k] = StageOutcome{Status: StatusInvalid, Err: err}
			o.logger.Warn("stage document invalid", "video_id", videoID, "stage", k, "error", err)
			continue
		}
		recs.Set(rec)
		res.Stages[k] = StageOutcome{Status: StatusPresent}
	}

	if recs.Empty() {
		return finish(ErrNothingToAggregate)
	}

	o.enter(&res, StateUpserting)
	return finish(o.engine.Apply(ctx, videoID, recs))
}

type fetched struct {
	doc *artifact.Document
	err error
}

// fetchAll reads every stage concurrently. A failing stage never cancels
// the others.
func (o *Orchestrator) fetchAll(ctx context.Context, videoID string) []fetched {
	out := make([]fetched, len(stage.Kinds))
	var g errgroup.Group
	for i, k := range stage.Kinds {
		g.Go(func() error {
			doc, ok, err := o.fetcher.Fetch(ctx, videoID, k)
			switch {
			case err != nil:
				out[i].err = err
			case ok:
				out[i].doc = doc
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (r Result) summary() map[stage.Kind]Status {
	out := make(map[stage.Kind]Status, len(r.Stages))
	for k, s := range r.Stages {
		out[k] = s.Status
	}
	return out
}
