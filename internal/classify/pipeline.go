// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify screens bibliographic records against inclusion
// criteria with a language model. It renders a prompt per record, parses
// the free-text reply into a decision, and checkpoints the growing result
// set after every record.
package classify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/screening-engine/internal/inference"
	"github.com/pdiddy/screening-engine/internal/metrics"
	"github.com/pdiddy/screening-engine/pkg/types"
)

// DefaultOutput is the checkpoint file used when Pipeline.Output is empty.
const DefaultOutput = "results.json"

// ErrCheckpointMismatch is returned by Resume when the stored results are
// not a prefix of the input records.
var ErrCheckpointMismatch = errors.New("checkpoint does not match input records")

// State is the lifecycle position of a record within a run.
type State int

const (
	StatePending State = iota
	StateProcessing
	StateRecorded
	StateDone
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateProcessing:
		return "processing"
	case StateRecorded:
		return "recorded"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Pipeline classifies records strictly one at a time, in input order.
type Pipeline struct {
	Completer inference.Completer
	Options   inference.Options
	Criteria  string

	// Output is the result set checkpoint path.
	Output string

	// Delay is the minimum spacing between inference requests. Zero or
	// negative disables throttling.
	Delay time.Duration

	Logger   *zap.Logger
	Metrics  *metrics.Recorder
	Progress io.Writer

	// OnState, when set, observes transitions. Processing and Recorded are
	// reported per record; Done is reported once with the record count as
	// index.
	OnState func(index int, state State)
}

// Run classifies every record from the first, overwriting any existing
// checkpoint. It returns the persisted results. On context cancellation
// it stops between records and returns what was persisted with ctx.Err().
// A checkpoint failure wraps ErrCheckpoint and halts the run.
func (p *Pipeline) Run(ctx context.Context, records []types.Record) ([]types.ClassificationResult, error) {
	return p.run(ctx, records, nil)
}

// Resume continues a run from the checkpoint at Output. The stored results
// must cover records 0..m-1 in order with matching titles; classification
// continues at record m. A missing checkpoint starts a fresh run.
func (p *Pipeline) Resume(ctx context.Context, records []types.Record) ([]types.ClassificationResult, error) {
	prior, err := LoadResults(p.output())
	if errors.Is(err, os.ErrNotExist) {
		return p.run(ctx, records, nil)
	}
	if err != nil {
		return nil, err
	}
	if err := validatePrefix(prior, records); err != nil {
		return nil, err
	}
	return p.run(ctx, records, prior)
}

func validatePrefix(prior []types.ClassificationResult, records []types.Record) error {
	if len(prior) > len(records) {
		return fmt.Errorf("%w: %d stored results for %d records", ErrCheckpointMismatch, len(prior), len(records))
	}
	for i, r := range prior {
		if r.Index != i {
			return fmt.Errorf("%w: result %d has index %d", ErrCheckpointMismatch, i, r.Index)
		}
		if want := titleOf(records[i]); r.Title != want {
			return fmt.Errorf("%w: result %d is %q, record is %q", ErrCheckpointMismatch, i, r.Title, want)
		}
	}
	return nil
}

func (p *Pipeline) output() string {
	if p.Output == "" {
		return DefaultOutput
	}
	return p.Output
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

func (p *Pipeline) progress() io.Writer {
	if p.Progress == nil {
		return io.Discard
	}
	return p.Progress
}

func (p *Pipeline) transition(index int, s State) {
	if p.OnState != nil {
		p.OnState(index, s)
	}
}

// newThrottle returns a token bucket that admits one request per delay.
// The bucket starts full, so the first request never waits.
func newThrottle(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

func (p *Pipeline) run(ctx context.Context, records []types.Record, results []types.ClassificationResult) ([]types.ClassificationResult, error) {
	if p.Completer == nil {
		return nil, errors.New("classify: no inference client")
	}
	log := p.logger()
	w := p.progress()
	out := p.output()
	total := len(records)
	throttle := newThrottle(p.Delay)

	log.Info("classification started",
		zap.Int("records", total),
		zap.Int("resume_from", len(results)),
		zap.String("output", out),
		zap.Duration("delay", p.Delay),
	)

	if len(results) == 0 {
		// A fresh run truncates any previous checkpoint up front.
		if err := SaveResults(out, results); err != nil {
			return nil, err
		}
	} else {
		fmt.Fprintf(w, "resuming at entry %d/%d\n", len(results)+1, total)
	}

	for i := len(results); i < total; i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		p.transition(i, StateProcessing)

		if err := throttle.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return results, ctxErr
			}
			return results, fmt.Errorf("throttling entry %d: %w", i, err)
		}

		fmt.Fprintf(w, "Processing entry %d/%d\n", i+1, total)
		result, err := p.classifyOne(ctx, i, records[i])
		if err != nil {
			return results, err
		}

		results = append(results, result)
		if err := SaveResults(out, results); err != nil {
			log.Error("checkpoint failed", zap.Int("index", i), zap.Error(err))
			return results[:len(results)-1], err
		}
		p.Metrics.ObserveCheckpoint()
		p.Metrics.ObserveClassification(string(result.Decision), string(result.Confidence))
		p.transition(i, StateRecorded)

		fmt.Fprintf(w, "  %s (%s): %s\n", result.Decision, result.Confidence, result.Title)
	}

	p.transition(total, StateDone)
	log.Info("classification finished", zap.Int("records", total))
	return results, nil
}

// classifyOne produces the result for record i. Inference failures become
// an UNKNOWN result with no raw response; only cancellation of ctx during
// the request is returned as an error.
func (p *Pipeline) classifyOne(ctx context.Context, i int, r types.Record) (types.ClassificationResult, error) {
	prompt := BuildPrompt(r, p.Criteria)

	start := time.Now()
	reply, err := p.Completer.Complete(ctx, prompt, p.Options)
	elapsed := time.Since(start)
	p.Metrics.ObserveInference(elapsed, err)

	var (
		c   Classification
		raw *string
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return types.ClassificationResult{}, ctxErr
		}
		p.logger().Warn("inference failed",
			zap.Int("index", i),
			zap.String("title", titleOf(r)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		fmt.Fprintf(p.progress(), "  warning: inference failed: %v\n", err)
		c = DefaultClassification()
	} else {
		p.logger().Debug("inference complete", zap.Int("index", i), zap.Duration("elapsed", elapsed))
		c = Parse(reply)
		raw = &reply
	}

	return types.ClassificationResult{
		Index:          i,
		Title:          titleOf(r),
		Year:           yearOf(r),
		Decision:       c.Decision,
		Reasoning:      c.Reasoning,
		Confidence:     c.Confidence,
		RawResponse:    raw,
		OriginalRecord: r,
	}, nil
}
