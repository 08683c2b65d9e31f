package report

import (
	"context"
	"errors"
	"fmt"
	"slices"

	log "github.com/sirupsen/logrus"
)

// Names of report sections that can be degraded.
const (
	SectionUnits        = "units"
	SectionUnit         = "unit"
	SectionTotals       = "totals"
	SectionAllocations  = "allocations"
	SectionExecutions   = "executions"
	SectionByMonth      = "byMonth"
	SectionByCategory   = "byCategory"
	SectionByClassifier = "byClassifier"
)

// StageError records why a report section could not be computed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageResult is the outcome of one independently guarded section of a report.
type StageResult[T any] struct {
	Value T
	Err   *StageError
}

func (r StageResult[T]) Failed() bool {
	return r.Err != nil
}

// runStage executes fn, turning its failures and panics into a StageError. Cancellation of ctx is
// not a stage failure: it is returned as the second value and aborts the whole report.
func runStage[T any](ctx context.Context, name string, fn func(ctx context.Context) (T, error)) (StageResult[T], error) {
	value, err := guard(func() (T, error) { return fn(ctx) })
	if err == nil {
		return StageResult[T]{Value: value}, nil
	}
	if cancelled(ctx, err) {
		return StageResult[T]{}, err
	}
	log.WithField("stage", name).Warnf("report section degraded: %v", err)
	var zero T
	return StageResult[T]{Value: zero, Err: &StageError{Stage: name, Err: err}}, nil
}

func guard[T any](fn func() (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func cancelled(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// sections collects degraded section names once each, in the order they failed.
type sections []string

func (s *sections) add(names ...string) {
	for _, name := range names {
		if !slices.Contains(*s, name) {
			*s = append(*s, name)
		}
	}
}
