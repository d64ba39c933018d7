package winexec

import (
	"context"
	"errors"
	"time"

	"github.com/doeshing/wintool/internal/domain"
)

// attempt is one strategy in an ordered fallback chain.
type attempt[T any] struct {
	name string
	// tool is the binary the strategy needs; empty means always available.
	tool string
	run  func(ctx context.Context) (T, error)
}

// attemptObserver is told about every attempt that was actually run.
type attemptObserver func(name string, err error, elapsed time.Duration, remaining int)

// chainResult carries the winning strategy or the joined failures.
type chainResult[T any] struct {
	value    T
	strategy string
	errs     []error
	lastErr  error
	lastName string
}

// runChain tries attempts in order until one succeeds. Strategies whose tool
// the probe cannot find are skipped as unavailable. A parent context that is
// already done stops the chain, and so does an attempt that was canceled.
func runChain[T any](ctx context.Context, available func(string) bool, attempts []attempt[T], observe attemptObserver) chainResult[T] {
	var res chainResult[T]
	for i, a := range attempts {
		if err := ctx.Err(); err != nil {
			res.errs = append(res.errs, err)
			res.lastErr = &domain.ExecError{Op: a.name, Kind: domain.ErrKindCanceled, Err: err}
			res.lastName = a.name
			break
		}
		if a.tool != "" && available != nil && !available(a.tool) {
			err := &domain.ExecError{Op: a.tool, Strategy: a.name, Kind: domain.ErrKindUnavailable, Err: domain.ErrUnavailable}
			res.errs = append(res.errs, err)
			if res.lastErr == nil || domain.KindOf(res.lastErr) == domain.ErrKindUnavailable {
				res.lastErr, res.lastName = err, a.name
			}
			continue
		}
		start := time.Now()
		value, err := a.run(ctx)
		if observe != nil {
			observe(a.name, err, time.Since(start), len(attempts)-i-1)
		}
		if err == nil {
			res.value = value
			res.strategy = a.name
			res.errs = nil
			return res
		}
		res.errs = append(res.errs, err)
		res.lastErr, res.lastName = err, a.name
		if domain.KindOf(err) == domain.ErrKindCanceled || ctx.Err() != nil {
			break
		}
	}
	return res
}

// failed reports whether no attempt succeeded.
func (r chainResult[T]) failed() bool {
	return r.strategy == ""
}

// asError folds every attempt failure into one ExecError for op.
func (r chainResult[T]) asError(op string) error {
	if !r.failed() {
		return nil
	}
	out := &domain.ExecError{Op: op, Kind: domain.ErrKindUnavailable, Err: errors.Join(r.errs...)}
	if len(r.errs) == 0 {
		out.Err = errors.New("no execution strategy configured")
		return out
	}
	var last *domain.ExecError
	if errors.As(r.lastErr, &last) {
		out.Kind = last.Kind
		out.ExitCode = last.ExitCode
		out.Stderr = last.Stderr
	} else {
		out.Kind = domain.ErrKindExit
	}
	return out
}
