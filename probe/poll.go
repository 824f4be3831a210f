package probe

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/use-agent/cardpost/driver"
)

// ErrTimeout is returned by Poll when the condition never held.
var ErrTimeout = errors.New("probe: condition not met before timeout")

var errNotYet = errors.New("not yet")

// Poll calls fn every interval until it reports done, returns an error, or
// timeout elapses. fn is called at least once.
func Poll(ctx context.Context, timeout, interval time.Duration, fn func(ctx context.Context) (bool, error)) error {
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	bo := backoff.WithContext(backoff.NewConstantBackOff(interval), pctx)

	op := func() error {
		done, err := fn(pctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !done {
			return errNotYet
		}
		return nil
	}

	err := backoff.Retry(op, bo)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, errNotYet) || errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}

// WaitFor polls chain.Find on s until an element appears or timeout elapses.
func WaitFor(ctx context.Context, s driver.Surface, chain Chain, timeout, interval time.Duration) (driver.Element, string, error) {
	var (
		found driver.Element
		name  string
	)
	err := Poll(ctx, timeout, interval, func(ctx context.Context) (bool, error) {
		el, n, ferr := chain.Find(ctx, s)
		if ferr != nil {
			if errors.Is(ferr, ErrNotFound) {
				return false, nil
			}
			return false, ferr
		}
		found, name = el, n
		return true, nil
	})
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	return found, name, nil
}

// Settle waits for d unless ctx ends first.
func Settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
