// Package poll provides a reusable "poll until done" loop driven by an
// explicit backoff policy value, so async-job backends don't each carry their
// own hand-rolled delay state.
package poll

import (
	"context"
	"fmt"
	"time"
)

// Policy describes a capped exponential backoff.
type Policy struct {
	Initial     time.Duration
	Multiplier  float64
	Cap         time.Duration
	MaxAttempts int
}

// DefaultPolicy matches the OCR job backends: gentle growth, 10s cap.
func DefaultPolicy() Policy {
	return Policy{
		Initial:     time.Second,
		Multiplier:  1.2,
		Cap:         10 * time.Second,
		MaxAttempts: 30,
	}
}

// ErrExhausted is wrapped into the error returned when MaxAttempts passes
// without fn reporting done.
var ErrExhausted = fmt.Errorf("poll: attempts exhausted")

// Until calls fn until it reports done, returns an error, the context is
// cancelled, or MaxAttempts is reached. The delay before each subsequent
// attempt grows by Multiplier up to Cap. The first attempt runs immediately.
func Until(ctx context.Context, p Policy, fn func(ctx context.Context) (done bool, err error)) error {
	delay := p.Initial
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
			delay = time.Duration(float64(delay) * p.Multiplier)
			if p.Cap > 0 && delay > p.Cap {
				delay = p.Cap
			}
		}

		done, err := fn(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return fmt.Errorf("%w after %d attempts", ErrExhausted, p.MaxAttempts)
}
