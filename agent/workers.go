package agent

import (
	"context"
	"fmt"
)

type workerRun func(context.Context) error

// panicSafeNamedWorker converts a panicking worker into a named error so a
// misbehaving stage never takes the whole agent down.
func panicSafeNamedWorker(name string, run func(context.Context) error) workerRun {
	return func(ctx context.Context) (err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				err = fmt.Errorf("%s worker panicked: %v", name, recovered)
			}
		}()

		if err = run(ctx); err != nil {
			return fmt.Errorf("%s worker failed: %w", name, err)
		}

		return nil
	}
}
