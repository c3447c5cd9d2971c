package benchmark

import (
	"context"
	"time"
)

// Handler returns the dispatcher handler for the calculate_benchmarks
// job. The job body carries no parameters: the engine
// discovers its own shards via Source.
func Handler(engine *Engine) func(ctx context.Context, body string) error {
	return func(ctx context.Context, body string) error {
		return engine.Run(ctx, time.Now())
	}
}
