package porecaphttp

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

var renderGroup singleflight.Group

// singleflightBuild runs fn once per key for all concurrent callers. The
// shared call gets its own deadline and does not inherit cancellation from
// whichever caller started it; each caller still stops waiting when its own
// ctx ends.
func singleflightBuild(ctx context.Context, key string, timeout time.Duration, fn func(context.Context) (interface{}, error)) (interface{}, error, bool) {
	resultChan := renderGroup.DoChan(key, func() (interface{}, error) {
		workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		return fn(workCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}
