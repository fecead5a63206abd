package session

import (
	"context"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/grafana/cqlbridge/pkg/codec"
)

// retryPolicy returns the configured retry policy, nil when retries are
// disabled.
func retryPolicy(cfg Config) gocql.RetryPolicy {
	if cfg.Retries <= 0 {
		return nil
	}
	return retrier{&gocql.ExponentialBackoffRetryPolicy{
		NumRetries: cfg.Retries,
		Min:        cfg.MinBackoff,
		Max:        cfg.MaxBackoff,
	}}
}

// retrier retries driver failures but not parameters that failed to encode,
// which would fail the same way on every host.
type retrier struct {
	gocql.RetryPolicy
}

func (r retrier) Attempt(q gocql.RetryableQuery) bool {
	if f, ok := q.Context().Value(bindFailedKey{}).(*atomic.Bool); ok && f.Load() {
		return false
	}
	return r.RetryPolicy.Attempt(q)
}

func (r retrier) GetRetryType(err error) gocql.RetryType {
	var cerr *codec.Error
	if errors.As(err, &cerr) {
		return gocql.Rethrow
	}
	return r.RetryPolicy.GetRetryType(err)
}

type bindFailedKey struct{}

func withBindFailed(ctx context.Context) (context.Context, *atomic.Bool) {
	f := atomic.NewBool(false)
	return context.WithValue(ctx, bindFailedKey{}, f), f
}
