package session

import (
	"context"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/grafana/cqlbridge/pkg/codec"
)

type fakeQuery struct {
	ctx      context.Context
	attempts int
}

func (q *fakeQuery) Attempts() int                     { return q.attempts }
func (q *fakeQuery) SetConsistency(gocql.Consistency)  {}
func (q *fakeQuery) GetConsistency() gocql.Consistency { return gocql.One }
func (q *fakeQuery) Context() context.Context          { return q.ctx }

func TestRetryPolicyDisabled(t *testing.T) {
	require.Nil(t, retryPolicy(Config{}))
}

func TestRetrier(t *testing.T) {
	p := retryPolicy(Config{Retries: 2, MinBackoff: time.Millisecond, MaxBackoff: time.Millisecond})
	require.NotNil(t, p)

	ctx, failed := withBindFailed(context.Background())
	q := &fakeQuery{ctx: ctx, attempts: 1}
	require.True(t, p.Attempt(q))

	q.attempts = 3
	require.False(t, p.Attempt(q))

	q.attempts = 1
	failed.Store(true)
	require.False(t, p.Attempt(q))

	// Queries without the marker are left to the backoff policy.
	require.True(t, p.Attempt(&fakeQuery{ctx: context.Background(), attempts: 1}))
}

func TestRetrierRetryType(t *testing.T) {
	p := retryPolicy(Config{Retries: 1})
	require.Equal(t, gocql.RetryNextHost, p.GetRetryType(errors.New("timeout")))

	err := errors.Wrap(codec.Newf(codec.ErrTypeMismatch, "cannot use text as int"), "statement 0")
	require.Equal(t, gocql.Rethrow, p.GetRetryType(err))
}
