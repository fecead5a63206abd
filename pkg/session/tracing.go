package session

import (
	"context"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/grafana/dskit/backoff"
	"github.com/pkg/errors"

	"github.com/grafana/cqlbridge/pkg/cqlvalue"
)

// ErrTraceNotFound is returned when a trace is not, or not yet completely,
// written to system_traces.
var ErrTraceNotFound = errors.New("trace not found")

// traceCapture records the trace id the coordinator assigned.
type traceCapture struct {
	mtx sync.Mutex
	raw []byte
}

func (t *traceCapture) Trace(traceID []byte) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.raw = append([]byte(nil), traceID...)
}

func (t *traceCapture) id() uuid.UUID {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	id, err := uuid.FromBytes(t.raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// TracingInfo is a trace session from system_traces.sessions together with
// its events. Fields the server left null are zero.
type TracingInfo struct {
	Client      netip.Addr        `json:"client"`
	Command     string            `json:"command"`
	Coordinator netip.Addr        `json:"coordinator"`
	Duration    time.Duration     `json:"duration"`
	Parameters  map[string]string `json:"parameters"`
	Request     string            `json:"request"`
	StartedAt   time.Time         `json:"started_at"`
	Events      []TracingEvent    `json:"events"`
}

// TracingEvent is one step of a traced request.
type TracingEvent struct {
	EventID       uuid.UUID     `json:"event_id"`
	Activity      string        `json:"activity"`
	Source        netip.Addr    `json:"source"`
	SourceElapsed time.Duration `json:"source_elapsed"`
	Thread        string        `json:"thread"`
}

// Traces are written asynchronously, so a trace that was just requested may
// not be complete yet.
var traceBackoff = backoff.Config{
	MinBackoff: 3 * time.Millisecond,
	MaxBackoff: 100 * time.Millisecond,
	MaxRetries: 5,
}

// TracingInfo fetches the trace with the given id, as returned in
// Result.TraceID.
func (s *Session) TracingInfo(ctx context.Context, id uuid.UUID) (*TracingInfo, error) {
	b := backoff.New(ctx, traceBackoff)
	for b.Ongoing() {
		info, err := s.tracingInfo(ctx, id)
		if err == nil {
			return info, nil
		}
		if !errors.Is(err, ErrTraceNotFound) {
			return nil, err
		}
		b.Wait()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("trace %s after %d attempts: %w", id, b.NumRetries(), ErrTraceNotFound)
}

func (s *Session) tracingInfo(ctx context.Context, id uuid.UUID) (*TracingInfo, error) {
	params := []cqlvalue.Value{cqlvalue.UUID(id)}

	sessions := NewQuery(`SELECT client, command, coordinator, duration, parameters, request, started_at
		FROM system_traces.sessions WHERE session_id = ?`)
	sessions.SetConsistency(gocql.One)
	res, err := s.Execute(ctx, sessions, params)
	if err != nil {
		return nil, err
	}
	// A session without a duration is still being written.
	if len(res.Rows) == 0 || !res.Rows[0].Has("duration") {
		return nil, ErrTraceNotFound
	}
	row := res.Rows[0]
	info := &TracingInfo{
		Client:      inetCol(row, "client"),
		Command:     textCol(row, "command"),
		Coordinator: inetCol(row, "coordinator"),
		Duration:    micros(row, "duration"),
		Request:     textCol(row, "request"),
	}
	if v, ok := row.Get("started_at"); ok {
		if ts, ok := v.(cqlvalue.Timestamp); ok {
			info.StartedAt = ts.Time()
		}
	}
	if v, ok := row.Get("parameters"); ok {
		m, _ := v.(*cqlvalue.Map)
		info.Parameters = make(map[string]string, m.Len())
		m.Range(func(k string, v cqlvalue.Value) bool {
			if t, ok := v.(cqlvalue.Text); ok {
				info.Parameters[k] = string(t)
			}
			return true
		})
	}

	events := NewQuery(`SELECT event_id, activity, source, source_elapsed, thread
		FROM system_traces.events WHERE session_id = ?`)
	events.SetConsistency(gocql.One)
	res, err = s.Execute(ctx, events, params)
	if err != nil {
		return nil, err
	}
	info.Events = make([]TracingEvent, 0, len(res.Rows))
	for _, row := range res.Rows {
		e := TracingEvent{
			Activity:      textCol(row, "activity"),
			Source:        inetCol(row, "source"),
			SourceElapsed: micros(row, "source_elapsed"),
			Thread:        textCol(row, "thread"),
		}
		if v, ok := row.Get("event_id"); ok {
			if id, ok := v.(cqlvalue.UUID); ok {
				e.EventID = uuid.UUID(id)
			}
		}
		info.Events = append(info.Events, e)
	}
	return info, nil
}

func textCol(row *cqlvalue.Map, name string) string {
	v, _ := row.Get(name)
	if v, ok := v.(cqlvalue.Text); ok {
		return string(v)
	}
	return ""
}

func inetCol(row *cqlvalue.Map, name string) netip.Addr {
	v, _ := row.Get(name)
	if v, ok := v.(cqlvalue.Inet); ok {
		return netip.Addr(v)
	}
	return netip.Addr{}
}

func micros(row *cqlvalue.Map, name string) time.Duration {
	v, _ := row.Get(name)
	if v, ok := v.(cqlvalue.Int); ok {
		return time.Duration(v) * time.Microsecond
	}
	return 0
}
