package session

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"github.com/grafana/dskit/instrument"
	"github.com/influxdata/tdigest"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/atomic"
)

// ErrNoLatency is returned by the latency getters before any request
// completed.
var ErrNoLatency = errors.New("no latency samples recorded")

// Metrics counts the requests a Session sent. A statement whose result spans
// several pages counts once as a query and once per further page as an iter
// query.
type Metrics struct {
	queries     atomic.Uint64
	queriesIter atomic.Uint64
	errors      atomic.Uint64
	errorsIter  atomic.Uint64

	mtx          sync.Mutex
	latency      *tdigest.TDigest
	totalLatency time.Duration
	samples      uint64
}

func newMetrics() *Metrics {
	return &Metrics{latency: tdigest.New()}
}

// QueriesNum returns the number of requests that were not a follow-up page.
func (m *Metrics) QueriesNum() uint64 { return m.queries.Load() }

// QueriesIterNum returns the number of follow-up page requests.
func (m *Metrics) QueriesIterNum() uint64 { return m.queriesIter.Load() }

// ErrorsNum returns the number of failed requests that were not a follow-up
// page.
func (m *Metrics) ErrorsNum() uint64 { return m.errors.Load() }

// ErrorsIterNum returns the number of failed follow-up page requests.
func (m *Metrics) ErrorsIterNum() uint64 { return m.errorsIter.Load() }

// LatencyAvgMs returns the mean request latency in milliseconds.
func (m *Metrics) LatencyAvgMs() (uint64, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if m.samples == 0 {
		return 0, ErrNoLatency
	}
	return uint64(m.totalLatency.Milliseconds()) / m.samples, nil
}

// LatencyPercentileMs returns the latency in milliseconds below which the
// given percentage of requests completed. p is clamped to [0, 100].
func (m *Metrics) LatencyPercentileMs(p float64) (uint64, error) {
	p = math.Max(0, math.Min(100, p))
	if math.IsNaN(p) {
		p = 0
	}
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if m.samples == 0 {
		return 0, ErrNoLatency
	}
	return uint64(math.Round(m.latency.Quantile(p / 100))), nil
}

func (m *Metrics) observe(page int, took time.Duration, err error) {
	switch {
	case page == 0:
		m.queries.Inc()
		if err != nil {
			m.errors.Inc()
		}
	default:
		m.queriesIter.Inc()
		if err != nil {
			m.errorsIter.Inc()
		}
	}

	m.mtx.Lock()
	m.latency.Add(float64(took)/float64(time.Millisecond), 1)
	m.totalLatency += took
	m.samples++
	m.mtx.Unlock()
}

// observer collects request metrics from the driver. It implements
// gocql.QueryObserver and gocql.BatchObserver.
type observer struct {
	metrics         *Metrics
	requestDuration *instrument.HistogramCollector
}

func newObserver(m *Metrics, reg prometheus.Registerer) *observer {
	return &observer{
		metrics: m,
		requestDuration: instrument.NewHistogramCollector(promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cqlbridge",
			Name:      "request_duration_seconds",
			Help:      "Time spent doing CQL requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 9),
		}, []string{"operation", "status_code"})),
	}
}

func err2code(err error) string {
	if err != nil {
		return "500"
	}
	return "200"
}

func (o *observer) ObserveBatch(ctx context.Context, b gocql.ObservedBatch) {
	o.requestDuration.After(ctx, "BATCH", err2code(b.Err), b.Start)
	o.metrics.observe(0, b.End.Sub(b.Start), b.Err)
}

func (o *observer) ObserveQuery(ctx context.Context, q gocql.ObservedQuery) {
	o.requestDuration.After(ctx, operation(q.Statement), err2code(q.Err), q.Start)
	page := 0
	if p, ok := ctx.Value(pagesKey{}).(*pageCounter); ok {
		page = p.next(q.Attempt)
	}
	o.metrics.observe(page, q.End.Sub(q.Start), q.Err)
}

// operation is the statement's leading keyword, which keeps the label set
// small.
func operation(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if i := strings.IndexFunc(stmt, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }); i >= 0 {
		stmt = stmt[:i]
	}
	switch op := strings.ToUpper(stmt); op {
	case "SELECT", "INSERT", "UPDATE", "DELETE", "BATCH", "BEGIN", "CREATE", "ALTER", "DROP", "TRUNCATE", "GRANT", "REVOKE", "LIST", "USE":
		return op
	}
	return "OTHER"
}

type pagesKey struct{}

// pageCounter numbers the pages of one statement execution. Retries of a
// page keep the page's number.
type pageCounter struct {
	n atomic.Int64
}

func withPageCounter(ctx context.Context) context.Context {
	return context.WithValue(ctx, pagesKey{}, &pageCounter{})
}

func (p *pageCounter) next(attempt int) int {
	if attempt > 0 {
		return int(p.n.Load()) - 1
	}
	return int(p.n.Inc()) - 1
}
