// Package session executes CQL statements with dynamically typed parameters
// and returns rows as ordered maps of dynamically typed values.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/grafana/regexp"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/cqlbridge/pkg/codec"
	"github.com/grafana/cqlbridge/pkg/cqltype"
	"github.com/grafana/cqlbridge/pkg/cqlvalue"
	"github.com/grafana/cqlbridge/pkg/rows"
)

var (
	errPrepareOnly = errors.New("statement prepared, not executed")

	keyspaceName = regexp.MustCompile(`^[a-zA-Z0-9_]{1,48}$`)
)

// Session is a connection to a cluster. It is safe for concurrent use.
type Session struct {
	cfg       Config
	logger    log.Logger
	metrics   *Metrics
	observer  *observer
	projector *rows.Projector

	// mtx guards the driver session, which UseKeyspace replaces.
	mtx      sync.RWMutex
	session  *gocql.Session
	keyspace string
}

// New connects to the cluster described by cfg. Request metrics are
// registered on reg.
func New(cfg Config, logger log.Logger, reg prometheus.Registerer) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid session config")
	}
	policy, err := rows.ParsePolicy(cfg.FailurePolicy)
	if err != nil {
		return nil, err
	}
	var opts []codec.Option
	if cfg.NestedCollections {
		opts = append(opts, codec.WithNesting())
	}

	m := newMetrics()
	s := &Session{
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		observer: newObserver(m, reg),
		projector: &rows.Projector{
			Policy:      policy,
			Parallelism: cfg.DecodeParallelism,
			Decoder:     codec.NewDecoder(opts...),
		},
		keyspace: cfg.Keyspace,
	}
	if s.session, err = s.connect(cfg.Keyspace); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) connect(keyspace string) (*gocql.Session, error) {
	cluster, err := s.cfg.cluster(keyspace, s.logger, s.observer)
	if err != nil {
		return nil, err
	}
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", strings.Join(s.cfg.Addresses, ","))
	}
	return session, nil
}

// Close the session.
func (s *Session) Close() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.session.Close()
}

// Metrics returns the request metrics of the session.
func (s *Session) Metrics() *Metrics {
	return s.metrics
}

// Keyspace returns the default keyspace.
func (s *Session) Keyspace() string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.keyspace
}

// Execute runs stmt with values bound to its parameters in order. Values
// are encoded against the parameter types the server reports.
//
// With the row failure policy, rows that cannot be decoded are nil in the
// result and the error describing them is returned alongside it.
func (s *Session) Execute(ctx context.Context, stmt Statement, values []cqlvalue.Value) (*Result, error) {
	cql, opts := stmt.statement()
	res, err := s.execute(ctx, cql, opts, values)
	if err != nil {
		return res, queryError(cql, values, err)
	}
	return res, nil
}

func (s *Session) execute(ctx context.Context, cql string, opts *Options, values []cqlvalue.Value) (*Result, error) {
	if len(values) > 0 && !preparable(cql) {
		return nil, codec.Newf(codec.ErrShapeMismatch, "statement takes no parameters, %d values given", len(values))
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	ctx, failed := withBindFailed(ctx)
	b := &binder{values: values, failed: failed}
	q := s.session.Bind(cql, b.bind).WithContext(withPageCounter(ctx))
	q = opts.apply(q)
	q = q.RetryPolicy(retryPolicy(s.cfg))
	var tracer *traceCapture
	if opts.Tracing {
		tracer = &traceCapture{}
		q = q.Trace(tracer)
	}

	iter := q.Iter()
	cols := iter.Columns()
	sc := newScanner(cols)
	raw := [][][]byte{}
	for iter.Scan(sc.dest...) {
		raw = append(raw, sc.row())
	}
	warnings := iter.Warnings()
	if err := iter.Close(); err != nil {
		return nil, errors.WithStack(err)
	}
	for _, w := range warnings {
		level.Warn(s.logger).Log("msg", "server warning", "statement", cql, "warning", w)
	}

	res := &Result{
		Columns:  cqltype.FromColumns(cols),
		Warnings: warnings,
	}
	if tracer != nil {
		res.TraceID = tracer.id()
	}
	var err error
	res.Rows, err = s.projector.Project(ctx, raw, res.Columns)
	if err != nil && res.Rows == nil {
		return nil, err
	}
	return res, err
}

// Prepare prepares stmt and reports its parameter and result columns.
// Statements the driver never prepares, such as schema changes, come back
// without columns and cannot take parameters.
func (s *Session) Prepare(ctx context.Context, stmt string) (*Prepared, error) {
	if !preparable(stmt) {
		return &Prepared{CQL: stmt}, nil
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var info *gocql.QueryInfo
	err := s.session.Bind(stmt, func(qi *gocql.QueryInfo) ([]interface{}, error) {
		info = qi
		return nil, errPrepareOnly
	}).WithContext(ctx).RetryPolicy(nil).Observer(nil).Exec()
	if info == nil {
		if err == nil {
			err = errors.New("statement was not prepared")
		}
		return nil, queryError(stmt, nil, errors.WithStack(err))
	}
	return &Prepared{
		CQL:     stmt,
		Params:  cqltype.FromColumns(info.Args),
		Columns: cqltype.FromColumns(info.Rval),
	}, nil
}

// Batch runs the statements of b as one request. values holds the
// parameters of each statement, in the order of b.Statements.
func (s *Session) Batch(ctx context.Context, b *Batch, values [][]cqlvalue.Value) (*Result, error) {
	if err := s.batch(ctx, b, values); err != nil {
		params := make([]cqlvalue.Value, len(values))
		for i, v := range values {
			params[i] = cqlvalue.Tuple(v)
		}
		return nil, queryError(b.String(), params, err)
	}
	return &Result{Rows: []*cqlvalue.Map{}}, nil
}

func (s *Session) batch(ctx context.Context, b *Batch, values [][]cqlvalue.Value) error {
	if len(values) != len(b.Statements) {
		return codec.Newf(codec.ErrShapeMismatch, "batch has %d statements, %d parameter lists given", len(b.Statements), len(values))
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	ctx, failed := withBindFailed(ctx)
	batch := s.session.NewBatch(b.Type).WithContext(ctx)
	if b.Consistency != nil {
		batch.SetConsistency(*b.Consistency)
	}
	if b.SerialConsistency != nil {
		batch = batch.SerialConsistency(*b.SerialConsistency)
	}
	batch.RetryPolicy(retryPolicy(s.cfg))

	for i, stmt := range b.Statements {
		cql, _ := stmt.statement()
		if len(values[i]) == 0 {
			batch.Query(cql)
			continue
		}
		bd := &binder{values: values[i], failed: failed}
		batch.Bind(cql, func(qi *gocql.QueryInfo) ([]interface{}, error) {
			out, err := bd.bind(qi)
			return out, errors.Wrapf(err, "statement %d", i)
		})
	}
	return errors.WithStack(s.session.ExecuteBatch(batch))
}

// UseKeyspace makes keyspace the default for statements that do not name
// one. Unless caseSensitive is set the name is lower cased, as the server
// does with unquoted names. The session reconnects, waiting for in-flight
// statements to finish first.
func (s *Session) UseKeyspace(ctx context.Context, keyspace string, caseSensitive bool) error {
	if !keyspaceName.MatchString(keyspace) {
		return fmt.Errorf("invalid keyspace name %q: expected 1 to 48 alphanumeric characters or underscores", keyspace)
	}
	if !caseSensitive {
		keyspace = strings.ToLower(keyspace)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	session, err := s.connect(keyspace)
	if err != nil {
		return errors.Wrapf(err, "using keyspace %s", keyspace)
	}

	s.mtx.Lock()
	old := s.session
	s.session = session
	s.keyspace = keyspace
	s.mtx.Unlock()

	old.Close()
	level.Info(s.logger).Log("msg", "switched keyspace", "keyspace", keyspace)
	return nil
}

// AwaitSchemaAgreement waits until every node reports the same schema
// version, at most for the configured schema agreement timeout, and returns
// that version.
func (s *Session) AwaitSchemaAgreement(ctx context.Context) (uuid.UUID, error) {
	s.mtx.RLock()
	err := s.session.AwaitSchemaAgreement(ctx)
	s.mtx.RUnlock()
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "awaiting schema agreement")
	}
	return s.localSchemaVersion(ctx)
}

// CheckSchemaAgreement reports whether every node currently reports the same
// schema version.
func (s *Session) CheckSchemaAgreement(ctx context.Context) (bool, error) {
	local, err := s.localSchemaVersion(ctx)
	if err != nil {
		return false, err
	}
	res, err := s.Execute(ctx, NewQuery("SELECT schema_version FROM system.peers"), nil)
	if err != nil {
		return false, err
	}
	for _, row := range res.Rows {
		v, ok := row.Get("schema_version")
		if !ok {
			continue
		}
		if id, _ := v.(cqlvalue.UUID); id != cqlvalue.UUID(local) {
			return false, nil
		}
	}
	return true, nil
}

func (s *Session) localSchemaVersion(ctx context.Context) (uuid.UUID, error) {
	res, err := s.Execute(ctx, NewQuery("SELECT schema_version FROM system.local WHERE key = 'local'"), nil)
	if err != nil {
		return uuid.Nil, err
	}
	if len(res.Rows) == 0 {
		return uuid.Nil, errors.New("system.local has no row")
	}
	v, _ := res.Rows[0].Get("schema_version")
	id, ok := v.(cqlvalue.UUID)
	if !ok {
		return uuid.Nil, errors.New("local node reports no schema version")
	}
	return uuid.UUID(id), nil
}
