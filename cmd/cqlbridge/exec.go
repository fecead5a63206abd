package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log/level"
	"github.com/gocql/gocql"
	"github.com/pkg/errors"

	"github.com/grafana/cqlbridge/pkg/session"
	util_log "github.com/grafana/cqlbridge/pkg/util/log"
)

// execCommand runs one statement and prints its rows.
type execCommand struct {
	g *globalFlags

	cql               string
	params            []string
	serialConsistency string
	pageSize          int
	trace             bool
	stats             bool
}

func addExecCommand(app *kingpin.Application, g *globalFlags) {
	cmd := &execCommand{g: g}
	c := app.Command("exec", "Execute a statement and print the rows as JSON, one object per line.").Default().Action(cmd.run)
	c.Arg("cql", "The statement.").Required().StringVar(&cmd.cql)
	c.Arg("params", "Parameters as TYPE:VALUE, e.g. int:1 or 'list<text>:[\"a\"]', or as bare JSON.").StringsVar(&cmd.params)
	c.Flag("serial-consistency", "Serial consistency for conditional statements.").EnumVar(&cmd.serialConsistency, "SERIAL", "LOCAL_SERIAL", "serial", "local_serial")
	c.Flag("page-size", "Rows per page, 0 uses the configured page size.").IntVar(&cmd.pageSize)
	c.Flag("trace", "Trace the statement and print the trace.").BoolVar(&cmd.trace)
	c.Flag("stats", "Print request metrics when done.").BoolVar(&cmd.stats)
}

func (cmd *execCommand) run(_ *kingpin.ParseContext) error {
	ls, err := parseLiterals(cmd.params)
	if err != nil {
		return err
	}
	ctx, s, done, err := cmd.g.connect()
	if err != nil {
		return err
	}
	defer done()

	checkTypes(ctx, s, cmd.cql, ls)

	q := session.NewQuery(cmd.cql)
	q.PageSize = cmd.pageSize
	q.Tracing = cmd.trace
	if cmd.serialConsistency != "" {
		var sc gocql.SerialConsistency
		if err := sc.UnmarshalText([]byte(strings.ToUpper(cmd.serialConsistency))); err != nil {
			return err
		}
		q.SetSerialConsistency(sc)
	}

	start := time.Now()
	res, err := s.Execute(ctx, q, values(ls))
	if res != nil {
		if perr := printRows(os.Stdout, res.Rows); perr != nil {
			return perr
		}
	}
	if err != nil {
		return err
	}
	printSummary(os.Stderr, res, time.Since(start))

	if cmd.trace {
		info, err := s.TracingInfo(ctx, res.TraceID)
		if err != nil {
			return errors.Wrapf(err, "reading trace %s", res.TraceID)
		}
		printTrace(os.Stderr, info)
	}
	if cmd.stats {
		printMetrics(os.Stderr, s.Metrics())
	}
	return nil
}

// checkTypes warns about typed parameters whose type differs from the one
// the server declares. The value is still sent and encoded against the
// declared type.
func checkTypes(ctx context.Context, s *session.Session, cql string, ls []literal) {
	typed := false
	for _, l := range ls {
		typed = typed || l.typed
	}
	if !typed {
		return
	}
	p, err := s.Prepare(ctx, cql)
	if err != nil || len(p.Params) != len(ls) {
		return
	}
	for i, l := range ls {
		if l.typed && !l.typ.Equal(p.Params[i].Type) {
			level.Warn(util_log.Logger).Log("msg", "parameter type differs from the declared type", "param", p.Params[i].Name, "given", l.typ, "declared", p.Params[i].Type)
		}
	}
}
