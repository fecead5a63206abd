package main

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"

	"github.com/grafana/cqlbridge/pkg/cqlvalue"
	"github.com/grafana/cqlbridge/pkg/session"
)

// printRows writes one JSON object per row. Rows that failed to decode are
// written as null.
func printRows(w io.Writer, rows []*cqlvalue.Map) error {
	bw := bufio.NewWriter(w)
	stream := jsoniter.NewStream(jsoniter.ConfigFastest, bw, 4096)
	for _, row := range rows {
		if row == nil {
			stream.WriteNil()
		} else {
			cqlvalue.WriteJSON(stream, row)
		}
		stream.WriteRaw("\n")
		if stream.Error != nil {
			return stream.Error
		}
	}
	if err := stream.Flush(); err != nil {
		return err
	}
	return bw.Flush()
}

func printSummary(w io.Writer, res *session.Result, took time.Duration) {
	for _, warning := range res.Warnings {
		fmt.Fprintln(w, color.YellowString("warning: %s", warning))
	}
	rows := "rows"
	if len(res.Rows) == 1 {
		rows = "row"
	}
	fmt.Fprintf(w, "%s %s in %v\n", color.New(color.Bold).Sprint(humanize.Comma(int64(len(res.Rows)))), rows, took.Round(time.Microsecond))
}

func printMetrics(w io.Writer, m *session.Metrics) {
	bold := color.New(color.Bold)
	bold.Fprintln(w, "Requests:")
	fmt.Fprintf(w, "\tqueries: %s, pages: %s, errors: %s, page errors: %s\n",
		humanize.Comma(int64(m.QueriesNum())),
		humanize.Comma(int64(m.QueriesIterNum())),
		humanize.Comma(int64(m.ErrorsNum())),
		humanize.Comma(int64(m.ErrorsIterNum())),
	)
	avg, err := m.LatencyAvgMs()
	if err != nil {
		return
	}
	p95, _ := m.LatencyPercentileMs(95)
	p99, _ := m.LatencyPercentileMs(99)
	fmt.Fprintf(w, "\tlatency avg: %dms, p95: %dms, p99: %dms\n", avg, p95, p99)
}

func printTrace(w io.Writer, info *session.TracingInfo) {
	bold := color.New(color.Bold)
	bold.Fprintf(w, "Trace: %s\n", info.Command)
	fmt.Fprintf(w, "\trequest: %s\n\tcoordinator: %s, client: %s\n\tstarted: %s (%s), duration: %v\n",
		info.Request,
		info.Coordinator,
		info.Client,
		info.StartedAt.Format(time.RFC3339Nano),
		humanize.Time(info.StartedAt),
		info.Duration,
	)
	for _, e := range info.Events {
		fmt.Fprintf(w, "\t%10v  %-15s %s %s\n",
			e.SourceElapsed,
			e.Source,
			e.Activity,
			color.HiBlackString("[%s]", e.Thread),
		)
	}
}
