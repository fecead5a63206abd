package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/gocql/gocql"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/grafana/cqlbridge/pkg/cqlvalue"
	"github.com/grafana/cqlbridge/pkg/session"
)

// batchEntry is one line of a batch file.
type batchEntry struct {
	CQL    string   `json:"cql"`
	Params []string `json:"params"`
}

type batchCommand struct {
	g *globalFlags

	file      string
	batchType string
	stats     bool
}

var batchTypes = map[string]gocql.BatchType{
	"logged":   gocql.LoggedBatch,
	"unlogged": gocql.UnloggedBatch,
	"counter":  gocql.CounterBatch,
}

func addBatchCommand(app *kingpin.Application, g *globalFlags) {
	cmd := &batchCommand{g: g}
	c := app.Command("batch", `Run statements as one batch. Each line of the input is {"cql": "...", "params": ["int:1", ...]}.`).Action(cmd.run)
	c.Arg("file", "File with the statements, - for stdin.").Default("-").StringVar(&cmd.file)
	c.Flag("type", "Batch type.").Default("logged").EnumVar(&cmd.batchType, "logged", "unlogged", "counter")
	c.Flag("stats", "Print request metrics when done.").BoolVar(&cmd.stats)
}

func (cmd *batchCommand) run(_ *kingpin.ParseContext) error {
	in := io.Reader(os.Stdin)
	if cmd.file != "-" {
		f, err := os.Open(cmd.file)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	entries, err := readBatch(in)
	if err != nil {
		return err
	}

	b := session.NewBatch(batchTypes[cmd.batchType])
	params := make([][]cqlvalue.Value, len(entries))
	for i, e := range entries {
		ls, err := parseLiterals(e.Params)
		if err != nil {
			return errors.Wrapf(err, "statement %d", i+1)
		}
		b.Append(session.NewQuery(e.CQL))
		params[i] = values(ls)
	}

	ctx, s, done, err := cmd.g.connect()
	if err != nil {
		return err
	}
	defer done()

	start := time.Now()
	if _, err := s.Batch(ctx, b, params); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s statements in %v\n", humanize.Comma(int64(len(entries))), time.Since(start).Round(time.Microsecond))
	if cmd.stats {
		printMetrics(os.Stderr, s.Metrics())
	}
	return nil
}

func readBatch(r io.Reader) ([]batchEntry, error) {
	var out []batchEntry
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var e batchEntry
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(line, &e); err != nil {
			return nil, errors.Wrapf(err, "line %d", n)
		}
		if e.CQL == "" {
			return nil, fmt.Errorf("line %d: no cql", n)
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("no statements")
	}
	return out, nil
}
