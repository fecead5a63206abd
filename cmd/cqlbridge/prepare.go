package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"github.com/grafana/cqlbridge/pkg/cqltype"
)

type prepareCommand struct {
	g   *globalFlags
	cql string
}

func addPrepareCommand(app *kingpin.Application, g *globalFlags) {
	cmd := &prepareCommand{g: g}
	c := app.Command("prepare", "Prepare a statement and print its parameter and result columns.").Action(cmd.run)
	c.Arg("cql", "The statement.").Required().StringVar(&cmd.cql)
}

func (cmd *prepareCommand) run(_ *kingpin.ParseContext) error {
	ctx, s, done, err := cmd.g.connect()
	if err != nil {
		return err
	}
	defer done()

	p, err := s.Prepare(ctx, cmd.cql)
	if err != nil {
		return err
	}
	bold := color.New(color.Bold)
	bold.Println("Parameters:")
	printColumns(p.Params)
	bold.Println("Columns:")
	printColumns(p.Columns)
	return nil
}

func printColumns(cols []cqltype.Column) {
	if len(cols) == 0 {
		fmt.Fprintln(os.Stdout, "\t(none)")
		return
	}
	for i, c := range cols {
		fmt.Fprintf(os.Stdout, "\t%d. %s %s\n", i+1, c.Name, color.CyanString(c.Type.String()))
	}
}
