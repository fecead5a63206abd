package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type schemaCommand struct {
	g *globalFlags
}

func addSchemaCommand(app *kingpin.Application, g *globalFlags) {
	cmd := &schemaCommand{g: g}
	c := app.Command("schema", "Schema agreement between nodes.")
	c.Command("await", "Wait until all nodes agree on the schema and print its version.").Action(cmd.await)
	c.Command("check", "Report whether all nodes agree on the schema. Exits with 1 when they do not.").Action(cmd.check)
}

func (cmd *schemaCommand) await(_ *kingpin.ParseContext) error {
	ctx, s, done, err := cmd.g.connect()
	if err != nil {
		return err
	}
	defer done()

	version, err := s.AwaitSchemaAgreement(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, version)
	return nil
}

func (cmd *schemaCommand) check(_ *kingpin.ParseContext) error {
	ctx, s, done, err := cmd.g.connect()
	if err != nil {
		return err
	}
	defer done()

	ok, err := s.CheckSchemaAgreement(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("nodes disagree on the schema")
	}
	fmt.Fprintln(os.Stdout, color.GreenString("schema in agreement"))
	return nil
}

type traceCommand struct {
	g  *globalFlags
	id string
}

func addTraceCommand(app *kingpin.Application, g *globalFlags) {
	cmd := &traceCommand{g: g}
	c := app.Command("trace", "Print a trace recorded by the cluster.").Action(cmd.run)
	c.Arg("id", "Trace id.").Required().StringVar(&cmd.id)
}

func (cmd *traceCommand) run(_ *kingpin.ParseContext) error {
	id, err := uuid.Parse(cmd.id)
	if err != nil {
		return errors.Wrap(err, "invalid trace id")
	}
	ctx, s, done, err := cmd.g.connect()
	if err != nil {
		return err
	}
	defer done()

	info, err := s.TracingInfo(ctx, id)
	if err != nil {
		return err
	}
	printTrace(os.Stdout, info)
	return nil
}
