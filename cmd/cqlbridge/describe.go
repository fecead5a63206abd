package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"

	"github.com/grafana/cqlbridge/pkg/session"
)

type describeCommand struct {
	g *globalFlags

	keyspaces []string
	json      bool
}

func addDescribeCommand(app *kingpin.Application, g *globalFlags) {
	cmd := &describeCommand{g: g}
	c := app.Command("describe", "Print the replication and tables of keyspaces.").Action(cmd.run)
	c.Arg("keyspace", "Keyspaces to describe, all when none are given.").StringsVar(&cmd.keyspaces)
	c.Flag("json", "Print JSON instead of a summary.").BoolVar(&cmd.json)
}

func (cmd *describeCommand) run(_ *kingpin.ParseContext) error {
	ctx, s, done, err := cmd.g.connect()
	if err != nil {
		return err
	}
	defer done()

	data, err := s.ClusterData(ctx)
	if err != nil {
		return err
	}
	if len(cmd.keyspaces) > 0 {
		selected := make(map[string]*session.Keyspace, len(cmd.keyspaces))
		for _, name := range cmd.keyspaces {
			ks, ok := data[name]
			if !ok {
				return fmt.Errorf("keyspace %s does not exist", name)
			}
			selected[name] = ks
		}
		data = selected
	}

	if cmd.json {
		out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(data, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(os.Stdout, string(out))
		return err
	}

	bold := color.New(color.Bold)
	for _, name := range session.Names(data) {
		ks := data[name]
		bold.Printf("%s ", name)
		fmt.Println(strategyString(ks.Strategy))
		for _, t := range session.Names(ks.Tables) {
			if _, ok := ks.Views[t]; ok {
				continue
			}
			table := ks.Tables[t]
			fmt.Printf("\ttable %s (%s)\n", t, keyString(table))
			for _, c := range table.Columns {
				fmt.Printf("\t\t%s %s\n", c.Name, color.CyanString(c.Type.String()))
			}
		}
		for _, v := range session.Names(ks.Views) {
			fmt.Printf("\tview %s on %s (%s)\n", v, ks.Views[v].BaseTable, keyString(&ks.Views[v].Table))
		}
		for _, u := range session.Names(ks.UserTypes) {
			fmt.Printf("\ttype %s\n", color.CyanString(ks.UserTypes[u].String()))
		}
	}
	return nil
}

func strategyString(s session.Strategy) string {
	switch s.Kind {
	case session.SimpleStrategy:
		return fmt.Sprintf("SimpleStrategy replication_factor=%d", s.ReplicationFactor)
	case session.NetworkTopologyStrategy:
		dcs := make([]string, 0, len(s.DatacenterRepfactors))
		for _, dc := range session.Names(s.DatacenterRepfactors) {
			dcs = append(dcs, fmt.Sprintf("%s=%d", dc, s.DatacenterRepfactors[dc]))
		}
		return "NetworkTopologyStrategy " + strings.Join(dcs, " ")
	case session.OtherStrategy:
		return s.Name
	}
	return string(s.Kind)
}

func keyString(t *session.Table) string {
	key := "(" + strings.Join(t.PartitionKey, ", ") + ")"
	if len(t.ClusteringKey) > 0 {
		key += ", " + strings.Join(t.ClusteringKey, ", ")
	}
	return "PRIMARY KEY (" + key + ")"
}
