package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"github.com/grafana/cqlbridge/pkg/codec"
	"github.com/grafana/cqlbridge/pkg/cqltype"
	"github.com/grafana/cqlbridge/pkg/cqlvalue"
	"github.com/grafana/cqlbridge/pkg/params"
)

// encodeCommand serializes parameters without a cluster. Untyped
// parameters get an inferred type.
type encodeCommand struct {
	params []string
	cells  bool
}

func addEncodeCommand(app *kingpin.Application) {
	cmd := &encodeCommand{}
	c := app.Command("encode", "Encode parameters into a native protocol value list and print it as hex.").Action(cmd.run)
	c.Arg("params", "Parameters as TYPE:VALUE or bare JSON.").StringsVar(&cmd.params)
	c.Flag("cells", "Print each encoded value with its type instead of the whole list.").BoolVar(&cmd.cells)
}

func (cmd *encodeCommand) run(_ *kingpin.ParseContext) error {
	ls, err := parseLiterals(cmd.params)
	if err != nil {
		return err
	}
	cols, err := columns(ls)
	if err != nil {
		return err
	}
	block, err := params.Encode(values(ls), cols)
	if err != nil {
		return err
	}
	if !cmd.cells {
		fmt.Fprintln(os.Stdout, hex.EncodeToString(block.Bytes()))
		return nil
	}
	for i, cell := range block.Values() {
		out := "null"
		if cell != nil {
			out = hex.EncodeToString(cell)
		}
		fmt.Fprintf(os.Stdout, "%s %s\n", color.CyanString(cols[i].Type.String()), out)
	}
	return nil
}

// columns types every parameter, inferring the ones given without a type.
func columns(ls []literal) ([]cqltype.Column, error) {
	cols := make([]cqltype.Column, len(ls))
	for i, l := range ls {
		cols[i].Name = fmt.Sprintf("$%d", i+1)
		if l.typed {
			cols[i].Type = l.typ
			continue
		}
		t, err := codec.Infer(l.value)
		if err != nil {
			return nil, codec.WithPath(err, cols[i].Name)
		}
		cols[i].Type = t
	}
	return cols, nil
}

type decodeCommand struct {
	typ    string
	cell   string
	nested bool
}

func addDecodeCommand(app *kingpin.Application) {
	cmd := &decodeCommand{}
	c := app.Command("decode", "Decode a hex encoded cell of the given type and print it as JSON.").Action(cmd.run)
	c.Arg("type", "CQL type, e.g. map<text, int>.").Required().StringVar(&cmd.typ)
	c.Arg("cell", "Hex encoded cell, optionally prefixed with 0x.").Required().StringVar(&cmd.cell)
	c.Flag("nested", "Allow collections nested in collections.").BoolVar(&cmd.nested)
}

func (cmd *decodeCommand) run(_ *kingpin.ParseContext) error {
	t, err := cqltype.Parse(cmd.typ)
	if err != nil {
		return err
	}
	cell, err := hex.DecodeString(strings.TrimPrefix(cmd.cell, "0x"))
	if err != nil {
		return err
	}
	var opts []codec.Option
	if cmd.nested {
		opts = append(opts, codec.WithNesting())
	}
	v, err := codec.NewDecoder(opts...).Decode(cell, t)
	if err != nil {
		return err
	}
	out, err := cqlvalue.MarshalJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(out))
	return err
}
