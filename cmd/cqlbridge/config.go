package main

import (
	"os"

	"github.com/alecthomas/kingpin/v2"
	"gopkg.in/yaml.v2"
)

func addConfigCommand(app *kingpin.Application, g *globalFlags) {
	app.Command("config", "Validate and print the effective session configuration. Secrets are masked.").Action(func(_ *kingpin.ParseContext) error {
		c, err := g.config()
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(c)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	})
}
