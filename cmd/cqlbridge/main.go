package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log/level"
	dslog "github.com/grafana/dskit/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/cqlbridge/pkg/cfg"
	"github.com/grafana/cqlbridge/pkg/session"
	util_log "github.com/grafana/cqlbridge/pkg/util/log"
)

// globalFlags are shared by every command that talks to a cluster.
type globalFlags struct {
	configFile string
	expandEnv  bool
	logLevel   string
	logFormat  string

	addresses   []string
	keyspace    string
	consistency string
	username    string
	password    string
	timeout     time.Duration
}

func main() {
	app := kingpin.New("cqlbridge", "Run CQL statements with typed parameters and print the rows as JSON.")
	g := &globalFlags{}
	app.Flag("config.file", "YAML file with the session configuration.").StringVar(&g.configFile)
	app.Flag("config.expand-env", "Expand ${VAR} references in the config file.").BoolVar(&g.expandEnv)
	app.Flag("log.level", "Only log messages with the given severity or above. Valid levels: [debug, info, warn, error]").Default("warn").StringVar(&g.logLevel)
	app.Flag("log.format", "Output log messages in the given format. Valid formats: [logfmt, json]").Default("logfmt").StringVar(&g.logFormat)
	app.Flag("addresses", "Comma-separated addresses of the cluster, overrides the config file.").Envar("CQLBRIDGE_ADDRESSES").StringsVar(&g.addresses)
	app.Flag("keyspace", "Default keyspace, overrides the config file.").StringVar(&g.keyspace)
	app.Flag("consistency", "Consistency level, overrides the config file.").StringVar(&g.consistency)
	app.Flag("username", "Username, enables password authentication.").Envar("CQLBRIDGE_USERNAME").StringVar(&g.username)
	app.Flag("password", "Password for --username.").Envar("CQLBRIDGE_PASSWORD").StringVar(&g.password)
	app.Flag("timeout", "Statement timeout, overrides the config file.").DurationVar(&g.timeout)

	app.PreAction(func(_ *kingpin.ParseContext) error {
		var lvl dslog.Level
		if err := lvl.Set(g.logLevel); err != nil {
			return err
		}
		return util_log.InitLogger(lvl, g.logFormat, prometheus.DefaultRegisterer)
	})

	addExecCommand(app, g)
	addPrepareCommand(app, g)
	addBatchCommand(app, g)
	addDescribeCommand(app, g)
	addSchemaCommand(app, g)
	addTraceCommand(app, g)
	addEncodeCommand(app)
	addDecodeCommand(app)
	addConfigCommand(app, g)

	if _, err := app.Parse(os.Args[1:]); err != nil {
		exitWithErr(err)
	}
}

// config layers flag defaults, the config file and the global flags.
func (g *globalFlags) config() (session.Config, error) {
	var c session.Config
	err := cfg.Unmarshal(&c,
		cfg.Defaults(),
		cfg.YAMLFile(g.configFile, g.expandEnv),
		cfg.Override(g.override),
	)
	if err != nil {
		return c, err
	}
	return c, c.Validate()
}

func (g *globalFlags) override(c *session.Config) {
	if len(g.addresses) > 0 {
		_ = c.Addresses.Set(strings.Join(g.addresses, ","))
	}
	if g.keyspace != "" {
		c.Keyspace = g.keyspace
	}
	if g.consistency != "" {
		c.Consistency = g.consistency
	}
	if g.username != "" {
		c.Auth = true
		c.Username = g.username
		_ = c.Password.Set(g.password)
		c.PasswordFile = ""
	}
	if g.timeout > 0 {
		c.Timeout = g.timeout
	}
}

// connect opens a session and returns a context cancelled on SIGINT.
func (g *globalFlags) connect() (context.Context, *session.Session, func(), error) {
	c, err := g.config()
	if err != nil {
		return nil, nil, nil, err
	}
	s, err := session.New(c, util_log.Logger, prometheus.DefaultRegisterer)
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx, s, func() {
		cancel()
		s.Close()
	}, nil
}

func exitWithErr(err error) {
	level.Error(util_log.Logger).Log("msg", "command failed", "err", err)
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
