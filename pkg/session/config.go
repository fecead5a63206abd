package session

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/gocql/gocql"
	"github.com/grafana/dskit/flagext"
	"github.com/pkg/errors"

	"github.com/grafana/cqlbridge/pkg/rows"
)

// Config for a Session.
type Config struct {
	Addresses                flagext.StringSliceCSV `yaml:"addresses"`
	Port                     int                    `yaml:"port"`
	Keyspace                 string                 `yaml:"keyspace"`
	Consistency              string                 `yaml:"consistency"`
	SerialConsistency        string                 `yaml:"serial_consistency"`
	PageSize                 int                    `yaml:"page_size"`
	DisableInitialHostLookup bool                   `yaml:"disable_initial_host_lookup"`
	SSL                      bool                   `yaml:"SSL"`
	HostVerification         bool                   `yaml:"host_verification"`
	CAPath                   string                 `yaml:"CA_path"`
	CertPath                 string                 `yaml:"tls_cert_path"`
	KeyPath                  string                 `yaml:"tls_key_path"`
	Auth                     bool                   `yaml:"auth"`
	Username                 string                 `yaml:"username"`
	Password                 flagext.Secret         `yaml:"password"`
	PasswordFile             string                 `yaml:"password_file"`
	Compression              string                 `yaml:"compression"`
	Timeout                  time.Duration          `yaml:"timeout"`
	ConnectTimeout           time.Duration          `yaml:"connect_timeout"`
	SchemaAgreementTimeout   time.Duration          `yaml:"schema_agreement_timeout"`
	NumConnections           int                    `yaml:"num_connections"`
	Retries                  int                    `yaml:"max_retries"`
	MinBackoff               time.Duration          `yaml:"retry_min_backoff"`
	MaxBackoff               time.Duration          `yaml:"retry_max_backoff"`

	// Row decoding.
	FailurePolicy     string `yaml:"failure_policy"`
	DecodeParallelism int    `yaml:"decode_parallelism"`
	NestedCollections bool   `yaml:"nested_collections"`
}

// RegisterFlags adds the flags required to config this to the given FlagSet.
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	cfg.RegisterFlagsWithPrefix("cql.", f)
}

// RegisterFlagsWithPrefix adds the flags required to config this to the
// given FlagSet, every flag name starting with prefix.
func (cfg *Config) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	f.Var(&cfg.Addresses, prefix+"addresses", "Comma-separated hostnames or IPs of Cassandra or Scylla instances.")
	f.IntVar(&cfg.Port, prefix+"port", 9042, "Port that the cluster is running on.")
	f.StringVar(&cfg.Keyspace, prefix+"keyspace", "", "Default keyspace for statements that do not name one.")
	f.StringVar(&cfg.Consistency, prefix+"consistency", "QUORUM", "Consistency level for statements.")
	f.StringVar(&cfg.SerialConsistency, prefix+"serial-consistency", "", "Serial consistency for conditional statements, SERIAL or LOCAL_SERIAL. Empty leaves it to the server.")
	f.IntVar(&cfg.PageSize, prefix+"page-size", 5000, "Number of rows fetched per page. 0 disables paging.")
	f.BoolVar(&cfg.DisableInitialHostLookup, prefix+"disable-initial-host-lookup", false, "Instruct the driver to not attempt to get host info from the system.peers table.")
	f.BoolVar(&cfg.SSL, prefix+"ssl", false, "Use SSL when connecting to the cluster.")
	f.BoolVar(&cfg.HostVerification, prefix+"host-verification", true, "Require SSL certificate validation.")
	f.StringVar(&cfg.CAPath, prefix+"ca-path", "", "Path to certificate file to verify the peer.")
	f.StringVar(&cfg.CertPath, prefix+"tls-cert-path", "", "Path to certificate file used by TLS.")
	f.StringVar(&cfg.KeyPath, prefix+"tls-key-path", "", "Path to private key file used by TLS.")
	f.BoolVar(&cfg.Auth, prefix+"auth", false, "Enable password authentication when connecting.")
	f.StringVar(&cfg.Username, prefix+"username", "", "Username to use when connecting.")
	f.Var(&cfg.Password, prefix+"password", "Password to use when connecting.")
	f.StringVar(&cfg.PasswordFile, prefix+"password-file", "", "File containing the password to use when connecting.")
	f.StringVar(&cfg.Compression, prefix+"compression", "none", "Frame compression, one of none, snappy or lz4.")
	f.DurationVar(&cfg.Timeout, prefix+"timeout", 2*time.Second, "Timeout when executing a statement.")
	f.DurationVar(&cfg.ConnectTimeout, prefix+"connect-timeout", 5*time.Second, "Initial connection timeout, used during initial dial to server.")
	f.DurationVar(&cfg.SchemaAgreementTimeout, prefix+"schema-agreement-timeout", 60*time.Second, "Maximum time to wait for all nodes to agree on the schema version.")
	f.IntVar(&cfg.NumConnections, prefix+"num-connections", 2, "Number of TCP connections per host.")
	f.IntVar(&cfg.Retries, prefix+"max-retries", 0, "Number of retries to perform on a request. 0 to disable.")
	f.DurationVar(&cfg.MinBackoff, prefix+"retry-min-backoff", 100*time.Millisecond, "Minimum time to wait before retrying a failed request.")
	f.DurationVar(&cfg.MaxBackoff, prefix+"retry-max-backoff", 10*time.Second, "Maximum time to wait before retrying a failed request.")
	f.StringVar(&cfg.FailurePolicy, prefix+"failure-policy", "statement", "What a row that cannot be decoded costs: statement fails the whole result, row drops only that row.")
	f.IntVar(&cfg.DecodeParallelism, prefix+"decode-parallelism", 1, "Number of goroutines decoding the rows of one result.")
	f.BoolVar(&cfg.NestedCollections, prefix+"nested-collections", false, "Decode collections, tuples and user defined types nested inside lists, sets and maps.")
}

// Validate the config.
func (cfg *Config) Validate() error {
	if len(cfg.Addresses) == 0 {
		return errors.New("at least one address is required")
	}
	if cfg.Password.String() != "" && cfg.PasswordFile != "" {
		return errors.New("the password and password_file config options are mutually exclusive")
	}
	if cfg.SSL && cfg.HostVerification && len(cfg.Addresses) != 1 {
		return errors.New("host verification is only possible for a single host")
	}
	if _, err := gocql.ParseConsistencyWrapper(cfg.Consistency); err != nil {
		return errors.WithStack(err)
	}
	if _, err := parseSerialConsistency(cfg.SerialConsistency); err != nil {
		return err
	}
	if _, err := compressor(cfg.Compression); err != nil {
		return err
	}
	if _, err := rows.ParsePolicy(cfg.FailurePolicy); err != nil {
		return err
	}
	if cfg.PageSize < 0 {
		return fmt.Errorf("invalid page size %d", cfg.PageSize)
	}
	if cfg.Retries > 0 && cfg.MinBackoff > cfg.MaxBackoff {
		return errors.New("retry min backoff must not be greater than max backoff")
	}
	return nil
}

func parseSerialConsistency(s string) (gocql.SerialConsistency, error) {
	if s == "" {
		return 0, nil
	}
	var c gocql.SerialConsistency
	if err := c.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, errors.WithStack(err)
	}
	return c, nil
}

// cluster builds the driver config for a connection using keyspace as its
// default keyspace.
func (cfg *Config) cluster(keyspace string, logger log.Logger, o *observer) (*gocql.ClusterConfig, error) {
	consistency, err := gocql.ParseConsistencyWrapper(cfg.Consistency)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	serial, err := parseSerialConsistency(cfg.SerialConsistency)
	if err != nil {
		return nil, err
	}
	comp, err := compressor(cfg.Compression)
	if err != nil {
		return nil, err
	}

	cluster := gocql.NewCluster(cfg.Addresses...)
	cluster.Port = cfg.Port
	cluster.Keyspace = keyspace
	cluster.Consistency = consistency
	cluster.SerialConsistency = serial
	cluster.PageSize = cfg.PageSize
	cluster.Compressor = comp
	cluster.Timeout = cfg.Timeout
	cluster.ConnectTimeout = cfg.ConnectTimeout
	cluster.MaxWaitSchemaAgreement = cfg.SchemaAgreementTimeout
	cluster.NumConns = cfg.NumConnections
	cluster.Logger = newDriverLogger(log.With(logger, "module", "gocql"))
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	if o != nil {
		cluster.QueryObserver = o
		cluster.BatchObserver = o
	}
	cluster.RetryPolicy = retryPolicy(*cfg)
	if err := cfg.setClusterConfig(cluster); err != nil {
		return nil, errors.WithStack(err)
	}
	return cluster, nil
}

// apply config settings to a cassandra ClusterConfig
func (cfg *Config) setClusterConfig(cluster *gocql.ClusterConfig) error {
	cluster.DisableInitialHostLookup = cfg.DisableInitialHostLookup

	if cfg.SSL {
		cluster.SslOpts = &gocql.SslOptions{
			CaPath:                 cfg.CAPath,
			CertPath:               cfg.CertPath,
			KeyPath:                cfg.KeyPath,
			EnableHostVerification: cfg.HostVerification,
		}
	}
	if cfg.Auth {
		password := cfg.Password.String()
		if cfg.PasswordFile != "" {
			passwordBytes, err := os.ReadFile(cfg.PasswordFile)
			if err != nil {
				return errors.Errorf("could not read password file: %v", err)
			}
			passwordBytes = []byte(strings.TrimRight(string(passwordBytes), "\n"))
			password = string(passwordBytes)
		}
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: password,
		}
	}
	return nil
}
