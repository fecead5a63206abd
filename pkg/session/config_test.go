package session

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/gocql/gocql"
	"github.com/grafana/dskit/flagext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func defaultConfig(t *testing.T, args ...string) Config {
	t.Helper()
	var cfg Config
	fs := flag.NewFlagSet("test", flag.PanicOnError)
	cfg.RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return cfg
}

func TestConfigDefaults(t *testing.T) {
	cfg := defaultConfig(t, "-cql.addresses=a,b")

	assert.Equal(t, flagext.StringSliceCSV{"a", "b"}, cfg.Addresses)
	assert.Equal(t, 9042, cfg.Port)
	assert.Equal(t, "QUORUM", cfg.Consistency)
	assert.Equal(t, 5000, cfg.PageSize)
	assert.True(t, cfg.HostVerification)
	assert.Equal(t, "none", cfg.Compression)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, "statement", cfg.FailurePolicy)
	assert.Equal(t, 1, cfg.DecodeParallelism)
	require.NoError(t, cfg.Validate())
}

func TestConfigYAML(t *testing.T) {
	cfg := defaultConfig(t)
	in := `
addresses: db1,db2
keyspace: ks
consistency: ONE
compression: lz4
password: secret
`
	require.NoError(t, yaml.UnmarshalStrict([]byte(in), &cfg))
	assert.Equal(t, flagext.StringSliceCSV{"db1", "db2"}, cfg.Addresses)
	assert.Equal(t, "ks", cfg.Keyspace)
	assert.Equal(t, "secret", cfg.Password.String())
	require.NoError(t, cfg.Validate())

	// Secrets are masked when the config is printed.
	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "secret")
}

func TestConfigValidate(t *testing.T) {
	for _, tc := range []struct {
		name string
		args []string
		err  string
	}{
		{name: "no addresses", err: "at least one address"},
		{name: "bad consistency", args: []string{"-cql.addresses=a", "-cql.consistency=MOST"}},
		{name: "bad serial consistency", args: []string{"-cql.addresses=a", "-cql.serial-consistency=QUORUM"}},
		{name: "bad compression", args: []string{"-cql.addresses=a", "-cql.compression=zstd"}, err: "unknown compression"},
		{name: "bad failure policy", args: []string{"-cql.addresses=a", "-cql.failure-policy=column"}},
		{name: "negative page size", args: []string{"-cql.addresses=a", "-cql.page-size=-1"}, err: "invalid page size"},
		{name: "password twice", args: []string{"-cql.addresses=a", "-cql.password=x", "-cql.password-file=/p"}, err: "mutually exclusive"},
		{name: "host verification", args: []string{"-cql.addresses=a,b", "-cql.ssl"}, err: "single host"},
		{name: "backoff", args: []string{"-cql.addresses=a", "-cql.max-retries=3", "-cql.retry-min-backoff=1s", "-cql.retry-max-backoff=1ms"}, err: "backoff"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig(t, tc.args...)
			err := cfg.Validate()
			require.Error(t, err)
			if tc.err != "" {
				require.Contains(t, err.Error(), tc.err)
			}
		})
	}

	cfg := defaultConfig(t, "-cql.addresses=a", "-cql.serial-consistency=local_serial")
	require.NoError(t, cfg.Validate())
}

func TestCluster(t *testing.T) {
	cfg := defaultConfig(t,
		"-cql.addresses=db",
		"-cql.port=19042",
		"-cql.consistency=LOCAL_ONE",
		"-cql.serial-consistency=SERIAL",
		"-cql.compression=snappy",
		"-cql.page-size=100",
		"-cql.ssl",
		"-cql.ca-path=/ca.pem",
	)
	require.NoError(t, cfg.Validate())

	cluster, err := cfg.cluster("ks", log.NewNopLogger(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"db"}, cluster.Hosts)
	assert.Equal(t, 19042, cluster.Port)
	assert.Equal(t, "ks", cluster.Keyspace)
	assert.Equal(t, gocql.LocalOne, cluster.Consistency)
	assert.Equal(t, gocql.Serial, cluster.SerialConsistency)
	assert.Equal(t, 100, cluster.PageSize)
	assert.Equal(t, gocql.SnappyCompressor{}, cluster.Compressor)
	require.NotNil(t, cluster.SslOpts)
	assert.Equal(t, "/ca.pem", cluster.SslOpts.CaPath)
	assert.True(t, cluster.SslOpts.EnableHostVerification)
	assert.Nil(t, cluster.Authenticator)
	assert.Nil(t, cluster.RetryPolicy)
	assert.Nil(t, cluster.QueryObserver)
}

func TestClusterPasswordFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "password")
	require.NoError(t, os.WriteFile(path, []byte("hunter2\n"), 0o600))

	cfg := defaultConfig(t, "-cql.addresses=db", "-cql.auth", "-cql.username=admin", "-cql.password-file="+path, "-cql.max-retries=2")
	cluster, err := cfg.cluster("", log.NewNopLogger(), nil)
	require.NoError(t, err)
	assert.Equal(t, gocql.PasswordAuthenticator{Username: "admin", Password: "hunter2"}, cluster.Authenticator)
	assert.IsType(t, retrier{}, cluster.RetryPolicy)

	cfg.PasswordFile = filepath.Join(t.TempDir(), "missing")
	_, err = cfg.cluster("", log.NewNopLogger(), nil)
	require.ErrorContains(t, err, "could not read password file")
}

func TestClusterPassword(t *testing.T) {
	cfg := defaultConfig(t, "-cql.addresses=db", "-cql.auth", "-cql.username=admin", "-cql.password=pw")
	cluster, err := cfg.cluster("", log.NewNopLogger(), nil)
	require.NoError(t, err)
	assert.Equal(t, gocql.PasswordAuthenticator{Username: "admin", Password: "pw"}, cluster.Authenticator)
}
