package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grafana/cqlbridge/pkg/cqltype"
	"github.com/grafana/cqlbridge/pkg/session"
)

func TestGlobalFlagsConfig(t *testing.T) {
	file := filepath.Join(t.TempDir(), "cqlbridge.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
addresses: cassandra-0,cassandra-1
keyspace: metrics
password_file: /etc/cql/password
compression: lz4
`), 0o600))

	g := &globalFlags{configFile: file}
	c, err := g.config()
	require.NoError(t, err)
	require.Equal(t, []string{"cassandra-0", "cassandra-1"}, []string(c.Addresses))
	require.Equal(t, "metrics", c.Keyspace)
	require.Equal(t, "QUORUM", c.Consistency)
	require.Equal(t, "lz4", c.Compression)

	g = &globalFlags{
		configFile:  file,
		addresses:   []string{"localhost"},
		keyspace:    "logs",
		consistency: "ONE",
		username:    "admin",
		password:    "secret",
		timeout:     time.Minute,
	}
	c, err = g.config()
	require.NoError(t, err)
	require.Equal(t, []string{"localhost"}, []string(c.Addresses))
	require.Equal(t, "logs", c.Keyspace)
	require.Equal(t, "ONE", c.Consistency)
	require.True(t, c.Auth)
	require.Equal(t, "secret", c.Password.String())
	require.Empty(t, c.PasswordFile)
	require.Equal(t, time.Minute, c.Timeout)
}

func TestGlobalFlagsConfigInvalid(t *testing.T) {
	_, err := (&globalFlags{}).config()
	require.ErrorContains(t, err, "at least one address")

	_, err = (&globalFlags{addresses: []string{"localhost"}, consistency: "MOST"}).config()
	require.Error(t, err)

	_, err = (&globalFlags{configFile: filepath.Join(t.TempDir(), "missing.yaml")}).config()
	require.Error(t, err)
}

func TestStrategyString(t *testing.T) {
	for _, tc := range []struct {
		in   session.Strategy
		want string
	}{
		{session.Strategy{Kind: session.SimpleStrategy, ReplicationFactor: 3}, "SimpleStrategy replication_factor=3"},
		{
			session.Strategy{Kind: session.NetworkTopologyStrategy, DatacenterRepfactors: map[string]int{"eu": 3, "us": 2}},
			"NetworkTopologyStrategy eu=3 us=2",
		},
		{session.Strategy{Kind: session.LocalStrategy}, "LocalStrategy"},
		{session.Strategy{Kind: session.OtherStrategy, Name: "EverywhereStrategy"}, "EverywhereStrategy"},
	} {
		require.Equal(t, tc.want, strategyString(tc.in))
	}
}

func TestKeyString(t *testing.T) {
	table := &session.Table{
		Columns:      []cqltype.Column{{Name: "id", Type: cqltype.UUID}},
		PartitionKey: []string{"tenant", "day"},
	}
	require.Equal(t, "PRIMARY KEY ((tenant, day))", keyString(table))

	table.ClusteringKey = []string{"ts", "id"}
	require.Equal(t, "PRIMARY KEY ((tenant, day), ts, id)", keyString(table))
}
