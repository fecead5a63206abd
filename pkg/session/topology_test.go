package session

import (
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/require"

	"github.com/grafana/cqlbridge/pkg/cqltype"
)

func TestStrategy(t *testing.T) {
	for _, tc := range []struct {
		class string
		opts  map[string]interface{}
		want  Strategy
	}{
		{
			class: "org.apache.cassandra.locator.SimpleStrategy",
			opts:  map[string]interface{}{"replication_factor": "3"},
			want:  Strategy{Kind: SimpleStrategy, ReplicationFactor: 3},
		},
		{
			class: "NetworkTopologyStrategy",
			opts:  map[string]interface{}{"dc1": "3", "dc2": "2/1", "dc3": 1},
			want:  Strategy{Kind: NetworkTopologyStrategy, DatacenterRepfactors: map[string]int{"dc1": 3, "dc2": 2, "dc3": 1}},
		},
		{
			class: "org.apache.cassandra.locator.LocalStrategy",
			want:  Strategy{Kind: LocalStrategy},
		},
		{
			class: "com.example.EverywhereStrategy",
			opts:  map[string]interface{}{"weight": 2},
			want:  Strategy{Kind: OtherStrategy, Name: "EverywhereStrategy", Options: map[string]string{"weight": "2"}},
		},
	} {
		t.Run(tc.class, func(t *testing.T) {
			require.Equal(t, tc.want, strategy(tc.class, tc.opts))
		})
	}
}

func TestKeyspace(t *testing.T) {
	id := &gocql.ColumnMetadata{Name: "id", Type: cqltype.ToTypeInfo(cqltype.Int, cqltype.ProtoVersion)}
	ts := &gocql.ColumnMetadata{Name: "ts", Type: cqltype.ToTypeInfo(cqltype.Timestamp, cqltype.ProtoVersion)}
	tags := &gocql.ColumnMetadata{Name: "tags", Type: cqltype.ToTypeInfo(cqltype.Set(cqltype.Text), cqltype.ProtoVersion)}
	events := &gocql.TableMetadata{
		Keyspace:          "ks",
		Name:              "events",
		PartitionKey:      []*gocql.ColumnMetadata{id},
		ClusteringColumns: []*gocql.ColumnMetadata{ts},
		Columns:           map[string]*gocql.ColumnMetadata{"id": id, "ts": ts, "tags": tags},
		OrderedColumns:    []string{"id", "ts", "tags"},
	}
	byTime := &gocql.TableMetadata{
		Keyspace:       "ks",
		Name:           "events_by_ts",
		PartitionKey:   []*gocql.ColumnMetadata{ts},
		Columns:        map[string]*gocql.ColumnMetadata{"id": id, "ts": ts},
		OrderedColumns: []string{"ts", "id"},
	}

	ks := keyspace(&gocql.KeyspaceMetadata{
		Name:            "ks",
		StrategyClass:   "SimpleStrategy",
		StrategyOptions: map[string]interface{}{"replication_factor": "1"},
		Tables:          map[string]*gocql.TableMetadata{"events": events, "events_by_ts": byTime},
		MaterializedViews: map[string]*gocql.MaterializedViewMetadata{
			"events_by_ts": {Keyspace: "ks", Name: "events_by_ts", BaseTable: events},
		},
		UserTypes: map[string]*gocql.UserTypeMetadata{
			"address": {
				Keyspace:   "ks",
				Name:       "address",
				FieldNames: []string{"street", "zip"},
				FieldTypes: []gocql.TypeInfo{
					cqltype.ToTypeInfo(cqltype.Text, cqltype.ProtoVersion),
					cqltype.ToTypeInfo(cqltype.Int, cqltype.ProtoVersion),
				},
			},
		},
	})

	require.Equal(t, Strategy{Kind: SimpleStrategy, ReplicationFactor: 1}, ks.Strategy)
	require.Equal(t, []string{"events", "events_by_ts"}, Names(ks.Tables))

	table := ks.Tables["events"]
	require.Equal(t, []string{"id"}, table.PartitionKey)
	require.Equal(t, []string{"ts"}, table.ClusteringKey)
	require.Len(t, table.Columns, 3)
	require.Equal(t, "tags", table.Columns[2].Name)
	require.Equal(t, "events", table.Columns[2].Table)
	require.True(t, cqltype.Set(cqltype.Text).Equal(table.Columns[2].Type))

	view := ks.Views["events_by_ts"]
	require.Equal(t, "events", view.BaseTable)
	require.Equal(t, []string{"ts"}, view.PartitionKey)
	require.Len(t, view.Columns, 2)

	addr := ks.UserTypes["address"]
	require.Equal(t, cqltype.KindUDT, addr.Kind())
	require.Equal(t, "ks", addr.Keyspace())
	require.Equal(t, "address", addr.Name())
	require.Equal(t, 2, addr.NumFields())
	require.Equal(t, "zip", addr.FieldAt(1).Name)
}
