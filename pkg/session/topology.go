package session

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"

	"github.com/grafana/cqlbridge/pkg/cqltype"
	"github.com/grafana/cqlbridge/pkg/cqlvalue"
)

// StrategyKind is the replication strategy of a keyspace.
type StrategyKind string

const (
	SimpleStrategy          StrategyKind = "SimpleStrategy"
	NetworkTopologyStrategy StrategyKind = "NetworkTopologyStrategy"
	LocalStrategy           StrategyKind = "LocalStrategy"
	OtherStrategy           StrategyKind = "Other"
)

// Strategy describes how a keyspace is replicated.
type Strategy struct {
	Kind StrategyKind `json:"kind"`
	// Name is the class name of an OtherStrategy.
	Name string `json:"name,omitempty"`
	// ReplicationFactor is set for SimpleStrategy.
	ReplicationFactor int `json:"replication_factor,omitempty"`
	// DatacenterRepfactors is set for NetworkTopologyStrategy.
	DatacenterRepfactors map[string]int `json:"datacenter_repfactors,omitempty"`
	// Options holds the raw replication options of an OtherStrategy.
	Options map[string]string `json:"options,omitempty"`
}

// Keyspace is the schema of one keyspace.
type Keyspace struct {
	Strategy  Strategy                `json:"strategy"`
	Tables    map[string]*Table       `json:"tables"`
	Views     map[string]*View        `json:"views"`
	UserTypes map[string]cqltype.Type `json:"user_types"`
}

// Table is the schema of a table or a materialized view.
type Table struct {
	Columns       []cqltype.Column `json:"columns"`
	PartitionKey  []string         `json:"partition_key"`
	ClusteringKey []string         `json:"clustering_key"`
}

// View is a materialized view over BaseTable.
type View struct {
	Table
	BaseTable string `json:"base_table"`
}

// ClusterData returns the schema of every keyspace, keyed by keyspace name.
func (s *Session) ClusterData(ctx context.Context) (map[string]*Keyspace, error) {
	res, err := s.Execute(ctx, NewQuery("SELECT keyspace_name FROM system_schema.keyspaces"), nil)
	if err != nil {
		return nil, err
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	out := make(map[string]*Keyspace, len(res.Rows))
	for _, row := range res.Rows {
		v, _ := row.Get("keyspace_name")
		name, ok := v.(cqlvalue.Text)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		md, err := s.session.KeyspaceMetadata(string(name))
		if err != nil {
			return nil, errors.Wrapf(err, "reading metadata of keyspace %s", name)
		}
		out[string(name)] = keyspace(md)
	}
	return out, nil
}

func keyspace(md *gocql.KeyspaceMetadata) *Keyspace {
	ks := &Keyspace{
		Strategy:  strategy(md.StrategyClass, md.StrategyOptions),
		Tables:    make(map[string]*Table, len(md.Tables)),
		Views:     make(map[string]*View, len(md.MaterializedViews)),
		UserTypes: make(map[string]cqltype.Type, len(md.UserTypes)),
	}
	for name, t := range md.Tables {
		ks.Tables[name] = table(t)
	}
	for name, v := range md.MaterializedViews {
		view := &View{}
		if v.BaseTable != nil {
			view.BaseTable = v.BaseTable.Name
		}
		// gocql keeps the columns of a view with the tables.
		if t, ok := md.Tables[name]; ok {
			view.Table = *table(t)
		}
		ks.Views[name] = view
	}
	for name, ut := range md.UserTypes {
		fields := make([]cqltype.Field, len(ut.FieldNames))
		for i, f := range ut.FieldNames {
			fields[i] = cqltype.Field{Name: f, Type: cqltype.FromTypeInfo(ut.FieldTypes[i])}
		}
		ks.UserTypes[name] = cqltype.UDT(md.Name, name, fields...)
	}
	return ks
}

func table(t *gocql.TableMetadata) *Table {
	out := &Table{
		Columns:       make([]cqltype.Column, 0, len(t.OrderedColumns)),
		PartitionKey:  make([]string, 0, len(t.PartitionKey)),
		ClusteringKey: make([]string, 0, len(t.ClusteringColumns)),
	}
	for _, name := range t.OrderedColumns {
		c, ok := t.Columns[name]
		if !ok {
			continue
		}
		out.Columns = append(out.Columns, cqltype.Column{
			Keyspace: t.Keyspace,
			Table:    t.Name,
			Name:     c.Name,
			Type:     cqltype.FromTypeInfo(c.Type),
		})
	}
	for _, c := range t.PartitionKey {
		out.PartitionKey = append(out.PartitionKey, c.Name)
	}
	for _, c := range t.ClusteringColumns {
		out.ClusteringKey = append(out.ClusteringKey, c.Name)
	}
	return out
}

func strategy(class string, opts map[string]interface{}) Strategy {
	if i := strings.LastIndexByte(class, '.'); i >= 0 {
		class = class[i+1:]
	}
	switch StrategyKind(class) {
	case SimpleStrategy:
		rf, _ := replicationFactor(opts["replication_factor"])
		return Strategy{Kind: SimpleStrategy, ReplicationFactor: rf}
	case NetworkTopologyStrategy:
		dcs := make(map[string]int, len(opts))
		for dc, v := range opts {
			if rf, ok := replicationFactor(v); ok {
				dcs[dc] = rf
			}
		}
		return Strategy{Kind: NetworkTopologyStrategy, DatacenterRepfactors: dcs}
	case LocalStrategy:
		return Strategy{Kind: LocalStrategy}
	}
	raw := make(map[string]string, len(opts))
	for k, v := range opts {
		raw[k] = fmt.Sprint(v)
	}
	return Strategy{Kind: OtherStrategy, Name: class, Options: raw}
}

// replicationFactor reads a replication factor option. Transient replicas
// are written as "3/1", of which the total is kept.
func replicationFactor(v interface{}) (int, bool) {
	switch v := v.(type) {
	case int:
		return v, true
	case string:
		if i := strings.IndexByte(v, '/'); i >= 0 {
			v = v[:i]
		}
		n, err := strconv.Atoi(v)
		return n, err == nil
	}
	return 0, false
}

// Names returns the keys of m in order.
func Names[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
