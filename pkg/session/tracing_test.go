package session

import (
	"bytes"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/grafana/cqlbridge/pkg/cqlvalue"
)

func TestTraceCapture(t *testing.T) {
	var tc traceCapture
	require.Equal(t, uuid.Nil, tc.id())

	id := uuid.New()
	raw := append([]byte(nil), id[:]...)
	tc.Trace(raw)
	raw[0] ^= 0xff
	require.Equal(t, id, tc.id())
}

func TestTraceColumns(t *testing.T) {
	row := cqlvalue.MapOf(
		"command", cqlvalue.Text("QUERY"),
		"client", cqlvalue.Inet(netip.MustParseAddr("10.0.0.1")),
		"duration", cqlvalue.Int(1500),
	)
	require.Equal(t, "QUERY", textCol(row, "command"))
	require.Equal(t, netip.MustParseAddr("10.0.0.1"), inetCol(row, "client"))
	require.Equal(t, 1500*time.Microsecond, micros(row, "duration"))

	require.Equal(t, "", textCol(row, "request"))
	require.False(t, inetCol(row, "coordinator").IsValid())
	require.Zero(t, micros(row, "client"))
}

func TestDriverLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newDriverLogger(log.NewLogfmtLogger(&buf))
	l.Printf("gocql: unable to dial control conn %s: %v\n", "10.0.0.1", "refused")
	l.Println("session closed")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, `level=warn msg="gocql: unable to dial control conn 10.0.0.1: refused"`, lines[0])
	require.Equal(t, `level=warn msg="session closed"`, lines[1])
}
