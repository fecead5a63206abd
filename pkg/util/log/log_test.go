package log

import (
	"bytes"
	"testing"

	"github.com/go-kit/log/level"
	dslog "github.com/grafana/dskit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	testCases := []struct {
		level    string
		expected []string
	}{
		{"debug", []string{"level=debug", "level=info", "level=warn", "level=error"}},
		{"info", []string{"level=info", "level=warn", "level=error"}},
		{"warn", []string{"level=warn", "level=error"}},
		{"error", []string{"level=error"}},
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			var lvl dslog.Level
			require.NoError(t, lvl.Set(tc.level))

			var buf bytes.Buffer
			reg := prometheus.NewRegistry()
			l, err := newPrometheusLogger(lvl, "logfmt", &buf, reg)
			require.NoError(t, err)

			level.Debug(l).Log("msg", "d")
			level.Info(l).Log("msg", "i")
			level.Warn(l).Log("msg", "w")
			level.Error(l).Log("msg", "e")

			out := buf.String()
			for _, s := range tc.expected {
				assert.Contains(t, out, s)
			}
			assert.Equal(t, len(tc.expected), bytes.Count(buf.Bytes(), []byte("\n")))

			// Every line is counted, filtered or not.
			for _, name := range []string{"debug", "info", "warn", "error"} {
				assert.Equal(t, 1.0, testutil.ToFloat64(l.logMessages.WithLabelValues(name)))
			}
		})
	}
}

func TestJSONFormat(t *testing.T) {
	var lvl dslog.Level
	require.NoError(t, lvl.Set("info"))

	var buf bytes.Buffer
	l, err := newPrometheusLogger(lvl, "json", &buf, prometheus.NewRegistry())
	require.NoError(t, err)
	level.Info(l).Log("msg", "hello")
	assert.JSONEq(t, `{"level":"info","msg":"hello"}`, buf.String())

	_, err = newPrometheusLogger(lvl, "xml", &buf, prometheus.NewRegistry())
	require.Error(t, err)
}
