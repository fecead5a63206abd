package log

import (
	"fmt"
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	dslog "github.com/grafana/dskit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Logger is the process logger. Libraries take a logger in their
// constructors, commands pass this one.
var Logger = log.NewNopLogger()

// InitLogger initialises the global logger according to the level and
// format given, writing to stderr. Log lines are counted per level on reg.
func InitLogger(lvl dslog.Level, format string, reg prometheus.Registerer) error {
	l, err := newPrometheusLogger(lvl, format, os.Stderr, reg)
	if err != nil {
		return err
	}
	Logger = log.With(l, "ts", log.DefaultTimestampUTC)
	return nil
}

type prometheusLogger struct {
	logger      log.Logger
	logMessages *prometheus.CounterVec
}

func newPrometheusLogger(lvl dslog.Level, format string, w io.Writer, reg prometheus.Registerer) (*prometheusLogger, error) {
	var base log.Logger
	switch format {
	case "logfmt", "":
		base = log.NewLogfmtLogger(log.NewSyncWriter(w))
	case "json":
		base = log.NewJSONLogger(log.NewSyncWriter(w))
	default:
		return nil, fmt.Errorf("unknown log format %q, expected logfmt or json", format)
	}
	return &prometheusLogger{
		logger: level.NewFilter(base, levelFilter(lvl)),
		logMessages: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "cqlbridge",
			Name:      "log_messages_total",
			Help:      "Total number of log messages.",
		}, []string{"level"}),
	}, nil
}

func levelFilter(lvl dslog.Level) level.Option {
	switch lvl.String() {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	}
	return level.AllowInfo()
}

// Log increments the counter for the line's level, then hands the line to
// the level filter.
func (pl *prometheusLogger) Log(kv ...interface{}) error {
	if pl.logMessages != nil {
		lvl := "none"
		for i := 1; i < len(kv); i += 2 {
			if v, ok := kv[i].(level.Value); ok {
				lvl = v.String()
				break
			}
		}
		pl.logMessages.WithLabelValues(lvl).Inc()
	}
	return pl.logger.Log(kv...)
}
