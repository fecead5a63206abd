package session

import (
	"fmt"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// driverLogger routes the driver's printf style logging to a go-kit logger.
// The driver only logs about connection trouble, so everything is a warning.
type driverLogger struct {
	logger log.Logger
}

func newDriverLogger(logger log.Logger) *driverLogger {
	return &driverLogger{logger: level.Warn(logger)}
}

func (l *driverLogger) Print(v ...interface{}) {
	l.log(fmt.Sprint(v...))
}

func (l *driverLogger) Printf(format string, v ...interface{}) {
	l.log(fmt.Sprintf(format, v...))
}

func (l *driverLogger) Println(v ...interface{}) {
	l.log(fmt.Sprintln(v...))
}

func (l *driverLogger) log(msg string) {
	_ = l.logger.Log("msg", strings.TrimSpace(msg))
}
