package slack

import (
	"strings"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/logger"
)

// debugLogger feeds the slack-go library's printf-style debug output into
// the structured logger.
type debugLogger struct {
	logger    logger.Logger
	component string
}

func newDebugLogger(l logger.Logger, component string) *debugLogger {
	return &debugLogger{logger: l, component: component}
}

// Output implements the logger interface expected by slack.OptionLog.
func (l *debugLogger) Output(_ int, s string) error {
	l.logger.Debug(strings.TrimRight(s, "\n"), "component", l.component)
	return nil
}
