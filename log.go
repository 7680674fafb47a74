// Logging setup for the reactive engine
// 基于zerolog的包级日志，默认静默，按需开启
package reactive

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// 包级日志器，默认丢弃所有输出
var logger = zerolog.Nop()

// SetLogger 替换包级日志器，需在使用任何流操作前调用
func SetLogger(l zerolog.Logger) {
	logger = l
}

// newLogger 按配置构建日志器
func newLogger(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if cfg.LogPretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	l := zerolog.New(out).Level(level).With().Timestamp().Str("component", "reactive").Logger()
	if err != nil {
		l.Warn().Str("level", cfg.LogLevel).Msg("未知日志级别，回退到info")
	}
	return l
}
