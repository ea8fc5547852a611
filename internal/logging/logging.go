// internal/logging/logging.go

// Package logging 建立服務共用的 zerolog logger（console 格式、RFC3339 時間戳）。
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New 回傳寫入 out 的 console logger；out 為 nil 時寫入 stderr。
// level 無法解析時回退為 info。
func New(level string, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: out != os.Stderr}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
