package logging

import (
	"go.uber.org/zap"
)

// Logger is the SDK-wide logger. Components that are not handed a logger
// explicitly (see rainclient.WithLogger) log through it.
var Logger *zap.Logger

func init() {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	Logger = l
}

// SetLogger replaces the package logger. It is not synchronised; call it
// during program setup, before any client is created. A nil logger silences
// the SDK.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	Logger = l
}

// OrDefault returns l, or the package logger when l is nil.
func OrDefault(l *zap.Logger) *zap.Logger {
	if l != nil {
		return l
	}
	return Logger
}
