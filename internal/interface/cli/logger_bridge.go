package cli

import "github.com/YoshitsuguKoike/epicimport/internal/app"

// loggerBridge adapts the CLI logger to the app.Logger interface so the
// usecase layer logs through the same output.
type loggerBridge struct {
	cliLogger *Logger
}

func (b *loggerBridge) Debug(format string, args ...interface{}) {
	b.cliLogger.Debug(format, args...)
}

func (b *loggerBridge) Info(format string, args ...interface{}) {
	b.cliLogger.Info(format, args...)
}

func (b *loggerBridge) Warn(format string, args ...interface{}) {
	b.cliLogger.Warn(format, args...)
}

func (b *loggerBridge) Error(format string, args ...interface{}) {
	b.cliLogger.Error(format, args...)
}

// InitializeLoggers wires the CLI logger into the other layers.
func InitializeLoggers(logger *Logger) {
	app.SetLogger(&loggerBridge{cliLogger: logger})
}
