package slicekit

import "go.uber.org/zap"

type zapDiagnosticLogger struct {
	logger *zap.Logger
}

// NewZapLogger routes diagnostics to logger. Construction, lookup, hydrate
// and selector diagnostics log at debug level, invalid keys and suppressed
// defaults at warn, failures at error.
func NewZapLogger(logger *zap.Logger) DiagnosticLogger {
	if logger == nil {
		return noopDiagnosticLogger{}
	}
	return zapDiagnosticLogger{logger: logger.Named("slicekit")}
}

// WithZapLogger is shorthand for WithLogger(NewZapLogger(logger)).
func WithZapLogger(logger *zap.Logger) Option {
	return WithLogger(NewZapLogger(logger))
}

func (z zapDiagnosticLogger) LogDiagnostic(d Diagnostic) {
	fields := []zap.Field{
		zap.String("slice", d.Slice),
		zap.String("kind", string(d.Kind)),
	}
	if d.Action != "" {
		fields = append(fields, zap.String("action", d.Action))
	}
	if d.Key != "" {
		fields = append(fields, zap.String("key", d.Key))
	}
	if d.Engine != "" {
		fields = append(fields, zap.String("engine", d.Engine), zap.String("expr", d.Expr), zap.Duration("duration", d.Duration))
	}

	message := d.Message
	if message == "" {
		message = string(d.Kind)
	}

	if d.Err != nil {
		z.logger.Error(message, append(fields, zap.Error(d.Err))...)
		return
	}
	switch d.Kind {
	case DiagnosticInvalidKey, DiagnosticDefaultsDisabled:
		z.logger.Warn(message, fields...)
	default:
		z.logger.Debug(message, fields...)
	}
}

func debugLogger() DiagnosticLogger {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return noopDiagnosticLogger{}
	}
	return NewZapLogger(logger)
}
