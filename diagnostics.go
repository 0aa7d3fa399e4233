package slicekit

import "time"

// DiagnosticKind classifies a diagnostic.
type DiagnosticKind string

const (
	DiagnosticConstructed      DiagnosticKind = "constructed"
	DiagnosticLookup           DiagnosticKind = "lookup"
	DiagnosticInvalidKey       DiagnosticKind = "invalid_key"
	DiagnosticDefaultsDisabled DiagnosticKind = "defaults_disabled"
	DiagnosticHydrate          DiagnosticKind = "hydrate"
	DiagnosticSelector         DiagnosticKind = "selector"
	DiagnosticActivity         DiagnosticKind = "activity"
)

// Diagnostic describes something a slice noticed while building or reducing.
// Diagnostics never change state.
type Diagnostic struct {
	Kind     DiagnosticKind
	Slice    string
	Action   string
	Key      string
	Message  string
	Engine   string
	Expr     string
	Duration time.Duration
	Err      error
}

// DiagnosticLogger records diagnostics. Slices call it unconditionally;
// filtering belongs to the implementation.
type DiagnosticLogger interface {
	LogDiagnostic(Diagnostic)
}

// DiagnosticLoggerFunc adapts a function to DiagnosticLogger.
type DiagnosticLoggerFunc func(Diagnostic)

// LogDiagnostic implements DiagnosticLogger.
func (f DiagnosticLoggerFunc) LogDiagnostic(d Diagnostic) {
	if f != nil {
		f(d)
	}
}

type noopDiagnosticLogger struct{}

func (noopDiagnosticLogger) LogDiagnostic(Diagnostic) {}

// WithLogger attaches a diagnostic logger to the slice.
func WithLogger(logger DiagnosticLogger) Option {
	return func(cfg *sliceConfig) {
		if logger == nil {
			cfg.logger = noopDiagnosticLogger{}
			return
		}
		cfg.logger = logger
	}
}
