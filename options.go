package slicekit

import (
	"github.com/goliatone/go-slicekit/pkg/activity"
)

// HydrateActionType is the action type recognised as a hydrate event unless
// WithHydrateType overrides it.
const HydrateActionType = "__NEXT_REDUX_WRAPPER_HYDRATE__"

// Option configures a Slice.
type Option func(*sliceConfig)

// CaseReducer handles a custom action for the slice. It must return a new
// state rather than mutate the one it receives.
type CaseReducer func(state State, action Action) State

// Recorder observes reduced actions, typically for metrics.
type Recorder interface {
	RecordAction(slice, kind, outcome string)
}

type sliceConfig struct {
	debug           bool
	logger          DiagnosticLogger
	defaults        DefaultsPolicy
	hydrate         bool
	hydrateType     string
	reducers        map[string]CaseReducer
	activityHooks   activity.Hooks
	activityChannel string
	recorder        Recorder
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	derived         map[string]string
	errs            []error
}

func applyOptions(opts []Option) sliceConfig {
	cfg := sliceConfig{hydrateType: HydrateActionType}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.evaluator == nil {
		cfg.evaluator = defaultEvaluator(cfg)
	}
	if cfg.logger == nil {
		if cfg.debug {
			cfg.logger = debugLogger()
		} else {
			cfg.logger = noopDiagnosticLogger{}
		}
	}
	return cfg
}

// WithDebug enables a development zap logger when no logger is injected.
func WithDebug(enabled bool) Option {
	return func(cfg *sliceConfig) {
		cfg.debug = enabled
	}
}

// WithDefaults selects which list fields keep the built-in reducers.
func WithDefaults(policy DefaultsPolicy) Option {
	return func(cfg *sliceConfig) {
		cfg.defaults = policy
	}
}

// WithHydrate toggles merging of hydrate events into the slice.
func WithHydrate(enabled bool) Option {
	return func(cfg *sliceConfig) {
		cfg.hydrate = enabled
	}
}

// WithHydrateType overrides the action type treated as a hydrate event.
func WithHydrateType(actionType string) Option {
	return func(cfg *sliceConfig) {
		if actionType != "" {
			cfg.hydrateType = actionType
		}
	}
}

// WithReducer registers a custom case reducer reachable through
// Slice.Action(name, ...).
func WithReducer(name string, reducer CaseReducer) Option {
	return func(cfg *sliceConfig) {
		if name == "" || reducer == nil {
			return
		}
		if cfg.reducers == nil {
			cfg.reducers = map[string]CaseReducer{}
		}
		cfg.reducers[name] = reducer
	}
}

// WithRecorder attaches a Recorder notified for every handled action.
func WithRecorder(recorder Recorder) Option {
	return func(cfg *sliceConfig) {
		cfg.recorder = recorder
	}
}

// WithEvaluator configures the engine used by derived selectors.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *sliceConfig) {
		cfg.evaluator = e
	}
}

// WithProgramCache registers a program cache used by the default evaluator.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *sliceConfig) {
		cfg.programCache = cache
	}
}

// WithDerived registers a named derived selector evaluated by Slice.Derived.
func WithDerived(name, expression string) Option {
	return func(cfg *sliceConfig) {
		if name == "" {
			return
		}
		if cfg.derived == nil {
			cfg.derived = map[string]string{}
		}
		cfg.derived[name] = expression
	}
}
