package scrutinizer

import (
	"go.uber.org/zap"

	"github.com/erik-smit/scrutinizer/internal/analyzer"
	"github.com/erik-smit/scrutinizer/internal/config"
	"github.com/erik-smit/scrutinizer/internal/hooks"
	"github.com/erik-smit/scrutinizer/internal/process"
)

// options holds the resolved construction options.
type options struct {
	lggr      *zap.SugaredLogger
	analyzers []analyzer.Analyzer
	replace   bool
	registry  *config.DefaultRegistry
	sup       *process.Supervisor
	hooks     []hook
	noBuiltin bool
}

type hook struct {
	name string
	fn   hooks.PostAnalysisHook
}

// Option configures a Scrutinizer.
type Option func(*options)

// WithLogger sets the logger for the orchestrator, the supervised commands,
// and every logger-aware analyzer.
func WithLogger(lggr *zap.SugaredLogger) Option {
	return func(o *options) {
		o.lggr = lggr
	}
}

// WithAnalyzers replaces the built-in analyzers.
func WithAnalyzers(analyzers ...analyzer.Analyzer) Option {
	return func(o *options) {
		o.analyzers = analyzers
		o.replace = true
	}
}

// WithDefaultRegistry sets per-analyzer defaults that apply below the
// project's .scrutinizer.yml.
func WithDefaultRegistry(r *config.DefaultRegistry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithSupervisor sets the supervisor running before and after commands.
func WithSupervisor(s *process.Supervisor) Option {
	return func(o *options) {
		o.sup = s
	}
}

// WithHook registers an additional post-analysis hook.
func WithHook(name string, fn hooks.PostAnalysisHook) Option {
	return func(o *options) {
		o.hooks = append(o.hooks, hook{name: name, fn: fn})
	}
}

// WithoutBuiltinHooks skips the location-completion hook.
func WithoutBuiltinHooks() Option {
	return func(o *options) {
		o.noBuiltin = true
	}
}
