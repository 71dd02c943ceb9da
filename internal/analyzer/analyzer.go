// Package analyzer defines the contract between the orchestrator and the
// pluggable analyzers, and the file discovery the built-in analyzers share.
package analyzer

import (
	"context"

	"go.uber.org/zap"

	"github.com/erik-smit/scrutinizer/internal/config"
	"github.com/erik-smit/scrutinizer/internal/model"
)

// Analyzer is the interface every analyzer must implement. Scrutinize must
// not depend on other analyzers having run, and must only report comments
// for paths inside the project's path filter.
type Analyzer interface {
	Name() string
	Scrutinize(ctx context.Context, p *model.Project) error
}

// ConfigurableAnalyzer declares options below its configuration node.
type ConfigurableAnalyzer interface {
	Analyzer
	config.SchemaExtender
}

// LoggerAwareAnalyzer receives the orchestrator's logger at registration.
type LoggerAwareAnalyzer interface {
	Analyzer
	SetLogger(lggr *zap.SugaredLogger)
}
