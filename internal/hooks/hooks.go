// Package hooks holds the callbacks that run after all analyzers finished
// and before the after-commands.
package hooks

import (
	"context"
	"fmt"
	"sync"

	"github.com/erik-smit/scrutinizer/internal/model"
)

// PostAnalysisHook may read and complete the project's comments.
type PostAnalysisHook func(ctx context.Context, p *model.Project) error

// Bus dispatches hooks synchronously in registration order.
type Bus struct {
	mu   sync.Mutex
	post []namedHook
}

type namedHook struct {
	name string
	fn   PostAnalysisHook
}

// OnPostAnalysis registers h under name. The name only appears in errors.
func (b *Bus) OnPostAnalysis(name string, h PostAnalysisHook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.post = append(b.post, namedHook{name: name, fn: h})
}

// Len returns the number of registered hooks.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.post)
}

// DispatchPostAnalysis calls every hook; the first error stops dispatch.
func (b *Bus) DispatchPostAnalysis(ctx context.Context, p *model.Project) error {
	b.mu.Lock()
	hooks := append([]namedHook(nil), b.post...)
	b.mu.Unlock()

	for _, h := range hooks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.fn(ctx, p); err != nil {
			return fmt.Errorf("hook %s: %w", h.name, err)
		}
	}
	return nil
}
