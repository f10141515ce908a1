// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"context"
	"time"

	"github.com/assetsync/assetsync/internal/watch"
)

// Watch builds once, then rebuilds whenever files under the resource root
// change, until ctx is canceled. Failed rebuilds are logged and the watch
// continues.
func (b *Builder) Watch(ctx context.Context, debounce time.Duration) error {
	if _, err := b.Build(ctx); err != nil {
		b.logger.Error("initial build failed", "error", err)
	}

	w, err := watch.New(watch.Config{
		Root:     b.opts.ResourceRoot,
		Ignore:   b.opts.Exclude,
		Debounce: debounce,
		Logger:   b.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			b.logger.Info("resources changed, rebuilding", "files", len(changed))
			_, err := b.Build(ctx)
			return err
		},
	})
	if err != nil {
		return err
	}
	b.logger.Info("watching for changes", "root", b.opts.ResourceRoot)
	return w.Run(ctx)
}
