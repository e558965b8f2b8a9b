package cmd

import (
	"context"

	"github.com/ardnew/digest/cli/cmd/repl"
	"github.com/ardnew/digest/log"
)

// Repl starts an interactive console over a root scope.
type Repl struct {
	History bool `default:"true" help:"Persist input history in the cache directory" negatable:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	root, loop, err := newRoot(ctx)
	if err != nil {
		return err
	}

	var cacheDir string
	if r.History {
		cacheDir = kongVar(ctx, CacheIdentifier)
	}

	return repl.Run(ctx, root, loop, cacheDir, log.Default())
}
