package cli

import (
	"fmt"

	"github.com/solovev/dirsnap/internal/config"
	"github.com/solovev/dirsnap/internal/fs"
)

// WithRepoCheck refuses to run a command outside an initialized
// repository.
func WithRepoCheck() Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx *Context) error {
				cfg := config.NewRepoConfig(".")
				if !fs.NewOSFS().Exists(cfg.SettingsPath()) {
					return fmt.Errorf("not a dirsnap repository (run `dirsnap init` first)")
				}
				return cmd.Run(ctx)
			},
		}
	}
}
