package snap

import (
	"errors"
	"fmt"

	"github.com/solovev/dirsnap/internal/cli"
	"github.com/solovev/dirsnap/internal/repo"
	"github.com/solovev/dirsnap/internal/repo/store/snapshot"
)

type Command struct{}

func (c *Command) Name() string      { return "snap" }
func (c *Command) Aliases() []string { return []string{"snapshot", "save"} }
func (c *Command) Brief() string     { return "Snapshot the working directory under a name" }
func (c *Command) Usage() string     { return "snap <name>" }
func (c *Command) Help() string {
	return `Snapshot the current directory.

The name must be a slug: lowercase letters, digits and hyphens.
A snapshot is refused when the name is already used, or when the
content is identical to an existing snapshot.

Usage:
  dirsnap snap assignment-one`
}

func (c *Command) Run(ctx *cli.Context) error {
	if len(ctx.Args) < 1 {
		return fmt.Errorf("snapshot name required (usage: %s)", c.Usage())
	}
	name := ctx.Args[0]

	r, err := repo.Open(".", nil)
	if err != nil {
		return err
	}

	artifact, err := r.Store.Snapshots.Create(name)
	switch {
	case errors.Is(err, snapshot.ErrNameTaken):
		return fmt.Errorf("refused: a snapshot named %q already exists", name)
	case errors.Is(err, snapshot.ErrDuplicateContent):
		return fmt.Errorf("refused: content is identical to an existing snapshot")
	case err != nil:
		return err
	}

	fmt.Printf("Snapshot %q created (%d files, root %s)\n",
		name, len(artifact.Files), artifact.Tree.Digest)
	return nil
}

func init() {
	cli.RegisterCommand(cli.ApplyMiddlewares(&Command{}, cli.WithRepoCheck()))
}
