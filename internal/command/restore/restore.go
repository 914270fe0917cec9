package restore

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/solovev/dirsnap/internal/cli"
	"github.com/solovev/dirsnap/internal/repo"
	"github.com/solovev/dirsnap/internal/repo/store/snapshot"
)

type Command struct{}

func (c *Command) Name() string      { return "restore" }
func (c *Command) Aliases() []string { return []string{"checkout"} }
func (c *Command) Brief() string     { return "Materialize a snapshot's file tree from storage" }
func (c *Command) Usage() string     { return "restore <name> [--dest DIR] | restore --all [--dest DIR]" }
func (c *Command) Help() string {
	return `Recreate a snapshot's directory structure and file contents.

Each snapshot is restored under <dest>/<name>. Missing objects are
reported per file and do not abort the rest of the restore.

Options:
  --dest <dir>   Destination root (default "restored").
  --all          Restore every stored snapshot, skipping bad artifacts.

Usage:
  dirsnap restore assignment-one
  dirsnap restore --all --dest /tmp/out`
}

func (c *Command) Run(ctx *cli.Context) error {
	flags := pflag.NewFlagSet("restore", pflag.ContinueOnError)
	dest := flags.String("dest", "restored", "destination root")
	all := flags.Bool("all", false, "restore every stored snapshot")
	if err := flags.Parse(ctx.Args); err != nil {
		return err
	}

	r, err := repo.Open(".", nil)
	if err != nil {
		return err
	}

	if *all {
		return c.runAll(r, *dest)
	}

	if flags.NArg() < 1 {
		return fmt.Errorf("snapshot name required (usage: %s)", c.Usage())
	}
	name := flags.Arg(0)

	artifact, err := snapshot.Load(r.FS, r.Config.ArtifactPath(name))
	if err != nil {
		return fmt.Errorf("cannot load snapshot %q: %w", name, err)
	}

	problems, err := r.Store.Snapshots.Restore(artifact, *dest, name)
	if err != nil {
		return err
	}
	reportProblems(name, problems)
	fmt.Printf("Restored %q to %s/%s\n", name, *dest, name)
	return nil
}

func (c *Command) runAll(r *repo.Repository, dest string) error {
	results, err := r.Store.Snapshots.RestoreAll(dest)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No snapshots stored")
		return nil
	}
	for name, problems := range results {
		reportProblems(name, problems)
		fmt.Printf("Restored %q to %s/%s\n", name, dest, name)
	}
	return nil
}

func reportProblems(name string, problems []snapshot.Problem) {
	for _, p := range problems {
		fmt.Printf("Warning: %s: %s: %v\n", name, p.Path, p.Err)
	}
}

func init() {
	cli.RegisterCommand(cli.ApplyMiddlewares(&Command{}, cli.WithRepoCheck()))
}
