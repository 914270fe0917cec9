package list

import (
	"fmt"

	"github.com/solovev/dirsnap/internal/cli"
	"github.com/solovev/dirsnap/internal/repo"
)

type Command struct{}

func (c *Command) Name() string      { return "list" }
func (c *Command) Aliases() []string { return []string{"ls", "log"} }
func (c *Command) Brief() string     { return "List stored snapshots" }
func (c *Command) Usage() string     { return "list" }
func (c *Command) Help() string {
	return `Print every logged snapshot with its root digest.

Usage:
  dirsnap list`
}

func (c *Command) Run(ctx *cli.Context) error {
	r, err := repo.Open(".", nil)
	if err != nil {
		return err
	}

	entries, err := r.Store.Log.Entries()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No snapshots stored")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %s\n", e.Root, e.Name)
	}
	return nil
}

func init() {
	cli.RegisterCommand(cli.ApplyMiddlewares(&Command{}, cli.WithRepoCheck()))
}
