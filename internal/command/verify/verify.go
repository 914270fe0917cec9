package verify

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/solovev/dirsnap/internal/cli"
	"github.com/solovev/dirsnap/internal/repo"
	"github.com/solovev/dirsnap/internal/repo/store/object"
)

type Command struct{}

func (c *Command) Name() string      { return "verify" }
func (c *Command) Aliases() []string { return []string{"fsck"} }
func (c *Command) Brief() string     { return "Check integrity of all stored objects" }
func (c *Command) Usage() string     { return "verify [--workers N]" }
func (c *Command) Help() string {
	return `Recompute the digest of every object in the store and report
any whose content no longer matches its address.

Usage:
  dirsnap verify`
}

func (c *Command) Run(ctx *cli.Context) error {
	flags := pflag.NewFlagSet("verify", pflag.ContinueOnError)
	workers := flags.Int("workers", 0, "number of concurrent checks (0 = NumCPU)")
	if err := flags.Parse(ctx.Args); err != nil {
		return err
	}

	r, err := repo.Open(".", nil)
	if err != nil {
		return err
	}

	checks, err := r.Store.Objects.Verify(*workers)
	if err != nil {
		return err
	}

	var ok, damaged int
	for check := range checks {
		switch check.Status {
		case object.OK:
			ok++
		default:
			damaged++
			fmt.Printf("damaged: %s\n", check.Digest)
		}
	}

	fmt.Printf("%d objects ok, %d damaged\n", ok, damaged)
	if damaged > 0 {
		return fmt.Errorf("object store verification failed")
	}
	return nil
}

func init() {
	cli.RegisterCommand(cli.ApplyMiddlewares(&Command{}, cli.WithRepoCheck()))
}
