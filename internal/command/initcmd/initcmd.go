package initcmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/solovev/dirsnap/internal/cli"
	"github.com/solovev/dirsnap/internal/config"
	"github.com/solovev/dirsnap/internal/repo"
)

type Command struct{}

func (c *Command) Name() string      { return "init" }
func (c *Command) Aliases() []string { return []string{"initialize"} }
func (c *Command) Brief() string     { return "Initialize a dirsnap repository in the current directory" }
func (c *Command) Usage() string     { return "init [--digest sha1|blake3]" }
func (c *Command) Help() string {
	return `Create the ` + config.RepoDir + ` metadata directory.

Options:
  --digest <algo>   Content digest algorithm (sha1 or blake3).
                    Fixed for the life of the repository.

Usage:
  dirsnap init
  dirsnap init --digest blake3`
}

func (c *Command) Run(ctx *cli.Context) error {
	flags := pflag.NewFlagSet("init", pflag.ContinueOnError)
	digestName := flags.String("digest", config.DefaultDigest, "content digest algorithm")
	if err := flags.Parse(ctx.Args); err != nil {
		return err
	}

	_, err := repo.Init(".", *digestName, nil)
	if errors.Is(err, os.ErrExist) {
		fmt.Println("Repository already initialized")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Initialized empty dirsnap repository (%s digests)\n", *digestName)
	return nil
}

func init() {
	cli.RegisterCommand(&Command{})
}
