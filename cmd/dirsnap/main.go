package main

import (
	"fmt"
	"os"

	"github.com/solovev/dirsnap/internal/cli"

	_ "github.com/solovev/dirsnap/internal/command/initcmd"
	_ "github.com/solovev/dirsnap/internal/command/list"
	_ "github.com/solovev/dirsnap/internal/command/restore"
	_ "github.com/solovev/dirsnap/internal/command/snap"
	_ "github.com/solovev/dirsnap/internal/command/verify"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: dirsnap <command> [args...]")
		fmt.Println("Available commands:")
		for _, cmd := range cli.AllCommands() {
			fmt.Printf("  %-10s %s\n", cmd.Name(), cmd.Brief())
		}
		os.Exit(0)
	}

	cmdName := os.Args[1]
	cmd, ok := cli.GetCommand(cmdName)
	if !ok {
		fmt.Printf("Unknown command: %s\n", cmdName)
		os.Exit(1)
	}

	ctx := &cli.Context{
		Args: os.Args[2:],
	}

	if err := cmd.Run(ctx); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
