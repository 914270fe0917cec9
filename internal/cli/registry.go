package cli

import "sort"

var registry = map[string]Command{}

// RegisterCommand adds a command (and its aliases) to the global
// registry. Commands self-register from their package init.
func RegisterCommand(cmd Command) {
	names := append([]string{cmd.Name()}, cmd.Aliases()...)
	for _, n := range names {
		registry[n] = cmd
	}
}

// GetCommand returns a command by name or alias.
func GetCommand(name string) (Command, bool) {
	cmd, ok := registry[name]
	return cmd, ok
}

// AllCommands returns the registered commands, deduplicated and sorted
// by name for help output.
func AllCommands() []Command {
	seen := map[Command]bool{}
	var list []Command
	for _, cmd := range registry {
		if !seen[cmd] {
			list = append(list, cmd)
			seen[cmd] = true
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}
