package cli

// Command represents one cli command.
type Command interface {
	Name() string
	Brief() string
	Help() string
	Usage() string
	Run(ctx *Context) error
	Aliases() []string
}

// Context carries the arguments a command runs with.
type Context struct {
	Args []string
}
