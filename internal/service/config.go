package service

import (
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/CZERTAINLY/devwatch/internal/model"
)

// CommandFor returns the command executing the entry file of p. The child
// inherits the environment, values of command.env starting with $ are
// expanded. It runs in the project root.
func CommandFor(p model.Project) Command {
	env := os.Environ()
	for _, k := range slices.Sorted(maps.Keys(p.Command.Env)) {
		v := p.Command.Env[k]
		if strings.HasPrefix(v, "$") {
			v = os.ExpandEnv(v)
		}
		env = append(env, k+"="+v)
	}
	args := make([]string, 0, len(p.Command.Args)+1)
	args = append(args, p.Command.Args...)
	args = append(args, p.Entry)
	return Command{
		Path: p.Command.Path,
		Args: args,
		Env:  env,
		Dir:  p.Root,
	}
}
