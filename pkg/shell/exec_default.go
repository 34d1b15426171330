package shell

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
)

func DefaultExec(c *Command) Result {
	cmd := exec.Command(c.Name, c.Args...)
	cmd.Env = mergeEnv(os.Environ(), c.Env)
	cmd.Dir = c.Dir
	if c.Stdin != nil {
		cmd.Stdin = c.Stdin
	}
	if c.Stdout != nil {
		cmd.Stdout = c.Stdout
	}
	if c.Stderr != nil {
		cmd.Stderr = c.Stderr
	}
	if err := cmd.Start(); err != nil {
		return Result{ExitStatus: 1, Error: err}
	}
	if err := cmd.Wait(); err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			return Result{ExitStatus: exitError.ExitCode(), Error: exitError}
		}
		return Result{ExitStatus: 1, Error: err}
	}
	return Result{ExitStatus: cmd.ProcessState.ExitCode(), Error: nil}
}

// mergeEnv returns base with every variable in overrides set, replacing existing definitions.
func mergeEnv(base []string, overrides map[string]string) []string {
	env := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		name := kv
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				name = kv[:i]
				break
			}
		}
		if _, ok := overrides[name]; ok {
			continue
		}
		env = append(env, kv)
	}

	names := make([]string, 0, len(overrides))
	for n := range overrides {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		env = append(env, fmt.Sprintf("%s=%s", n, overrides[n]))
	}
	return env
}
