package shell

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

type FakeInput struct {
	Name string
	Args string
	Env  string
	Dir  string
}

type FakeOutput struct {
	Stdout string
	Stderr string

	ExitStatus int

	// Run is called before the outputs are written, to emulate side effects of the command
	Run func(cmd *Command) error
}

func NewFakeInput(name string, args []string, env map[string]string, dir string) FakeInput {
	envs := []string{}
	for k, v := range env {
		envs = append(envs, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(envs)
	input := FakeInput{
		Name: name,
		Args: strings.Join(args, ","),
		Env:  strings.Join(envs, ","),
		Dir:  dir,
	}
	return input
}

func NewFake(expectations map[FakeInput]FakeOutput) Exec {
	return func(cmd *Command) Result {
		input := NewFakeInput(cmd.Name, cmd.Args, cmd.Env, cmd.Dir)
		output, ok := expectations[input]
		if !ok {
			err := fmt.Errorf("unexpected input: %v", input)
			return Result{ExitStatus: 1, Error: err}
		}

		if output.Run != nil {
			if err := output.Run(cmd); err != nil {
				return Result{ExitStatus: 1, Error: err}
			}
		}

		if err := writeAll(cmd.Stdout, output.Stdout); err != nil {
			return Result{ExitStatus: 1, Error: err}
		}

		if err := writeAll(cmd.Stderr, output.Stderr); err != nil {
			return Result{ExitStatus: 1, Error: err}
		}

		if output.ExitStatus != 0 {
			return Result{ExitStatus: output.ExitStatus, Error: fmt.Errorf("exit status %d", output.ExitStatus)}
		}

		return Result{ExitStatus: 0, Error: nil}
	}
}

func writeAll(w io.Writer, s string) error {
	if w == nil || s == "" {
		return nil
	}
	n, err := io.WriteString(w, s)
	if err != nil {
		return err
	}
	if n != len(s) {
		return fmt.Errorf("insufficient write: wrote only %d of %d", n, len(s))
	}
	return nil
}
