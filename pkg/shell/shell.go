package shell

import (
	"os"
	"strings"

	"github.com/go-logr/logr"
	"k8s.io/klog/klogr"
)

type Shell struct {
	Exec Exec

	Logger logr.Logger
}

func New(logger logr.Logger) *Shell {
	if logger == nil {
		logger = klogr.New()
	}
	return &Shell{Exec: DefaultExec, Logger: logger}
}

// Wait runs the command and wait until it returns
func (s *Shell) Wait(cmd *Command) Result {
	if s.Logger != nil {
		s.Logger.V(1).Info("running command", "cmd", cmd.Name+" "+strings.Join(cmd.Args, " "), "dir", cmd.Dir)
	}
	return s.Exec(cmd)
}

// Interact runs the command interactively, inheriting os.(Stdin|Stdout|Stderr) to the command
func (s *Shell) Interact(cmd *Command) Result {
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return s.Wait(cmd)
}
