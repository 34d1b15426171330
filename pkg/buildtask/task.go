// Package buildtask runs the external build-support tool for a single release.
package buildtask

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/variantdev/buildmaster/pkg/loginfra"
	"github.com/variantdev/buildmaster/pkg/release"
	"github.com/variantdev/buildmaster/pkg/shell"
	"k8s.io/klog/klogr"
)

const (
	// AuxHomeEnv points the build-support tool at the provisioned Maven installation
	AuxHomeEnv = "M2_HOME"

	DefaultMaxHeap = "512M"
)

type Request struct {
	// Java is the host path of the toolchain's entry point
	Java    string
	Release *release.Version

	// Workspace is the host path of the release's working directory
	Workspace string

	// ToolName is the file name of the build-support tool copy inside Workspace
	ToolName string
	AuxHome  string
}

type Outcome struct {
	ExitStatus int
	Err        error
	Duration   time.Duration
}

func (o Outcome) Succeeded() bool {
	return o.Err == nil && o.ExitStatus == 0
}

type Task struct {
	Logger logr.Logger

	MaxHeap string

	sh *shell.Shell
}

type Option interface {
	SetOption(*Task) error
}

func Logger(logger logr.Logger) Option {
	return &loggerOption{l: logger}
}

type loggerOption struct {
	l logr.Logger
}

func (s *loggerOption) SetOption(t *Task) error {
	t.Logger = s.l
	return nil
}

func Exec(e shell.Exec) Option {
	return &execOption{e: e}
}

type execOption struct {
	e shell.Exec
}

func (s *execOption) SetOption(t *Task) error {
	t.sh = &shell.Shell{Exec: s.e}
	return nil
}

func New(opts ...Option) (*Task, error) {
	t := &Task{}

	for _, o := range opts {
		if err := o.SetOption(t); err != nil {
			return nil, err
		}
	}

	if t.Logger == nil {
		t.Logger = klogr.New()
	}

	if t.sh == nil {
		t.sh = shell.New(t.Logger)
	} else {
		t.sh.Logger = t.Logger
	}

	if t.MaxHeap == "" {
		t.MaxHeap = DefaultMaxHeap
	}

	return t, nil
}

// Args returns the argument vector passed to the toolchain's entry point.
func (t *Task) Args(req Request) []string {
	return []string{"-jar", "-Xmx" + t.MaxHeap, req.ToolName, "--rev", req.Release.Name, "--compile-if-changed"}
}

// Execute builds one release and blocks until the build-support tool exits.
// Failures are logged and reported in the outcome, never returned.
func (t *Task) Execute(req Request) (out Outcome) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("build panicked: %v", r)
			out.ExitStatus = 1
		}
		out.Duration = time.Since(start)
		if out.Err != nil {
			t.Logger.Error(out.Err, "build failed", "version", req.Release.Name, "kind", loginfra.ErrorKind(out.Err), "exitStatus", out.ExitStatus)
		}
	}()

	t.Logger.Info("building", "version", req.Release.Name, "toolchain", req.Release.Toolchain.String(), "workspace", req.Workspace)

	res := t.sh.Interact(&shell.Command{
		Name: req.Java,
		Args: t.Args(req),
		Env:  map[string]string{AuxHomeEnv: req.AuxHome},
		Dir:  req.Workspace,
	})

	out.ExitStatus = res.ExitStatus
	out.Err = res.Error

	if out.Err == nil && out.ExitStatus != 0 {
		out.Err = fmt.Errorf("exit status %d", out.ExitStatus)
	}

	return out
}
