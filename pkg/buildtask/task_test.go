package buildtask

import (
	"testing"

	"github.com/variantdev/buildmaster/pkg/release"
	"github.com/variantdev/buildmaster/pkg/shell"
	"k8s.io/klog/klogr"
)

func request() Request {
	return Request{
		Java:      "/jdk/bin/java",
		Release:   &release.Version{Name: "1.19.1", Toolchain: release.Java17},
		Workspace: "/work/BuildTools/1.19.1",
		ToolName:  "BuildTools - 1.19.1.jar",
		AuxHome:   "/work/Maven/apache-maven-3.8.6",
	}
}

func TestExecute(t *testing.T) {
	input := shell.NewFakeInput(
		"/jdk/bin/java",
		[]string{"-jar", "-Xmx512M", "BuildTools - 1.19.1.jar", "--rev", "1.19.1", "--compile-if-changed"},
		map[string]string{"M2_HOME": "/work/Maven/apache-maven-3.8.6"},
		"/work/BuildTools/1.19.1",
	)

	var ran bool
	task, err := New(Logger(klogr.New()), Exec(shell.NewFake(map[shell.FakeInput]shell.FakeOutput{
		input: {Run: func(cmd *shell.Command) error {
			ran = true
			return nil
		}},
	})))
	if err != nil {
		t.Fatal(err)
	}

	out := task.Execute(request())

	if !out.Succeeded() {
		t.Fatalf("unexpected failure: %v", out.Err)
	}

	if !ran {
		t.Error("expected the build-support tool to be run")
	}
}

func TestExecute_NonZeroExit(t *testing.T) {
	task, err := New(Logger(klogr.New()), Exec(func(cmd *shell.Command) shell.Result {
		return shell.Result{ExitStatus: 2}
	}))
	if err != nil {
		t.Fatal(err)
	}

	out := task.Execute(request())

	if out.Succeeded() {
		t.Fatal("expected a failure")
	}

	if out.ExitStatus != 2 {
		t.Errorf("unexpected exit status: expected=2, got=%d", out.ExitStatus)
	}
}

func TestExecute_LaunchFailureIsAnOutcome(t *testing.T) {
	task, err := New(Logger(klogr.New()), Exec(func(cmd *shell.Command) shell.Result {
		panic("fork failed")
	}))
	if err != nil {
		t.Fatal(err)
	}

	out := task.Execute(request())

	if out.Err == nil {
		t.Fatal("expected an error in the outcome")
	}
}
