package buildmaster

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/twpayne/go-vfs"

	"github.com/variantdev/buildmaster/pkg/buildtask"
	"github.com/variantdev/buildmaster/pkg/execversionmanager"
	"github.com/variantdev/buildmaster/pkg/loginfra"
	"github.com/variantdev/buildmaster/pkg/release"
	"github.com/variantdev/buildmaster/pkg/telemetry"
	"github.com/variantdev/buildmaster/pkg/tmpl"
)

// Result is the outcome of one release's iteration of the build loop.
type Result struct {
	Version  *release.Version
	Status   string
	Duration time.Duration
	Err      error
}

// Run provisions the toolchains, discovers the releases and builds each of them in turn.
// Only provisioning and discovery failures are returned; a release that fails to build is logged and skipped.
func (m *Manager) Run() error {
	_, err := m.run()
	return err
}

func (m *Manager) run() ([]Result, error) {
	m.Logger.Info("provisioning toolchains")

	prov, err := m.provisioner.Build()
	if err != nil {
		m.Logger.Error(err, "provisioning failed", "kind", loginfra.ErrorKind(err))
		return nil, err
	}

	m.Logger.Info("discovering releases")

	versions, err := m.discoverer.Discover(m.Config.Reverse)
	if err != nil {
		m.Logger.Error(err, "discovery failed", "kind", loginfra.ErrorKind(err))
		return nil, err
	}

	if err := m.Cleanup(versions); err != nil {
		m.Logger.Error(err, "cleaning up workspaces failed", "kind", loginfra.ErrorKind(err))
		return nil, err
	}

	results := make([]Result, 0, len(versions))
	for _, v := range versions {
		results = append(results, m.buildRelease(prov, v))
	}

	copied, skipped := m.Relocate(versions)
	if copied+skipped > 0 {
		m.Logger.Info("relocated artifacts", "copied", copied, "skipped", skipped)
	}

	if url := m.Config.Metrics.PushGateway; url != "" {
		if err := m.metrics.Push(url, m.Config.Metrics.Job); err != nil {
			m.Logger.Error(err, "pushing metrics failed", "url", url)
		}
	}

	summary := map[string]int{}
	for _, r := range results {
		summary[r.Status]++
	}
	m.Logger.Info("done",
		"releases", len(results),
		telemetry.StatusSuccess, summary[telemetry.StatusSuccess],
		telemetry.StatusMissingArtifact, summary[telemetry.StatusMissingArtifact],
		telemetry.StatusFailed, summary[telemetry.StatusFailed],
		telemetry.StatusSkipped, summary[telemetry.StatusSkipped],
	)

	return results, nil
}

func (m *Manager) buildRelease(prov *execversionmanager.Provisioned, v *release.Version) (r Result) {
	start := time.Now()

	r.Version = v

	defer func() {
		r.Duration = time.Since(start)
		if r.Err != nil {
			m.Logger.Error(r.Err, "release not built", "version", v.Name, "kind", loginfra.ErrorKind(r.Err), "status", r.Status)
		}
		m.metrics.Observe(start, start.Add(r.Duration), r.Status, v.Name, v.Toolchain.String())
	}()

	r.Status = telemetry.StatusSkipped

	if !v.Resolved() {
		m.Logger.Error(release.ErrUnresolved, "building a release with an unresolved core version", "version", v.Name, "commit", v.CoreCommit)
	}

	ws := m.workspace(v)

	toolName, err := tmpl.Render("tool", m.Config.Naming.Tool, v)
	if err != nil {
		r.Err = err
		return
	}

	if err := m.prepare(prov.BuildTools, ws, toolName); err != nil {
		r.Err = err
		return
	}

	if err := m.remediate(v, ws); err != nil {
		r.Err = err
		return
	}

	toolchain, ok := prov.Toolchains.Select(v.Toolchain)
	if !ok {
		r.Err = fmt.Errorf("no provisioned toolchain can build %s: requires %s, have %v", v.Name, v.Toolchain, prov.Toolchains.Generations())
		return
	}
	if toolchain.Generation != v.Toolchain {
		m.Logger.Info("required toolchain is not provisioned, using a newer one", "version", v.Name, "required", v.Toolchain.String(), "using", toolchain.Generation.String())
	}

	rawWs, err := m.fs.RawPath(ws)
	if err != nil {
		r.Err = err
		return
	}

	var auxHome string
	if prov.Auxiliary != nil {
		auxHome = prov.Auxiliary.Home
	}

	out := m.executor.Execute(buildtask.Request{
		Java:      toolchain.EntryPoint,
		Release:   v,
		Workspace: rawWs,
		ToolName:  toolName,
		AuxHome:   auxHome,
	})

	artifact, err := tmpl.Render("artifact", m.Config.Naming.Artifact, v)
	if err != nil {
		r.Err = err
		return
	}

	if !m.fileExists(filepath.Join(ws, artifact)) {
		r.Status = telemetry.StatusMissingArtifact
		m.Logger.Info("expected artifact not found, the build probably failed", "version", v.Name, "artifact", artifact, "exitStatus", out.ExitStatus)
		return
	}

	if !out.Succeeded() {
		r.Status = telemetry.StatusFailed
		r.Err = out.Err
		return
	}

	r.Status = telemetry.StatusSuccess

	m.Logger.Info(fmt.Sprintf("Took %d minutes to compile %s", int(time.Since(start).Minutes()), artifact), "version", v.Name)

	return
}

// prepare creates the workspace and puts a fresh copy of the build-support tool into it.
func (m *Manager) prepare(buildTools, ws, toolName string) error {
	if err := vfs.MkdirAll(m.fs, ws, 0755); err != nil {
		return fmt.Errorf("creating workspace %s: %w", ws, err)
	}

	dst := filepath.Join(ws, toolName)

	if _, err := m.fs.Lstat(dst); err == nil {
		if err := m.fs.Remove(dst); err != nil {
			return fmt.Errorf("deleting stale copy %s: %w", dst, err)
		}
		m.Logger.V(1).Info("deleted stale copy", "path", dst)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("deleting stale copy %s: %w", dst, err)
	}

	if err := m.copyFile(buildTools, dst); err != nil {
		return fmt.Errorf("copying %s: %w", buildTools, err)
	}

	return nil
}

func (m *Manager) remediate(v *release.Version, ws string) error {
	var listed bool
	for _, name := range m.Config.Remediate {
		if name == v.Name {
			listed = true
			break
		}
	}

	if !listed {
		return nil
	}

	work := filepath.Join(ws, RemediationDir)

	if _, err := m.fs.Lstat(work); os.IsNotExist(err) {
		return nil
	}

	m.Logger.Info("removing cached work directory", "version", v.Name, "path", work)

	if err := m.fs.RemoveAll(work); err != nil {
		return fmt.Errorf("removing %s: %w", work, err)
	}

	return nil
}

func (m *Manager) fileExists(path string) bool {
	s, err := m.fs.Stat(path)
	return err == nil && s.Mode().IsRegular()
}
