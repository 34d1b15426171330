package buildmaster

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/twpayne/go-vfs"

	"github.com/variantdev/buildmaster/pkg/release"
)

// Cleanup deletes the workspaces of releases that are no longer listed, then removes the git lock
// files an interrupted run left in the remaining ones. Only a failure to read the build root is returned.
func (m *Manager) Cleanup(versions []*release.Version) error {
	root := m.buildRoot()

	if err := vfs.MkdirAll(m.fs, root, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", root, err)
	}

	infos, err := m.fs.ReadDir(root)
	if err != nil {
		return fmt.Errorf("reading %s: %w", root, err)
	}

	listed := map[string]bool{}
	for _, v := range versions {
		listed[v.Name] = true
	}

	var kept []string

	for _, info := range infos {
		if !info.IsDir() {
			continue
		}

		dir := filepath.Join(root, info.Name())

		if listed[info.Name()] {
			m.Logger.V(1).Info("keeping workspace", "dir", dir)
			kept = append(kept, dir)
			continue
		}

		if err := m.fs.RemoveAll(dir); err != nil {
			m.Logger.Error(err, "failed to delete stale workspace", "dir", dir)
			continue
		}
		m.Logger.Info("deleted stale workspace", "dir", dir)
	}

	for _, dir := range kept {
		m.removeLockFiles(dir)
	}

	return nil
}

// removeLockFiles walks dir without following symlinks and deletes every lock file found.
func (m *Manager) removeLockFiles(dir string) int {
	var removed int

	stack := []string{dir}
	for len(stack) > 0 {
		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		infos, err := m.fs.ReadDir(d)
		if err != nil {
			m.Logger.Error(err, "failed to scan for lock files", "dir", d)
			continue
		}

		for _, info := range infos {
			path := filepath.Join(d, info.Name())

			switch {
			case info.Mode()&os.ModeSymlink != 0:
				continue
			case info.IsDir():
				stack = append(stack, path)
			case info.Name() == LockFileName:
				if err := m.fs.Remove(path); err != nil {
					m.Logger.Error(err, "failed to delete lock file", "path", path)
					continue
				}
				m.Logger.Info("deleted lock file", "path", path)
				removed++
			}
		}
	}

	return removed
}
