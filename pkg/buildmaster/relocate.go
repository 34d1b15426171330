package buildmaster

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/twpayne/go-vfs"

	"github.com/variantdev/buildmaster/pkg/release"
	"github.com/variantdev/buildmaster/pkg/tmpl"
)

// IsInternalArtifact reports whether name is a server jar built by the Spigot-Server module,
// excluding its bootstrap and remapped variants.
func IsInternalArtifact(name string) bool {
	return strings.HasPrefix(name, "spigot-") &&
		strings.HasSuffix(name, ".jar") &&
		!strings.HasSuffix(name, "-bootstrap.jar") &&
		!strings.HasSuffix(name, "-remapped.jar")
}

// Relocate copies the artifacts of every release into the destinations configured in
// Config.Relocation. Failed copies are logged and do not stop the others.
func (m *Manager) Relocate(versions []*release.Version) (copied, skipped int) {
	conf := m.Config.Relocation

	if dest := conf.ServerJars; dest != "" {
		for _, v := range versions {
			name, err := tmpl.Render("artifact", m.Config.Naming.Artifact, v)
			if err != nil {
				m.Logger.Error(err, "failed to render artifact name", "version", v.Name)
				continue
			}

			src := filepath.Join(m.workspace(v), name)
			if !m.fileExists(src) {
				m.Logger.V(1).Info("no server jar to relocate", "version", v.Name)
				continue
			}

			c, s := m.relocate(src, dest)
			copied += c
			skipped += s
		}
	}

	if dest := conf.InternalArtifacts; dest != "" {
		for _, v := range versions {
			target := filepath.Join(m.workspace(v), InternalArtifactsDir)

			infos, err := m.fs.ReadDir(target)
			if err != nil {
				m.Logger.V(1).Info("no internal artifacts to relocate", "version", v.Name, "dir", target)
				continue
			}

			for _, info := range infos {
				if !info.Mode().IsRegular() || !IsInternalArtifact(info.Name()) {
					continue
				}
				c, s := m.relocate(filepath.Join(target, info.Name()), dest)
				copied += c
				skipped += s
			}
		}
	}

	return copied, skipped
}

func (m *Manager) relocate(src, destDir string) (copied, skipped int) {
	dst := filepath.Join(destDir, filepath.Base(src))

	if !m.Config.Relocation.Overwrite {
		if _, err := m.fs.Stat(dst); err == nil {
			m.Logger.V(1).Info("destination exists, skipping", "src", src, "dst", dst)
			return 0, 1
		}
	}

	if err := vfs.MkdirAll(m.fs, destDir, 0755); err != nil {
		m.Logger.Error(err, "failed to create destination", "dir", destDir)
		return 0, 0
	}

	m.Logger.Info("copying", "src", src, "dst", dst)

	if err := m.copyFile(src, dst); err != nil {
		m.Logger.Error(err, "failed to copy", "src", src, "dst", dst)
		return 0, 0
	}

	return 1, 0
}

// copyFile copies src to dst, replacing dst, keeping the permissions of src.
func (m *Manager) copyFile(src, dst string) (err error) {
	info, err := m.fs.Stat(src)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}

	in, err := m.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := m.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}
