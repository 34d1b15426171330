package execversionmanager

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-getter"
)

// Extractor unpacks archives on the host filesystem.
type Extractor interface {
	// TopLevel returns the name of the first path component of the archive's first entry
	TopLevel(archive string) (string, error)

	// Extract unpacks archive into the directory dst
	Extract(dst, archive string) error
}

// ArchiveFormat returns the go-getter decompressor key for the archive at path, or "" when unsupported.
func ArchiveFormat(path string) string {
	lower := strings.ToLower(path)
	for _, f := range []string{"tar.gz", "tgz", "zip"} {
		if strings.HasSuffix(lower, "."+f) {
			return f
		}
	}
	return ""
}

type getterExtractor struct{}

func (getterExtractor) Extract(dst, archive string) error {
	format := ArchiveFormat(archive)
	d, ok := getter.Decompressors[format]
	if !ok {
		return fmt.Errorf("unsupported archive format: %s", archive)
	}
	return d.Decompress(dst, archive, true)
}

func (getterExtractor) TopLevel(archive string) (string, error) {
	var name string
	var err error

	switch ArchiveFormat(archive) {
	case "zip":
		name, err = zipTopLevel(archive)
	case "tar.gz", "tgz":
		name, err = tarGzTopLevel(archive)
	default:
		return "", fmt.Errorf("unsupported archive format: %s", archive)
	}
	if err != nil {
		return "", err
	}

	name = strings.TrimPrefix(strings.Replace(name, "\\", "/", -1), "./")
	if i := strings.Index(name, "/"); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return "", fmt.Errorf("archive %s has no top-level entry", archive)
	}
	return name, nil
}

func zipTopLevel(archive string) (string, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return "", err
	}
	defer r.Close()

	if len(r.File) == 0 {
		return "", fmt.Errorf("archive %s is empty", archive)
	}
	return r.File[0].Name, nil
}

func tarGzTopLevel(archive string) (string, error) {
	f, err := os.Open(archive)
	if err != nil {
		return "", err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			return "", fmt.Errorf("archive %s is empty", archive)
		}
		if err != nil {
			return "", err
		}
		// pax headers carry no path of their own
		if h.Typeflag == tar.TypeXGlobalHeader || h.Name == "./" || h.Name == "." {
			continue
		}
		return h.Name, nil
	}
}
