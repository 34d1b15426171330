package depresolver

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-getter"
	"github.com/twpayne/go-vfs"
	"k8s.io/klog/klogr"
)

// Resolver downloads remote files into Home. A file that is already present is reused
// as-is unless Refetch is used.
type Resolver struct {
	Logger logr.Logger

	// Home is the directory downloads are stored under, as seen through the resolver's FS.
	Home string

	// Getter is the underlying implementation of getter used for fetching remote files
	Getter Getter

	FileExists func(string) bool

	fs vfs.FS
}

type Option interface {
	SetOption(*Resolver) error
}

func Home(dir string) Option {
	return &homeOption{d: dir}
}

type homeOption struct {
	d string
}

func (s *homeOption) SetOption(r *Resolver) error {
	r.Home = s.d
	return nil
}

func Logger(logger logr.Logger) Option {
	return &loggerOption{l: logger}
}

type loggerOption struct {
	l logr.Logger
}

func (s *loggerOption) SetOption(r *Resolver) error {
	r.Logger = s.l
	return nil
}

func FS(fs vfs.FS) Option {
	return &fsOption{f: fs}
}

type fsOption struct {
	f vfs.FS
}

func (s *fsOption) SetOption(r *Resolver) error {
	r.fs = s.f
	return nil
}

func WithGetter(g Getter) Option {
	return &getterOption{g: g}
}

type getterOption struct {
	g Getter
}

func (s *getterOption) SetOption(r *Resolver) error {
	r.Getter = s.g
	return nil
}

func New(opts ...Option) (*Resolver, error) {
	r := &Resolver{}

	for _, o := range opts {
		if err := o.SetOption(r); err != nil {
			return nil, err
		}
	}

	if r.Logger == nil {
		r.Logger = klogr.New()
	}

	if r.fs == nil {
		r.fs = vfs.HostOSFS
	}

	if r.FileExists == nil {
		r.FileExists = func(path string) bool {
			s, err := r.fs.Stat(path)
			return err == nil && s != nil && !s.IsDir()
		}
	}

	if r.Getter == nil {
		r.Getter = &GoGetter{Logger: r.Logger}
	}

	return r, nil
}

type InvalidURLError struct {
	err string
}

func (e InvalidURLError) Error() string {
	return e.err
}

func validate(src string) error {
	u, err := url.Parse(src)
	if err != nil {
		return InvalidURLError{err: fmt.Sprintf("parse url: %v", err)}
	}
	if u.Scheme == "" {
		return InvalidURLError{err: fmt.Sprintf("parse url: missing scheme - probably this is a local file path? %s", src)}
	}
	return nil
}

// FetchFile downloads src to dst, a path relative to Home, unless a file already exists
// there. It returns the path of the local copy and whether a download happened.
func (r *Resolver) FetchFile(src, dst string) (string, bool, error) {
	if err := validate(src); err != nil {
		return "", false, err
	}

	local := filepath.Join(r.Home, dst)

	if r.FileExists(local) {
		r.Logger.V(1).Info("cache hit", "src", src, "path", local)
		return local, false, nil
	}

	if err := r.download(src, local); err != nil {
		return "", false, err
	}

	return local, true, nil
}

// Refetch removes any existing copy at dst and downloads src again.
func (r *Resolver) Refetch(src, dst string) (string, error) {
	if err := validate(src); err != nil {
		return "", err
	}

	local := filepath.Join(r.Home, dst)

	if r.FileExists(local) {
		r.Logger.V(1).Info("removing stale copy", "path", local)
		if err := r.fs.Remove(local); err != nil {
			return "", fmt.Errorf("remove stale copy %s: %w", local, err)
		}
	}

	if err := r.download(src, local); err != nil {
		return "", err
	}

	return local, nil
}

func (r *Resolver) download(src, local string) error {
	if err := vfs.MkdirAll(r.fs, filepath.Dir(local), 0755); err != nil {
		return err
	}

	raw, err := r.fs.RawPath(local)
	if err != nil {
		return err
	}

	r.Logger.Info("downloading", "src", src, "dst", local)

	if err := r.Getter.Get(raw, src); err != nil {
		if r.FileExists(local) {
			if err2 := r.fs.Remove(local); err2 != nil {
				return err2
			}
		}
		return err
	}

	return nil
}

// Getter fetches a single remote file to dst, a path on the host filesystem.
type Getter interface {
	Get(dst, src string) error
}

type GoGetter struct {
	Logger logr.Logger
}

func (g *GoGetter) Get(dst, src string) error {
	u, err := url.Parse(src)
	if err != nil {
		return err
	}

	// Archives are kept as downloaded; extraction is up to the caller.
	q := u.Query()
	q.Set("archive", "false")
	u.RawQuery = q.Encode()

	get := &getter.Client{
		Ctx:     context.Background(),
		Src:     u.String(),
		Dst:     dst,
		Pwd:     filepath.Dir(dst),
		Mode:    getter.ClientModeFile,
		Options: []getter.ClientOption{},
	}

	g.Logger.V(2).Info("get", "src", get.Src, "dst", dst)

	if err := get.Get(); err != nil {
		return fmt.Errorf("get: %v", err)
	}

	return nil
}
