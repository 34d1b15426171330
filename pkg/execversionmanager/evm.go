package execversionmanager

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-logr/logr"
	"github.com/twpayne/go-vfs"
	"github.com/variantdev/buildmaster/pkg/depresolver"
	"github.com/variantdev/buildmaster/pkg/release"
	"k8s.io/klog/klogr"
)

const (
	ToolchainsDir = "JDK"
	AuxiliaryDir  = "Maven"
	BuildToolsDir = "BuildTools"
)

// Handle is a provisioned toolchain or tool. Paths are host paths, suitable for launching processes.
type Handle struct {
	Name       string
	Generation release.Generation

	// Home is the extracted top-level directory
	Home       string
	EntryPoint string
}

// Toolchains are the provisioned toolchains, oldest generation first.
type Toolchains []*Handle

// Select returns the toolchain of the given generation. Without an exact match, the oldest
// provisioned generation newer than gen is returned.
func (ts Toolchains) Select(gen release.Generation) (*Handle, bool) {
	var fallback *Handle
	for _, t := range ts {
		if t.Generation == gen {
			return t, true
		}
		if t.Generation > gen && (fallback == nil || t.Generation < fallback.Generation) {
			fallback = t
		}
	}
	return fallback, fallback != nil
}

func (ts Toolchains) Generations() []release.Generation {
	var gens []release.Generation
	for _, t := range ts {
		gens = append(gens, t.Generation)
	}
	return gens
}

// Provisioned is everything a run needs before building any release.
type Provisioned struct {
	// BuildTools is the path of the freshly downloaded build-support tool, in the provisioner's filesystem
	BuildTools string
	Toolchains Toolchains
	Auxiliary  *Handle
}

// ExecVM downloads and unpacks the toolchains and tools builds run with.
// Archives are kept under Home and reused across runs; only the build-support tool is always refetched.
type ExecVM struct {
	Config *Config

	fs vfs.FS

	Logger logr.Logger

	Home string

	OS, Arch string

	dep *depresolver.Resolver

	extractor Extractor
	getter    depresolver.Getter
}

type Option interface {
	SetOption(r *ExecVM) error
}

func Logger(logger logr.Logger) Option {
	return &loggerOption{l: logger}
}

type loggerOption struct {
	l logr.Logger
}

func (s *loggerOption) SetOption(r *ExecVM) error {
	r.Logger = s.l
	return nil
}

func FS(fs vfs.FS) Option {
	return &fsOption{f: fs}
}

type fsOption struct {
	f vfs.FS
}

func (s *fsOption) SetOption(r *ExecVM) error {
	r.fs = s.f
	return nil
}

func Home(dir string) Option {
	return &homeOption{d: dir}
}

type homeOption struct {
	d string
}

func (s *homeOption) SetOption(r *ExecVM) error {
	r.Home = s.d
	return nil
}

// OSArch overrides the os/arch labels platforms are selected by.
func OSArch(os, arch string) Option {
	return &osArchOption{os: os, arch: arch}
}

type osArchOption struct {
	os, arch string
}

func (s *osArchOption) SetOption(r *ExecVM) error {
	r.OS, r.Arch = s.os, s.arch
	return nil
}

func WithExtractor(e Extractor) Option {
	return &extractorOption{e: e}
}

type extractorOption struct {
	e Extractor
}

func (s *extractorOption) SetOption(r *ExecVM) error {
	r.extractor = s.e
	return nil
}

func WithGetter(g depresolver.Getter) Option {
	return &getterOption{g: g}
}

type getterOption struct {
	g depresolver.Getter
}

func (s *getterOption) SetOption(r *ExecVM) error {
	r.getter = s.g
	return nil
}

func New(conf *Config, opts ...Option) (*ExecVM, error) {
	provider := &ExecVM{}

	for _, o := range opts {
		if err := o.SetOption(provider); err != nil {
			return nil, err
		}
	}

	if provider.Logger == nil {
		provider.Logger = klogr.New()
	}

	if provider.fs == nil {
		provider.fs = vfs.HostOSFS
	}

	if provider.Home == "" {
		provider.Home = "."
	}

	if provider.OS == "" || provider.Arch == "" {
		goos, goarch := OsArch()
		if provider.OS == "" {
			provider.OS = goos
		}
		if provider.Arch == "" {
			provider.Arch = goarch
		}
	}

	if provider.extractor == nil {
		provider.extractor = getterExtractor{}
	}

	provider.Logger.V(1).Info("execversionmanager.init", "home", provider.Home, "os", provider.OS, "arch", provider.Arch)

	depOpts := []depresolver.Option{
		depresolver.FS(provider.fs),
		depresolver.Home(provider.Home),
		depresolver.Logger(provider.Logger),
	}
	if provider.getter != nil {
		depOpts = append(depOpts, depresolver.WithGetter(provider.getter))
	}

	dep, err := depresolver.New(depOpts...)
	if err != nil {
		return nil, err
	}

	provider.dep = dep

	provider.Config = conf

	return provider, nil
}

// Toolchain provisions the toolchain of the given generation.
func (p *ExecVM) Toolchain(gen release.Generation) (*Handle, error) {
	for _, t := range p.Config.Toolchains {
		if t.Generation != gen {
			continue
		}

		name := t.Generation.String()
		platform, err := p.selectPlatform(name, t.Platforms)
		if err != nil {
			return nil, err
		}

		fileName := fmt.Sprintf("jdk-%d.%s", int(gen), ArchiveFormat(sourcePath(platform.Source)))

		h, err := p.provision(name, platform, filepath.Join(ToolchainsDir, fileName))
		if err != nil {
			return nil, err
		}
		h.Generation = gen
		return h, nil
	}

	return nil, &ProvisionError{Name: gen.String(), Op: "lookup", Err: fmt.Errorf("no toolchain configured")}
}

// Auxiliary provisions the auxiliary build-dependency tool. Its Home is handed to builds.
func (p *ExecVM) Auxiliary() (*Handle, error) {
	aux := p.Config.Auxiliary

	name := aux.Name
	if name == "" {
		name = "auxiliary"
	}

	platform, err := p.selectPlatform(name, aux.Platforms)
	if err != nil {
		return nil, err
	}

	fileName := path.Base(sourcePath(platform.Source))

	return p.provision(name, platform, filepath.Join(AuxiliaryDir, fileName))
}

// BuildTools deletes any previously downloaded build-support tool and downloads the latest one.
func (p *ExecVM) BuildTools() (string, error) {
	src := p.Config.BuildTools

	fileName := src.FileName
	if fileName == "" {
		fileName = DefaultBuildToolsFileName
	}

	local, err := p.dep.Refetch(src.Source, filepath.Join(BuildToolsDir, fileName))
	if err != nil {
		return "", &ProvisionError{Name: fileName, Op: "download", Err: err}
	}

	p.Logger.Info("downloaded build tools", "path", local)

	return local, nil
}

// Build provisions the build-support tool, then every configured toolchain newest first, then the auxiliary tool.
func (p *ExecVM) Build() (*Provisioned, error) {
	bt, err := p.BuildTools()
	if err != nil {
		return nil, err
	}

	gens := make([]release.Generation, 0, len(p.Config.Toolchains))
	for _, t := range p.Config.Toolchains {
		gens = append(gens, t.Generation)
	}
	sort.Slice(gens, func(i, j int) bool { return gens[i] > gens[j] })

	var ts Toolchains
	for _, gen := range gens {
		h, err := p.Toolchain(gen)
		if err != nil {
			return nil, err
		}
		ts = append(ts, h)
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Generation < ts[j].Generation })

	aux, err := p.Auxiliary()
	if err != nil {
		return nil, err
	}

	return &Provisioned{
		BuildTools: bt,
		Toolchains: ts,
		Auxiliary:  aux,
	}, nil
}

func (p *ExecVM) selectPlatform(name string, platforms []Platform) (Platform, error) {
	if len(platforms) == 0 {
		return Platform{}, &ProvisionError{Name: name, Op: "lookup", Err: fmt.Errorf("no platforms configured")}
	}

	platform, matched := p.matchingPlatform(name, platforms)
	if !matched {
		if len(platforms) > 1 {
			return Platform{}, &ProvisionError{Name: name, Op: "lookup", Err: fmt.Errorf("no platform matched: os=%s, arch=%s", p.OS, p.Arch)}
		}
		platform = platforms[0]
	}

	return platform, nil
}

// provision downloads the platform's archive to dst unless it is already there, extracts it next to
// the archive unless its top-level directory already exists, then locates the entry point.
func (p *ExecVM) provision(name string, platform Platform, dst string) (*Handle, error) {
	if ArchiveFormat(dst) == "" {
		return nil, &ProvisionError{Name: name, Op: "lookup", Err: fmt.Errorf("unsupported archive format: %s", platform.Source)}
	}

	archive, downloaded, err := p.dep.FetchFile(platform.Source, dst)
	if err != nil {
		return nil, &ProvisionError{Name: name, Op: "download", Err: err}
	}
	if downloaded {
		p.Logger.Info("downloaded archive", "name", name, "path", archive)
	} else {
		p.Logger.V(1).Info("archive already exists, skipping download", "name", name, "path", archive)
	}

	rawArchive, err := p.fs.RawPath(archive)
	if err != nil {
		return nil, &ProvisionError{Name: name, Op: "extract", Err: err}
	}

	topLevel, err := p.extractor.TopLevel(rawArchive)
	if err != nil {
		return nil, &ProvisionError{Name: name, Op: "extract", Err: err}
	}

	root := filepath.Dir(archive)

	if p.dirExists(filepath.Join(root, topLevel)) {
		p.Logger.V(1).Info("already extracted, skipping extraction", "name", name, "dir", topLevel)
	} else {
		rawRoot, err := p.fs.RawPath(root)
		if err != nil {
			return nil, &ProvisionError{Name: name, Op: "extract", Err: err}
		}

		p.Logger.Info("extracting archive", "name", name, "path", archive)

		if err := p.extractor.Extract(rawRoot, rawArchive); err != nil {
			return nil, &ProvisionError{Name: name, Op: "extract", Err: err}
		}
	}

	home, err := p.locate(root, topLevel)
	if err != nil {
		return nil, &ProvisionError{Name: name, Op: "locate", Err: err}
	}
	if home == "" {
		return nil, &EntryPointNotFoundError{Name: name, TopLevel: topLevel, EntryPoint: platform.EntryPoint}
	}

	h := &Handle{Name: name}

	if platform.EntryPoint != "" {
		entryPoint := filepath.Join(home, filepath.FromSlash(platform.EntryPoint))
		if s, err := p.fs.Stat(entryPoint); err != nil || s.IsDir() {
			return nil, &EntryPointNotFoundError{Name: name, TopLevel: topLevel, EntryPoint: platform.EntryPoint}
		}
		if h.EntryPoint, err = p.fs.RawPath(entryPoint); err != nil {
			return nil, &ProvisionError{Name: name, Op: "locate", Err: err}
		}
	}

	if h.Home, err = p.fs.RawPath(home); err != nil {
		return nil, &ProvisionError{Name: name, Op: "locate", Err: err}
	}

	p.Logger.V(1).Info("provisioned", "name", name, "home", h.Home, "entrypoint", h.EntryPoint)

	return h, nil
}

// locate returns the subdirectory of root named after the archive's top-level entry, or "" if there is none.
func (p *ExecVM) locate(root, topLevel string) (string, error) {
	infos, err := p.fs.ReadDir(root)
	if err != nil {
		return "", err
	}
	for _, info := range infos {
		if info.IsDir() && info.Name() == topLevel {
			return filepath.Join(root, info.Name()), nil
		}
	}
	return "", nil
}

func (p *ExecVM) dirExists(path string) bool {
	s, err := p.fs.Stat(path)
	return err == nil && s.IsDir()
}

// sourcePath strips the query and the go-getter forced getter prefix from a source URL.
func sourcePath(src string) string {
	if i := strings.Index(src, "::"); i >= 0 {
		src = src[i+2:]
	}
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	return src
}
