package buildmaster

import (
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/twpayne/go-vfs"
	"k8s.io/klog/klogr"

	"github.com/variantdev/buildmaster/pkg/buildtask"
	"github.com/variantdev/buildmaster/pkg/config"
	"github.com/variantdev/buildmaster/pkg/execversionmanager"
	"github.com/variantdev/buildmaster/pkg/release"
	"github.com/variantdev/buildmaster/pkg/releasetracker"
	"github.com/variantdev/buildmaster/pkg/telemetry"
)

const (
	// WorkspacesDir holds one workspace per release, named after its display name
	WorkspacesDir = "BuildTools"

	// LockFileName is left behind by git when a build is interrupted
	LockFileName = "index.lock"

	// RemediationDir is removed from the workspaces of the releases listed in Config.Remediate
	RemediationDir = "work"
)

// InternalArtifactsDir is where BuildTools leaves the server jars of the Spigot-Server module.
var InternalArtifactsDir = filepath.Join("Spigot", "Spigot-Server", "target")

type Discoverer interface {
	Discover(reverse bool) ([]*release.Version, error)
}

type Provisioner interface {
	Build() (*execversionmanager.Provisioned, error)
}

type Executor interface {
	Execute(req buildtask.Request) buildtask.Outcome
}

// Manager builds every release listed in the catalog, one after another.
type Manager struct {
	Config *config.Config

	Logger logr.Logger

	fs vfs.FS

	discoverer  Discoverer
	provisioner Provisioner
	executor    Executor

	metrics *telemetry.Metrics
}

type Option interface {
	SetOption(*Manager) error
}

func Logger(logger logr.Logger) Option {
	return &loggerOption{l: logger}
}

type loggerOption struct {
	l logr.Logger
}

func (s *loggerOption) SetOption(m *Manager) error {
	m.Logger = s.l
	return nil
}

func FS(fs vfs.FS) Option {
	return &fsOption{f: fs}
}

type fsOption struct {
	f vfs.FS
}

func (s *fsOption) SetOption(m *Manager) error {
	m.fs = s.f
	return nil
}

func WithDiscoverer(d Discoverer) Option {
	return &discovererOption{d: d}
}

type discovererOption struct {
	d Discoverer
}

func (s *discovererOption) SetOption(m *Manager) error {
	m.discoverer = s.d
	return nil
}

func WithProvisioner(p Provisioner) Option {
	return &provisionerOption{p: p}
}

type provisionerOption struct {
	p Provisioner
}

func (s *provisionerOption) SetOption(m *Manager) error {
	m.provisioner = s.p
	return nil
}

func WithExecutor(e Executor) Option {
	return &executorOption{e: e}
}

type executorOption struct {
	e Executor
}

func (s *executorOption) SetOption(m *Manager) error {
	m.executor = s.e
	return nil
}

func WithMetrics(metrics *telemetry.Metrics) Option {
	return &metricsOption{m: metrics}
}

type metricsOption struct {
	m *telemetry.Metrics
}

func (s *metricsOption) SetOption(m *Manager) error {
	m.metrics = s.m
	return nil
}

func New(conf *config.Config, opts ...Option) (*Manager, error) {
	man := &Manager{
		Config: conf,
	}

	for _, o := range opts {
		if err := o.SetOption(man); err != nil {
			return nil, err
		}
	}

	if man.Logger == nil {
		man.Logger = klogr.New()
	}

	if man.fs == nil {
		man.fs = vfs.HostOSFS
	}

	if man.discoverer == nil {
		t, err := releasetracker.New(conf.Discovery, releasetracker.Logger(man.Logger))
		if err != nil {
			return nil, err
		}
		man.discoverer = t
	}

	if man.provisioner == nil {
		evm, err := execversionmanager.New(
			&conf.Provisioning,
			execversionmanager.FS(man.fs),
			execversionmanager.Home(conf.WorkDir),
			execversionmanager.Logger(man.Logger),
		)
		if err != nil {
			return nil, err
		}
		man.provisioner = evm
	}

	if man.executor == nil {
		task, err := buildtask.New(buildtask.Logger(man.Logger))
		if err != nil {
			return nil, err
		}
		man.executor = task
	}

	if man.metrics == nil {
		var (
			counterOpts   []telemetry.CounterOption
			histogramOpts []telemetry.HistogramOption
		)
		if labels := conf.Metrics.ConstLabels; len(labels) > 0 {
			counterOpts = append(counterOpts, telemetry.WithConstLabels(labels))
			histogramOpts = append(histogramOpts, telemetry.WithHistogramConstLabels(labels))
		}
		if buckets := conf.Metrics.Buckets; len(buckets) > 0 {
			histogramOpts = append(histogramOpts, telemetry.WithHistogramBuckets(buckets))
		}
		man.metrics = telemetry.NewMetrics("buildmaster", counterOpts...)
		man.metrics.EnableHandlingTimeHistogram(histogramOpts...)
	}

	man.Logger.V(1).Info("init", "workdir", conf.WorkDir, "reverse", conf.Reverse)

	return man, nil
}

func (m *Manager) buildRoot() string {
	return filepath.Join(m.Config.WorkDir, WorkspacesDir)
}

func (m *Manager) workspace(v *release.Version) string {
	return filepath.Join(m.buildRoot(), v.Name)
}
