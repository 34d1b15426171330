package config

import (
	"github.com/spf13/pflag"
)

// Flags are the command-line overrides. Only flags set explicitly are applied over the file.
type Flags struct {
	fs *pflag.FlagSet

	ConfigFile        string
	WorkDir           string
	Reverse           bool
	Debug             bool
	Keep              bool
	ServerJars        string
	InternalArtifacts string
	PushGateway       string
}

func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}

	fs.StringVar(&f.ConfigFile, "config", "", "path to a YAML or HCL config file")
	fs.StringVar(&f.WorkDir, "workdir", "", "directory holding toolchains and release workspaces")
	fs.BoolVarP(&f.Reverse, "reverse", "r", false, "build the oldest release first")
	fs.BoolVarP(&f.Debug, "debug", "d", false, "enable debug logging")
	fs.BoolVarP(&f.Keep, "keep", "k", false, "keep existing files when relocating artifacts instead of overwriting them")
	fs.StringVar(&f.ServerJars, "move-server-jars", "", "copy every release's server jar into this directory")
	fs.StringVar(&f.InternalArtifacts, "move-nms-jars", "", "copy every release's internal server artifacts into this directory")
	fs.StringVar(&f.PushGateway, "push-gateway", "", "push build metrics to this Prometheus Pushgateway")

	// Short names of the original command-line switches
	fs.StringVar(&f.ServerJars, "msj", "", "alias of --move-server-jars")
	fs.StringVar(&f.InternalArtifacts, "mnj", "", "alias of --move-nms-jars")
	_ = fs.MarkHidden("msj")
	_ = fs.MarkHidden("mnj")

	return f
}

func (f *Flags) changed(names ...string) bool {
	for _, n := range names {
		if f.fs.Changed(n) {
			return true
		}
	}
	return false
}

// Apply overrides conf with every flag given on the command line.
func (f *Flags) Apply(conf *Config) {
	if f.changed("workdir") {
		conf.WorkDir = f.WorkDir
	}
	if f.changed("reverse") {
		conf.Reverse = f.Reverse
	}
	if f.changed("debug") {
		conf.Debug = f.Debug
	}
	if f.changed("keep") {
		conf.Relocation.Overwrite = !f.Keep
	}
	if f.changed("move-server-jars", "msj") {
		conf.Relocation.ServerJars = f.ServerJars
	}
	if f.changed("move-nms-jars", "mnj") {
		conf.Relocation.InternalArtifacts = f.InternalArtifacts
	}
	if f.changed("push-gateway") {
		conf.Metrics.PushGateway = f.PushGateway
	}
}

// Resolve loads the config file named by --config, or the defaults when there is none,
// applies the flags and validates the result.
func (f *Flags) Resolve() (*Config, error) {
	conf := Default()

	if f.ConfigFile != "" {
		var err error
		conf, err = Load(f.ConfigFile)
		if err != nil {
			return nil, err
		}
	}

	f.Apply(conf)

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}
