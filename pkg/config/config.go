// Package config holds the settings of a build run. A Config is assembled once from defaults,
// an optional file and command-line flags, and handed to every component.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/variantdev/buildmaster/pkg/execversionmanager"
	"github.com/variantdev/buildmaster/pkg/releasetracker"
	"github.com/variantdev/buildmaster/pkg/tmpl"
)

const (
	DefaultToolName     = "BuildTools - {{ .Name }}.jar"
	DefaultArtifactName = "spigot-{{ .Name }}.jar"
	DefaultJobName      = "buildmaster"
)

// DefaultRemediate are the releases whose cached server artifact is mis-hashed by BuildTools.
var DefaultRemediate = []string{"1.8", "1.8.3"}

type Config struct {
	// WorkDir holds the downloaded toolchains and the per-release workspaces
	WorkDir string `yaml:"workDir"`

	Reverse bool `yaml:"reverse"`
	Debug   bool `yaml:"debug"`

	Discovery    releasetracker.Spec       `yaml:"discovery"`
	Provisioning execversionmanager.Config `yaml:"provisioning"`
	Naming       Naming                    `yaml:"naming"`
	Relocation   Relocation                `yaml:"relocation"`
	Metrics      Metrics                   `yaml:"metrics"`

	// Remediate lists releases whose workspace "work" directory is removed before building
	Remediate []string `yaml:"remediate"`
}

type Naming struct {
	// Tool is the file name of the per-release copy of the build-support tool
	Tool string `yaml:"tool"`

	// Artifact is the file name of the server jar a successful build leaves in the workspace
	Artifact string `yaml:"artifact"`
}

type Relocation struct {
	// ServerJars is the flat destination for every release's server jar. Empty disables it.
	ServerJars string `yaml:"serverJars"`

	// InternalArtifacts is the flat destination for the jars under Spigot/Spigot-Server/target
	InternalArtifacts string `yaml:"internalArtifacts"`

	// Overwrite replaces existing files at the destination instead of skipping them
	Overwrite bool `yaml:"overwrite"`
}

type Metrics struct {
	PushGateway string `yaml:"pushGateway"`
	Job         string `yaml:"job"`
	// Buckets overrides the default buckets of the build duration histogram, in seconds
	Buckets []float64 `yaml:"buckets"`
	// ConstLabels are attached to every collected series
	ConstLabels map[string]string `yaml:"constLabels"`
}

func Default() *Config {
	return &Config{
		WorkDir: ".",
		Discovery: releasetracker.Spec{
			CatalogURL:        releasetracker.DefaultCatalogURL,
			DescriptorURL:     releasetracker.DefaultDescriptorURL,
			CommitField:       releasetracker.DefaultCommitField,
			ToolchainField:    releasetracker.DefaultToolchainField,
			CoreVersionMarker: releasetracker.DefaultCoreVersionMarker,
		},
		Provisioning: execversionmanager.DefaultConfig(),
		Naming: Naming{
			Tool:     DefaultToolName,
			Artifact: DefaultArtifactName,
		},
		Relocation: Relocation{
			Overwrite: true,
		},
		Metrics: Metrics{
			Job: DefaultJobName,
		},
		Remediate: append([]string{}, DefaultRemediate...),
	}
}

// Validate reports every problem found in c at once.
func (c *Config) Validate() error {
	var errs []string

	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if c.WorkDir == "" {
		add("workDir must not be empty")
	}

	if c.Discovery.CatalogURL == "" {
		add("discovery.catalogURL must not be empty")
	}

	if err := tmpl.Check("discovery.descriptorURL", c.Discovery.DescriptorURL); err != nil {
		add("discovery.descriptorURL: %v", err)
	}

	if len(c.Provisioning.Toolchains) == 0 {
		add("provisioning.toolchains must not be empty")
	}

	seen := map[int]bool{}
	for i, t := range c.Provisioning.Toolchains {
		if !t.Generation.Known() {
			add("provisioning.toolchains[%d]: unsupported generation %d", i, int(t.Generation))
		}
		if seen[int(t.Generation)] {
			add("provisioning.toolchains[%d]: duplicate generation %d", i, int(t.Generation))
		}
		seen[int(t.Generation)] = true
		if len(t.Platforms) == 0 {
			add("provisioning.toolchains[%d]: platforms must not be empty", i)
		}
		for j, p := range t.Platforms {
			if p.Source == "" {
				add("provisioning.toolchains[%d].platforms[%d].source must not be empty", i, j)
			}
			if p.EntryPoint == "" {
				add("provisioning.toolchains[%d].platforms[%d].entryPoint must not be empty", i, j)
			}
		}
	}

	if len(c.Provisioning.Auxiliary.Platforms) == 0 {
		add("provisioning.auxiliary.platforms must not be empty")
	}

	if c.Provisioning.BuildTools.Source == "" {
		add("provisioning.buildTools.source must not be empty")
	}

	if err := tmpl.Check("naming.tool", c.Naming.Tool); err != nil {
		add("naming.tool: %v", err)
	}

	if err := tmpl.Check("naming.artifact", c.Naming.Artifact); err != nil {
		add("naming.artifact: %v", err)
	}

	for i := 1; i < len(c.Metrics.Buckets); i++ {
		if c.Metrics.Buckets[i] <= c.Metrics.Buckets[i-1] {
			add("metrics.buckets must be in strictly increasing order")
			break
		}
	}

	if len(errs) > 0 {
		return errors.New("invalid config: " + strings.Join(errs, "; "))
	}

	return nil
}
