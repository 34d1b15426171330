package config

import (
	"os"
	"strings"

	hcl2 "github.com/hashicorp/hcl/v2"
	gohcl2 "github.com/hashicorp/hcl/v2/gohcl"
	hcl2parse "github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/variantdev/buildmaster/pkg/execversionmanager"
	"github.com/variantdev/buildmaster/pkg/release"
)

type hclConfig struct {
	WorkDir   *string  `hcl:"work_dir,optional"`
	Reverse   *bool    `hcl:"reverse,optional"`
	Debug     *bool    `hcl:"debug,optional"`
	Remediate []string `hcl:"remediate,optional"`

	Discovery  *hclDiscovery  `hcl:"discovery,block"`
	Toolchains []hclToolchain `hcl:"toolchain,block"`
	Auxiliary  *hclAuxiliary  `hcl:"auxiliary,block"`
	BuildTools *hclBuildTools `hcl:"build_tools,block"`
	Naming     *hclNaming     `hcl:"naming,block"`
	Relocation *hclRelocation `hcl:"relocation,block"`
	Metrics    *hclMetrics    `hcl:"metrics,block"`
}

type hclDiscovery struct {
	CatalogURL        *string `hcl:"catalog_url,optional"`
	DescriptorURL     *string `hcl:"descriptor_url,optional"`
	CommitField       *string `hcl:"commit_field,optional"`
	ToolchainField    *string `hcl:"toolchain_field,optional"`
	CoreVersionMarker *string `hcl:"core_version_marker,optional"`
}

type hclToolchain struct {
	Generation string        `hcl:"generation,label"`
	Platforms  []hclPlatform `hcl:"platform,block"`
}

type hclAuxiliary struct {
	Name      string        `hcl:"name,label"`
	Platforms []hclPlatform `hcl:"platform,block"`
}

type hclPlatform struct {
	Source     string  `hcl:"source,attr"`
	EntryPoint *string `hcl:"entry_point,optional"`
	OS         *string `hcl:"os,optional"`
	Arch       *string `hcl:"arch,optional"`
}

type hclBuildTools struct {
	Source   *string `hcl:"source,optional"`
	FileName *string `hcl:"file_name,optional"`
}

type hclNaming struct {
	Tool     *string `hcl:"tool,optional"`
	Artifact *string `hcl:"artifact,optional"`
}

type hclRelocation struct {
	ServerJars        *string `hcl:"server_jars,optional"`
	InternalArtifacts *string `hcl:"internal_artifacts,optional"`
	Overwrite         *bool   `hcl:"overwrite,optional"`
}

type hclMetrics struct {
	PushGateway *string           `hcl:"push_gateway,optional"`
	Job         *string           `hcl:"job,optional"`
	Buckets     []float64         `hcl:"buckets,optional"`
	ConstLabels map[string]string `hcl:"const_labels,optional"`
}

// evalContext exposes the process environment to expressions as env.NAME.
func evalContext() *hcl2.EvalContext {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		i := strings.Index(kv, "=")
		if i <= 0 {
			continue
		}
		vars[kv[:i]] = cty.StringVal(kv[i+1:])
	}

	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}

	return &hcl2.EvalContext{
		Variables: map[string]cty.Value{
			"env": env,
		},
	}
}

func decodeHCL(filename string, src []byte, conf *Config) error {
	parser := hcl2parse.NewParser()

	var f *hcl2.File
	var diags hcl2.Diagnostics
	if strings.HasSuffix(strings.ToLower(filename), ".json") {
		f, diags = parser.ParseJSON(src, filename)
	} else {
		f, diags = parser.ParseHCL(src, filename)
	}
	if diags.HasErrors() {
		return diags
	}

	c := &hclConfig{}
	if diags := gohcl2.DecodeBody(f.Body, evalContext(), c); diags.HasErrors() {
		// The diags are returned as an implementation of error, which the
		// caller can type-assert to recover the individual diagnostics.
		return diags
	}

	return c.apply(conf)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func (c *hclConfig) apply(conf *Config) error {
	setString(&conf.WorkDir, c.WorkDir)
	setBool(&conf.Reverse, c.Reverse)
	setBool(&conf.Debug, c.Debug)

	if c.Remediate != nil {
		conf.Remediate = c.Remediate
	}

	if d := c.Discovery; d != nil {
		setString(&conf.Discovery.CatalogURL, d.CatalogURL)
		setString(&conf.Discovery.DescriptorURL, d.DescriptorURL)
		setString(&conf.Discovery.CommitField, d.CommitField)
		setString(&conf.Discovery.ToolchainField, d.ToolchainField)
		setString(&conf.Discovery.CoreVersionMarker, d.CoreVersionMarker)
	}

	if len(c.Toolchains) > 0 {
		var ts []execversionmanager.Toolchain
		for _, t := range c.Toolchains {
			gen, err := release.ParseGeneration(t.Generation)
			if err != nil {
				return err
			}
			ts = append(ts, execversionmanager.Toolchain{
				Generation: gen,
				Platforms:  platforms(t.Platforms),
			})
		}
		conf.Provisioning.Toolchains = ts
	}

	if a := c.Auxiliary; a != nil {
		conf.Provisioning.Auxiliary = execversionmanager.Tool{
			Name:      a.Name,
			Platforms: platforms(a.Platforms),
		}
	}

	if b := c.BuildTools; b != nil {
		setString(&conf.Provisioning.BuildTools.Source, b.Source)
		setString(&conf.Provisioning.BuildTools.FileName, b.FileName)
	}

	if n := c.Naming; n != nil {
		setString(&conf.Naming.Tool, n.Tool)
		setString(&conf.Naming.Artifact, n.Artifact)
	}

	if r := c.Relocation; r != nil {
		setString(&conf.Relocation.ServerJars, r.ServerJars)
		setString(&conf.Relocation.InternalArtifacts, r.InternalArtifacts)
		setBool(&conf.Relocation.Overwrite, r.Overwrite)
	}

	if m := c.Metrics; m != nil {
		setString(&conf.Metrics.PushGateway, m.PushGateway)
		setString(&conf.Metrics.Job, m.Job)
		if m.Buckets != nil {
			conf.Metrics.Buckets = m.Buckets
		}
		if m.ConstLabels != nil {
			conf.Metrics.ConstLabels = m.ConstLabels
		}
	}

	return nil
}

func platforms(ps []hclPlatform) []execversionmanager.Platform {
	var res []execversionmanager.Platform
	for _, p := range ps {
		platform := execversionmanager.Platform{Source: p.Source}
		setString(&platform.EntryPoint, p.EntryPoint)
		setString(&platform.Selector.MatchLabels.OS, p.OS)
		setString(&platform.Selector.MatchLabels.Arch, p.Arch)
		res = append(res, platform)
	}
	return res
}
