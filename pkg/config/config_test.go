package config

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/variantdev/buildmaster/pkg/execversionmanager"
	"github.com/variantdev/buildmaster/pkg/release"
)

func readFrom(files map[string]string) func(string) ([]byte, error) {
	return func(path string) ([]byte, error) {
		s, ok := files[path]
		if !ok {
			return nil, fmt.Errorf("%s: no such file", path)
		}
		return []byte(s), nil
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_YAML(t *testing.T) {
	yml := `
workDir: /srv/spigot
reverse: true
relocation:
  serverJars: /srv/jars
provisioning:
  toolchains:
  - generation: 17
    platforms:
    - source: https://example.com/jdk17.tar.gz
      entryPoint: bin/java
      selector:
        matchLabels:
          os: linux
          arch: arm64
`

	conf, err := LoadWith(readFrom(map[string]string{"buildmaster.yaml": yml}), "buildmaster.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if conf.WorkDir != "/srv/spigot" || !conf.Reverse {
		t.Errorf("unexpected top-level settings: workDir=%s, reverse=%v", conf.WorkDir, conf.Reverse)
	}

	if conf.Relocation.ServerJars != "/srv/jars" || !conf.Relocation.Overwrite {
		t.Errorf("unexpected relocation: %+v", conf.Relocation)
	}

	expected := []execversionmanager.Toolchain{
		{
			Generation: release.Java17,
			Platforms: []execversionmanager.Platform{
				{
					Source:     "https://example.com/jdk17.tar.gz",
					EntryPoint: "bin/java",
					Selector:   execversionmanager.Selector{MatchLabels: execversionmanager.MatchLabels{OS: "linux", Arch: "arm64"}},
				},
			},
		},
	}
	if diff := cmp.Diff(expected, conf.Provisioning.Toolchains); diff != "" {
		t.Errorf("unexpected toolchains: %s", diff)
	}

	if conf.Discovery.CatalogURL != Default().Discovery.CatalogURL {
		t.Errorf("expected unset fields to keep their defaults")
	}

	if err := conf.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoad_YAMLMetrics(t *testing.T) {
	yml := `
metrics:
  pushGateway: http://pushgateway:9091
  buckets: [30, 60, 300, 900]
  constLabels:
    host: ci-1
`

	conf, err := LoadWith(readFrom(map[string]string{"c.yaml": yml}), "c.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := Metrics{
		PushGateway: "http://pushgateway:9091",
		Job:         DefaultJobName,
		Buckets:     []float64{30, 60, 300, 900},
		ConstLabels: map[string]string{"host": "ci-1"},
	}
	if diff := cmp.Diff(expected, conf.Metrics); diff != "" {
		t.Errorf("unexpected metrics: %s", diff)
	}
}

func TestLoad_YAMLSchemaViolation(t *testing.T) {
	testcases := map[string]string{
		"unknown field":  "wokDir: /srv\n",
		"wrong type":     "reverse: yes please\n",
		"old generation": "provisioning:\n  toolchains:\n  - generation: 7\n    platforms: []\n",
		"label value":    "metrics:\n  constLabels:\n    shard: 3\n",
	}

	for name, yml := range testcases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadWith(readFrom(map[string]string{"c.yml": yml}), "c.yml")
			if err == nil || !strings.Contains(err.Error(), "validate") {
				t.Errorf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestLoad_HCL(t *testing.T) {
	src := `
work_dir = "/srv/spigot"
remediate = ["1.8"]

toolchain "17" {
  platform {
    source      = "https://example.com/jdk17-linux.tar.gz"
    entry_point = "bin/java"
    os          = "linux"
    arch        = "amd64"
  }
}

toolchain "java8" {
  platform {
    source      = "https://example.com/jdk8.zip"
    entry_point = "bin/java"
  }
}

auxiliary "Maven" {
  platform {
    source      = "https://example.com/maven.zip"
    entry_point = "bin/mvn"
  }
}

relocation {
  internal_artifacts = "/srv/nms"
  overwrite          = false
}

metrics {
  push_gateway = "http://pushgateway:9091"
}
`

	conf, err := LoadWith(readFrom(map[string]string{"buildmaster.hcl": src}), "buildmaster.hcl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if conf.WorkDir != "/srv/spigot" {
		t.Errorf("unexpected workDir: %s", conf.WorkDir)
	}

	if diff := cmp.Diff([]string{"1.8"}, conf.Remediate); diff != "" {
		t.Errorf("unexpected remediate: %s", diff)
	}

	var gens []release.Generation
	for _, tc := range conf.Provisioning.Toolchains {
		gens = append(gens, tc.Generation)
	}
	if diff := cmp.Diff([]release.Generation{release.Java17, release.Java8}, gens); diff != "" {
		t.Errorf("unexpected generations: %s", diff)
	}

	if os := conf.Provisioning.Toolchains[0].Platforms[0].Selector.MatchLabels.OS; os != "linux" {
		t.Errorf("unexpected os: %s", os)
	}

	if conf.Provisioning.Auxiliary.Name != "Maven" {
		t.Errorf("unexpected auxiliary: %+v", conf.Provisioning.Auxiliary)
	}

	expectedRelocation := Relocation{InternalArtifacts: "/srv/nms", Overwrite: false}
	if diff := cmp.Diff(expectedRelocation, conf.Relocation); diff != "" {
		t.Errorf("unexpected relocation: %s", diff)
	}

	if conf.Metrics.PushGateway != "http://pushgateway:9091" || conf.Metrics.Job != DefaultJobName {
		t.Errorf("unexpected metrics: %+v", conf.Metrics)
	}

	if conf.Provisioning.BuildTools.Source != execversionmanager.DefaultBuildToolsSource {
		t.Errorf("expected build tools to keep the default source")
	}
}

func TestLoad_HCLEnv(t *testing.T) {
	t.Setenv("BUILDMASTER_TEST_DIR", "/from/env")

	conf, err := LoadWith(readFrom(map[string]string{"c.hcl": `work_dir = env.BUILDMASTER_TEST_DIR`}), "c.hcl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if conf.WorkDir != "/from/env" {
		t.Errorf("unexpected workDir: %s", conf.WorkDir)
	}
}

func TestLoad_HCLUnknownGeneration(t *testing.T) {
	src := `
toolchain "seven" {
  platform {
    source = "https://example.com/jdk7.zip"
  }
}
`
	if _, err := LoadWith(readFrom(map[string]string{"c.hcl": src}), "c.hcl"); err == nil {
		t.Error("expected an error")
	}
}

func TestLoad_HCLJSON(t *testing.T) {
	src := `{
  "work_dir": "/srv/json",
  "metrics": {
    "job": "nightly",
    "buckets": [60, 600],
    "const_labels": {"host": "ci-2"}
  }
}`

	conf, err := LoadWith(readFrom(map[string]string{"c.HCL.json": src}), "c.HCL.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if conf.WorkDir != "/srv/json" {
		t.Errorf("unexpected workDir: %s", conf.WorkDir)
	}

	expected := Metrics{Job: "nightly", Buckets: []float64{60, 600}, ConstLabels: map[string]string{"host": "ci-2"}}
	if diff := cmp.Diff(expected, conf.Metrics); diff != "" {
		t.Errorf("unexpected metrics: %s", diff)
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	for _, path := range []string{"c.toml", "c.json"} {
		if _, err := LoadWith(readFrom(map[string]string{path: "{}"}), path); err == nil {
			t.Errorf("%s: expected an error", path)
		}
	}
}

func TestValidate(t *testing.T) {
	conf := Default()
	conf.WorkDir = ""
	conf.Naming.Artifact = "spigot-{{ .Name"
	conf.Provisioning.Toolchains = append(conf.Provisioning.Toolchains, execversionmanager.Toolchain{Generation: 7})
	conf.Metrics.Buckets = []float64{60, 30}

	err := conf.Validate()
	if err == nil {
		t.Fatal("expected an error")
	}

	for _, s := range []string{"workDir", "naming.artifact", "unsupported generation 7", "platforms must not be empty", "metrics.buckets"} {
		if !strings.Contains(err.Error(), s) {
			t.Errorf("expected %q to be reported: %v", s, err)
		}
	}
}

func TestFlags(t *testing.T) {
	fs := pflag.NewFlagSet("buildmaster", pflag.ContinueOnError)
	flags := BindFlags(fs)

	if err := fs.Parse([]string{"-r", "-k", "--msj", "/srv/jars", "--move-nms-jars=/srv/nms", "--workdir", "/srv"}); err != nil {
		t.Fatal(err)
	}

	conf, err := flags.Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !conf.Reverse || conf.Debug {
		t.Errorf("unexpected toggles: reverse=%v, debug=%v", conf.Reverse, conf.Debug)
	}

	expected := Relocation{ServerJars: "/srv/jars", InternalArtifacts: "/srv/nms", Overwrite: false}
	if diff := cmp.Diff(expected, conf.Relocation); diff != "" {
		t.Errorf("unexpected relocation: %s", diff)
	}

	if conf.WorkDir != "/srv" {
		t.Errorf("unexpected workDir: %s", conf.WorkDir)
	}
}
