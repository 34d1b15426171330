package releasetracker

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kylelemons/godebug/pretty"
	"github.com/variantdev/buildmaster/pkg/release"
	"github.com/variantdev/buildmaster/pkg/vhttpget"
	"k8s.io/klog/klogr"
)

const (
	catalogURL = "https://hub.example.com/versions/"
	descURL    = "https://stash.example.com/pom.xml?at={{ .Commit }}"
)

func pom(core string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<project>
    <properties>
        <skipTests>true</skipTests>
        <minecraft_version>` + core + `</minecraft_version>
        <minecraft_version>ignored</minecraft_version>
    </properties>
</project>
`
}

func newTracker(t *testing.T, expectations map[string]string) *Tracker {
	t.Helper()
	tr, err := New(Spec{CatalogURL: catalogURL, DescriptorURL: descURL},
		Logger(klogr.New()),
		HTTPGetter(vhttpget.NewTester(expectations)),
	)
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

func TestDiscover_DedupesByCoreVersion(t *testing.T) {
	tr := newTracker(t, map[string]string{
		catalogURL: `<html><body><pre>
<a href="../">../</a>
<a href="1.8.json">1.8.json</a>
<a href="1.8.3.json">1.8.3.json</a>
</pre></body></html>`,
		catalogURL + "1.8.json": `{
    "name": "1.8",
    "refs": {
        "CraftBukkit": "abc"
    }
}`,
		catalogURL + "1.8.3.json": `{
    "name": "1.8.3",
    "refs": {
        "CraftBukkit": "abc"
    },
    "javaVersions": [52,52]
}`,
		"https://stash.example.com/pom.xml?at=abc": pom("1_8_R2"),
	})

	vs, err := tr.Discover(false)
	if err != nil {
		t.Fatal(err)
	}

	want := []*release.Version{
		{
			Name:        "1.8.3",
			Revision:    1,
			Major:       8,
			Minor:       3,
			SourceFile:  "1.8.3.json",
			CoreCommit:  "abc",
			CoreVersion: "1_8_R2",
			Toolchain:   release.GenerationForIndex(52),
		},
	}

	if d := pretty.Compare(vs, want); d != "" {
		t.Errorf("unexpected releases (-got +want):\n%s", d)
	}
}

func TestDiscover_Ordering(t *testing.T) {
	expectations := map[string]string{
		catalogURL: `<a href="1.13.json">1.13.json</a>
<a href="1.19.1.json">1.19.1.json</a>
<a href="1.8.8.json">1.8.8.json</a>
<a href="1.19.1.2.json">1.19.1.2.json</a>
<a href="release.json">release.json</a>
<a href="1.17.1.json"> 1.17.1.json </a>`,
		catalogURL + "1.13.json":   `{"refs": {"CraftBukkit": "c113"}}`,
		catalogURL + "1.19.1.json": `{"refs": {"CraftBukkit": "c1191"}, "javaVersions": [61, 63]}`,
		catalogURL + "1.8.8.json":  `{"refs": {"CraftBukkit": "c188"}}`,
		catalogURL + "1.17.1.json": `{"refs": {"CraftBukkit": "c1171"}, "javaVersions": [60, 60]}`,
		"https://stash.example.com/pom.xml?at=c113":  pom("1_13_R1"),
		"https://stash.example.com/pom.xml?at=c1191": pom("1_19_R1"),
		"https://stash.example.com/pom.xml?at=c188":  pom("1_8_R3"),
		"https://stash.example.com/pom.xml?at=c1171": pom("1_17_R1"),
	}

	newest, err := newTracker(t, expectations).Discover(false)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]string{"1.19.1", "1.17.1", "1.13", "1.8.8"}, release.Names(newest)); d != "" {
		t.Errorf("newest first: %s", d)
	}

	oldest, err := newTracker(t, expectations).Discover(true)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]string{"1.8.8", "1.13", "1.17.1", "1.19.1"}, release.Names(oldest)); d != "" {
		t.Errorf("oldest first: %s", d)
	}

	toolchains := map[string]release.Generation{}
	for _, v := range newest {
		toolchains[v.Name] = v.Toolchain
	}
	wantToolchains := map[string]release.Generation{
		"1.19.1": release.Java17,
		"1.17.1": release.Java16,
		"1.13":   release.Java8,
		"1.8.8":  release.Java8,
	}
	if d := cmp.Diff(wantToolchains, toolchains); d != "" {
		t.Errorf("toolchains: %s", d)
	}
}

func TestDiscover_UnresolvedCoreVersion(t *testing.T) {
	tr := newTracker(t, map[string]string{
		catalogURL:                  `<a href="1.12.2.json">1.12.2.json</a>`,
		catalogURL + "1.12.2.json":  `{"refs": {"CraftBukkit": "dead"}}`,
		"https://stash.example.com/pom.xml?at=dead": "<project></project>",
	})

	vs, err := tr.Discover(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(vs) != 1 {
		t.Fatalf("unexpected number of releases: %d", len(vs))
	}
	if vs[0].CoreVersion != release.Unresolved {
		t.Errorf("unexpected core version: expected=%s, got=%s", release.Unresolved, vs[0].CoreVersion)
	}
}

func TestDiscover_FailuresAreFatal(t *testing.T) {
	testcases := map[string]map[string]string{
		"catalog": {},
		"metadata": {
			catalogURL: `<a href="1.12.2.json">1.12.2.json</a>`,
		},
		"descriptor": {
			catalogURL:                 `<a href="1.12.2.json">1.12.2.json</a>`,
			catalogURL + "1.12.2.json": `{"refs": {"CraftBukkit": "dead"}}`,
		},
	}

	for name, expectations := range testcases {
		expectations := expectations
		t.Run(name, func(t *testing.T) {
			vs, err := newTracker(t, expectations).Discover(false)
			var de *DiscoveryError
			if !errors.As(err, &de) {
				t.Fatalf("expected a DiscoveryError, got %v", err)
			}
			if vs != nil {
				t.Errorf("expected no partial result, got %v", release.Names(vs))
			}
		})
	}
}

func TestNew_InvalidDescriptorTemplate(t *testing.T) {
	if _, err := New(Spec{DescriptorURL: "{{ .Commit "}); err == nil {
		t.Error("expected an error for a broken descriptor template")
	}
}
