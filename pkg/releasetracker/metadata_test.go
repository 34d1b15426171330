package releasetracker

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCatalogEntries(t *testing.T) {
	page := `<html><head><title>Index of /versions/</title></head><body>
<h1>Index of /versions/</h1><hr><pre><a href="../">../</a>
<a href="1.10.2.json">1.10.2.json</a>                                        12-Oct-2016 03:42     272
<a href="1.8.json">1.8.json</a>
<a href="1.19.1.2.json">1.19.1.2.json</a>
<a href="release.json">release.json</a>
<a href="1.19.1.json"><b>1.19.1</b>.json</a>
<a href="3795.json">3795.json</a>
<a href="1.12.2.json">
  1.12.2.json
</a>
</pre><hr></body></html>`

	got, err := catalogEntries(page)
	if err != nil {
		t.Fatal(err)
	}

	if d := cmp.Diff([]string{"1.10.2.json", "1.8.json", "1.19.1.json", "1.12.2.json"}, got); d != "" {
		t.Errorf("%s", d)
	}
}

func TestMatchEntry(t *testing.T) {
	for text, want := range map[string]bool{
		"1.19.1.json":   true,
		"1.8.json":      true,
		" 1.8.json\n":   true,
		"1.19.1.2.json": false,
		"release.json":  false,
	} {
		if got := MatchEntry(text); got != want {
			t.Errorf("%q: expected=%v, got=%v", text, want, got)
		}
	}
}

func TestParseMetadata(t *testing.T) {
	testcases := []struct {
		name    string
		doc     string
		commit  string
		indices []int
	}{
		{
			name:   "structured without class indices",
			doc:    `{"name": "1.8", "refs": {"BuildData": "x", "Bukkit": "y", "CraftBukkit": "abc", "Spigot": "z"}}`,
			commit: "abc",
		},
		{
			name: "structured",
			doc: `{
    "name": "3590",
    "refs": {
        "CraftBukkit": "def"
    },
    "toolsVersion": 148,
    "javaVersions": [61, 63]
}`,
			commit:  "def",
			indices: []int{61, 63},
		},
		{
			name: "truncated document is scanned by line",
			doc: `{
    "refs": {
        "CraftBukkit": "ghi",
    },
    "javaVersions": [60, 60]
`,
			commit:  "ghi",
			indices: []int{60, 60},
		},
	}

	for i := range testcases {
		tc := testcases[i]
		t.Run(tc.name, func(t *testing.T) {
			m, err := parseMetadata(tc.doc, DefaultCommitField, DefaultToolchainField)
			if err != nil {
				t.Fatal(err)
			}
			if m.commit != tc.commit {
				t.Errorf("unexpected commit: expected=%s, got=%s", tc.commit, m.commit)
			}
			if d := cmp.Diff(tc.indices, m.classIndices); d != "" {
				t.Errorf("%s", d)
			}
		})
	}
}

func TestParseMetadata_MissingCommit(t *testing.T) {
	if _, err := parseMetadata(`{"name": "1.8"}`, DefaultCommitField, DefaultToolchainField); err == nil {
		t.Error("expected an error for structured metadata without a commit")
	}
	if _, err := scanMetadata("nothing here", DefaultCommitField, DefaultToolchainField); err == nil {
		t.Error("expected an error for line-oriented metadata without a commit")
	}
}

func TestScanMarker(t *testing.T) {
	testcases := []struct {
		doc  string
		want string
		ok   bool
	}{
		{"<minecraft_version>1_19_R1</minecraft_version>", "1_19_R1", true},
		{"  <a/>\n        <minecraft_version>1_8_R3</minecraft_version>\n<minecraft_version>x</minecraft_version>", "1_8_R3", true},
		{"<project></project>", "", false},
	}

	for _, tc := range testcases {
		got, ok := scanMarker(tc.doc, DefaultCoreVersionMarker)
		if got != tc.want || ok != tc.ok {
			t.Errorf("%q: expected=(%s, %v), got=(%s, %v)", tc.doc, tc.want, tc.ok, got, ok)
		}
	}
}
