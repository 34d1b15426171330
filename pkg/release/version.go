package release

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver"
)

// MetadataSuffix is the suffix of every per-version metadata file listed in the catalog.
const MetadataSuffix = ".json"

// Unresolved is recorded as CoreVersion when the build descriptor of a release never
// names a server-core version.
const Unresolved = "unresolved"

// ErrUnresolved is reported for releases whose core version is Unresolved.
var ErrUnresolved = errors.New("core version marker not found in build descriptor")

var entryPattern = regexp.MustCompile(`^\d\.\d{1,2}(\.\d{1,2})?` + regexp.QuoteMeta(MetadataSuffix) + `$`)

// IsEntry reports whether a catalog link text names a buildable release,
// e.g. "1.8.json" or "1.19.1.json".
func IsEntry(text string) bool {
	return entryPattern.MatchString(text)
}

// Version is one buildable release.
type Version struct {
	// Name is the display name, e.g. "1.19.1" or "1.13".
	Name string

	Revision, Major, Minor int

	// SourceFile is the catalog entry the release was read from, e.g. "1.19.1.json".
	SourceFile string

	// CoreCommit identifies the server-core sources the release is built from.
	CoreCommit string

	// CoreVersion is the internal server-core version. Releases sharing it build the
	// same server and are deduplicated on it.
	CoreVersion string

	Toolchain Generation
}

// Parse builds a Version from a catalog entry name. A two-segment name has an implicit
// zero minor component.
func Parse(entry string) (*Version, error) {
	if !IsEntry(entry) {
		return nil, fmt.Errorf("not a release entry: %q", entry)
	}

	sv, err := semver.NewVersion(strings.TrimSuffix(entry, MetadataSuffix))
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", entry, err)
	}

	v := &Version{
		Revision:   int(sv.Major()),
		Major:      int(sv.Minor()),
		Minor:      int(sv.Patch()),
		SourceFile: entry,
		Toolchain:  OldestGeneration,
	}
	v.Name = v.String()

	return v, nil
}

// String formats the version the way the game does: the minor segment is left out when zero.
func (v *Version) String() string {
	s := strconv.Itoa(v.Revision) + "." + strconv.Itoa(v.Major)
	if v.Minor != 0 {
		s += "." + strconv.Itoa(v.Minor)
	}
	return s
}

// Resolved reports whether the core version lookup found a value.
func (v *Version) Resolved() bool {
	return v.CoreVersion != "" && v.CoreVersion != Unresolved
}

// Compare orders by revision, then major, then minor. It returns a negative number when a
// is older than b.
func Compare(a, b *Version) int {
	if c := compareInt(a.Revision, b.Revision); c != 0 {
		return c
	}
	if c := compareInt(a.Major, b.Major); c != 0 {
		return c
	}
	return compareInt(a.Minor, b.Minor)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Sort orders vs newest first, or oldest first when reverse is set.
func Sort(vs []*Version, reverse bool) {
	sort.SliceStable(vs, func(i, j int) bool {
		if reverse {
			return Compare(vs[i], vs[j]) < 0
		}
		return Compare(vs[i], vs[j]) > 0
	})
}

// Names returns the display names of vs in order.
func Names(vs []*Version) []string {
	names := make([]string, len(vs))
	for i := range vs {
		names[i] = vs[i].Name
	}
	return names
}
