package releasetracker

import "fmt"

const (
	DefaultCatalogURL        = "https://hub.spigotmc.org/versions/"
	DefaultDescriptorURL     = "https://hub.spigotmc.org/stash/projects/SPIGOT/repos/craftbukkit/raw/pom.xml?at={{ .Commit | queryEscape }}"
	DefaultCommitField       = "CraftBukkit"
	DefaultToolchainField    = "javaVersions"
	DefaultCoreVersionMarker = "minecraft_version"
)

// Spec tells the tracker where the catalog lives and how to read the documents it links to.
type Spec struct {
	// CatalogURL is the index page. Per-version metadata is fetched from CatalogURL + entry name.
	CatalogURL string `yaml:"catalogURL"`

	// DescriptorURL is a template rendered with .Commit to locate the build descriptor
	// of a server-core commit.
	DescriptorURL string `yaml:"descriptorURL"`

	CommitField       string `yaml:"commitField"`
	ToolchainField    string `yaml:"toolchainField"`
	CoreVersionMarker string `yaml:"coreVersionMarker"`
}

func (s *Spec) setDefaults() {
	if s.CatalogURL == "" {
		s.CatalogURL = DefaultCatalogURL
	}
	if s.DescriptorURL == "" {
		s.DescriptorURL = DefaultDescriptorURL
	}
	if s.CommitField == "" {
		s.CommitField = DefaultCommitField
	}
	if s.ToolchainField == "" {
		s.ToolchainField = DefaultToolchainField
	}
	if s.CoreVersionMarker == "" {
		s.CoreVersionMarker = DefaultCoreVersionMarker
	}
}

// DiscoveryError is returned when any document needed to build the release list
// could not be fetched or understood. Discovery never returns a partial list.
type DiscoveryError struct {
	Op  string
	URL string
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}
