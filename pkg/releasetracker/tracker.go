package releasetracker

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/variantdev/buildmaster/pkg/release"
	"github.com/variantdev/buildmaster/pkg/tmpl"
	"github.com/variantdev/buildmaster/pkg/vhttpget"
	"k8s.io/klog/klogr"
)

// Tracker discovers the releases listed in the catalog and resolves the
// server-core version and toolchain of each of them.
type Tracker struct {
	Spec Spec

	Logger logr.Logger

	httpGetter vhttpget.Getter
}

type Option interface {
	SetOption(r *Tracker) error
}

func Logger(logger logr.Logger) Option {
	return &loggerOption{l: logger}
}

type loggerOption struct {
	l logr.Logger
}

func (s *loggerOption) SetOption(r *Tracker) error {
	r.Logger = s.l
	return nil
}

func HTTPGetter(g vhttpget.Getter) Option {
	return &httpGetterOption{g: g}
}

type httpGetterOption struct {
	g vhttpget.Getter
}

func (s *httpGetterOption) SetOption(r *Tracker) error {
	r.httpGetter = s.g
	return nil
}

func New(conf Spec, opts ...Option) (*Tracker, error) {
	t := &Tracker{}

	for _, o := range opts {
		if err := o.SetOption(t); err != nil {
			return nil, err
		}
	}

	if t.Logger == nil {
		t.Logger = klogr.New()
	}

	if t.httpGetter == nil {
		t.httpGetter = vhttpget.New()
	}

	conf.setDefaults()

	if err := tmpl.Check("descriptorURL", conf.DescriptorURL); err != nil {
		return nil, fmt.Errorf("descriptor url template: %w", err)
	}

	t.Spec = conf

	t.Logger.V(1).Info("releasetracker.init", "catalog", conf.CatalogURL, "descriptor", conf.DescriptorURL)

	return t, nil
}

// Discover returns one release per server-core version, newest first, or oldest first when
// reverse is set. Where several releases share a core version the newest one is kept.
func (t *Tracker) Discover(reverse bool) ([]*release.Version, error) {
	t.Logger.Info("scraping the catalog for versions", "url", t.Spec.CatalogURL)

	all, err := t.GetReleases()
	if err != nil {
		return nil, err
	}

	// Dedupe sorts newest first before inserting so that the newest of each group survives.
	set := release.Dedupe(all)

	vs := set.List(reverse)

	t.Logger.Info("found versions", "count", len(vs), "versions", strings.Join(release.Names(vs), ", "))

	return vs, nil
}

// GetReleases returns every release in the catalog with its metadata resolved,
// in catalog order and without deduplication.
func (t *Tracker) GetReleases() ([]*release.Version, error) {
	page, err := t.httpGetter.Get(t.Spec.CatalogURL)
	if err != nil {
		return nil, &DiscoveryError{Op: "fetch catalog", URL: t.Spec.CatalogURL, Err: err}
	}

	entries, err := catalogEntries(page)
	if err != nil {
		return nil, &DiscoveryError{Op: "parse catalog", URL: t.Spec.CatalogURL, Err: err}
	}

	t.Logger.V(1).Info("catalog entries", "entries", entries)

	var vs []*release.Version
	for _, e := range entries {
		v, err := t.resolve(e)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}

	return vs, nil
}

func (t *Tracker) resolve(entry string) (*release.Version, error) {
	v, err := release.Parse(entry)
	if err != nil {
		return nil, &DiscoveryError{Op: "parse entry", URL: entry, Err: err}
	}

	metaURL := t.Spec.CatalogURL + entry
	doc, err := t.httpGetter.Get(metaURL)
	if err != nil {
		return nil, &DiscoveryError{Op: "fetch metadata", URL: metaURL, Err: err}
	}

	meta, err := parseMetadata(doc, t.Spec.CommitField, t.Spec.ToolchainField)
	if err != nil {
		return nil, &DiscoveryError{Op: "parse metadata", URL: metaURL, Err: err}
	}

	v.CoreCommit = meta.commit
	if len(meta.classIndices) > 0 {
		v.Toolchain = release.GenerationForIndex(meta.classIndices[0])
	}

	descURL, err := tmpl.Render("descriptorURL", t.Spec.DescriptorURL, map[string]string{"Commit": v.CoreCommit})
	if err != nil {
		return nil, &DiscoveryError{Op: "render descriptor url", URL: t.Spec.DescriptorURL, Err: err}
	}

	desc, err := t.httpGetter.Get(descURL)
	if err != nil {
		return nil, &DiscoveryError{Op: "fetch build descriptor", URL: descURL, Err: err}
	}

	core, ok := scanMarker(desc, t.Spec.CoreVersionMarker)
	if !ok {
		core = release.Unresolved
		t.Logger.Error(release.ErrUnresolved, "release will be scheduled with an unresolved core version",
			"version", v.Name, "commit", v.CoreCommit, "url", descURL)
	}
	v.CoreVersion = core

	t.Logger.V(1).Info("resolved", "version", v.Name, "commit", v.CoreCommit, "core", v.CoreVersion, "toolchain", v.Toolchain.String())

	return v, nil
}
