package checkpoint

import (
	"context"
	"sort"
	"sync"
)

// DocsSiteRegistry exposes the set of documentation site names known to the
// surrounding context. The simple configurator uses it to validate site
// selections before a config is built.
type DocsSiteRegistry interface {
	SiteNames(ctx context.Context) ([]string, error)
}

// DocsPublisher refreshes published documentation sites after a validation.
// A nil or empty siteNames slice means all registered sites. The returned
// map is site name to the URL of the refreshed page.
type DocsPublisher interface {
	DocsSiteRegistry
	UpdateSites(ctx context.Context, siteNames []string, id ValidationResultIdentifier) (map[string]string, error)
}

// StaticSiteRegistry is a DocsPublisher over a fixed set of site names.
// UpdateSites records the identifiers it was asked to publish, which makes
// it useful both as a default collaborator and as a test double.
type StaticSiteRegistry struct {
	mutex   sync.Mutex
	sites   []string
	updates []ValidationResultIdentifier
}

func NewStaticSiteRegistry(siteNames ...string) *StaticSiteRegistry {
	sites := make([]string, len(siteNames))
	copy(sites, siteNames)
	sort.Strings(sites)
	return &StaticSiteRegistry{sites: sites}
}

func (r *StaticSiteRegistry) SiteNames(ctx context.Context) ([]string, error) {
	names := make([]string, len(r.sites))
	copy(names, r.sites)
	return names, nil
}

func (r *StaticSiteRegistry) UpdateSites(ctx context.Context, siteNames []string, id ValidationResultIdentifier) (map[string]string, error) {
	if len(siteNames) == 0 {
		siteNames = r.sites
	}
	r.mutex.Lock()
	r.updates = append(r.updates, id)
	r.mutex.Unlock()
	pages := make(map[string]string, len(siteNames))
	for _, site := range siteNames {
		pages[site] = "site://" + site + "/" + id.String()
	}
	return pages, nil
}

// Updates returns the identifiers passed to UpdateSites, in call order.
func (r *StaticSiteRegistry) Updates() []ValidationResultIdentifier {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	updates := make([]ValidationResultIdentifier, len(r.updates))
	copy(updates, r.updates)
	return updates
}
