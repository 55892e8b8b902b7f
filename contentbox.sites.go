package contentbox

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/itsatony/go-cuserr"
)

// Site is a host site whose package provides root Fusion definitions
type Site struct {
	NodeName   string
	Name       string
	PackageKey string
}

// RootFusionURI returns resource://<PackageKey>/Private/Fusion/Root.fusion
func (s Site) RootFusionURI() string {
	return ResourceURI(s.PackageKey, ResourceRootFusion)
}

// Validate checks the fields needed to resolve the site
func (s Site) Validate() error {
	if strings.TrimSpace(s.NodeName) == "" {
		return cuserr.NewValidationError(ErrCodeConfig, ErrMsgSiteNameEmpty)
	}
	if strings.TrimSpace(s.PackageKey) == "" {
		return cuserr.NewValidationError(ErrCodeConfig, ErrMsgSitePackageEmpty).
			WithMetadata(MetaKeySite, s.NodeName)
	}
	return nil
}

// SiteRepository finds sites by node name.
// Implementations return an error matching ErrSiteNotFound for unknown names.
type SiteRepository interface {
	FindByNodeName(ctx context.Context, nodeName string) (*Site, error)
}

// SiteNode is a site binding exposing its node name, e.g. a content node
type SiteNode interface {
	NodeName() string
}

// siteNodeName extracts the node name of a site binding.
// ok is false when the binding is absent or empty.
func siteNodeName(site any) (nodeName string, ok bool, err error) {
	if isEmptyBinding(site) {
		return "", false, nil
	}
	switch s := site.(type) {
	case string:
		return s, s != "", nil
	case *Site:
		return s.NodeName, s.NodeName != "", nil
	case Site:
		return s.NodeName, s.NodeName != "", nil
	case SiteNode:
		name := s.NodeName()
		return name, name != "", nil
	default:
		return "", false, cuserr.NewValidationError(ErrCodeConfig, ErrMsgInvalidSiteBinding)
	}
}

// MemorySiteRepository keeps sites in memory
type MemorySiteRepository struct {
	sites map[string]Site
	mu    sync.RWMutex
}

// NewMemorySiteRepository creates a repository holding sites
func NewMemorySiteRepository(sites ...Site) *MemorySiteRepository {
	r := &MemorySiteRepository{sites: make(map[string]Site, len(sites))}
	for _, site := range sites {
		r.sites[site.NodeName] = site
	}
	return r
}

// Save stores or replaces a site
func (r *MemorySiteRepository) Save(ctx context.Context, site Site) error {
	if err := site.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sites[site.NodeName] = site
	return nil
}

// FindByNodeName implements SiteRepository
func (r *MemorySiteRepository) FindByNodeName(ctx context.Context, nodeName string) (*Site, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	site, ok := r.sites[nodeName]
	if !ok {
		return nil, NewSiteNotFoundError(nodeName)
	}
	return &site, nil
}

// Delete removes a site; unknown names are an error
func (r *MemorySiteRepository) Delete(ctx context.Context, nodeName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sites[nodeName]; !ok {
		return NewSiteNotFoundError(nodeName)
	}
	delete(r.sites, nodeName)
	return nil
}

// List returns all sites ordered by node name
func (r *MemorySiteRepository) List(ctx context.Context) ([]Site, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sites := make([]Site, 0, len(r.sites))
	for _, site := range r.sites {
		sites = append(sites, site)
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i].NodeName < sites[j].NodeName })
	return sites, nil
}
