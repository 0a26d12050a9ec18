package extractor

import (
	"sort"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Region is a candidate guide-content container on a page.
// Regions are tried from highest to lowest priority; the first whose
// selector matches wins.
type Region struct {
	// Name identifies the region in logs
	Name string

	// Selector is a CSS selector for the container element
	Selector string

	// Priority orders the candidates (higher = tried first).
	// Equal priorities keep registration order.
	Priority int
}

// Locate returns the first element on the page matching the region
func (r Region) Locate(doc *goquery.Document) *goquery.Selection {
	return doc.Find(r.Selector).First()
}

// Registry holds the ordered content-region candidates.
type Registry struct {
	mu      sync.RWMutex
	regions []Region
}

// NewRegistry creates an empty region registry.
func NewRegistry() *Registry {
	return &Registry{
		regions: make([]Region, 0),
	}
}

// Register adds a region candidate.
func (r *Registry) Register(region Region) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.regions = append(r.regions, region)
}

// Regions returns the candidates in the order they are tried.
func (r *Registry) Regions() []Region {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ordered := make([]Region, len(r.regions))
	copy(ordered, r.regions)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})
	return ordered
}

// Locate returns the first matching region on the page.
// The boolean is false when no candidate matches.
func (r *Registry) Locate(doc *goquery.Document) (*goquery.Selection, Region, bool) {
	for _, region := range r.Regions() {
		if sel := region.Locate(doc); sel.Length() > 0 {
			return sel, region, true
		}
	}
	return nil, Region{}, false
}

// List returns region names in the order they are tried.
func (r *Registry) List() []string {
	regions := r.Regions()
	names := make([]string, len(regions))
	for i, region := range regions {
		names[i] = region.Name
	}
	return names
}

// DefaultRegistry creates a registry with the known guide containers.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(Region{Name: "faqtext", Selector: "div.faqtext", Priority: 100})
	r.Register(Region{Name: "ffaqbody", Selector: "div.ffaqbody", Priority: 90})
	r.Register(Region{Name: "faq_text", Selector: "div.faq_text", Priority: 80})
	r.Register(Region{Name: "guide_text", Selector: "div.guide_text", Priority: 70})

	return r
}
