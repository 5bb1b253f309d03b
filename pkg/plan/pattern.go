package plan

import (
	"slices"
	"strings"

	"github.com/matzehuels/archviz/pkg/errors"
)

// Pattern is a named architectural layout: a set of clusters a plan starts
// from. Services join a pattern's clusters by naming them.
type Pattern struct {
	Name        string    `json:"name"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Clusters    []Cluster `json:"clusters"`
}

// ClusterNames returns the names of the pattern's clusters in declaration
// order.
func (p Pattern) ClusterNames() []string {
	out := make([]string, len(p.Clusters))
	for i, c := range p.Clusters {
		out[i] = c.Name
	}
	return out
}

var patterns = []Pattern{
	{
		Name:        "layered_architecture",
		Title:       "Layered Architecture",
		Description: "A standard 3-tier layered architecture",
		Clusters: []Cluster{
			{Name: "presentation", Label: "Presentation Layer"},
			{Name: "business", Label: "Business Logic Layer"},
			{Name: "data", Label: "Data Access Layer"},
		},
	},
	{
		Name:        "microservices",
		Title:       "Microservices",
		Description: "An edge tier in front of independently deployed services with their own data stores",
		Clusters: []Cluster{
			{Name: "edge", Label: "Edge"},
			{Name: "services", Label: "Services"},
			{Name: "data", Label: "Data Stores"},
		},
	},
	{
		Name:        "event_driven",
		Title:       "Event-Driven Architecture",
		Description: "Producers publishing to a broker that fans events out to consumers",
		Clusters: []Cluster{
			{Name: "producers", Label: "Producers"},
			{Name: "broker", Label: "Event Broker"},
			{Name: "consumers", Label: "Consumers"},
		},
	},
	{
		Name:        "vpc",
		Title:       "VPC Network",
		Description: "A VPC with public and private subnets",
		Clusters: []Cluster{
			{Name: "vpc", Label: "VPC"},
			{Name: "public", Label: "Public Subnet", Parent: "vpc"},
			{Name: "private", Label: "Private Subnet", Parent: "vpc"},
		},
	},
}

// Patterns returns the built-in patterns sorted by name.
func Patterns() []Pattern {
	out := slices.Clone(patterns)
	slices.SortFunc(out, func(a, b Pattern) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// PatternNames returns the names of the built-in patterns in sorted order.
func PatternNames() []string {
	names := make([]string, len(patterns))
	for i, p := range patterns {
		names[i] = p.Name
	}
	slices.Sort(names)
	return names
}

// LookupPattern returns the built-in pattern called name.
func LookupPattern(name string) (Pattern, error) {
	i := slices.IndexFunc(patterns, func(p Pattern) bool { return p.Name == name })
	if i < 0 {
		return Pattern{}, errors.New(errors.ErrCodeInvalidInput,
			"unknown pattern %q: must be one of %s", name, strings.Join(PatternNames(), ", "))
	}
	p := patterns[i]
	p.Clusters = slices.Clone(p.Clusters)
	return p, nil
}

// Apply returns a copy of a with the pattern's clusters declared ahead of
// its own. A cluster the analysis declares itself replaces the pattern's
// cluster of the same name. An analysis without a title or description
// takes the pattern's title.
func (p Pattern) Apply(a *Analysis) *Analysis {
	out := *a
	own := make(map[string]bool, len(a.Clusters))
	for _, c := range a.Clusters {
		own[c.Name] = true
	}

	out.Clusters = make([]Cluster, 0, len(p.Clusters)+len(a.Clusters))
	for _, c := range p.Clusters {
		if !own[c.Name] {
			out.Clusters = append(out.Clusters, c)
		}
	}
	out.Clusters = append(out.Clusters, a.Clusters...)

	if strings.TrimSpace(a.Title) == "" && strings.TrimSpace(a.Description) == "" {
		out.Title = p.Title
	}
	return &out
}
