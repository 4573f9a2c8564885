package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DomainURL is a URL setting that is either one string for every domain or a
// map of domain to URL.
type DomainURL struct {
	Default   string
	PerDomain map[string]string
}

// UnmarshalYAML accepts a scalar or a mapping node
func (d *DomainURL) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		return value.Decode(&d.Default)
	case yaml.MappingNode:
		return value.Decode(&d.PerDomain)
	default:
		return fmt.Errorf("line %d: expected string or map of domain to URL", value.Line)
	}
}

// IsSet reports whether any URL is configured
func (d DomainURL) IsSet() bool {
	return d.Default != "" || len(d.PerDomain) > 0
}

// For returns the URL for domain, falling back to the single value
func (d DomainURL) For(domain string) string {
	if u, ok := d.PerDomain[domain]; ok {
		return u
	}
	return d.Default
}

// Contains reports whether u is one of the configured URLs
func (d DomainURL) Contains(u string) bool {
	if d.Default != "" && d.Default == u {
		return true
	}
	for _, v := range d.PerDomain {
		if v == u {
			return true
		}
	}
	return false
}
