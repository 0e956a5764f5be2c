// Package reserved holds the registry of slugs claimed by the application
// itself (routes, asset prefixes, the root slug). Folder slugs may not
// collide with them.
package reserved

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry answers whether a slug is reserved by the application.
type Registry struct {
	slugs map[string]struct{}
}

type registryFile struct {
	Slugs []string `yaml:"slugs"`
}

// NewRegistry loads the embedded reserved-slug file.
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/slugs.yaml")
	if err != nil {
		return nil, fmt.Errorf("read reserved slugs: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal reserved slugs: %w", err)
	}

	r := &Registry{slugs: make(map[string]struct{}, len(file.Slugs))}
	for _, s := range file.Slugs {
		r.slugs[s] = struct{}{}
	}
	return r, nil
}

// IsReserved reports whether the slug belongs to the application.
func (r *Registry) IsReserved(slug string) bool {
	_, ok := r.slugs[slug]
	return ok
}
