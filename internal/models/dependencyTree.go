package models

type DependencyTree struct {
	Name         string                    `json:"name"`
	Version      string                    `json:"version"`
	Dependencies map[string]DependencyTree `json:"dependencies,omitempty"`

	// HasDevDependencies is set on a root read without its devDependencies
	// when the manifest declares some.
	HasDevDependencies bool `json:"-"`
}

// Count returns the number of packages below the root.
func (d DependencyTree) Count() int {
	count := 0
	for _, dep := range d.Dependencies {
		count += 1 + dep.Count()
	}

	return count
}
