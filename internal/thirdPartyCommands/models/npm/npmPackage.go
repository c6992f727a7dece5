package npmmodels

type NpmPackage struct {
	Version string `json:"version"`
	Missing bool   `json:"missing,omitempty"`
	//Npm nests the installed dependencies of every package
	Dependencies map[string]NpmPackage `json:"dependencies,omitempty"`
}
