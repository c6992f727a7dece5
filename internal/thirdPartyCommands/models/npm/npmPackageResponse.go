package npmmodels

type NpmPackageResponse struct {
	Version    string                `json:"version"`
	Name       string                `json:"name"`
	NpmPackage map[string]NpmPackage `json:"dependencies"`
}
