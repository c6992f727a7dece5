package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Vulnerability struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Severity    string      `json:"severity"`
	Name        string      `json:"name"`
	Version     string      `json:"version"`
	Below       string      `json:"below"`
	From        []string    `json:"from"`
	UpgradePath UpgradePath `json:"upgradePath"`
	Patches     []Patch     `json:"patches"`
}

// Path renders the dependency chain the way it is shown to the user and
// stored against policy rules.
func (v Vulnerability) Path() string {
	return strings.Join(v.From, " > ")
}

// DisplayID is the policy key for the vulnerability. Advisories without an id
// fall back to the package name and the first fixed version.
func (v Vulnerability) DisplayID() string {
	if v.ID != "" {
		return v.ID
	}

	return "node-" + v.Name + "@" + v.Below
}

// UpgradePath holds one entry per element of the dependency chain. The api
// marks levels without an upgrade with null or false, both read as "".
type UpgradePath []string

func (u *UpgradePath) UnmarshalJSON(data []byte) error {
	var entries []interface{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}

	path := make(UpgradePath, 0, len(entries))
	for _, entry := range entries {
		switch value := entry.(type) {
		case string:
			path = append(path, value)
		case nil, bool:
			path = append(path, "")
		default:
			return fmt.Errorf("unexpected upgrade path entry %v", entry)
		}
	}

	*u = path
	return nil
}
