package models

import "encoding/json"

// WatchRequest names a published package, or carries the package.json of a
// local project when Package is empty.
type WatchRequest struct {
	Package  string
	Manifest json.RawMessage
}

type WatchedPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type WatchResult struct {
	Ok    bool           `json:"ok"`
	Watch WatchedPackage `json:"watch"`
}
