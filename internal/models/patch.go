package models

import "time"

type Patch struct {
	ID               string    `json:"id"`
	URLs             []string  `json:"urls"`
	Version          string    `json:"version"`
	ModificationTime time.Time `json:"modificationTime"`
}

type InstalledPackage struct {
	Name    string
	Version string
}
