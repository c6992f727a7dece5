package models

type SnapshotMeta struct {
	Method   string `json:"method"`
	Hostname string `json:"hostname"`
	ID       string `json:"id"`
	PID      int    `json:"pid"`
	Name     string `json:"name"`
	Version  string `json:"version"`
}

type SnapshotRequest struct {
	Meta    SnapshotMeta   `json:"meta"`
	Package DependencyTree `json:"package"`
}

type SnapshotResult struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
}

type SnapshotEvent struct {
	Root   string
	Result SnapshotResult
	Err    error
}
