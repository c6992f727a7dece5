package models

type TestResult struct {
	Ok              bool            `json:"ok"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
}
