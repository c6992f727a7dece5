package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVulnerability_DisplayID(t *testing.T) {
	assert.Equal(t, "npm:qs:1", Vulnerability{ID: "npm:qs:1", Name: "qs"}.DisplayID())
	assert.Equal(t, "node-qs@1.0.0", Vulnerability{Name: "qs", Below: "1.0.0"}.DisplayID())
}

func TestVulnerability_Path(t *testing.T) {
	vuln := Vulnerability{From: []string{"app@1.0.0", "express@3.0.0", "qs@0.6.6"}}

	assert.Equal(t, "app@1.0.0 > express@3.0.0 > qs@0.6.6", vuln.Path())
}

func TestAnswers_ActionFor(t *testing.T) {
	answers := Answers{
		"npm:a-0":          {Choice: &Choice{Action: ActionPatch}},
		"misc-run-monitor": {Confirm: true},
	}

	assert.Equal(t, ActionPatch, answers.ActionFor("npm:a-0"))
	assert.Equal(t, Action(""), answers.ActionFor("misc-run-monitor"))
	assert.Equal(t, Action(""), answers.ActionFor("missing"))
}

func TestDependencyTree_Count(t *testing.T) {
	tree := DependencyTree{
		Name: "app",
		Dependencies: map[string]DependencyTree{
			"express": {Dependencies: map[string]DependencyTree{"qs": {}, "send": {}}},
			"lodash":  {},
		},
	}

	assert.Equal(t, 4, tree.Count())
}

func TestUpgradePath_UnmarshalJSON(t *testing.T) {
	var vuln Vulnerability
	err := json.Unmarshal([]byte(`{"upgradePath":[null,false,"qs@1.0.0"]}`), &vuln)

	assert.NoError(t, err)
	assert.Equal(t, UpgradePath{"", "", "qs@1.0.0"}, vuln.UpgradePath)
	assert.Error(t, json.Unmarshal([]byte(`{"upgradePath":[1]}`), &vuln))
}
