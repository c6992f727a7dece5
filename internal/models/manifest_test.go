package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManifest_RejectsInvalidJSON(t *testing.T) {
	_, err := NewManifest("package.json", []byte(`{"name":`))
	assert.ErrorContains(t, err, "not valid json")

	_, err = NewManifest("package.json", []byte(`["not", "an", "object"]`))
	assert.ErrorContains(t, err, "does not contain a json object")
}

func TestManifest_Accessors(t *testing.T) {
	manifest, err := NewManifest("package.json", []byte(`{
		"name": "app",
		"version": "1.0.0",
		"scripts": {"test": "mocha"},
		"dependencies": {"lodash.merge": "^4.6.0"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "app", manifest.Name())
	assert.Equal(t, "1.0.0", manifest.Version())
	assert.Equal(t, "mocha", manifest.Script("test"))
	assert.Equal(t, "", manifest.Script("postinstall"))

	version, ok := manifest.Dependency("lodash.merge")
	assert.True(t, ok)
	assert.Equal(t, "^4.6.0", version)

	_, ok = manifest.Dependency("lodash")
	assert.False(t, ok)
}

func TestManifest_SettersCreateMissingObjects(t *testing.T) {
	manifest, err := NewManifest("package.json", []byte(`{"name":"app"}`))
	require.NoError(t, err)

	require.NoError(t, manifest.SetScript("test", "deepguard test"))
	require.NoError(t, manifest.SetDependency("deepguard", "1.2.3"))

	assert.Equal(t, "deepguard test", manifest.Script("test"))
	version, ok := manifest.Dependency("deepguard")
	assert.True(t, ok)
	assert.Equal(t, "1.2.3", version)
}

func TestManifest_FormattedKeepsOrder(t *testing.T) {
	manifest, err := NewManifest("package.json", []byte(`{"version":"1.0.0","name":"app"}`))
	require.NoError(t, err)

	assert.Equal(t, "{\n  \"version\": \"1.0.0\",\n  \"name\": \"app\"\n}\n", string(manifest.Formatted()))
}

func TestManifest_FormattedKeepsArraysExpanded(t *testing.T) {
	manifest, err := NewManifest("package.json", []byte(`{"files":["lib","bin"],"keywords":[]}`))
	require.NoError(t, err)

	assert.Equal(t, "{\n  \"files\": [\n    \"lib\",\n    \"bin\"\n  ],\n  \"keywords\": []\n}\n", string(manifest.Formatted()))
}
