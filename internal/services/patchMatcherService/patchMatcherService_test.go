package patchmatcherservice

import (
	"testing"
	"time"

	"github.com/RobsonDevCode/deepguard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMatch(t *testing.T) {
	older := time.Date(2015, 8, 24, 0, 0, 0, 0, time.UTC)
	newer := older.AddDate(1, 0, 0)

	vuln := models.Vulnerability{
		ID:   "npm:uglify-js:20150824",
		Name: "uglify-js",
		Patches: []models.Patch{
			{ID: "patch-old", Version: "<2.4.24 >=2.2.0", ModificationTime: older},
			{ID: "patch-new", Version: ">=2.3.0 <2.4.24", ModificationTime: newer},
			{ID: "patch-legacy", Version: "<2.0.0", ModificationTime: newer},
		},
	}

	tests := []struct {
		name    string
		version string
		want    []string
	}{
		{"covered by two patches, newest first", "2.3.6", []string{"patch-new", "patch-old"}},
		{"covered by one patch", "2.2.5", []string{"patch-old"}},
		{"no patch for this version", "2.5.0", nil},
		{"unparseable installed version", "git+https://example.com/uglify.git", nil},
	}

	matcher := NewPatchMatcher(zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patches := matcher.Match(models.InstalledPackage{Name: "uglify-js", Version: tt.version}, vuln)

			if tt.want == nil {
				assert.Nil(t, patches)
				return
			}

			require.Len(t, patches, len(tt.want))
			for i, id := range tt.want {
				assert.Equal(t, id, patches[i].ID)
			}
		})
	}
}

func TestMatch_NoPatches(t *testing.T) {
	matcher := NewPatchMatcher(zap.NewNop())

	patches := matcher.Match(models.InstalledPackage{Name: "qs", Version: "0.6.6"}, models.Vulnerability{Name: "qs"})

	assert.Nil(t, patches)
}

func TestMatch_SkipsUnreadableRange(t *testing.T) {
	matcher := NewPatchMatcher(zap.NewNop())
	vuln := models.Vulnerability{
		Patches: []models.Patch{
			{ID: "broken", Version: "not a range"},
			{ID: "ok", Version: "*"},
		},
	}

	patches := matcher.Match(models.InstalledPackage{Name: "qs", Version: "0.6.6"}, vuln)

	require.Len(t, patches, 1)
	assert.Equal(t, "ok", patches[0].ID)
}
