package manifestupdaterservice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RobsonDevCode/deepguard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSnapshotter struct {
	calls  int
	result models.SnapshotResult
	err    error
}

func (f *fakeSnapshotter) Snapshot(_ context.Context, _ string) (models.SnapshotResult, error) {
	f.calls++
	return f.result, f.err
}

type recorder struct {
	events []models.SnapshotEvent
}

func (r *recorder) SnapshotTaken(event models.SnapshotEvent) {
	r.events = append(r.events, event)
}

func version(v string) VersionFunc {
	return func() string { return v }
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(content), 0644))
	return root
}

func readManifest(t *testing.T, root string) []byte {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(root, "package.json"))
	require.NoError(t, err)
	return raw
}

func TestApply_WrapsExistingScripts(t *testing.T) {
	root := writeManifest(t, `{"name":"app","version":"1.0.0","scripts":{"test":"mocha"}}`)
	updater := NewManifestUpdater(&fakeSnapshotter{}, version("1.2.3"), zap.NewNop())

	written, err := updater.Apply(context.Background(), root, models.HookRequests{AddTest: true, AddProtect: true})

	require.NoError(t, err)
	assert.True(t, written)

	raw := readManifest(t, root)
	assert.Equal(t, "deepguard test && mocha", gjson.GetBytes(raw, "scripts.test").String())
	assert.Equal(t, "npx deepguard protect", gjson.GetBytes(raw, "scripts.postinstall").String())
	assert.Equal(t, "1.2.3", gjson.GetBytes(raw, "dependencies.deepguard").String())
	assert.Equal(t, "app", gjson.GetBytes(raw, "name").String())
	assert.True(t, strings.HasSuffix(string(raw), "}\n"))
}

func TestApply_PrependsToExistingPostInstall(t *testing.T) {
	root := writeManifest(t, `{"scripts":{"postinstall":"node build.js"}}`)
	updater := NewManifestUpdater(&fakeSnapshotter{}, version("dev"), zap.NewNop())

	_, err := updater.Apply(context.Background(), root, models.HookRequests{AddProtect: true})
	require.NoError(t, err)

	raw := readManifest(t, root)
	assert.Equal(t, "npx deepguard protect; node build.js", gjson.GetBytes(raw, "scripts.postinstall").String())
	assert.Equal(t, "*", gjson.GetBytes(raw, "dependencies.deepguard").String())
	assert.False(t, gjson.GetBytes(raw, "scripts.test").Exists())
}

func TestApply_KeepsKeyOrder(t *testing.T) {
	root := writeManifest(t, "{\n  \"version\": \"1.0.0\",\n  \"name\": \"app\",\n  \"files\": [\n    \"lib\",\n    \"bin\"\n  ],\n  \"scripts\": {\n    \"test\": \"jest\"\n  },\n  \"license\": \"MIT\"\n}\n")
	updater := NewManifestUpdater(&fakeSnapshotter{}, version("1.2.3"), zap.NewNop())

	_, err := updater.Apply(context.Background(), root, models.HookRequests{AddTest: true})
	require.NoError(t, err)

	raw := string(readManifest(t, root))
	assert.Less(t, strings.Index(raw, `"version"`), strings.Index(raw, `"name"`))
	assert.Less(t, strings.Index(raw, `"name"`), strings.Index(raw, `"scripts"`))
	assert.Less(t, strings.Index(raw, `"scripts"`), strings.Index(raw, `"license"`))
	assert.Contains(t, raw, "  \"files\": [\n    \"lib\",\n    \"bin\"\n  ],\n")
	assert.Contains(t, raw, `"test": "deepguard test && jest"`)
}

func TestApply_SecondRunIsByteIdentical(t *testing.T) {
	root := writeManifest(t, `{"name":"app","scripts":{"test":"mocha"}}`)
	updater := NewManifestUpdater(&fakeSnapshotter{}, version("1.2.3"), zap.NewNop())
	hooks := models.HookRequests{AddTest: true, AddProtect: true}

	_, err := updater.Apply(context.Background(), root, hooks)
	require.NoError(t, err)
	first := readManifest(t, root)

	written, err := updater.Apply(context.Background(), root, hooks)
	require.NoError(t, err)

	assert.False(t, written)
	assert.Equal(t, first, readManifest(t, root))
}

func TestApply_ExistingDependencyIsNotRepinned(t *testing.T) {
	root := writeManifest(t, `{"dependencies":{"deepguard":"^1.0.0"}}`)
	updater := NewManifestUpdater(&fakeSnapshotter{}, version("2.0.0"), zap.NewNop())

	_, err := updater.Apply(context.Background(), root, models.HookRequests{AddTest: true})
	require.NoError(t, err)

	assert.Equal(t, "^1.0.0", gjson.GetBytes(readManifest(t, root), "dependencies.deepguard").String())
}

func TestApply_ReadsManifestFromDisk(t *testing.T) {
	root := writeManifest(t, `{"name":"app"}`)
	updater := NewManifestUpdater(&fakeSnapshotter{}, version("1.2.3"), zap.NewNop())

	_, err := updater.Read(root)
	require.NoError(t, err)

	// an install between reading and applying added a dependency
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"),
		[]byte(`{"name":"app","dependencies":{"lodash":"^4.17.5"}}`), 0644))

	_, err = updater.Apply(context.Background(), root, models.HookRequests{AddTest: true})
	require.NoError(t, err)

	raw := readManifest(t, root)
	assert.Equal(t, "^4.17.5", gjson.GetBytes(raw, "dependencies.lodash").String())
	assert.Equal(t, "1.2.3", gjson.GetBytes(raw, "dependencies.deepguard").String())
}

func TestApply_NoHooksLeavesManifestAlone(t *testing.T) {
	content := `{"name":"app","scripts":{"test":"mocha"}}`
	root := writeManifest(t, content)
	snapshotter := &fakeSnapshotter{}
	updater := NewManifestUpdater(snapshotter, version("1.2.3"), zap.NewNop())

	written, err := updater.Apply(context.Background(), root, models.HookRequests{Monitor: true})

	require.NoError(t, err)
	assert.False(t, written)
	assert.Equal(t, 1, snapshotter.calls)
	assert.Equal(t, content, string(readManifest(t, root)))
}

func TestApply_SnapshotFailureIsReportedNotReturned(t *testing.T) {
	root := writeManifest(t, `{"name":"app"}`)
	core, logs := observer.New(zap.WarnLevel)
	snapshotter := &fakeSnapshotter{err: errors.New("api down")}
	updater := NewManifestUpdater(snapshotter, version("1.2.3"), zap.New(core))
	events := &recorder{}
	updater.Subscribe(events)

	written, err := updater.Apply(context.Background(), root, models.HookRequests{Monitor: true, AddTest: true})

	require.NoError(t, err)
	assert.True(t, written)
	require.Len(t, events.events, 1)
	assert.EqualError(t, events.events[0].Err, "api down")
	assert.Equal(t, root, events.events[0].Root)
	assert.Equal(t, 1, logs.FilterMessage("snapshot failed").Len())
}

func TestApply_SnapshotResultReachesSubscribers(t *testing.T) {
	root := writeManifest(t, `{"name":"app"}`)
	snapshotter := &fakeSnapshotter{result: models.SnapshotResult{ID: "snap-1"}}
	updater := NewManifestUpdater(snapshotter, version("1.2.3"), zap.NewNop())
	first, second := &recorder{}, &recorder{}
	updater.Subscribe(first)
	updater.Subscribe(second)

	_, err := updater.Apply(context.Background(), root, models.HookRequests{Monitor: true})

	require.NoError(t, err)
	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
	assert.Equal(t, "snap-1", first.events[0].Result.ID)
	assert.NoError(t, second.events[0].Err)
}

func TestScripts(t *testing.T) {
	assert.Equal(t, "deepguard test", TestScript(""))
	assert.Equal(t, "deepguard test && mocha", TestScript("mocha"))
	assert.Equal(t, "deepguard test && mocha", TestScript("deepguard test && mocha"))
	assert.Equal(t, "npx deepguard protect", PostInstallScript("  "))
	assert.Equal(t, "npx deepguard protect; make", PostInstallScript("make"))
	assert.Equal(t, "deepguard protect", PostInstallScript("deepguard protect"))
}

func TestPin(t *testing.T) {
	assert.Equal(t, "1.2.3", Pin("1.2.3"))
	assert.Equal(t, "1.0.0-rc.1", Pin("1.0.0-rc.1"))
	assert.Equal(t, "1.2.3", Pin("v1.2.3"))
	assert.Equal(t, "*", Pin("v"))
	assert.Equal(t, "*", Pin("dev"))
	assert.Equal(t, "*", Pin(""))
}

func TestSnapshotPrinter(t *testing.T) {
	var out strings.Builder
	printer := NewSnapshotPrinter(&out)

	printer.SnapshotTaken(models.SnapshotEvent{Root: ".", Result: models.SnapshotResult{URI: "https://deepguard.io/snap-1"}})
	printer.SnapshotTaken(models.SnapshotEvent{Root: ".", Err: errors.New("api down")})

	assert.Contains(t, out.String(), "Explore this snapshot at https://deepguard.io/snap-1")
	assert.Contains(t, out.String(), "Could not capture a snapshot of .: api down")
}
