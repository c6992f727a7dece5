package models

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Manifest wraps the raw package.json bytes. Reads and edits go through
// gjson/sjson so keys the tool does not know about, and their order, survive a
// write.
type Manifest struct {
	Path string
	raw  []byte
}

func NewManifest(path string, raw []byte) (*Manifest, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%s is not valid json", path)
	}

	if !gjson.ParseBytes(raw).IsObject() {
		return nil, fmt.Errorf("%s does not contain a json object", path)
	}

	return &Manifest{Path: path, raw: raw}, nil
}

func (m *Manifest) Bytes() []byte {
	return m.raw
}

func (m *Manifest) Name() string {
	return gjson.GetBytes(m.raw, "name").String()
}

func (m *Manifest) Version() string {
	return gjson.GetBytes(m.raw, "version").String()
}

func (m *Manifest) Script(name string) string {
	return gjson.GetBytes(m.raw, "scripts."+escapePath(name)).String()
}

func (m *Manifest) Dependency(name string) (string, bool) {
	result := gjson.GetBytes(m.raw, "dependencies."+escapePath(name))
	return result.String(), result.Exists()
}

func (m *Manifest) SetScript(name, command string) error {
	return m.set("scripts."+escapePath(name), command)
}

func (m *Manifest) SetDependency(name, version string) error {
	return m.set("dependencies."+escapePath(name), version)
}

// Formatted returns the manifest re-indented with two spaces and a trailing
// newline, keeping key order. Arrays keep one element per line, the way npm
// writes package.json.
func (m *Manifest) Formatted() []byte {
	return pretty.PrettyOptions(m.raw, &pretty.Options{
		Width:    0,
		Indent:   "  ",
		SortKeys: false,
	})
}

func (m *Manifest) set(path, value string) error {
	updated, err := sjson.SetBytes(m.raw, path, value)
	if err != nil {
		return fmt.Errorf("error setting %s in %s: %w", path, m.Path, err)
	}

	m.raw = updated
	return nil
}

var pathEscaper = strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)

func escapePath(key string) string {
	return pathEscaper.Replace(key)
}
