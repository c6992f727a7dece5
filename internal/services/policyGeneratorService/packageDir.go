package policygeneratorservice

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RobsonDevCode/deepguard/internal/constants"
	"github.com/RobsonDevCode/deepguard/internal/models"
	"github.com/tidwall/gjson"
)

// PackageDir finds the installed copy of the vulnerable package. npm may have
// nested it under the chain it was required through or hoisted it, so the
// deepest location is tried first and the first one holding the vulnerable
// version wins.
func PackageDir(root string, vuln models.Vulnerability) (string, error) {
	var chain []string
	if len(vuln.From) > 1 {
		for _, pkg := range vuln.From[1:] {
			chain = append(chain, packageName(pkg))
		}
	}
	if len(chain) == 0 || chain[len(chain)-1] != vuln.Name {
		chain = append(chain, vuln.Name)
	}

	for start := 0; start < len(chain); start++ {
		dir := root
		for _, name := range chain[start:] {
			dir = filepath.Join(dir, constants.NodeModules, filepath.FromSlash(name))
		}

		if installedVersion(dir) == vuln.Version {
			return dir, nil
		}
	}

	return "", fmt.Errorf("%s@%s is not installed under %s", vuln.Name, vuln.Version, constants.NodeModules)
}

// packageName strips the version from name@version, keeping the scope of
// scoped packages.
func packageName(pkg string) string {
	at := strings.LastIndex(pkg, "@")
	if at <= 0 {
		return pkg
	}

	return pkg[:at]
}

func installedVersion(dir string) string {
	raw, err := os.ReadFile(filepath.Join(dir, constants.ManifestName))
	if err != nil {
		return ""
	}

	return gjson.GetBytes(raw, "version").String()
}

var flagEscaper = strings.NewReplacer(":", "-", "/", "-", "@", "-")

func flagPath(dir string, patch models.Patch) string {
	return filepath.Join(dir, constants.PolicyFileName+"-"+flagEscaper.Replace(patch.ID)+".flag")
}

func applied(dir string, patch models.Patch) bool {
	_, err := os.Stat(flagPath(dir, patch))
	return err == nil
}

func markApplied(dir string, patch models.Patch, now time.Time) error {
	return os.WriteFile(flagPath(dir, patch), []byte(now.UTC().Format(time.RFC3339)+"\n"), 0644)
}
