package policystoreservice

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/RobsonDevCode/deepguard/internal/clierrors"
	"github.com/RobsonDevCode/deepguard/internal/constants"
	"github.com/RobsonDevCode/deepguard/internal/models"
	"gopkg.in/yaml.v3"
)

const header = "# " + constants.ToolName + " policy file, managed by `" + constants.ToolName + " protect`\n"

type PolicyStoreService interface {
	Load(root string) (*models.Policy, error)
	Save(root string, policy *models.Policy) error
}

type PolicyStore struct{}

func NewPolicyStore() *PolicyStore {
	return &PolicyStore{}
}

func FilePath(root string) string {
	return filepath.Join(root, constants.PolicyFileName)
}

// Load fails with clierrors.ErrMissingPolicy when the project has no policy
// yet and with *clierrors.CorruptPolicyError when the file cannot be used.
func (s *PolicyStore) Load(root string) (*models.Policy, error) {
	path := FilePath(root)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, clierrors.ErrMissingPolicy
		}
		return nil, fmt.Errorf("error reading policy file %s: %w", path, err)
	}

	return parse(path, data)
}

// Save always rewrites the whole file. Merging decisions is not its job.
func (s *PolicyStore) Save(root string, policy *models.Policy) error {
	path := FilePath(root)

	data, err := encode(policy)
	if err != nil {
		return fmt.Errorf("error encoding policy for %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing file at %s, %w", path, err)
	}

	return nil
}

func parse(path string, data []byte) (*models.Policy, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.NewPolicy(), nil
	}

	var document yaml.Node
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, &clierrors.CorruptPolicyError{Path: path, Err: err}
	}

	// a file holding only comments
	if len(document.Content) == 0 {
		return models.NewPolicy(), nil
	}

	root := document.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &clierrors.CorruptPolicyError{Path: path, Err: fmt.Errorf("expected a mapping at the top level")}
	}

	legacy, err := isLegacy(root)
	if err != nil {
		return nil, &clierrors.CorruptPolicyError{Path: path, Err: err}
	}
	if legacy {
		return nil, &clierrors.CorruptPolicyError{Path: path, Legacy: true}
	}

	policy := models.NewPolicy()
	if err := root.Decode(policy); err != nil {
		return nil, &clierrors.CorruptPolicyError{Path: path, Err: err}
	}

	if policy.Version == "" {
		policy.Version = models.PolicyVersion
	}
	if policy.Ignore == nil {
		policy.Ignore = make(map[string][]models.IgnoreRule)
	}
	if policy.Patch == nil {
		policy.Patch = make(map[string][]models.PatchRule)
	}

	return policy, nil
}

// isLegacy recognises the alpha format, which kept ignore and patch as lists
// and predates versioned policies.
func isLegacy(root *yaml.Node) (bool, error) {
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]

		switch key.Value {
		case "ignore", "patch":
			if value.Kind == yaml.SequenceNode {
				return true, nil
			}
		case "version":
			version, err := semver.NewVersion(value.Value)
			if err != nil {
				return false, fmt.Errorf("unrecognised policy version %q", value.Value)
			}
			if version.Major() < 1 {
				return true, nil
			}
		}
	}

	return false, nil
}

func encode(policy *models.Policy) ([]byte, error) {
	normalised := policy.Clone()

	var buffer bytes.Buffer
	buffer.WriteString(header)

	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(2)
	if err := encoder.Encode(normalised); err != nil {
		return nil, err
	}

	if err := encoder.Close(); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}
