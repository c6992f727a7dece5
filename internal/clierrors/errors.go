package clierrors

import (
	"errors"
	"fmt"

	"github.com/RobsonDevCode/deepguard/internal/models"
)

const (
	CodeMissingPolicy   = "MISSING_POLICY"
	CodeCorruptPolicy   = "CORRUPT_POLICY"
	CodeOldPolicyFormat = "OLD_POLICY_FORMAT"
	CodeDryRun          = "DRYRUN"
	CodeFailPatch       = "FAIL_PATCH"
	CodeFailInstall     = "FAIL_INSTALL"
	CodeMissingModules  = "MISSING_NODE_MODULES"
	CodeNotFoundDevDeps = "NOT_FOUND_HAS_DEV_DEPS"
)

// Coded is implemented by errors that carry a code the CLI can translate into
// a friendlier message.
type Coded interface {
	Code() string
}

var (
	ErrMissingPolicy      = &codedError{code: CodeMissingPolicy, msg: "no policy file found"}
	ErrDryRun             = &codedError{code: CodeDryRun, msg: "This was a dry run: nothing changed"}
	ErrMissingModules     = &codedError{code: CodeMissingModules, msg: "node_modules is missing"}
	ErrNotFoundHasDevDeps = &codedError{code: CodeNotFoundDevDeps, msg: "no production dependencies to test"}
)

type codedError struct {
	code string
	msg  string
}

func (e *codedError) Error() string { return e.msg }
func (e *codedError) Code() string { return e.code }

type CorruptPolicyError struct {
	Path   string
	Legacy bool
	Err    error
}

func (e *CorruptPolicyError) Error() string {
	if e.Legacy {
		return fmt.Sprintf("policy file %s uses an old format", e.Path)
	}

	if e.Err != nil {
		return fmt.Sprintf("policy file %s could not be parsed: %v", e.Path, e.Err)
	}

	return fmt.Sprintf("policy file %s could not be parsed", e.Path)
}

func (e *CorruptPolicyError) Unwrap() error { return e.Err }

func (e *CorruptPolicyError) Code() string {
	if e.Legacy {
		return CodeOldPolicyFormat
	}

	return CodeCorruptPolicy
}

// DryRunError stops the pipeline before anything is persisted. It carries the
// policy the live run would have written.
type DryRunError struct {
	Policy *models.Policy
}

func (e *DryRunError) Error() string { return ErrDryRun.Error() }
func (e *DryRunError) Code() string { return CodeDryRun }
func (e *DryRunError) Is(target error) bool { return target == ErrDryRun }

type RemediationError struct {
	Op      string
	Package string
	Err     error
}

func (e *RemediationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Package, e.Err)
}

func (e *RemediationError) Unwrap() error { return e.Err }

func (e *RemediationError) Code() string {
	if e.Op == OpInstall {
		return CodeFailInstall
	}

	return CodeFailPatch
}

const (
	OpPatch   = "patch"
	OpInstall = "install"
)

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api responded %d: %s", e.StatusCode, e.Message)
	}

	return fmt.Sprintf("api responded %d", e.StatusCode)
}

func (e *APIError) Code() string {
	return fmt.Sprintf("%d", e.StatusCode)
}

// CodeOf returns the code of the first coded error in the chain.
func CodeOf(err error) string {
	var coded Coded
	if errors.As(err, &coded) {
		return coded.Code()
	}

	return ""
}
