package clierrors

import (
	"errors"
	"strings"

	"github.com/RobsonDevCode/deepguard/internal/constants"
	"github.com/fatih/color"
)

const (
	missingPolicyMessage = "Try running `" + constants.ToolName + " protect -i` to define a protect policy"
	oldPolicyMessage     = "You have an alpha format " + constants.PolicyFileName + " file in this directory. " +
		"Please remove it, and re-create using `" + constants.ToolName + " protect -i`"
	corruptPolicyMessage  = "The " + constants.PolicyFileName + " file in this directory could not be read: %s"
	patchFailMessage      = "The patch against %s failed. We may not have a patch for this version yet."
	installFailMessage    = "Upgrading failed: %s"
	missingModulesMessage = "This directory looks like a node project, but is missing the contents of " +
		"the node_modules directory.\nPlease run `npm install` and re-run your " + constants.ToolName + " command."
	tryDevDepsMessage = constants.ToolName + " only tests production dependencies by default (which " +
		"this project had none). Try re-running with the `--dev` flag."
	authMessage     = "Unauthorized: please ensure a valid api token is configured"
	endpointMessage = "The " + constants.ToolName + " API is not available"
	notFoundMessage = "The package could not be found or does not exist"
)

var messages = map[string]string{
	CodeMissingPolicy:   missingPolicyMessage,
	CodeOldPolicyFormat: oldPolicyMessage,
	CodeCorruptPolicy:   corruptPolicyMessage,
	CodeFailPatch:       patchFailMessage,
	CodeFailInstall:     installFailMessage,
	CodeMissingModules:  missingModulesMessage,
	CodeNotFoundDevDeps: tryDevDepsMessage,
	"401":               authMessage,
	"403":               endpointMessage,
	"404":               notFoundMessage,
	"411":               endpointMessage,
}

// Message turns err into the text shown to the user. Known codes get a
// friendlier explanation, everything else is reported verbatim.
func Message(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, ErrDryRun) {
		return err.Error()
	}

	message, ok := messages[CodeOf(err)]
	if !ok {
		return err.Error()
	}

	if strings.Contains(message, "%s") {
		message = strings.ReplaceAll(message, "%s", err.Error())
	}

	return color.New(color.Bold, color.FgRed).Sprint(message)
}
