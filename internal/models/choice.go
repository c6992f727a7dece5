package models

type Action string

const (
	ActionSkip   Action = "skip"
	ActionIgnore Action = "ignore"
	ActionPatch  Action = "patch"
	ActionUpdate Action = "update"
)

type ChoiceMeta struct {
	Days   int
	Reason string
}

// Choice is the value carried by every option of a vulnerability question, so
// the answer always knows which vulnerability it was given for.
type Choice struct {
	Action Action
	Vuln   Vulnerability
	Meta   ChoiceMeta
}

// Answer holds whichever value the question kind produces.
type Answer struct {
	Choice  *Choice
	Text    string
	Confirm bool
}

type Answers map[string]Answer

func (a Answers) ActionFor(name string) Action {
	answer, ok := a[name]
	if !ok || answer.Choice == nil {
		return ""
	}

	return answer.Choice.Action
}
