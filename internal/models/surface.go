package models

type QuestionKind int

const (
	QuestionSelect QuestionKind = iota
	QuestionInput
	QuestionConfirm
)

type Option struct {
	Label  string
	Choice Choice
}

type Question struct {
	Name    string
	Kind    QuestionKind
	Message string
	Options []Option
	// Default is the text default for inputs and the answer for confirms.
	// Selects always default to Options[0].
	Default        string
	DefaultConfirm bool
	// When gates the question on earlier answers. A nil When always asks.
	When func(Answers) bool
}

func (q Question) Relevant(answers Answers) bool {
	return q.When == nil || q.When(answers)
}

type Surface struct {
	Questions []Question
}

func (s Surface) Question(name string) (Question, bool) {
	for _, q := range s.Questions {
		if q.Name == name {
			return q, true
		}
	}

	return Question{}, false
}
