package promptservice

import (
	"context"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/RobsonDevCode/deepguard/internal/models"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

type PromptService interface {
	Ask(ctx context.Context, surface models.Surface) (models.Answers, error)
}

// AskOneFunc matches survey.AskOne.
type AskOneFunc func(prompt survey.Prompt, response interface{}, opts ...survey.AskOpt) error

type Prompter struct {
	askOne   AskOneFunc
	terminal func() bool
	logger   *zap.Logger
}

func NewPrompter(logger *zap.Logger) *Prompter {
	return &Prompter{askOne: survey.AskOne, terminal: stdinIsTerminal, logger: logger}
}

func (p *Prompter) SetAskOne(askOne AskOneFunc) {
	p.askOne = askOne
}

func (p *Prompter) SetTerminal(terminal func() bool) {
	p.terminal = terminal
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Ask walks the surface in order. A question whose When rejects the answers
// collected so far is not shown and gets no answer. Without a terminal on
// stdin every question takes its default.
func (p *Prompter) Ask(ctx context.Context, surface models.Surface) (models.Answers, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !p.terminal() {
		p.logger.Info("stdin is not a terminal, answering with defaults",
			zap.Int("questions", len(surface.Questions)))
		return Defaults(surface), nil
	}

	answers := make(models.Answers)

	for _, question := range surface.Questions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !question.Relevant(answers) {
			p.logger.Debug("question not relevant", zap.String("prompt", question.Name))
			continue
		}

		answer, err := p.ask(question)
		if err != nil {
			return nil, fmt.Errorf("survey error: %w", err)
		}

		answers[question.Name] = answer
	}

	return answers, nil
}

func (p *Prompter) ask(question models.Question) (models.Answer, error) {
	switch question.Kind {
	case models.QuestionSelect:
		if len(question.Options) == 0 {
			return models.Answer{}, fmt.Errorf("question %s has no options", question.Name)
		}

		labels := make([]string, 0, len(question.Options))
		for _, option := range question.Options {
			labels = append(labels, option.Label)
		}

		prompt := &survey.Select{
			Message: question.Message,
			Options: labels,
			Default: labels[0],
		}

		var selectedIndex int
		if err := p.askOne(prompt, &selectedIndex); err != nil {
			return models.Answer{}, err
		}
		if selectedIndex < 0 || selectedIndex >= len(question.Options) {
			return models.Answer{}, fmt.Errorf("selection %d out of range for %s", selectedIndex, question.Name)
		}

		choice := question.Options[selectedIndex].Choice
		return models.Answer{Choice: &choice}, nil

	case models.QuestionInput:
		prompt := &survey.Input{
			Message: question.Message,
			Default: question.Default,
		}

		var text string
		if err := p.askOne(prompt, &text); err != nil {
			return models.Answer{}, err
		}
		if text == "" {
			text = question.Default
		}

		return models.Answer{Text: text}, nil

	case models.QuestionConfirm:
		prompt := &survey.Confirm{
			Message: question.Message,
			Default: question.DefaultConfirm,
		}

		confirmed := question.DefaultConfirm
		if err := p.askOne(prompt, &confirmed); err != nil {
			return models.Answer{}, err
		}

		return models.Answer{Confirm: confirmed}, nil
	}

	return models.Answer{}, fmt.Errorf("question %s has unknown kind %d", question.Name, question.Kind)
}

// Defaults answers every relevant question with its default. It backs runs
// where nobody is at the terminal.
func Defaults(surface models.Surface) models.Answers {
	answers := make(models.Answers)

	for _, question := range surface.Questions {
		if !question.Relevant(answers) {
			continue
		}

		switch question.Kind {
		case models.QuestionSelect:
			if len(question.Options) > 0 {
				choice := question.Options[0].Choice
				answers[question.Name] = models.Answer{Choice: &choice}
			}
		case models.QuestionInput:
			answers[question.Name] = models.Answer{Text: question.Default}
		case models.QuestionConfirm:
			answers[question.Name] = models.Answer{Confirm: question.DefaultConfirm}
		}
	}

	return answers
}
