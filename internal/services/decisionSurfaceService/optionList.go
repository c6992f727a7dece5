package decisionsurfaceservice

import "github.com/RobsonDevCode/deepguard/internal/models"

// OptionList is the ordered option set of one vulnerability question.
//
// Position 0 is the default recommendation. Prefer puts an option in front of
// everything already listed, so building the list from the least to the most
// preferred remediation leaves the best one as the default.
type OptionList struct {
	options []models.Option
}

func NewOptionList(base ...models.Option) *OptionList {
	return &OptionList{options: append([]models.Option(nil), base...)}
}

func (l *OptionList) Prefer(option models.Option) {
	l.options = append([]models.Option{option}, l.options...)
}

func (l *OptionList) Default() models.Option {
	return l.options[0]
}

func (l *OptionList) Options() []models.Option {
	return append([]models.Option(nil), l.options...)
}
