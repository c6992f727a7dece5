package models

type Error struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e Error) String() string {
	if e.Error != "" {
		return e.Error
	}

	return e.Message
}
