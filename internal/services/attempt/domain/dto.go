package domain

// StartInput starts a new attempt, discarding any prior one.
// Mode is matched case-insensitively
type StartInput struct {
	Mode     string `json:"mode" validate:"required,oneof_fold=register verify"`
	ICNumber string `json:"ic_number" validate:"omitempty,max=64"`
}

// ICInput updates the IC number hint of the current attempt
type ICInput struct {
	ICNumber string `json:"ic_number" validate:"max=64"`
}

// OutcomesQuery lists recent journaled outcomes
type OutcomesQuery struct {
	Limit int `json:"limit" validate:"min=1,max=200"`
}
