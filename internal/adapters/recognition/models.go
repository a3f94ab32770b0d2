package recognition

// ErrorCode is the optional structured failure kind a backend may attach
// to a non-success submission
type ErrorCode string

const (
	// ErrorCodeSpoofing marks a liveness rejection
	ErrorCodeSpoofing ErrorCode = "spoofing"
	// ErrorCodeNoMatch marks a verification that found no enrolled face
	ErrorCodeNoMatch ErrorCode = "no_match"
	// ErrorCodeInvalid marks malformed input such as an unreadable image
	ErrorCodeInvalid ErrorCode = "invalid"
)

// ChallengeResponse is the body of GET /api/liveness-challenge
type ChallengeResponse struct {
	Success bool     `json:"success"`
	Actions []string `json:"actions"`
	Message string   `json:"message,omitempty"`
}

// RegisterRequest is the body of POST /api/register
type RegisterRequest struct {
	ImageData        string   `json:"image_data" validate:"required,image_data_url"`
	ICNumber         string   `json:"ic_number" validate:"required,ic_number"`
	CompletedActions []string `json:"completed_actions"`
}

// VerifyRequest is the body of POST /api/verify
type VerifyRequest struct {
	ImageData        string   `json:"image_data" validate:"required,image_data_url"`
	CompletedActions []string `json:"completed_actions"`
}

// SubmitResponse covers both register and verify replies.
// Matched and ICNumber are only set by verify
type SubmitResponse struct {
	Success   bool      `json:"success"`
	Matched   bool      `json:"matched"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	ICNumber  string    `json:"ic_number,omitempty"`
	ErrorCode ErrorCode `json:"error_code,omitempty"`
}

// Text returns Message, falling back to Error
func (r SubmitResponse) Text() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Error
}
