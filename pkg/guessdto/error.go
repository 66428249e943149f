package guessdto

// DomainError is a service failure translated for chat and terminal
// front-ends. Retryable errors leave the round usable.
type DomainError struct {
	Code      string
	Message   string
	Retryable bool
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "guess service error"
}
