package apperror

// AuthenticationError is returned when the API rejects a login.
type AuthenticationError struct {
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// RegistrationError is returned when the API rejects a registration.
type RegistrationError struct {
	Message string
	Err     error
}

func (e *RegistrationError) Error() string {
	return e.Message
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}
