package auth

const (
	minUsernameLen = 3
	maxUsernameLen = 20
	minPasswordLen = 8
)

func validateUsername(username string) error {
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return &ValidationError{Msg: "Username must be between 3 and 20 characters"}
	}
	for _, c := range username {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return &ValidationError{Msg: "Username can only contain letters, numbers, and underscores"}
		}
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen {
		return &ValidationError{Msg: "Password must be at least 8 characters"}
	}
	if len(password) > MaxPasswordBytes {
		return &ValidationError{Msg: "Password must be at most 72 characters"}
	}

	var hasLower, hasUpper, hasDigit bool
	for _, c := range password {
		switch {
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= '0' && c <= '9':
			hasDigit = true
		}
	}
	if !hasLower || !hasUpper || !hasDigit {
		return &ValidationError{Msg: "Password must contain at least one lowercase letter, one uppercase letter, and one number"}
	}
	return nil
}
