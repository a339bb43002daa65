package auth

import "strings"

// ErrorCode is the closed set of identity-provider failures the rest of the
// system is allowed to see. Provider-specific codes never leak past this
// package.
type ErrorCode string

const (
	CodeEmailInUse         ErrorCode = "email_in_use"
	CodeWeakPassword       ErrorCode = "weak_password"
	CodeInvalidEmail       ErrorCode = "invalid_email"
	CodeInvalidCredentials ErrorCode = "invalid_credentials"
	CodeTooManyAttempts    ErrorCode = "too_many_attempts"
	CodeSignInCancelled    ErrorCode = "sign_in_cancelled"
	CodeUnknown            ErrorCode = "unknown"
)

// Error carries the translated code plus the operation it failed in, so the
// generic fallback message can name the right action.
type Error struct {
	Code ErrorCode
	Op   string
}

func (e *Error) Error() string {
	return e.Message()
}

// userMessages is the translation table from error code to user-facing text.
var userMessages = map[ErrorCode]string{
	CodeEmailInUse:         "Email already in use",
	CodeWeakPassword:       "Password should be at least 6 characters",
	CodeInvalidEmail:       "Invalid email address",
	CodeInvalidCredentials: "Invalid email or password",
	CodeTooManyAttempts:    "Too many failed attempts. Please try again later",
	CodeSignInCancelled:    "Sign in cancelled",
}

// Message returns the short human-readable text shown as a transient
// notification.
func (e *Error) Message() string {
	if msg, ok := userMessages[e.Code]; ok {
		return msg
	}
	switch e.Op {
	case "sign-up":
		return "Failed to create account. Please try again."
	case "google":
		return "Failed to sign in with Google"
	case "sign-out":
		return "Failed to sign out"
	default:
		return "Failed to sign in. Please try again."
	}
}

// translateProviderCode maps raw Identity Toolkit error strings onto the
// closed enumeration. Messages sometimes arrive with suffixes attached
// ("TOO_MANY_ATTEMPTS_TRY_LATER : ..."), so match on the leading token.
func translateProviderCode(raw string) ErrorCode {
	code := raw
	if i := strings.IndexAny(code, " :"); i >= 0 {
		code = code[:i]
	}
	switch code {
	case "EMAIL_EXISTS":
		return CodeEmailInUse
	case "WEAK_PASSWORD":
		return CodeWeakPassword
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return CodeInvalidEmail
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED":
		return CodeInvalidCredentials
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return CodeTooManyAttempts
	default:
		return CodeUnknown
	}
}
