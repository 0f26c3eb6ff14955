package authn

import "errors"

// Expected sign-in outcomes. Anything else returned by this package is a
// storage or infrastructure failure and must surface as a 500, never as a
// denial.
var (
	// ErrInvalidCredentials covers both unknown email and wrong password so the
	// two are indistinguishable to a caller probing for accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailNotVerified is only reachable after the password has been
	// confirmed correct; a wrong password on an unverified account yields
	// ErrInvalidCredentials so verification state never leaks to a non-owner.
	ErrEmailNotVerified = errors.New("email not verified")

	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrAlreadyVerified       = errors.New("email already verified")
	ErrEmailTaken            = errors.New("email already registered")
	ErrUserNotFound          = errors.New("user not found")

	// ErrGoogleNotConfigured is returned by the Google sign-in operations
	// when no provider was wired at startup (GOOGLE_CLIENT_ID unset).
	ErrGoogleNotConfigured = errors.New("google sign-in not configured")
)
