package user

import "errors"

// Failure kinds surfaced to the request boundary. Handlers map each to a
// single HTTP status; nothing here is retried.
var (
	// ErrValidation covers missing or malformed input the client can fix.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateUser means the login handle (or alternate key) is taken
	// within the role's collection.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrPendingApproval is a student login blocked by the approval gate.
	// Distinct from bad credentials so clients can show a different message.
	ErrPendingApproval = errors.New("account pending approval")
	// ErrNotFound means no such record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials means the password did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated means the request carries no usable identity:
	// missing/invalid/expired token, or a subject deleted after issuance.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden means authenticated but not in the route's allowed roles.
	ErrForbidden = errors.New("forbidden")
)
