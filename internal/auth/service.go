package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kamlesh9685/Attendance-Managment/internal/user"
)

// Service verifies submitted credentials against the credential store,
// enforces the student approval gate, and issues tokens.
type Service struct {
	users  user.Repository
	secret string
	issuer string
	ttl    time.Duration
}

// NewService creates an authenticator. ttl bounds every issued token.
func NewService(users user.Repository, secret, issuer string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Hour
	}
	return &Service{users: users, secret: secret, issuer: issuer, ttl: ttl}
}

// RegisterInput carries the fields accepted at registration. Role decides
// which of the optional fields are required.
type RegisterInput struct {
	UserID   string
	Password string
	Name     string

	Roll     string
	Course   string
	Year     int
	Semester int

	Department string
	Courses    []string

	PhotoURL string
}

// Register validates role-specific fields, hashes the password, and
// persists the user. Students start unapproved; teachers and admins are
// usable immediately. The plaintext password is never persisted.
func (s *Service) Register(ctx context.Context, role user.Role, in RegisterInput) (*user.User, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	in.Name = strings.TrimSpace(in.Name)
	if in.UserID == "" || in.Password == "" || in.Name == "" {
		return nil, fmt.Errorf("%w: user_id, password and name are required", user.ErrValidation)
	}
	switch role {
	case user.RoleStudent:
		if in.Roll == "" || in.Course == "" {
			return nil, fmt.Errorf("%w: roll and course are required for students", user.ErrValidation)
		}
	case user.RoleTeacher:
		if in.Department == "" {
			return nil, fmt.Errorf("%w: department is required for teachers", user.ErrValidation)
		}
	case user.RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", user.ErrValidation, role)
	}

	// Fast error path only; the store's unique index settles races.
	if _, err := s.users.GetByUserID(ctx, role, in.UserID); err == nil {
		return nil, fmt.Errorf("%w: %s %q", user.ErrDuplicateUser, role, in.UserID)
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}

	hash, err := user.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{
		UserID:       in.UserID,
		Name:         in.Name,
		PasswordHash: hash,
		Role:         role,
		Approved:     role != user.RoleStudent,
		Roll:         in.Roll,
		Course:       in.Course,
		Year:         in.Year,
		Semester:     in.Semester,
		Department:   in.Department,
		Courses:      in.Courses,
		PhotoURL:     in.PhotoURL,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login authenticates a user and returns a signed token plus the public
// profile. Failure kinds are distinct: ErrNotFound for an unknown handle,
// ErrPendingApproval for an unapproved student, ErrInvalidCredentials for
// a password mismatch.
func (s *Service) Login(ctx context.Context, userID, password string, role user.Role) (string, time.Time, *user.User, error) {
	if userID == "" || password == "" || !role.Valid() {
		return "", time.Time{}, nil, fmt.Errorf("%w: user_id, password and role are required", user.ErrValidation)
	}

	u, err := s.users.GetByUserID(ctx, role, userID)
	if err != nil {
		return "", time.Time{}, nil, err
	}
	if u.Role == user.RoleStudent && !u.Approved {
		return "", time.Time{}, nil, user.ErrPendingApproval
	}
	if err := user.CheckPassword(u.PasswordHash, password); err != nil {
		return "", time.Time{}, nil, user.ErrInvalidCredentials
	}

	token, expiresAt, err := Issue(u.ID, u.Role, s.issuer, s.secret, s.ttl)
	if err != nil {
		return "", time.Time{}, nil, fmt.Errorf("issue token: %w", err)
	}
	return token, expiresAt, u, nil
}

// Resolve re-resolves a token's subject in the credential store. A subject
// deleted after issuance fails ErrUnauthenticated even though the token
// itself still verifies; that is the revocation path.
func (s *Service) Resolve(ctx context.Context, tokenStr string) (*user.User, error) {
	claims, err := Parse(tokenStr, s.secret, s.issuer)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, user.Role(claims.Role), claims.Subject)
	if errors.Is(err, user.ErrNotFound) {
		return nil, user.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
