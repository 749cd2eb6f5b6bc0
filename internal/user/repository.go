package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository is the credential store holding per-role user records.
type Repository interface {
	// Create persists a new user. The unique index on user_id is the
	// arbiter of the duplicate invariant; Create maps a unique violation
	// to ErrDuplicateUser.
	Create(ctx context.Context, u *User) error
	// GetByUserID resolves a login handle within one role's collection.
	GetByUserID(ctx context.Context, role Role, userID string) (*User, error)
	// GetByID resolves a generated id within one role's collection. A token
	// whose role does not match the collection the id lives in fails here.
	GetByID(ctx context.Context, role Role, id string) (*User, error)
	ListStudents(ctx context.Context, onlyUnapproved bool) ([]User, error)
	ListTeachers(ctx context.Context) ([]User, error)
	// Approve flips the student's approval flag. Only the false->true
	// transition exists; approving a missing or already approved student
	// returns ErrNotFound.
	Approve(ctx context.Context, studentID string) error
	Delete(ctx context.Context, role Role, id string) error
}

// PostgresRepository persists users in per-role Postgres tables.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a repo over an open connection.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Create inserts into the table matching u.Role.
func (r *PostgresRepository) Create(ctx context.Context, u *User) error {
	if !u.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, u.Role)
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	var err error
	switch u.Role {
	case RoleStudent:
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO students (id, user_id, name, password_hash, roll, course, year, semester, photo_url, approved, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`, u.ID, u.UserID, u.Name, u.PasswordHash, u.Roll, u.Course, u.Year, u.Semester, u.PhotoURL, u.Approved, u.CreatedAt)
	case RoleTeacher:
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO teachers (id, user_id, name, password_hash, department, courses, photo_url, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, u.ID, u.UserID, u.Name, u.PasswordHash, u.Department, strings.Join(u.Courses, ","), u.PhotoURL, u.CreatedAt)
	case RoleAdmin:
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO admins (id, user_id, name, password_hash, created_at)
			VALUES ($1,$2,$3,$4,$5)
		`, u.ID, u.UserID, u.Name, u.PasswordHash, u.CreatedAt)
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s %q", ErrDuplicateUser, u.Role, u.UserID)
	}
	return err
}

// GetByUserID looks a user up by login handle within the role's table.
func (r *PostgresRepository) GetByUserID(ctx context.Context, role Role, userID string) (*User, error) {
	return r.getBy(ctx, role, "user_id", userID)
}

// GetByID looks a user up by generated id within the role's table.
func (r *PostgresRepository) GetByID(ctx context.Context, role Role, id string) (*User, error) {
	return r.getBy(ctx, role, "id", id)
}

func (r *PostgresRepository) getBy(ctx context.Context, role Role, column, value string) (*User, error) {
	switch role {
	case RoleStudent:
		row := r.db.QueryRowContext(ctx, `
			SELECT id, user_id, name, password_hash, roll, course, year, semester, photo_url, approved, created_at
			FROM students WHERE `+column+` = $1
		`, value)
		return scanStudent(row)
	case RoleTeacher:
		row := r.db.QueryRowContext(ctx, `
			SELECT id, user_id, name, password_hash, department, courses, photo_url, created_at
			FROM teachers WHERE `+column+` = $1
		`, value)
		return scanTeacher(row)
	case RoleAdmin:
		row := r.db.QueryRowContext(ctx, `
			SELECT id, user_id, name, password_hash, created_at
			FROM admins WHERE `+column+` = $1
		`, value)
		return scanAdmin(row)
	}
	return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (*User, error) {
	u := User{Role: RoleStudent}
	err := row.Scan(&u.ID, &u.UserID, &u.Name, &u.PasswordHash, &u.Roll, &u.Course, &u.Year, &u.Semester, &u.PhotoURL, &u.Approved, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func scanTeacher(row rowScanner) (*User, error) {
	u := User{Role: RoleTeacher}
	var courses string
	err := row.Scan(&u.ID, &u.UserID, &u.Name, &u.PasswordHash, &u.Department, &courses, &u.PhotoURL, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if courses != "" {
		u.Courses = strings.Split(courses, ",")
	}
	return &u, nil
}

func scanAdmin(row rowScanner) (*User, error) {
	u := User{Role: RoleAdmin, Approved: true}
	err := row.Scan(&u.ID, &u.UserID, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListStudents returns students, optionally only those awaiting approval.
func (r *PostgresRepository) ListStudents(ctx context.Context, onlyUnapproved bool) ([]User, error) {
	query := `
		SELECT id, user_id, name, password_hash, roll, course, year, semester, photo_url, approved, created_at
		FROM students`
	if onlyUnapproved {
		query += ` WHERE approved = FALSE`
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// ListTeachers returns all teachers.
func (r *PostgresRepository) ListTeachers(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, password_hash, department, courses, photo_url, created_at
		FROM teachers ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanTeacher(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Approve performs the one-way unapproved -> approved transition.
func (r *PostgresRepository) Approve(ctx context.Context, studentID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE students SET approved = TRUE WHERE id = $1 AND approved = FALSE
	`, studentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: student %q", ErrNotFound, studentID)
	}
	return nil
}

// Delete removes a user from the role's table.
func (r *PostgresRepository) Delete(ctx context.Context, role Role, id string) error {
	var table string
	switch role {
	case RoleStudent:
		table = "students"
	case RoleTeacher:
		table = "teachers"
	case RoleAdmin:
		table = "admins"
	default:
		return fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %q", ErrNotFound, role, id)
	}
	return nil
}
