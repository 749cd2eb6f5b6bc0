package attendance

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence surface for attendance data.
type Repository interface {
	// Upsert writes the day's record for a student; a second mark for the
	// same day updates the status instead of duplicating.
	Upsert(ctx context.Context, rec Record) (Record, error)
	ListByStudent(ctx context.Context, studentID string) ([]Record, error)
	// Summary returns per-status counts for a student.
	Summary(ctx context.Context, studentID string) (map[string]int64, error)
	CreateComplaint(ctx context.Context, c Complaint) (Complaint, error)
	ListComplaints(ctx context.Context) ([]Complaint, error)
}

// PostgresRepository persists attendance data in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a repo.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert writes a record keyed on (student_id, day).
func (r *PostgresRepository) Upsert(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Day.IsZero() {
		rec.Day = time.Now().UTC()
	}
	rec.Day = rec.Day.Truncate(24 * time.Hour)

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, student_id, day, status, marked_by)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (student_id, day) DO UPDATE SET
			status = EXCLUDED.status,
			marked_by = EXCLUDED.marked_by
		RETURNING id, created_at
	`, rec.ID, rec.StudentID, rec.Day, rec.Status, rec.MarkedBy)
	if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ListByStudent returns a student's records, most recent day first.
func (r *PostgresRepository) ListByStudent(ctx context.Context, studentID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, day, status, marked_by, created_at
		FROM attendance_records
		WHERE student_id = $1
		ORDER BY day DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.Day, &rec.Status, &rec.MarkedBy, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Summary counts records per status for a student.
func (r *PostgresRepository) Summary(ctx context.Context, studentID string) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM attendance_records
		WHERE student_id = $1
		GROUP BY status
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// CreateComplaint stores a student complaint.
func (r *PostgresRepository) CreateComplaint(ctx context.Context, c Complaint) (Complaint, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO complaints (id, student_id, message)
		VALUES ($1,$2,$3)
		RETURNING created_at
	`, c.ID, c.StudentID, c.Message)
	if err := row.Scan(&c.CreatedAt); err != nil {
		return Complaint{}, err
	}
	return c, nil
}

// ListComplaints returns all complaints, newest first.
func (r *PostgresRepository) ListComplaints(ctx context.Context) ([]Complaint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, message, created_at
		FROM complaints
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var complaints []Complaint
	for rows.Next() {
		var c Complaint
		if err := rows.Scan(&c.ID, &c.StudentID, &c.Message, &c.CreatedAt); err != nil {
			return nil, err
		}
		complaints = append(complaints, c)
	}
	return complaints, rows.Err()
}
