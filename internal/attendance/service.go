package attendance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kamlesh9685/Attendance-Managment/internal/user"
)

// Record is one day's attendance for a student, carrying who marked it.
type Record struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Day       time.Time `json:"day"`
	Status    string    `json:"status"`
	MarkedBy  string    `json:"marked_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Complaint is a free-text message a student raises for the admin.
type Complaint struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// Service coordinates attendance marking and complaint filing.
type Service struct {
	repo Repository
}

// NewService creates a service backed by a repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Mark records a student's status for a day. Day defaults to today (UTC).
// One record per student per day; a re-mark updates the status.
func (s *Service) Mark(ctx context.Context, studentID, status, markedBy string, day time.Time) (Record, error) {
	if studentID == "" {
		return Record{}, fmt.Errorf("%w: student_id is required", user.ErrValidation)
	}
	if status != StatusPresent && status != StatusAbsent {
		return Record{}, fmt.Errorf("%w: status must be %q or %q", user.ErrValidation, StatusPresent, StatusAbsent)
	}
	if day.IsZero() {
		day = time.Now().UTC()
	}
	return s.repo.Upsert(ctx, Record{
		StudentID: studentID,
		Day:       day,
		Status:    status,
		MarkedBy:  markedBy,
	})
}

// ListForStudent returns the student's attendance history.
func (s *Service) ListForStudent(ctx context.Context, studentID string) ([]Record, error) {
	return s.repo.ListByStudent(ctx, studentID)
}

// Summary counts a student's records per status from the database.
func (s *Service) Summary(ctx context.Context, studentID string) (map[string]int64, error) {
	return s.repo.Summary(ctx, studentID)
}

// FileComplaint validates and stores a complaint.
func (s *Service) FileComplaint(ctx context.Context, studentID, message string) (Complaint, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Complaint{}, fmt.Errorf("%w: complaint message is required", user.ErrValidation)
	}
	return s.repo.CreateComplaint(ctx, Complaint{StudentID: studentID, Message: message})
}

// Complaints returns every filed complaint for the admin view.
func (s *Service) Complaints(ctx context.Context) ([]Complaint, error) {
	return s.repo.ListComplaints(ctx)
}
