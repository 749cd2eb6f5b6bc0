package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kamlesh9685/Attendance-Managment/internal/attendance"
	"github.com/kamlesh9685/Attendance-Managment/internal/auth"
	"github.com/kamlesh9685/Attendance-Managment/internal/metrics"
	"github.com/kamlesh9685/Attendance-Managment/internal/queue"
	"github.com/kamlesh9685/Attendance-Managment/internal/upload"
	"github.com/kamlesh9685/Attendance-Managment/internal/user"
)

// ---------- in-memory fakes ----------

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*user.User)}
}

func userKey(role user.Role, userID string) string {
	return string(role) + "/" + userID
}

func (r *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userKey(u.Role, u.UserID)]; ok {
		return fmt.Errorf("%w: %s %q", user.ErrDuplicateUser, u.Role, u.UserID)
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	clone := *u
	r.users[userKey(u.Role, u.UserID)] = &clone
	return nil
}

func (r *fakeUserRepo) GetByUserID(_ context.Context, role user.Role, userID string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userKey(role, userID)]
	if !ok {
		return nil, user.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, role user.Role, id string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Role == role && u.ID == id {
			clone := *u
			return &clone, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *fakeUserRepo) ListStudents(_ context.Context, onlyUnapproved bool) ([]user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []user.User
	for _, u := range r.users {
		if u.Role != user.RoleStudent {
			continue
		}
		if onlyUnapproved && u.Approved {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) ListTeachers(_ context.Context) ([]user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []user.User
	for _, u := range r.users {
		if u.Role == user.RoleTeacher {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Approve(_ context.Context, studentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Role == user.RoleStudent && u.ID == studentID && !u.Approved {
			u.Approved = true
			return nil
		}
	}
	return fmt.Errorf("%w: student %q", user.ErrNotFound, studentID)
}

func (r *fakeUserRepo) Delete(_ context.Context, role user.Role, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, u := range r.users {
		if u.Role == role && u.ID == id {
			delete(r.users, k)
			return nil
		}
	}
	return fmt.Errorf("%w: %s %q", user.ErrNotFound, role, id)
}

type fakeAttendanceRepo struct {
	mu         sync.Mutex
	records    map[string]attendance.Record
	complaints []attendance.Complaint
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: make(map[string]attendance.Record)}
}

func (r *fakeAttendanceRepo) Upsert(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	k := rec.StudentID + "/" + rec.Day.Format("2006-01-02")
	if existing, ok := r.records[k]; ok {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.CreatedAt = time.Now().UTC()
	}
	r.records[k] = rec
	return rec, nil
}

func (r *fakeAttendanceRepo) ListByStudent(_ context.Context, studentID string) ([]attendance.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []attendance.Record
	for _, rec := range r.records {
		if rec.StudentID == studentID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeAttendanceRepo) Summary(_ context.Context, studentID string) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, rec := range r.records {
		if rec.StudentID == studentID {
			counts[rec.Status]++
		}
	}
	return counts, nil
}

func (r *fakeAttendanceRepo) CreateComplaint(_ context.Context, c attendance.Complaint) (attendance.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()
	r.complaints = append(r.complaints, c)
	return c, nil
}

func (r *fakeAttendanceRepo) ListComplaints(_ context.Context) ([]attendance.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.complaints, nil
}

// ---------- harness ----------

const (
	testSecret = "handler-test-secret"
	testIssuer = "attendance-test"
)

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := newFakeUserRepo()
	authSvc := auth.NewService(users, testSecret, testIssuer, time.Hour)
	attSvc := attendance.NewService(newFakeAttendanceRepo())
	uploads, err := upload.New(t.TempDir())
	if err != nil {
		t.Fatalf("upload storage: %v", err)
	}
	m := metrics.New(prometheus.NewRegistry())

	h := New(authSvc, users, attSvc, uploads, nil, queue.NewInMemory(16), nil, m)
	r := gin.New()
	h.Routes(r, auth.RequireAuth(authSvc))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var parsed map[string]any
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &parsed)
	}
	return w, parsed
}

func registerStudent(t *testing.T, r *gin.Engine, userID string) string {
	t.Helper()
	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/register/student", "", gin.H{
		"user_id": userID, "password": "pw1", "name": "Student " + userID,
		"roll": "17", "course": "CS", "year": 2, "semester": 3,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register student: %d %s", w.Code, w.Body.String())
	}
	u := resp["user"].(map[string]any)
	return u["id"].(string)
}

func registerAndLoginTeacher(t *testing.T, r *gin.Engine, userID string) string {
	t.Helper()
	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/register/teacher", "", gin.H{
		"user_id": userID, "password": "pw-t", "name": "Teacher " + userID, "department": "Math",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register teacher: %d %s", w.Code, w.Body.String())
	}
	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"user_id": userID, "password": "pw-t", "role": "teacher",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("teacher login: %d %s", w.Code, w.Body.String())
	}
	return resp["token"].(string)
}

// ---------- tests ----------

func TestStudentLifecycle(t *testing.T) {
	r := newTestServer(t)

	studentID := registerStudent(t, r, "u1")

	// Duplicate handle in the same collection is rejected.
	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/register/student", "", gin.H{
		"user_id": "u1", "password": "other", "name": "Other",
		"roll": "18", "course": "CS",
	})
	if w.Code != http.StatusConflict || resp["error"] != "duplicate_user" {
		t.Fatalf("expected duplicate_user 409, got %d %s", w.Code, w.Body.String())
	}

	// Unapproved student cannot log in, and the failure is its own kind.
	w, resp = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"user_id": "u1", "password": "pw1", "role": "student",
	})
	if w.Code != http.StatusForbidden || resp["error"] != "pending_approval" {
		t.Fatalf("expected pending_approval 403, got %d %s", w.Code, w.Body.String())
	}

	teacherToken := registerAndLoginTeacher(t, r, "t1")

	// Teacher sees the pending student and approves.
	w, resp = doJSON(t, r, http.MethodGet, "/api/teacher/approvals", teacherToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("approvals list: %d %s", w.Code, w.Body.String())
	}
	if pending := resp["students"].([]any); len(pending) != 1 {
		t.Fatalf("expected one pending student, got %d", len(pending))
	}

	w, _ = doJSON(t, r, http.MethodPost, "/api/teacher/approvals/"+studentID, teacherToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("approve: %d %s", w.Code, w.Body.String())
	}

	// Approved student logs in and reaches /me.
	w, resp = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"user_id": "u1", "password": "pw1", "role": "student",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login after approval: %d %s", w.Code, w.Body.String())
	}
	studentToken := resp["token"].(string)

	w, resp = doJSON(t, r, http.MethodGet, "/api/auth/me", studentToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: %d %s", w.Code, w.Body.String())
	}
	me := resp["user"].(map[string]any)
	if me["user_id"] != "u1" || me["role"] != "student" {
		t.Fatalf("unexpected /me payload: %v", me)
	}

	// Wrong password on the existing, approved account.
	w, resp = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"user_id": "u1", "password": "nope", "role": "student",
	})
	if w.Code != http.StatusUnauthorized || resp["error"] != "invalid_credentials" {
		t.Fatalf("expected invalid_credentials 401, got %d %s", w.Code, w.Body.String())
	}

	// Unknown handle is not_found, distinct from bad password.
	w, resp = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"user_id": "ghost", "password": "pw1", "role": "student",
	})
	if w.Code != http.StatusNotFound || resp["error"] != "not_found" {
		t.Fatalf("expected not_found 404, got %d %s", w.Code, w.Body.String())
	}
}

func TestAttendanceFlow(t *testing.T) {
	r := newTestServer(t)

	studentID := registerStudent(t, r, "u1")
	teacherToken := registerAndLoginTeacher(t, r, "t1")

	w, _ := doJSON(t, r, http.MethodPost, "/api/teacher/approvals/"+studentID, teacherToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("approve: %d", w.Code)
	}

	// Mark, then re-mark the same day with a different status.
	w, _ = doJSON(t, r, http.MethodPost, "/api/teacher/attendance", teacherToken, gin.H{
		"student_id": studentID, "status": "present", "day": "2026-03-02",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("mark: %d %s", w.Code, w.Body.String())
	}
	w, _ = doJSON(t, r, http.MethodPost, "/api/teacher/attendance", teacherToken, gin.H{
		"student_id": studentID, "status": "absent", "day": "2026-03-02",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("re-mark: %d %s", w.Code, w.Body.String())
	}

	// Marking a nonexistent student fails with not_found.
	w, _ = doJSON(t, r, http.MethodPost, "/api/teacher/attendance", teacherToken, gin.H{
		"student_id": "missing", "status": "present",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown student, got %d", w.Code)
	}

	// Student sees exactly one record with the updated status.
	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"user_id": "u1", "password": "pw1", "role": "student",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("student login: %d", w.Code)
	}
	studentToken := resp["token"].(string)

	w, resp = doJSON(t, r, http.MethodGet, "/api/student/attendance", studentToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("attendance list: %d %s", w.Code, w.Body.String())
	}
	records := resp["attendance"].([]any)
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	if rec := records[0].(map[string]any); rec["status"] != "absent" {
		t.Fatalf("expected updated status, got %v", rec["status"])
	}

	w, resp = doJSON(t, r, http.MethodGet, "/api/student/attendance/summary", studentToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("summary: %d %s", w.Code, w.Body.String())
	}
	summary := resp["summary"].(map[string]any)
	if summary["absent"].(float64) != 1 {
		t.Fatalf("unexpected summary: %v", summary)
	}
}

func TestRoleBoundaries(t *testing.T) {
	r := newTestServer(t)

	teacherToken := registerAndLoginTeacher(t, r, "t1")

	// Teacher token on an admin-only route.
	w, resp := doJSON(t, r, http.MethodGet, "/api/admin/students", teacherToken, nil)
	if w.Code != http.StatusForbidden || resp["error"] != "forbidden" {
		t.Fatalf("expected forbidden 403, got %d %s", w.Code, w.Body.String())
	}

	// No token at all.
	w, _ = doJSON(t, r, http.MethodGet, "/api/teacher/approvals", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}

func TestComplaintsAndAdminViews(t *testing.T) {
	r := newTestServer(t)

	studentID := registerStudent(t, r, "u1")
	teacherToken := registerAndLoginTeacher(t, r, "t1")
	doJSON(t, r, http.MethodPost, "/api/teacher/approvals/"+studentID, teacherToken, nil)

	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"user_id": "u1", "password": "pw1", "role": "student",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("student login: %d", w.Code)
	}
	studentToken := resp["token"].(string)

	w, _ = doJSON(t, r, http.MethodPost, "/api/student/complaint", studentToken, gin.H{
		"message": "fans not working",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("complaint: %d %s", w.Code, w.Body.String())
	}

	// Admin registers, logs in, and sees users and complaints.
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/register/admin", "", gin.H{
		"user_id": "a1", "password": "pw-a", "name": "Admin",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register admin: %d %s", w.Code, w.Body.String())
	}
	w, resp = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"user_id": "a1", "password": "pw-a", "role": "admin",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("admin login: %d", w.Code)
	}
	adminToken := resp["token"].(string)

	w, resp = doJSON(t, r, http.MethodGet, "/api/admin/complaints", adminToken, nil)
	if w.Code != http.StatusOK || len(resp["complaints"].([]any)) != 1 {
		t.Fatalf("complaints view: %d %s", w.Code, w.Body.String())
	}

	w, resp = doJSON(t, r, http.MethodGet, "/api/admin/students", adminToken, nil)
	if w.Code != http.StatusOK || len(resp["students"].([]any)) != 1 {
		t.Fatalf("students view: %d %s", w.Code, w.Body.String())
	}

	// Admin deletes the student; the student's still-valid token dies at
	// the request guard.
	w, _ = doJSON(t, r, http.MethodDelete, "/api/admin/users/student/"+studentID, adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete user: %d %s", w.Code, w.Body.String())
	}
	w, _ = doJSON(t, r, http.MethodGet, "/api/auth/me", studentToken, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after deletion, got %d", w.Code)
	}
}

func TestTimetableUpload(t *testing.T) {
	r := newTestServer(t)

	teacherToken := registerAndLoginTeacher(t, r, "t1")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("timetable", "spring.png")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := part.Write([]byte("png-bytes")); err != nil {
		t.Fatalf("write: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/teacher/timetable", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+teacherToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("timetable upload: %d %s", w.Code, w.Body.String())
	}

	// Any authenticated user can fetch it.
	req = httptest.NewRequest(http.MethodGet, "/api/timetable", nil)
	req.Header.Set("Authorization", "Bearer "+teacherToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "png-bytes" {
		t.Fatalf("timetable fetch: %d %q", w.Code, w.Body.String())
	}
}
