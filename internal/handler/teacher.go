package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kamlesh9685/Attendance-Managment/internal/attendance"
	"github.com/kamlesh9685/Attendance-Managment/internal/auth"
	"github.com/kamlesh9685/Attendance-Managment/internal/queue"
	"github.com/kamlesh9685/Attendance-Managment/internal/user"
)

// PendingApprovals lists students awaiting the approval gate.
func (h *Handler) PendingApprovals(c *gin.Context) {
	students, err := h.users.ListStudents(c.Request.Context(), true)
	if err != nil {
		writeError(c, err)
		return
	}
	if students == nil {
		students = []user.User{}
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

// ApproveStudent performs the one-way approval transition.
func (h *Handler) ApproveStudent(c *gin.Context) {
	if err := h.users.Approve(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "student approved"})
}

type markAttendanceRequest struct {
	StudentID string `json:"student_id"`
	Status    string `json:"status"`
	Day       string `json:"day"` // 2006-01-02, defaults to today
}

type attendanceEvent struct {
	RecordID  string `json:"record_id"`
	StudentID string `json:"student_id"`
	Status    string `json:"status"`
}

// MarkAttendance records a student's status for a day and publishes an
// event for the tally worker.
func (h *Handler) MarkAttendance(c *gin.Context) {
	teacher, ok := auth.CurrentUser(c)
	if !ok {
		writeError(c, user.ErrUnauthenticated)
		return
	}

	var req markAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": err.Error()})
		return
	}

	var day time.Time
	if req.Day != "" {
		parsed, err := time.Parse("2006-01-02", req.Day)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "day must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	ctx := c.Request.Context()
	if _, err := h.users.GetByID(ctx, user.RoleStudent, req.StudentID); err != nil {
		writeError(c, err)
		return
	}

	rec, err := h.attendance.Mark(ctx, req.StudentID, req.Status, teacher.UserID, day)
	if err != nil {
		writeError(c, err)
		return
	}
	h.metrics.AttendanceMarks.Inc()
	h.publishMark(ctx, rec)

	c.JSON(http.StatusCreated, gin.H{"record": rec})
}

func (h *Handler) publishMark(ctx context.Context, rec attendance.Record) {
	if h.events == nil {
		return
	}
	body, err := json.Marshal(attendanceEvent{RecordID: rec.ID, StudentID: rec.StudentID, Status: rec.Status})
	if err != nil {
		return
	}
	if err := h.events.Publish(ctx, queue.Message{Type: queue.TypeAttendanceMarked, Body: body}); err != nil {
		log.Printf("queue publish failed: %v", err)
	}
}

// StudentAttendanceByID lets a teacher view one student's history.
func (h *Handler) StudentAttendanceByID(c *gin.Context) {
	ctx := c.Request.Context()
	studentID := c.Param("id")

	if _, err := h.users.GetByID(ctx, user.RoleStudent, studentID); err != nil {
		writeError(c, err)
		return
	}

	records, err := h.attendance.ListForStudent(ctx, studentID)
	if err != nil {
		writeError(c, err)
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"attendance": records})
}

// UploadTimetable replaces the shared timetable file.
func (h *Handler) UploadTimetable(c *gin.Context) {
	file, header, err := c.Request.FormFile("timetable")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "timetable file required"})
		return
	}
	defer file.Close()

	name, err := h.uploads.SaveTimetable(file, header.Filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "message": "timetable save failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "timetable uploaded successfully", "file": name})
}
