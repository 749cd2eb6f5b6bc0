package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kamlesh9685/Attendance-Managment/internal/attendance"
	"github.com/kamlesh9685/Attendance-Managment/internal/auth"
	"github.com/kamlesh9685/Attendance-Managment/internal/cloudinary"
	"github.com/kamlesh9685/Attendance-Managment/internal/metrics"
	"github.com/kamlesh9685/Attendance-Managment/internal/queue"
	"github.com/kamlesh9685/Attendance-Managment/internal/store"
	"github.com/kamlesh9685/Attendance-Managment/internal/upload"
	"github.com/kamlesh9685/Attendance-Managment/internal/user"
)

// Handler owns the HTTP surface over the auth and attendance services.
type Handler struct {
	auth       *auth.Service
	users      user.Repository
	attendance *attendance.Service
	uploads    *upload.Storage
	cloud      *cloudinary.Client // nil if Cloudinary not configured
	events     queue.Queue        // nil disables event publishing
	tallies    *store.Redis       // nil falls back to the database
	metrics    *metrics.Metrics
}

// New wires the handler. cloud, events and tallies may be nil.
func New(authSvc *auth.Service, users user.Repository, att *attendance.Service, uploads *upload.Storage, cloud *cloudinary.Client, events queue.Queue, tallies *store.Redis, m *metrics.Metrics) *Handler {
	return &Handler{
		auth:       authSvc,
		users:      users,
		attendance: att,
		uploads:    uploads,
		cloud:      cloud,
		events:     events,
		tallies:    tallies,
		metrics:    m,
	}
}

// Routes registers every endpoint on the engine. guard must be the
// RequireAuth middleware built over the same auth service.
func (h *Handler) Routes(r *gin.Engine, guard gin.HandlerFunc) {
	api := r.Group("/api")

	api.POST("/auth/register/:role", h.Register)
	api.POST("/auth/login", h.Login)

	authed := api.Group("", guard)
	authed.GET("/auth/me", h.Me)
	authed.GET("/timetable", h.Timetable)

	student := authed.Group("/student", auth.RequireRoles(user.RoleStudent))
	student.GET("/attendance", h.StudentAttendance)
	student.GET("/attendance/summary", h.StudentAttendanceSummary)
	student.POST("/complaint", h.FileComplaint)

	teacher := authed.Group("/teacher", auth.RequireRoles(user.RoleTeacher))
	teacher.GET("/approvals", h.PendingApprovals)
	teacher.POST("/approvals/:id", h.ApproveStudent)
	teacher.POST("/attendance", h.MarkAttendance)
	teacher.GET("/students/:id/attendance", h.StudentAttendanceByID)
	teacher.POST("/timetable", h.UploadTimetable)

	admin := authed.Group("/admin", auth.RequireRoles(user.RoleAdmin))
	admin.GET("/students", h.ListStudents)
	admin.GET("/teachers", h.ListTeachers)
	admin.GET("/complaints", h.ListComplaints)
	admin.DELETE("/users/:role/:id", h.DeleteUser)
}

// writeError converts a failure into the structured response for its kind.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, user.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": err.Error()})
	case errors.Is(err, user.ErrDuplicateUser):
		c.JSON(http.StatusConflict, gin.H{"error": "duplicate_user", "message": err.Error()})
	case errors.Is(err, user.ErrPendingApproval):
		c.JSON(http.StatusForbidden, gin.H{"error": "pending_approval", "message": "account pending approval by a teacher"})
	case errors.Is(err, user.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": err.Error()})
	case errors.Is(err, user.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials", "message": "invalid credentials"})
	case errors.Is(err, user.ErrUnauthenticated), errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "message": err.Error()})
	case errors.Is(err, user.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "message": "internal server error"})
	}
}
