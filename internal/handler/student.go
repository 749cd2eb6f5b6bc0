package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kamlesh9685/Attendance-Managment/internal/attendance"
	"github.com/kamlesh9685/Attendance-Managment/internal/auth"
	"github.com/kamlesh9685/Attendance-Managment/internal/user"
)

// StudentAttendance returns the calling student's attendance history.
func (h *Handler) StudentAttendance(c *gin.Context) {
	u, ok := auth.CurrentUser(c)
	if !ok {
		writeError(c, user.ErrUnauthenticated)
		return
	}

	records, err := h.attendance.ListForStudent(c.Request.Context(), u.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"attendance": records})
}

// StudentAttendanceSummary returns per-status counts, preferring the
// worker-maintained redis tally and falling back to the database.
func (h *Handler) StudentAttendanceSummary(c *gin.Context) {
	u, ok := auth.CurrentUser(c)
	if !ok {
		writeError(c, user.ErrUnauthenticated)
		return
	}
	ctx := c.Request.Context()

	if h.tallies != nil {
		if counts, err := h.tallies.GetTally(ctx, u.ID); err == nil && len(counts) > 0 {
			c.JSON(http.StatusOK, gin.H{"summary": counts, "source": "cache"})
			return
		}
	}

	counts, err := h.attendance.Summary(ctx, u.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	if h.tallies != nil && len(counts) > 0 {
		_ = h.tallies.SetTally(ctx, u.ID, counts)
	}
	c.JSON(http.StatusOK, gin.H{"summary": counts, "source": "db"})
}

type complaintRequest struct {
	Message string `json:"message"`
}

// FileComplaint stores a complaint for the admin to review.
func (h *Handler) FileComplaint(c *gin.Context) {
	u, ok := auth.CurrentUser(c)
	if !ok {
		writeError(c, user.ErrUnauthenticated)
		return
	}

	var req complaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": err.Error()})
		return
	}

	complaint, err := h.attendance.FileComplaint(c.Request.Context(), u.ID, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	h.metrics.Complaints.Inc()
	c.JSON(http.StatusCreated, gin.H{"message": "complaint submitted", "complaint": complaint})
}

// Timetable serves the current timetable file to any authenticated user.
func (h *Handler) Timetable(c *gin.Context) {
	path, err := h.uploads.TimetablePath()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "no timetable uploaded"})
		return
	}
	c.File(path)
}
