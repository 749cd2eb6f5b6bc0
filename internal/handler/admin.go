package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kamlesh9685/Attendance-Managment/internal/attendance"
	"github.com/kamlesh9685/Attendance-Managment/internal/user"
)

// ListStudents returns every student record.
func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.users.ListStudents(c.Request.Context(), false)
	if err != nil {
		writeError(c, err)
		return
	}
	if students == nil {
		students = []user.User{}
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

// ListTeachers returns every teacher record.
func (h *Handler) ListTeachers(c *gin.Context) {
	teachers, err := h.users.ListTeachers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if teachers == nil {
		teachers = []user.User{}
	}
	c.JSON(http.StatusOK, gin.H{"teachers": teachers})
}

// ListComplaints returns every filed complaint.
func (h *Handler) ListComplaints(c *gin.Context) {
	complaints, err := h.attendance.Complaints(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if complaints == nil {
		complaints = []attendance.Complaint{}
	}
	c.JSON(http.StatusOK, gin.H{"complaints": complaints})
}

// DeleteUser removes a user record. Outstanding tokens for the subject
// die at the request guard's re-resolution step.
func (h *Handler) DeleteUser(c *gin.Context) {
	role, err := user.ParseRole(c.Param("role"))
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.users.Delete(c.Request.Context(), role, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user removed"})
}
