package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kamlesh9685/Attendance-Managment/internal/auth"
	"github.com/kamlesh9685/Attendance-Managment/internal/user"
)

type registerRequest struct {
	UserID     string `json:"user_id" form:"user_id"`
	Password   string `json:"password" form:"password"`
	Name       string `json:"name" form:"name"`
	Roll       string `json:"roll" form:"roll"`
	Course     string `json:"course" form:"course"`
	Year       int    `json:"year" form:"year"`
	Semester   int    `json:"semester" form:"semester"`
	Department string `json:"department" form:"department"`
	Courses    string `json:"courses" form:"courses"` // comma-separated
}

// Register creates an account in the collection named by the :role param.
// Accepts JSON or a multipart form with an optional photo file.
func (h *Handler) Register(c *gin.Context) {
	role, err := user.ParseRole(c.Param("role"))
	if err != nil {
		writeError(c, err)
		return
	}

	var req registerRequest
	multipart := strings.Contains(c.ContentType(), "multipart/form-data")
	if multipart {
		err = c.ShouldBind(&req)
	} else {
		err = c.ShouldBindJSON(&req)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": err.Error()})
		return
	}

	in := auth.RegisterInput{
		UserID:     req.UserID,
		Password:   req.Password,
		Name:       req.Name,
		Roll:       req.Roll,
		Course:     req.Course,
		Year:       req.Year,
		Semester:   req.Semester,
		Department: req.Department,
	}
	if req.Courses != "" {
		in.Courses = strings.Split(req.Courses, ",")
	}

	if multipart {
		photoURL, err := h.savePhoto(c)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "upload_failed", "message": "photo upload failed"})
			return
		}
		in.PhotoURL = photoURL
	}

	u, err := h.auth.Register(c.Request.Context(), role, in)
	if err != nil {
		writeError(c, err)
		return
	}
	h.metrics.Registrations.WithLabelValues(string(role)).Inc()

	msg := "registered successfully"
	if role == user.RoleStudent {
		msg = "registered successfully, awaiting approval"
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg, "user": u.Public()})
}

// savePhoto stores an optional "photo" form file and returns its URL or
// stored filename. Missing file is not an error.
func (h *Handler) savePhoto(c *gin.Context) (string, error) {
	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		return "", nil
	}
	defer file.Close()

	if h.cloud != nil {
		data, err := io.ReadAll(file)
		if err != nil {
			return "", err
		}
		result, err := h.cloud.UploadBytes(data, header.Filename)
		if err != nil {
			return "", err
		}
		return result.SecureURL, nil
	}
	return h.uploads.SavePhoto(file, header.Filename)
}

type loginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Login verifies credentials and returns a signed token plus the public
// profile. Unapproved students get pending_approval, not a token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": err.Error()})
		return
	}

	role, err := user.ParseRole(req.Role)
	if err != nil {
		h.metrics.Logins.WithLabelValues("validation_error").Inc()
		writeError(c, err)
		return
	}

	token, expiresAt, u, err := h.auth.Login(c.Request.Context(), req.UserID, req.Password, role)
	if err != nil {
		h.metrics.Logins.WithLabelValues(loginOutcome(err)).Inc()
		writeError(c, err)
		return
	}
	h.metrics.Logins.WithLabelValues("success").Inc()

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt.Unix(),
		"user":       u.Public(),
	})
}

func loginOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, user.ErrPendingApproval):
		return "pending_approval"
	case errors.Is(err, user.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, user.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// Me returns the resolved current user.
func (h *Handler) Me(c *gin.Context) {
	u, ok := auth.CurrentUser(c)
	if !ok {
		writeError(c, user.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
