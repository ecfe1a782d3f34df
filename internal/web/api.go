package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mailliam/internal/backend"
	"mailliam/internal/logger"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// SummariesResponse is the reply of GET /api/summaries
type SummariesResponse struct {
	Email     string            `json:"email"`
	Summaries []backend.Summary `json:"summaries"`
}

// SummaryTimeRequest is the body of POST /api/summary-time
type SummaryTimeRequest struct {
	Email       string `json:"email" binding:"required"`
	SummaryTime string `json:"summary_time" binding:"required"`
}

// SendNowRequest is the body of POST /api/send-now
type SendNowRequest struct {
	Email string `json:"email" binding:"required"`
}

// ThemeResponse reports the current theme
type ThemeResponse struct {
	Theme string `json:"theme"`
}

func backendErrorCode(err error) string {
	var se *backend.StatusError
	switch {
	case errors.Is(err, backend.ErrUnexpectedShape):
		return "UNEXPECTED_RESPONSE"
	case errors.As(err, &se):
		return "BACKEND_ERROR"
	default:
		return "BACKEND_UNAVAILABLE"
	}
}

// APISummaries handles GET /api/summaries?email=
func (h *Handler) APISummaries(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "email is required", Code: "INVALID_REQUEST"})
		return
	}

	summaries, err := h.deps.Backend.Summaries(c.Request.Context(), email)
	if err != nil {
		h.log.Error("Failed to fetch email summaries",
			slog.String(logger.KeyOperation, backend.OpLoadSummaries),
			slog.String(logger.KeyEmail, email),
			logger.Err(err),
		)
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error: "failed to load summaries",
			Code:  backendErrorCode(err),
		})
		return
	}
	if summaries == nil {
		summaries = []backend.Summary{}
	}

	c.JSON(http.StatusOK, SummariesResponse{Email: email, Summaries: summaries})
}

// APISaveSummaryTime handles POST /api/summary-time
func (h *Handler) APISaveSummaryTime(c *gin.Context) {
	var req SummaryTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}
	if _, ok := parseSummaryTime(req.SummaryTime); !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "summary_time must be HH:MM",
			Code:  "INVALID_SUMMARY_TIME",
		})
		return
	}

	ctx := c.Request.Context()
	if err := h.deps.Backend.UpdateSummaryTime(ctx, req.Email, req.SummaryTime); err != nil {
		h.log.Error("Failed to update summary time",
			slog.String(logger.KeyOperation, backend.OpUpdateSummaryTime),
			slog.String(logger.KeyEmail, req.Email),
			logger.Err(err),
		)
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error: "failed to update summary time",
			Code:  backendErrorCode(err),
		})
		return
	}

	h.rememberSummaryTime(ctx, ClientID(c), req.Email, req.SummaryTime)
	c.JSON(http.StatusOK, gin.H{"message": notices[NoticeTimeSaved].Message})
}

// APISendNow handles POST /api/send-now
func (h *Handler) APISendNow(c *gin.Context) {
	var req SendNowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	if err := h.deps.Backend.SendSummaryNow(c.Request.Context(), req.Email); err != nil {
		h.log.Error("Failed to send summary now",
			slog.String(logger.KeyOperation, backend.OpSendSummaryNow),
			slog.String(logger.KeyEmail, req.Email),
			logger.Err(err),
		)
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error: notices[NoticeSendFailed].Message,
			Code:  backendErrorCode(err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": notices[NoticeSent].Message})
}

// APITheme handles GET /api/theme
func (h *Handler) APITheme(c *gin.Context) {
	pref := h.deps.Themes.Current(c.Request.Context(), ClientID(c))
	c.JSON(http.StatusOK, ThemeResponse{Theme: pref.String()})
}

// APIToggleTheme handles POST /api/theme/toggle
func (h *Handler) APIToggleTheme(c *gin.Context) {
	pref, err := h.deps.Themes.Toggle(c.Request.Context(), ClientID(c))
	if err != nil {
		h.log.Error("Failed to toggle theme",
			slog.String(logger.KeyClientID, ClientID(c)),
			logger.Err(err),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to persist theme",
			Code:  "STORAGE_UNAVAILABLE",
		})
		return
	}
	c.JSON(http.StatusOK, ThemeResponse{Theme: pref.String()})
}

// APILogout handles POST /api/logout
func (h *Handler) APILogout(c *gin.Context) {
	h.clearClient(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}
