package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mailliam/internal/backend"
	"mailliam/internal/logger"
	"mailliam/internal/session"
	"mailliam/internal/theme"
)

// Backend is the subset of the backend client the views use
type Backend interface {
	Summaries(ctx context.Context, email string) ([]backend.Summary, error)
	UpdateSummaryTime(ctx context.Context, email, summaryTime string) error
	SendSummaryNow(ctx context.Context, email string) error
	LoginURL() string
}

// Deps is threaded through every view; handlers read nothing else
type Deps struct {
	Backend Backend
	State   session.Manager
	// Store is only used by the health check
	Store  session.Store
	Themes *theme.Controller
	Logger *slog.Logger

	ClientStateTTL time.Duration
	SecureCookies  bool
	CORSOrigins    []string

	Now func() time.Time
}

// Handler serves the pages and the JSON API
type Handler struct {
	deps Deps
	log  *slog.Logger
	now  func() time.Time
}

// NewHandler creates the handler set
func NewHandler(deps Deps) *Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	if deps.Themes == nil {
		deps.Themes = theme.NewController(deps.State, log)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{deps: deps, log: log, now: now}
}

func summaryTimeKey(email string) string {
	return "summary_time:" + email
}

func (h *Handler) page(c *gin.Context, title string) Page {
	return Page{
		Title:    title,
		Theme:    h.deps.Themes.Current(c.Request.Context(), ClientID(c)),
		ReturnTo: returnTo(c.Request.URL),
		Notice:   noticeFor(c.Query("notice")),
	}
}

// Login renders the sign-in screen
func (h *Handler) Login(c *gin.Context) {
	c.HTML(http.StatusOK, "login", h.page(c, "Mailliam"))
}

// BeginLogin hands the browser over to the backend's OAuth flow. The flow
// ends with a redirect to /home?email=...
func (h *Handler) BeginLogin(c *gin.Context) {
	c.Redirect(http.StatusFound, h.deps.Backend.LoginURL())
}

// Dashboard renders the summary time panel, the send-now panel and the list
// of summaries for the email in the query string
func (h *Handler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	email := c.Query("email")

	view := &DashboardView{
		Email:       email,
		Greeting:    greeting(email),
		SummaryTime: h.savedSummaryTime(ctx, ClientID(c), email),
	}
	view.NextDigest = nextDigest(h.now(), view.SummaryTime)

	if email != "" {
		view.Summaries = h.loadSummaries(ctx, email)
	}

	p := h.page(c, "Mailliam")
	p.Dashboard = view
	c.HTML(http.StatusOK, "dashboard", p)
}

// loadSummaries returns the summaries of email, or nil after logging when
// the backend fails or answers with an unexpected body
func (h *Handler) loadSummaries(ctx context.Context, email string) []backend.Summary {
	summaries, err := h.deps.Backend.Summaries(ctx, email)
	if err != nil {
		msg := "Failed to fetch email summaries"
		if errors.Is(err, backend.ErrUnexpectedShape) {
			msg = "Unexpected summaries response format"
		}
		h.log.Error(msg,
			slog.String(logger.KeyOperation, backend.OpLoadSummaries),
			slog.String(logger.KeyEmail, email),
			logger.Err(err),
		)
		return nil
	}
	return summaries
}

func (h *Handler) savedSummaryTime(ctx context.Context, clientID, email string) string {
	value, ok, err := h.deps.State.Get(ctx, clientID, summaryTimeKey(email))
	if err != nil {
		h.log.Warn("Failed to read saved summary time",
			slog.String(logger.KeyClientID, clientID),
			logger.Err(err),
		)
		return DefaultSummaryTime
	}
	if !ok {
		return DefaultSummaryTime
	}
	return value
}

// SaveSummaryTime forwards the entered time to the backend and redirects
// back to the dashboard
func (h *Handler) SaveSummaryTime(c *gin.Context) {
	ctx := c.Request.Context()
	email := c.PostForm("email")
	summaryTime := c.PostForm("summary_time")

	if _, ok := parseSummaryTime(summaryTime); !ok {
		c.Redirect(http.StatusSeeOther, dashboardURL(email, NoticeInvalidTime))
		return
	}

	if err := h.deps.Backend.UpdateSummaryTime(ctx, email, summaryTime); err != nil {
		h.log.Error("Failed to update summary time",
			slog.String(logger.KeyOperation, backend.OpUpdateSummaryTime),
			slog.String(logger.KeyEmail, email),
			logger.Err(err),
		)
		c.Redirect(http.StatusSeeOther, dashboardURL(email, ""))
		return
	}

	h.rememberSummaryTime(ctx, ClientID(c), email, summaryTime)
	c.Redirect(http.StatusSeeOther, dashboardURL(email, NoticeTimeSaved))
}

func (h *Handler) rememberSummaryTime(ctx context.Context, clientID, email, summaryTime string) {
	if err := h.deps.State.Set(ctx, clientID, summaryTimeKey(email), summaryTime); err != nil {
		h.log.Warn("Failed to remember summary time",
			slog.String(logger.KeyClientID, clientID),
			logger.Err(err),
		)
	}
}

// SendNow asks the backend for an immediate digest. Every submission issues
// its own request.
func (h *Handler) SendNow(c *gin.Context) {
	email := c.PostForm("email")

	if err := h.deps.Backend.SendSummaryNow(c.Request.Context(), email); err != nil {
		h.log.Error("Failed to send summary now",
			slog.String(logger.KeyOperation, backend.OpSendSummaryNow),
			slog.String(logger.KeyEmail, email),
			logger.Err(err),
		)
		c.Redirect(http.StatusSeeOther, dashboardURL(email, NoticeSendFailed))
		return
	}

	c.Redirect(http.StatusSeeOther, dashboardURL(email, NoticeSent))
}

// ToggleTheme flips the persisted theme and returns to the submitting page
func (h *Handler) ToggleTheme(c *gin.Context) {
	target := safeReturn(c.PostForm("return_to"))

	pref, err := h.deps.Themes.Toggle(c.Request.Context(), ClientID(c))
	if err != nil {
		h.log.Error("Failed to toggle theme",
			slog.String(logger.KeyClientID, ClientID(c)),
			logger.Err(err),
		)
		c.Redirect(http.StatusSeeOther, withNotice(target, NoticeThemeFailed))
		return
	}

	h.log.Debug("Theme toggled", slog.String("theme", pref.String()))
	c.Redirect(http.StatusSeeOther, target)
}

// Logout clears everything persisted for the browser and returns to the
// login screen
func (h *Handler) Logout(c *gin.Context) {
	h.clearClient(c)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) clearClient(c *gin.Context) {
	clientID := ClientID(c)
	if err := h.deps.State.Clear(c.Request.Context(), clientID); err != nil {
		h.log.Error("Failed to clear client state",
			slog.String(logger.KeyClientID, clientID),
			logger.Err(err),
		)
	}
	setClientCookie(c, "", -1, h.deps.SecureCookies)
}
