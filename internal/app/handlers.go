package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyellow/companion-nlu-go/internal/config"
	"github.com/garyellow/companion-nlu-go/internal/ctxutil"
	"github.com/garyellow/companion-nlu-go/internal/dialogue"
	apperrors "github.com/garyellow/companion-nlu-go/internal/errors"
	"github.com/garyellow/companion-nlu-go/internal/nlu"
	"github.com/garyellow/companion-nlu-go/internal/sentry"
)

type parseRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
	// SessionID ties follow-up answers to the command they complete in logs.
	SessionID string `json:"session_id,omitempty"`
}

type parseResponse struct {
	Intent        nlu.Intent   `json:"intent"`
	Entities      nlu.Entities `json:"entities"`
	Confidence    float64      `json:"confidence"`
	Source        nlu.Source   `json:"source"`
	MissingFields []nlu.Slot   `json:"missing_fields"`
	FollowUp      string       `json:"follow_up,omitempty"`
}

type missingRequest struct {
	Intent   string            `json:"intent"`
	Entities map[string]string `json:"entities"`
}

type coursesRequest struct {
	Courses []string `json:"courses"`
}

type aliasRequest struct {
	Course string `json:"course"`
}

// newRouter wires middleware and routes.
func (a *Application) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	router.Use(securityHeadersMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(a.logger, a.metrics))

	router.GET("/healthz", a.livenessCheck)
	router.HEAD("/healthz", a.livenessCheck)
	router.GET("/ready", a.readinessCheck)
	router.HEAD("/ready", a.readinessCheck)
	router.GET("/metrics",
		metricsAuthMiddleware(a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	v1 := router.Group("/v1")
	v1.POST("/parse", a.parse)
	v1.GET("/intents/:intent/fields", a.intentFields)
	v1.POST("/missing", a.missingFields)

	users := v1.Group("/users/:id", userContextMiddleware())
	users.PUT("/courses", a.replaceCourses)
	users.GET("/courses", a.listCourses)
	users.PUT("/aliases/:alias", a.putAlias)
	users.DELETE("/aliases/:alias", a.deleteAlias)
	users.GET("/ambiguity", a.takeAmbiguity)

	return router
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (a *Application) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.ReadinessCheck)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: database unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "database unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"database": "connected",
		"sessions": a.sessions.Len(),
		"features": gin.H{
			"model_provider": a.provider,
			"r2_lexicon":     a.lexicons != nil,
		},
	})
}

func (a *Application) parse(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		a.writeError(c, apperrors.NewValidationError("user_id", "is required"))
		return
	}
	if err := a.limiter.Allow(req.UserID); err != nil {
		a.writeError(c, err)
		return
	}

	ctx := ctxutil.WithUserID(c.Request.Context(), req.UserID)
	if req.SessionID != "" {
		ctx = ctxutil.WithSessionID(ctx, req.SessionID)
	}
	e, err := a.sessions.Get(ctx, req.UserID)
	if err != nil {
		a.writeError(c, apperrors.NewWrapper("api", "parse").Wrap(err, "could not load course roster"))
		return
	}

	result := e.Process(ctx, req.Text)
	missing := e.MissingFields(result.Intent, result.Entities)
	resp := parseResponse{
		Intent:        result.Intent,
		Entities:      result.Entities,
		Confidence:    result.Confidence,
		Source:        result.Source,
		MissingFields: missing,
	}
	if resp.MissingFields == nil {
		resp.MissingFields = []nlu.Slot{}
	}
	if len(missing) > 0 {
		resp.FollowUp = e.FollowUpQuestion(missing[0], result.Intent)
	}
	c.JSON(http.StatusOK, resp)
}

// requestIntent parses an intent named by a caller. Unlike ParseIntent it
// accepts "unknown", which has no required fields.
func requestIntent(label string) (nlu.Intent, error) {
	if intent, ok := nlu.ParseIntent(label); ok {
		return intent, nil
	}
	if strings.EqualFold(strings.TrimSpace(label), string(nlu.IntentUnknown)) {
		return nlu.IntentUnknown, nil
	}
	return "", fmt.Errorf("%w %q", apperrors.ErrUnknownIntent, label)
}

func (a *Application) intentFields(c *gin.Context) {
	intent, err := requestIntent(c.Param("intent"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	fields := dialogue.RequiredFields(intent)
	if fields == nil {
		fields = []nlu.Slot{}
	}
	c.JSON(http.StatusOK, gin.H{
		"intent": intent,
		"fields": fields,
	})
}

func (a *Application) missingFields(c *gin.Context) {
	var req missingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}
	intent, err := requestIntent(req.Intent)
	if err != nil {
		a.writeError(c, err)
		return
	}

	entities := nlu.Entities{}
	for k, v := range req.Entities {
		entities.Set(nlu.Slot(k), v)
	}

	missing := dialogue.MissingFields(intent, entities)
	questions := make([]string, 0, len(missing))
	for _, field := range missing {
		questions = append(questions, dialogue.FollowUpQuestion(intent, field))
	}
	if missing == nil {
		missing = []nlu.Slot{}
	}
	c.JSON(http.StatusOK, gin.H{
		"intent":         intent,
		"missing_fields": missing,
		"questions":      questions,
	})
}

func (a *Application) replaceCourses(c *gin.Context) {
	userID := c.Param("id")
	var req coursesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	ctx := c.Request.Context()
	if err := a.db.ReplaceCourses(ctx, userID, req.Courses); err != nil {
		a.writeError(c, apperrors.NewWrapper("storage", "replace_courses").Wrap(err, "could not save courses"))
		return
	}
	a.reload(ctx, userID)

	courses, err := a.db.ListCourses(ctx, userID)
	if err != nil {
		a.writeError(c, apperrors.NewWrapper("storage", "list_courses").Wrap(err, "could not list courses"))
		return
	}
	if courses == nil {
		courses = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "courses": courses})
}

func (a *Application) listCourses(c *gin.Context) {
	userID := c.Param("id")
	ctx := c.Request.Context()

	var (
		courses []string
		err     error
	)
	if q := c.Query("q"); q != "" {
		courses, err = a.db.SearchCourses(ctx, userID, q)
	} else {
		courses, err = a.db.ListCourses(ctx, userID)
	}
	if err != nil {
		a.writeError(c, apperrors.NewWrapper("storage", "list_courses").Wrap(err, "could not list courses"))
		return
	}
	if courses == nil {
		courses = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "courses": courses})
}

func (a *Application) putAlias(c *gin.Context) {
	userID, alias := c.Param("id"), c.Param("alias")
	var req aliasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	ctx := c.Request.Context()
	if err := a.db.PutAlias(ctx, userID, alias, req.Course); err != nil {
		a.writeError(c, apperrors.NewWrapper("storage", "put_alias").Wrap(err, "could not save alias"))
		return
	}
	a.reload(ctx, userID)
	c.JSON(http.StatusOK, gin.H{"alias": strings.ToLower(strings.TrimSpace(alias)), "course": req.Course})
}

func (a *Application) deleteAlias(c *gin.Context) {
	userID, alias := c.Param("id"), c.Param("alias")
	ctx := c.Request.Context()
	if err := a.db.DeleteAlias(ctx, userID, alias); err != nil {
		a.writeError(c, apperrors.NewWrapper("storage", "delete_alias").Wrap(err, "could not delete alias"))
		return
	}
	a.reload(ctx, userID)
	c.Status(http.StatusNoContent)
}

func (a *Application) takeAmbiguity(c *gin.Context) {
	ev, ok := a.inbox.Take(c.Param("id"))
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, ev)
}

// reload refreshes the user's cached engine after a roster write. The write
// already succeeded, so a failed reload is logged and left to the next
// session.
func (a *Application) reload(ctx context.Context, userID string) {
	ctx, cancel := context.WithTimeout(ctxutil.PreserveTracing(ctx), config.RosterRefresh)
	defer cancel()
	if err := a.sessions.Reload(ctx, userID); err != nil {
		a.logger.WithError(err).WithField("user_id", userID).Warn("Roster reload failed")
	}
}

// writeError maps err to a status code. Unexpected errors are reported to
// Sentry.
func (a *Application) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput), errors.Is(err, apperrors.ErrUnknownIntent):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrRateLimitExceeded):
		status = http.StatusTooManyRequests
	default:
		sentry.CaptureExceptionWithContext(c.Request.Context(), err, map[string]string{"route": c.FullPath()})
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": apperrors.GetUserMessage(err)})
}
