package expense

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"spendora-backend/aggregate"
	"spendora-backend/config"
	"spendora-backend/dashboard"
	"spendora-backend/export"
	"spendora-backend/ledger"
	"spendora-backend/settings"
)

const streamHeartbeat = 25 * time.Second

func (h *Handler) newController(userID string, prefs settings.Preferences, q ViewQuery) *dashboard.Controller {
	g := prefs.Granularity
	if q.Granularity != "" {
		g, _ = aggregate.ParseGranularity(q.Granularity)
	}
	window := q.Window
	if window <= 0 && h.config != nil {
		window = h.config.TrendWindow
	}
	currency := prefs.Currency
	if q.Currency != "" {
		currency = q.Currency
	}
	return dashboard.NewController(userID, dashboard.Options{
		Currency:    currency,
		Rates:       prefs.Rates,
		Granularity: g,
		Window:      window,
		Now:         h.now,
	})
}

// HandleGetDashboard renders the current snapshot once.
func (h *Handler) HandleGetDashboard(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found"})
		return
	}
	var q ViewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query"})
		return
	}
	prefs, ok := h.resolve(c, userID, "HandleGetDashboard")
	if !ok {
		return
	}

	records, err := h.store.List(c.Request.Context(), userID)
	if err != nil {
		config.LogError(h.logger, "expense", "HandleGetDashboard", "list expenses", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch expenses"})
		return
	}
	c.JSON(http.StatusOK, h.newController(userID, prefs, q).OnSnapshot(records))
}

// HandleStreamExpenses pushes a "snapshot" server-sent event with the recomputed
// dashboard every time the user's ledger or display preferences change. The
// stream ends with an "end" event when its session signs out and with an "error"
// event when the subscription fails.
func (h *Handler) HandleStreamExpenses(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found"})
		return
	}
	var q ViewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query"})
		return
	}
	prefs, ok := h.resolve(c, userID, "HandleStreamExpenses")
	if !ok {
		return
	}

	jti := c.GetString("jti")
	ctrl := h.newController(userID, prefs, q)
	sub, ctx := h.live.Attach(c.Request.Context(), userID, jti, ctrl)
	defer h.live.Detach(sub)

	// The store blocks on each delivery until the loop below has sent it.
	deliveries := make(chan struct{})
	failed := make(chan error, 1)
	go func() {
		defer close(deliveries)
		err := h.store.Subscribe(ctx, userID, func(records []ledger.Record) {
			ctrl.OnSnapshot(records)
			select {
			case deliveries <- struct{}{}:
			case <-ctx.Done():
			}
		})
		if err != nil && ctx.Err() == nil {
			config.LogError(h.logger, "expense", "HandleStreamExpenses", "subscription ended", userID, err)
			failed <- err
		}
	}()

	h.logger.WithFields(logrus.Fields{"module": "expense", "user_id": userID}).Debug("snapshot stream opened")
	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	closeStream := func() bool {
		select {
		case <-failed:
			c.SSEvent("error", gin.H{"error": "Live updates stopped"})
		default:
			if errors.Is(context.Cause(ctx), dashboard.ErrSessionEnded) {
				c.SSEvent("end", gin.H{"reason": "signed out"})
			}
		}
		return false
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case _, ok := <-deliveries:
			if !ok || ctx.Err() != nil {
				return closeStream()
			}
			if !h.sessionActive(ctx, userID, jti) {
				c.SSEvent("end", gin.H{"reason": "signed out"})
				return false
			}
			c.SSEvent("snapshot", ctrl.Screen())
			return true
		case <-sub.Refresh():
			if ctx.Err() != nil {
				return closeStream()
			}
			c.SSEvent("snapshot", ctrl.Screen())
			return true
		case t := <-heartbeat.C:
			if !h.sessionActive(ctx, userID, jti) {
				c.SSEvent("end", gin.H{"reason": "signed out"})
				return false
			}
			c.SSEvent("ping", t.UTC().Format(time.RFC3339))
			return true
		case <-ctx.Done():
			return closeStream()
		}
	})
}

// sessionActive keeps the stream open when the revocation list cannot be read;
// new requests with the token still fail closed in AuthMiddleware.
func (h *Handler) sessionActive(ctx context.Context, userID, jti string) bool {
	if h.sessions == nil || jti == "" {
		return true
	}
	revoked, err := h.sessions.IsRevoked(ctx, jti)
	if err != nil {
		config.LogError(h.logger, "expense", "HandleStreamExpenses", "check session", userID, err)
		return true
	}
	return !revoked
}

// HandleExportExpenses downloads the filtered snapshot as json, pdf, doc or xlsx.
func (h *Handler) HandleExportExpenses(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found"})
		return
	}

	var filter export.Filter
	var q ExportQuery
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter"})
		return
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query"})
		return
	}
	format, err := export.ParseFormat(q.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prefs, ok := h.resolve(c, userID, "HandleExportExpenses")
	if !ok {
		return
	}

	records, err := h.store.List(c.Request.Context(), userID)
	if err != nil {
		config.LogError(h.logger, "expense", "HandleExportExpenses", "list expenses", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch expenses"})
		return
	}

	currency := prefs.Currency
	if q.Currency != "" {
		currency = q.Currency
	}
	now := h.now()
	doc := export.NewDocument(export.Summarize(records, filter), filter, currency, prefs.Rates, now)

	var buf bytes.Buffer
	if err := export.Render(&buf, format, doc); err != nil {
		config.LogError(h.logger, "expense", "HandleExportExpenses", "render "+string(format), userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate export"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(now)))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
