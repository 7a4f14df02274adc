package httpapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"zoorl.local/gee"
	"zoorl.local/internal/app/alias"
	"zoorl.local/internal/app/alias/events"
	"zoorl.local/internal/platform/metrics"
)

const internalErrorMessage = "Internal server error"

type createRequest struct {
	URL string `json:"url"`
	TTL *int   `json:"ttl,omitempty"` // 小时
}

type aliasResponse struct {
	Alias  string `json:"alias"`
	URL    string `json:"url"`
	Expiry int64  `json:"expiry"`
}

func toResponse(rec alias.Record) aliasResponse {
	return aliasResponse{Alias: rec.Alias, URL: rec.URL, Expiry: rec.Expiry}
}

type handlers struct {
	svc       Aliaser
	collector events.Collector
	clock     alias.Clock
}

func (h *handlers) create(ctx *gee.Context) {
	var req createRequest
	if err := ctx.BindJSON(&req); err != nil {
		return
	}
	if err := alias.ValidateURL(req.URL); err != nil {
		ctx.AbortWithError(http.StatusBadRequest, err.Error())
		return
	}
	if req.TTL != nil {
		if err := alias.ValidateTTL(*req.TTL); err != nil {
			ctx.AbortWithError(http.StatusBadRequest, fmt.Sprintf("%s: want 0..%d hours", err, alias.MaxTTLHours))
			return
		}
	}

	rec, err := h.svc.Create(ctx.Req.Context(), alias.CreateRequest{URL: req.URL, TTLHours: req.TTL})
	if err != nil {
		h.internalError(ctx, "create alias failed", err)
		return
	}
	metrics.AliasCreated.Inc()
	slog.Info("alias created", "request_id", requestID(ctx), "alias", rec.Alias, "expiry", rec.Expiry)
	ctx.JSON(http.StatusOK, toResponse(rec))
}

func (h *handlers) lookup(ctx *gee.Context) {
	rec, ok := h.resolve(ctx, "lookup", alias.ErrNotFound.Error())
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, toResponse(rec))
}

func (h *handlers) redirect(ctx *gee.Context) {
	code := ctx.Param("alias")
	rec, ok := h.resolve(ctx, "redirect", fmt.Sprintf("Alias '%s' is unknown or expired!", code))
	if !ok {
		return
	}
	// 浏览器跳转到的总是一个 HTML 页面
	ctx.Redirect(http.StatusMovedPermanently, rec.URL, "text/html")
}

// resolve writes the error response itself and reports ok=false on any
// failure. A malformed alias can never exist, so it is answered like an
// unknown one without touching storage.
func (h *handlers) resolve(ctx *gee.Context, kind, notFoundMessage string) (alias.Record, bool) {
	code := ctx.Param("alias")
	if err := alias.ValidateAlias(code); err != nil {
		metrics.AliasResolves.WithLabelValues(kind, "not_found").Inc()
		ctx.AbortWithError(http.StatusNotFound, notFoundMessage)
		return alias.Record{}, false
	}

	rec, err := h.svc.Resolve(ctx.Req.Context(), code)
	switch {
	case errors.Is(err, alias.ErrNotFound):
		metrics.AliasResolves.WithLabelValues(kind, "not_found").Inc()
		ctx.AbortWithError(http.StatusNotFound, notFoundMessage)
		return alias.Record{}, false
	case err != nil:
		metrics.AliasResolves.WithLabelValues(kind, "error").Inc()
		h.internalError(ctx, "resolve alias failed", err)
		return alias.Record{}, false
	}

	metrics.AliasResolves.WithLabelValues(kind, "found").Inc()
	h.collector.Collect(events.ResolveEvent{
		Alias:      rec.Alias,
		ResolvedAt: h.clock.Now(),
		Redirect:   kind == "redirect",
		IP:         ctx.ClientIP(),
		UserAgent:  ctx.Req.UserAgent(),
		Referer:    ctx.Req.Referer(),
	})
	return rec, true
}

// internalError logs the cause and answers with a message that leaks nothing.
func (h *handlers) internalError(ctx *gee.Context, msg string, err error) {
	slog.Error(msg, "request_id", requestID(ctx), "path", ctx.Path, "err", err)
	ctx.AbortWithError(http.StatusInternalServerError, internalErrorMessage)
}

func requestID(ctx *gee.Context) string {
	return ctx.Req.Header.Get("X-Request-ID")
}
