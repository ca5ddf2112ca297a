package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/emicklei/go-restful/v3"
	"github.com/google/uuid"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/api/middleware"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/models"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/selection"
	"github.com/rs/zerolog"
)

type Selector interface {
	Select(ctx context.Context, req models.SelectionRequest, baseURL string) (models.Outcome, error)
}

type Readiness interface {
	Ready() bool
}

// IndexOrigin controls where the remote index fallback is fetched from.
// BaseURL wins when set. Otherwise the origin is derived from the request,
// but only for hosts listed in AllowedHosts.
type IndexOrigin struct {
	BaseURL      string
	AllowedHosts []string
}

type Handler struct {
	selector     Selector
	index        Readiness
	baseURL      string
	allowedHosts map[string]struct{}
	logger       *zerolog.Logger
}

func NewHandler(selector Selector, index Readiness, origin IndexOrigin, logger *zerolog.Logger) *Handler {
	allowed := make(map[string]struct{}, len(origin.AllowedHosts))
	for _, host := range origin.AllowedHosts {
		if host = strings.ToLower(strings.TrimSpace(host)); host != "" {
			allowed[host] = struct{}{}
		}
	}

	return &Handler{
		selector:     selector,
		index:        index,
		baseURL:      strings.TrimRight(origin.BaseURL, "/"),
		allowedHosts: allowed,
		logger:       logger,
	}
}

// POST /api/v1/standards/select
// Body: SelectionRequest
// Returns: Outcome
func (h *Handler) Select(req *restful.Request, resp *restful.Response) {
	var selReq models.SelectionRequest
	if err := req.ReadEntity(&selReq); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}
	if err := selReq.Validate(); err != nil {
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}
	if selReq.RequestID == "" {
		selReq.RequestID = uuid.NewString()
	}

	h.logger.Info().
		Str("request_id", selReq.RequestID).
		Str("curriculum", selReq.Curriculum).
		Str("subject", selReq.Subject).
		Str("grade", selReq.Grade).
		Int("topic_len", len(selReq.Topic)).
		Bool("override", selReq.OverrideCode != "").
		Msg("Start selection")

	outcome, err := h.selector.Select(req.Request.Context(), selReq, h.indexBaseURL(req.Request))
	if err != nil {
		middleware.HandleError(resp, err, statusFor(err))
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, outcome)
}

// Health handler GET API /api/v1/health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	healthResponse := HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	}

	resp.WriteHeaderAndEntity(http.StatusOK, healthResponse)
}

// Ready handler GET API /api/v1/ready
func (h *Handler) Ready(req *restful.Request, resp *restful.Response) {
	if h.index == nil || !h.index.Ready() {
		resp.WriteHeaderAndEntity(http.StatusServiceUnavailable, ReadyResponse{Ready: false})
		return
	}
	resp.WriteHeaderAndEntity(http.StatusOK, ReadyResponse{Ready: true})
}

func (h *Handler) indexBaseURL(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	if r.Host == "" || !h.hostAllowed(r.Host) {
		if r.Host != "" {
			h.logger.Debug().Str("host", r.Host).Msg("Request host not allowed as index origin")
		}
		return ""
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		switch p := strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0])); p {
		case "http", "https":
			scheme = p
		}
	}
	return scheme + "://" + r.Host
}

// hostAllowed matches either the full host:port or the bare hostname.
func (h *Handler) hostAllowed(host string) bool {
	host = strings.ToLower(host)
	if _, ok := h.allowedHosts[host]; ok {
		return true
	}
	if name, _, err := net.SplitHostPort(host); err == nil {
		_, ok := h.allowedHosts[name]
		return ok
	}
	return false
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrEmptyTopic):
		return http.StatusBadRequest
	case errors.Is(err, selection.ErrQueryEmbedding), errors.Is(err, selection.ErrJudge):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
