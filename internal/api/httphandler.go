package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"bookpulse/internal/ports"
	"bookpulse/internal/search"
	"bookpulse/internal/stream"
	"bookpulse/internal/types"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	Registry *stream.Registry
	Messages ports.MessageStore
	Search   *search.Service
	Pub      ports.Publisher // optional, nil disables the offline bridge
	Cfg      types.ServerConfig
}

func NewHandler(reg *stream.Registry, ms ports.MessageStore, sv *search.Service, pub ports.Publisher, cfg types.ServerConfig) *Handler {
	return &Handler{
		Registry: reg,
		Messages: ms,
		Search:   sv,
		Pub:      pub,
		Cfg:      cfg,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// No timeout middleware: /topics/{topic}/stream holds responses open.

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Route("/topics/{topic}", func(r chi.Router) {
		r.Get("/stream", h.handleStream)
		r.Post("/events", h.handlePublish)
		r.Get("/messages", h.handleMessages)
	})
	r.Get("/search", h.handleSearch)
	r.Post("/cache/invalidate", h.handleInvalidate)
	r.Get("/stats", h.handleStats)
	return r
}

// handleStream holds an SSE response open until the client disconnects.
// Identity arrives in the x-subject-id header from the upstream gateway, which
// has already authorized the subject for the topic.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")
	subject := r.Header.Get(types.SubjectHdrName)
	if subject == "" {
		http.Error(w, "missing subject header", http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	var sink stream.Sink = newSSESink(w, flusher)
	if expr := r.URL.Query().Get("filter"); expr != "" {
		match, err := stream.CompileFilter(expr)
		if err != nil {
			http.Error(w, "invalid filter expression", http.StatusBadRequest)
			return
		}
		sink = stream.NewFilteredSink(sink, match)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	id := stream.ConnectionID(subject, topic)
	if err := h.Registry.Add(id, subject, topic, sink); err != nil {
		log.WithError(err).WithField("connectionID", id).Error("failed to register connection")
		return
	}
	defer h.Registry.Remove(id)

	frame, err := stream.ConnectedFrame(id, h.Registry.ActiveConnections(topic))
	if err == nil {
		err = stream.WriteControl(sink, frame)
	}
	if err != nil {
		return
	}

	ctx := r.Context()
	ticker := time.NewTicker(h.Cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.Registry.Ping(id); err != nil {
				return
			}
		}
	}
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")
	subject := r.Header.Get(types.SubjectHdrName)
	if subject == "" {
		subject = "system"
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}
	defer func() {
		_ = r.Body.Close()
	}()
	if len(body) == 0 {
		http.Error(w, "empty body", http.StatusBadRequest)
		return
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	now := time.Now()
	msg := types.Message{
		ID:      fmt.Sprintf("%s-%d", topic, now.UnixNano()),
		TopicID: topic,
		Sender:  subject,
		Body:    string(body),
		SentAt:  now.Unix(),
	}
	if err := h.Messages.Append(ctx, msg); err != nil {
		log.WithError(err).WithField("topic", topic).Error("failed to persist message")
		http.Error(w, "failed to persist message", http.StatusInternalServerError)
		return
	}

	frame, err := stream.Frame(payload)
	if err != nil {
		http.Error(w, "failed to encode event", http.StatusInternalServerError)
		return
	}
	delivered := h.Registry.Publish(topic, frame)
	active := h.Registry.ActiveConnections(topic)

	// Nobody watching: nudge the push pipeline instead. Best effort, the
	// durable history above is already committed.
	if active == 0 && h.Pub != nil && h.Cfg.OfflineSNSArn != "" {
		if err := h.Pub.PublishRaw(ctx, h.Cfg.OfflineSNSArn, topic, body); err != nil {
			log.WithError(err).WithField("topic", topic).Error("offline publish failed")
		}
	}

	if err := writeJSON(w, http.StatusAccepted, map[string]any{
		"status":    "published",
		"delivered": delivered,
		"active":    active,
	}); err != nil {
		http.Error(w, "failed to write response", http.StatusInternalServerError)
	}
}

func (h *Handler) handleMessages(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")
	limit := h.Cfg.HistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	msgs, err := h.Messages.Recent(r.Context(), topic, limit)
	if err != nil {
		log.WithError(err).WithField("topic", topic).Error("failed to read messages")
		http.Error(w, "failed to read messages", http.StatusInternalServerError)
		return
	}
	if err := writeJSON(w, http.StatusOK, map[string]any{"messages": msgs}); err != nil {
		http.Error(w, "failed to write response", http.StatusInternalServerError)
	}
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := types.SearchParams{
		City:  q.Get("city"),
		Genre: q.Get("genre"),
		Kind:  q.Get("kind"),
	}
	if s := q.Get("max_rate"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			http.Error(w, "invalid max_rate", http.StatusBadRequest)
			return
		}
		params.MaxRate = n
	}
	if s := q.Get("verified"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			http.Error(w, "invalid verified", http.StatusBadRequest)
			return
		}
		params.Verified = b
	}
	listings, err := h.Search.Search(r.Context(), params)
	if err != nil {
		log.WithError(err).Error("search failed")
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}
	if listings == nil {
		listings = []types.Listing{}
	}
	if err := writeJSON(w, http.StatusOK, map[string]any{
		"results": listings,
		"count":   len(listings),
	}); err != nil {
		http.Error(w, "failed to write response", http.StatusInternalServerError)
	}
}

func (h *Handler) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pattern string `json:"pattern"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Pattern == "" {
		http.Error(w, "invalid pattern", http.StatusBadRequest)
		return
	}
	removed := h.Search.Invalidate(req.Pattern)
	if err := writeJSON(w, http.StatusOK, map[string]any{"removed": removed}); err != nil {
		http.Error(w, "failed to write response", http.StatusInternalServerError)
	}
}

func (h *Handler) handleStats(w http.ResponseWriter, _ *http.Request) {
	if err := writeJSON(w, http.StatusOK, map[string]any{
		"cache":  h.Search.CacheStats(),
		"topics": h.Registry.TopicCounts(),
	}); err != nil {
		http.Error(w, "failed to write response", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}
