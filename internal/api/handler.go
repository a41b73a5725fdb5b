package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eugenenazirov/castenv"
	"github.com/eugenenazirov/castenv/normalize"
	"github.com/eugenenazirov/castenv/value"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const maxNormalizeBody = 1 << 20

// Handler serves resolution state of a castenv Context over HTTP.
type Handler struct {
	env *castenv.Context

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler over env.
func NewHandler(env *castenv.Context, opts ...HandlerOption) *Handler {
	h := &Handler{
		env: env,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	key := strings.TrimSpace(query.Get("key"))
	if key == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "key query parameter is required")
		return
	}

	opts, err := optionsFromQuery(query)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid options", err.Error())
		return
	}

	var def any
	if query.Has("default") {
		def = query.Get("default")
	}

	res, err := h.env.Explain(key, def, opts...)
	if err != nil {
		writeCastError(w, err)
		return
	}

	resp := resolveResponse{
		Key:        res.Key,
		Found:      res.Found,
		Layer:      string(res.Layer),
		Raw:        res.Raw,
		Kind:       res.Value.Kind().String(),
		Value:      res.Value,
		ResolvedAt: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleFiles(w http.ResponseWriter, r *http.Request) {
	_ = r
	files, err := h.env.Files()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	cfg := h.env.Config()
	resp := filesResponse{
		SearchDirs:          cfg.SearchDirs,
		EnvName:             cfg.EnvName,
		Filenames:           cfg.Plan().Names(),
		StopAtFirstFoundDir: cfg.StopAtFirstFoundDir,
		PreferOSOverDotenv:  cfg.PreferOSOverDotenv,
		Files:               make([]fileEntry, 0, len(files)),
	}
	for _, f := range files {
		resp.Files = append(resp.Files, fileEntry{Path: f.Path, Dir: f.Dir, Rank: f.Rank})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleNormalize(w http.ResponseWriter, r *http.Request) {
	opts, err := optionsFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid options", err.Error())
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxNormalizeBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to read request body")
		return
	}
	doc, err := value.ParseJSON(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	out, err := h.env.NormalizeStructure(doc, opts...)
	if err != nil {
		writeCastError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, normalizeResponse{Value: out})
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type resolveResponse struct {
	Key        string      `json:"key"`
	Found      bool        `json:"found"`
	Layer      string      `json:"layer"`
	Raw        string      `json:"raw,omitempty"`
	Kind       string      `json:"kind"`
	Value      value.Value `json:"value"`
	ResolvedAt time.Time   `json:"resolvedAt"`
}

type fileEntry struct {
	Path string `json:"path"`
	Dir  string `json:"dir"`
	Rank int    `json:"rank"`
}

type filesResponse struct {
	SearchDirs          []string    `json:"searchDirs"`
	EnvName             string      `json:"envName,omitempty"`
	Filenames           []string    `json:"filenames"`
	StopAtFirstFoundDir bool        `json:"stopAtFirstFoundDir"`
	PreferOSOverDotenv  bool        `json:"preferOsOverDotenv"`
	Files               []fileEntry `json:"files"`
}

type normalizeResponse struct {
	Value value.Value `json:"value"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}

func writeCastError(w http.ResponseWriter, err error) {
	var validation *normalize.ValidationError
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusUnprocessableEntity, "Value not allowed", err.Error(),
			"allowed values: "+strings.Join(validation.Allowed, ", "))
	case errors.Is(err, normalize.ErrInterpolationCycle):
		writeError(w, http.StatusUnprocessableEntity, "Interpolation cycle", err.Error())
	default:
		writeInternalError(w, err)
	}
}
