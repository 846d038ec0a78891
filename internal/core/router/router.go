package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mohammed-shakir/cityjson-codec/internal/core/config"
	"github.com/mohammed-shakir/cityjson-codec/internal/core/model"
	"github.com/mohammed-shakir/cityjson-codec/internal/core/observability"
)

// CodecHandler receives validated requests and serves them.
type CodecHandler interface {
	HandleDecode(ctx context.Context, w http.ResponseWriter, r *http.Request, q model.DecodeRequest)
	HandleNormalize(ctx context.Context, w http.ResponseWriter, r *http.Request, q model.NormalizeRequest)
}

// HandleDecode reads the document body and calls the handler.
func HandleDecode(logger *slog.Logger, cfg config.Config, h CodecHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		defer func() { observability.ObserveHTTP(r.Method, "/v1/decode", sw.code, time.Since(start).Seconds()) }()

		body, err := readBody(r)
		if err != nil {
			writeBodyError(sw, err)
			return
		}
		keep, err := boolParam(r, "keep_holes", cfg.Codec.KeepHoles)
		if err != nil {
			http.Error(sw, err.Error(), http.StatusBadRequest)
			return
		}
		logger.DebugContext(r.Context(), "decode request", "bytes", len(body))
		h.HandleDecode(r.Context(), sw, r, model.DecodeRequest{Body: body, KeepHoles: keep})
	}
}

// HandleNormalize validates query params and calls the handler.
func HandleNormalize(logger *slog.Logger, cfg config.Config, h CodecHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		defer func() { observability.ObserveHTTP(r.Method, "/v1/normalize", sw.code, time.Since(start).Seconds()) }()

		q, warn, err := ParseNormalizeRequest(r, cfg)
		if warn != "" {
			logger.WarnContext(r.Context(), warn)
		}
		if err != nil {
			http.Error(sw, err.Error(), http.StatusBadRequest)
			return
		}
		body, err := readBody(r)
		if err != nil {
			writeBodyError(sw, err)
			return
		}
		q.Body = body
		h.HandleNormalize(r.Context(), sw, r, q)
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// ParseNormalizeRequest reads the query; the body is read by the caller.
// Missing params fall back to the configured codec defaults.
func ParseNormalizeRequest(r *http.Request, cfg config.Config) (model.NormalizeRequest, string, error) {
	var warn string

	dedupe, err := boolParam(r, "dedupe", cfg.Codec.Dedupe)
	if err != nil {
		return model.NormalizeRequest{}, "", err
	}
	keep, err := boolParam(r, "keep_holes", cfg.Codec.KeepHoles)
	if err != nil {
		return model.NormalizeRequest{}, "", err
	}

	precision := cfg.Codec.Precision
	if raw := strings.TrimSpace(r.URL.Query().Get("precision")); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 0 {
			return model.NormalizeRequest{}, "", fmt.Errorf("invalid precision %q: want a non-negative integer", raw)
		}
		if p > 12 {
			warn = fmt.Sprintf("precision %d capped at 12", p)
			p = 12
		}
		precision = p
	}
	if !dedupe && r.URL.Query().Has("precision") {
		warn = "precision has no effect without dedupe"
	}

	sess := strings.TrimSpace(r.URL.Query().Get("session"))
	if len(sess) > 256 {
		return model.NormalizeRequest{}, warn, errors.New("session id longer than 256 bytes")
	}

	return model.NormalizeRequest{
		Dedupe:    dedupe,
		Precision: precision,
		KeepHoles: keep,
		Session:   sess,
	}, warn, nil
}

func boolParam(r *http.Request, name string, def bool) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: want true or false", name, raw)
	}
	return b, nil
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, errEmptyBody
	}
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, errEmptyBody
	}
	return b, nil
}

var errEmptyBody = errors.New("request body is empty")

func writeBodyError(w http.ResponseWriter, err error) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		http.Error(w, fmt.Sprintf("document larger than %d bytes", tooBig.Limit), http.StatusRequestEntityTooLarge)
		return
	}
	if errors.Is(err, errEmptyBody) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
}
