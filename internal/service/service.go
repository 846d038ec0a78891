// Package service serves the codec over HTTP: decode previews and
// normalization through the reference scene, with sessions kept in a store.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/cityjson-codec/internal/cache/doccache"
	"github.com/mohammed-shakir/cityjson-codec/internal/cache/keys"
	"github.com/mohammed-shakir/cityjson-codec/internal/cityjson"
	"github.com/mohammed-shakir/cityjson-codec/internal/codec"
	"github.com/mohammed-shakir/cityjson-codec/internal/core/config"
	"github.com/mohammed-shakir/cityjson-codec/internal/core/model"
	"github.com/mohammed-shakir/cityjson-codec/internal/core/router"
	"github.com/mohammed-shakir/cityjson-codec/internal/logger"
	"github.com/mohammed-shakir/cityjson-codec/internal/scene"
	"github.com/mohammed-shakir/cityjson-codec/internal/session"
)

type Engine struct {
	logger   *slog.Logger
	zl       *zerolog.Logger
	cfg      config.Config
	sessions session.Store
	docs     *doccache.Cache
}

var _ router.CodecHandler = (*Engine)(nil)

// New wires an engine. docs may be nil to disable decode caching.
func New(cfg config.Config, logger *slog.Logger, zl *zerolog.Logger, sessions session.Store, docs *doccache.Cache) *Engine {
	return &Engine{logger: logger, zl: zl, cfg: cfg, sessions: sessions, docs: docs}
}

func (e *Engine) newCodec(keepHoles, dedupe bool, precision int) *codec.Codec {
	return codec.New(codec.Options{
		KeepHoles: keepHoles,
		Dedupe:    dedupe,
		Precision: precision,
		Version:   e.cfg.Codec.Version,
	}, e.zl)
}

func (e *Engine) newScene() *scene.Scene {
	return scene.New(scene.Options{ReuseMaterials: e.cfg.Codec.ReuseMaterials})
}

type decodeResponse struct {
	Scene  scene.Summary `json:"scene"`
	Report *codec.Report `json:"report"`
}

func (e *Engine) HandleDecode(ctx context.Context, w http.ResponseWriter, _ *http.Request, q model.DecodeRequest) {
	key := keys.Document(q.Body, q.CacheTag())
	ctx = logger.WithDocument(ctx, key)

	if e.docs != nil {
		if b, ok := e.docs.Get(ctx, key); ok {
			writeJSON(w, b, "HIT")
			return
		}
	}

	c := e.newCodec(q.KeepHoles, false, e.cfg.Codec.Precision)
	doc, rep, err := c.Decode(ctx, q.Body)
	if err != nil {
		e.writeError(ctx, w, err)
		return
	}
	sc := e.newScene()
	irep, err := c.Import(ctx, doc, nil, sc)
	if err != nil {
		e.writeError(ctx, w, err)
		return
	}
	rep.Meshes = irep.Meshes
	rep.HolesDropped = irep.HolesDropped
	rep.Hierarchy = irep.Hierarchy
	rep.Skipped = append(rep.Skipped, irep.Skipped...)

	b, err := json.Marshal(decodeResponse{Scene: sc.Summary(), Report: rep})
	if err != nil {
		e.writeError(ctx, w, err)
		return
	}
	if e.docs != nil {
		e.docs.Put(ctx, key, b)
	}
	writeJSON(w, b, "MISS")
}

func (e *Engine) HandleNormalize(ctx context.Context, w http.ResponseWriter, _ *http.Request, q model.NormalizeRequest) {
	ctx = logger.WithSession(ctx, q.Session)
	c := e.newCodec(q.KeepHoles, q.Dedupe, q.Precision)

	var sess *session.ImportSession
	if q.Session != "" {
		s, err := e.sessions.Load(ctx, q.Session)
		if err != nil {
			e.writeError(ctx, w, &storeError{err})
			return
		}
		sess = s
	}

	doc, drep, err := c.Decode(ctx, q.Body)
	if err != nil {
		e.writeError(ctx, w, err)
		return
	}
	sc := e.newScene()
	irep, err := c.Import(ctx, doc, sess, sc)
	if err != nil {
		e.writeError(ctx, w, err)
		return
	}
	out, arep, err := c.Assemble(ctx, sc.Export(), sess)
	if err != nil {
		e.writeError(ctx, w, err)
		return
	}
	b, erep, err := c.Encode(ctx, out)
	if err != nil {
		e.writeError(ctx, w, err)
		return
	}

	if sess != nil {
		if err := e.sessions.Save(ctx, sess); err != nil {
			e.writeError(ctx, w, &storeError{err})
			return
		}
	}

	h := w.Header()
	h.Set("X-Cityjson-Geometries-Skipped", strconv.Itoa(len(drep.Skipped)+len(irep.Skipped)))
	h.Set("X-Cityjson-Semantics-Dropped", strconv.Itoa(len(drep.SemanticsDropped)+len(irep.SemanticsDropped)))
	h.Set("X-Cityjson-Holes-Dropped", strconv.Itoa(irep.HolesDropped))
	h.Set("X-Cityjson-Objects-Skipped", strconv.Itoa(len(arep.ObjectsSkipped)))
	h.Set("X-Cityjson-Vertices-Removed", strconv.Itoa(erep.VerticesRemoved))
	for _, warn := range irep.Warnings {
		h.Add("Warning", `199 cityjsond "`+warn+`"`)
	}
	h.Set("Content-Type", "application/city+json")
	_, _ = w.Write(b)
}

// HandleGetSession returns the stored session as JSON.
func (e *Engine) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := e.sessions.Load(r.Context(), id)
	if err != nil {
		e.writeError(r.Context(), w, &storeError{err})
		return
	}
	b, err := json.Marshal(s)
	if err != nil {
		e.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, b, "")
}

func (e *Engine) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := e.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		e.writeError(r.Context(), w, &storeError{err})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type storeError struct{ err error }

func (e *storeError) Error() string { return "session store: " + e.err.Error() }
func (e *storeError) Unwrap() error { return e.err }

func (e *Engine) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= 500 {
		e.logger.ErrorContext(ctx, "request failed", "err", err)
	} else {
		e.logger.DebugContext(ctx, "request rejected", "err", err, "status", code)
	}
	http.Error(w, err.Error(), code)
}

func statusFor(err error) int {
	var se *storeError
	var ge *cityjson.GeometryError
	switch {
	case errors.Is(err, session.ErrNoID):
		return http.StatusBadRequest
	case errors.As(err, &se):
		return http.StatusServiceUnavailable
	case errors.Is(err, cityjson.ErrMalformedDocument):
		return http.StatusBadRequest
	case errors.As(err, &ge):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, b []byte, cache string) {
	w.Header().Set("Content-Type", "application/json")
	if cache != "" {
		w.Header().Set("X-Cache", cache)
	}
	_, _ = w.Write(b)
}
