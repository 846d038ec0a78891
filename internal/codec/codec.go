// Package codec drives decoding and encoding of CityJSON documents and
// hands geometry to, and collects it from, a host renderer.
package codec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/cityjson-codec/internal/cityjson"
	"github.com/mohammed-shakir/cityjson-codec/internal/core/observability"
	"github.com/mohammed-shakir/cityjson-codec/internal/dedupe"
	"github.com/mohammed-shakir/cityjson-codec/internal/logger"
	"github.com/mohammed-shakir/cityjson-codec/internal/semantics"
	"github.com/mohammed-shakir/cityjson-codec/internal/vertexpool"
)

const DefaultVersion = "1.0"

type Options struct {
	// KeepHoles passes interior rings to the host instead of dropping them.
	KeepHoles bool
	// Dedupe merges vertices equal at Precision decimals before writing.
	Dedupe    bool
	Precision int
	// Version is written by Assemble.
	Version string
}

func DefaultOptions() Options {
	return Options{Dedupe: true, Precision: dedupe.DefaultPrecision, Version: DefaultVersion}
}

type Codec struct {
	opts Options
	log  *zerolog.Logger
}

func New(opts Options, log *zerolog.Logger) *Codec {
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}
	opts.Precision = dedupe.ClampPrecision(opts.Precision)
	return &Codec{opts: opts, log: log}
}

func (c *Codec) Options() Options { return c.opts }

func (c *Codec) logger(ctx context.Context) *zerolog.Logger {
	return logger.FromContext(logger.WithComponent(ctx, "codec"), c.log)
}

// Decode parses data into a document whose vertices are real-world
// coordinates. Missing required members are fatal; broken geometries are
// skipped and semantics that do not line up with the faces are dropped,
// both listed in the report.
func (c *Codec) Decode(ctx context.Context, data []byte) (doc *cityjson.Document, rep *Report, err error) {
	start := time.Now()
	defer func() { observability.ObserveCodecOp("decode", err, time.Since(start).Seconds()) }()
	log := c.logger(ctx)

	doc, issues, err := cityjson.ParseDocument(data)
	if err != nil {
		log.Error().Err(err).Msg("decode failed")
		return nil, nil, err
	}
	doc.Vertices = vertexpool.DecodeVertices(doc.Vertices, doc.Transform)

	rep = &Report{Objects: len(doc.CityObjects)}
	rep.addIssues(issues)

	for _, id := range doc.IDs() {
		o := doc.CityObjects[id]
		for i := range o.Geometry {
			g := &o.Geometry[i]
			if _, err := semantics.Check(g); err != nil {
				g.Semantics = nil
				rep.SemanticsDropped = append(rep.SemanticsDropped, &cityjson.GeometryError{ObjectID: id, Index: i, Err: err})
			}
		}
		rep.Geometries += len(o.Geometry)
	}

	for _, e := range rep.Skipped {
		log.Warn().Err(e).Msg("geometry skipped")
	}
	for _, e := range rep.SemanticsDropped {
		log.Warn().Err(e).Msg("semantics dropped")
	}
	observeSkipped(rep)
	log.Debug().
		Int("objects", rep.Objects).
		Int("geometries", rep.Geometries).
		Int("vertices", len(doc.Vertices)).
		Msg("decoded")
	return doc, rep, nil
}

func observeSkipped(rep *Report) {
	var boundary, unsupported int
	for _, e := range rep.Skipped {
		if errors.Is(e, cityjson.ErrUnsupportedGeometryType) {
			unsupported++
		} else {
			boundary++
		}
	}
	observability.AddGeometriesSkipped("malformed_boundary", boundary)
	observability.AddGeometriesSkipped("unsupported_type", unsupported)
	observability.AddSemanticsDropped(len(rep.SemanticsDropped))
}

// Encode writes doc, merging duplicate vertices first when enabled and
// quantizing with doc.Transform when present. doc is not modified.
func (c *Codec) Encode(ctx context.Context, doc *cityjson.Document) (out []byte, rep *Report, err error) {
	start := time.Now()
	defer func() { observability.ObserveCodecOp("encode", err, time.Since(start).Seconds()) }()

	if doc == nil {
		return nil, nil, fmt.Errorf("%w: nil document", cityjson.ErrMalformedDocument)
	}
	if err := doc.Transform.Valid(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", cityjson.ErrMalformedDocument, err)
	}
	for _, id := range doc.IDs() {
		o := doc.CityObjects[id]
		if o == nil {
			continue
		}
		for i := range o.Geometry {
			if err := o.Geometry[i].Validate(len(doc.Vertices)); err != nil {
				return nil, nil, &cityjson.GeometryError{ObjectID: id, Index: i, Err: err}
			}
		}
	}

	rep = &Report{Objects: len(doc.CityObjects)}
	work := doc
	if c.opts.Dedupe {
		var res dedupe.Result
		work, res = dedupe.Document(doc, dedupe.Options{Precision: c.opts.Precision, Transform: doc.Transform})
		rep.VerticesRemoved = res.Removed
		observability.AddVerticesDeduplicated(res.Removed)
	} else {
		cp := *doc
		work = &cp
	}
	if work.Transform != nil {
		work.Vertices = vertexpool.Requantize(work.Vertices, work.Transform)
	}

	out, err = json.Marshal(work)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal document: %w", err)
	}
	c.logger(ctx).Debug().
		Int("objects", rep.Objects).
		Int("vertices", len(work.Vertices)).
		Int("vertices_removed", rep.VerticesRemoved).
		Msg("encoded")
	return out, rep, nil
}

// Decode is Codec.Decode with default options and no logging.
func Decode(data []byte) (*cityjson.Document, *Report, error) {
	return New(DefaultOptions(), nil).Decode(context.Background(), data)
}

// Encode writes doc with the given dedupe policy and precision.
func Encode(doc *cityjson.Document, dedupeVertices bool, precision int) ([]byte, error) {
	opts := DefaultOptions()
	opts.Dedupe = dedupeVertices
	opts.Precision = precision
	out, _, err := New(opts, nil).Encode(context.Background(), doc)
	return out, err
}
