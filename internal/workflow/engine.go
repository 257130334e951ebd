// Package workflow moves dockets through booking, loading, manifesting and
// delivery. Every cascade commits in one transaction; the audit row is
// written after the commit.
package workflow

import (
	"context"
	"log"
	"strings"
	"time"

	"logistics-backend/internal/audit"
	"logistics-backend/internal/geocode"
	"logistics-backend/internal/podai"
	"logistics-backend/internal/store"

	"github.com/google/uuid"
)

type Auditor interface {
	Record(ctx context.Context, actor audit.Actor, e audit.Entry)
}

// Geocoder returns nil, nil for an address it cannot place.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (*geocode.Coordinate, error)
}

type PodAnalyzer interface {
	Analyze(ctx context.Context, imageRef string) (*podai.Analysis, error)
}

type Options struct {
	Geocoder       Geocoder
	Analyzer       PodAnalyzer
	DefaultRadiusM float64
	Now            func() time.Time
}

type Engine struct {
	store    *store.Store
	audit    Auditor
	geocoder Geocoder
	analyzer PodAnalyzer
	radiusM  float64
	now      func() time.Time
}

func New(st *store.Store, auditor Auditor, opts Options) *Engine {
	e := &Engine{
		store:    st,
		audit:    auditor,
		geocoder: opts.Geocoder,
		analyzer: opts.Analyzer,
		radiusM:  opts.DefaultRadiusM,
		now:      opts.Now,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.radiusM <= 0 {
		e.radiusM = 500
	}
	return e
}

func (e *Engine) Store() *store.Store { return e.store }

func (e *Engine) record(ctx context.Context, actor audit.Actor, entry audit.Entry) {
	if e.audit == nil {
		return
	}
	e.audit.Record(ctx, actor, entry)
}

// resolve is best effort: failures are logged and reported as "no result".
func (e *Engine) resolve(ctx context.Context, what, address string) *geocode.Coordinate {
	if e.geocoder == nil || strings.TrimSpace(address) == "" {
		return nil
	}
	c, err := e.geocoder.Resolve(ctx, address)
	if err != nil {
		log.Printf("[WARN] geocode %s %q failed: %v", what, address, err)
		return nil
	}
	return c
}

// analyze never fails; a broken or missing analyzer yields a flagged fallback.
func (e *Engine) analyze(ctx context.Context, imageRef string) podai.Analysis {
	if e.analyzer == nil {
		return podai.Fallback("analyzer not configured", e.now())
	}
	a, err := e.analyzer.Analyze(ctx, imageRef)
	if err != nil {
		log.Printf("[WARN] pod analysis of %s failed, storing fallback: %v", imageRef, err)
		return podai.Fallback(err.Error(), e.now())
	}
	if a == nil {
		return podai.Fallback("analyzer returned no result", e.now())
	}
	return *a
}

// newNumber makes a human readable document number such as DKT-1A2B3C4D.
func newNumber(prefix string) string {
	return prefix + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
