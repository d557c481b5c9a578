// Package session orchestrates one extraction run over the documents of a
// single business record: classify each PDF, extract fields per document
// concurrently, then merge everything into one Extraction Result under the
// single-source-per-field policy.
package session

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/huangfeng15/taizhang-sub000/internal/classify"
	"github.com/huangfeng15/taizhang-sub000/internal/decoder"
	"github.com/huangfeng15/taizhang-sub000/internal/extract"
	"github.com/huangfeng15/taizhang-sub000/internal/rules"
)

// DefaultWorkers bounds concurrent per-document extraction when the caller
// does not configure a pool size.
const DefaultWorkers = 4

// Options tunes a session. The zero value is usable.
type Options struct {
	// Workers caps concurrent per-document extraction.
	Workers int
	// Logger receives per-document progress; nil disables logging.
	Logger *zap.SugaredLogger
}

// Result is the complete outcome of one session. It is always fully
// populated on success, even when every field needed manual confirmation.
type Result struct {
	SessionID     string                        `json:"session_id"`
	Values        map[string]extract.FieldValue `json:"values"`
	Confirmations []extract.Confirmation        `json:"confirmations,omitempty"`
	Detections    []classify.Detection          `json:"detections,omitempty"`
	// Unassigned lists documents that no configured type claimed with
	// sufficient confidence; they need manual type assignment.
	Unassigned []classify.Detection `json:"unassigned,omitempty"`
}

// Session runs classification and extraction for one business record.
// Documents are decoded at most once per session through a shared cache.
type Session struct {
	id         string
	ruleDoc    *rules.Document
	engine     *extract.Engine
	classifier *classify.Classifier
	log        *zap.SugaredLogger
	workers    int
}

// New builds a session over the rule document, reading PDFs through
// provider. A malformed rule document fails here, before any file is read.
func New(ruleDoc *rules.Document, provider decoder.Provider, opts Options) (*Session, error) {
	cache := decoder.NewCache(provider)

	engine, err := extract.NewEngine(ruleDoc, cache)
	if err != nil {
		return nil, fmt.Errorf("build extraction engine: %w", err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Session{
		id:         uuid.NewString(),
		ruleDoc:    ruleDoc,
		engine:     engine,
		classifier: classify.New(ruleDoc.DocumentTypes, cache),
		log:        log,
		workers:    workers,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Run classifies every path, extracts fields from each classified document,
// and merges the results. Documents below the confidence floor land in
// Result.Unassigned and contribute no field values.
func (s *Session) Run(ctx context.Context, paths []string) (*Result, error) {
	batch := s.classifier.DetectBatch(paths)

	var jobs []classify.Detection
	for _, typeName := range s.ruleDoc.TypeNames() {
		dets := append([]classify.Detection(nil), batch.ByType[typeName]...)
		sort.SliceStable(dets, func(i, j int) bool {
			if dets[i].Confidence != dets[j].Confidence {
				return dets[i].Confidence > dets[j].Confidence
			}
			return dets[i].Path < dets[j].Path
		})
		jobs = append(jobs, dets...)
	}

	for _, det := range jobs {
		s.log.Infow("document classified",
			"session", s.id,
			"path", det.Path,
			"type", det.Type,
			"confidence", det.Confidence,
			"method", det.Method,
		)
	}
	for _, det := range batch.Unknown {
		s.log.Warnw("document needs manual type assignment",
			"session", s.id,
			"path", det.Path,
			"confidence", det.Confidence,
		)
	}

	result, err := s.extractJobs(ctx, jobs)
	if err != nil {
		return nil, err
	}
	result.Unassigned = batch.Unknown

	s.finalize(result)
	return result, nil
}

// RunAssigned skips classification and extracts using an explicit mapping
// from document type to file path. Unknown type names fail immediately.
func (s *Session) RunAssigned(ctx context.Context, assignments map[string]string) (*Result, error) {
	known := make(map[string]bool, len(s.ruleDoc.DocumentTypes))
	for _, dt := range s.ruleDoc.DocumentTypes {
		known[dt.Name] = true
	}
	for typeName := range assignments {
		if !known[typeName] {
			return nil, fmt.Errorf("assignment names unknown document type %q", typeName)
		}
	}

	var jobs []classify.Detection
	for _, typeName := range s.ruleDoc.TypeNames() {
		path, ok := assignments[typeName]
		if !ok {
			continue
		}
		jobs = append(jobs, classify.Detection{
			Path:       path,
			Type:       typeName,
			Confidence: 1,
			Method:     classify.MethodAssigned,
		})
	}

	result, err := s.extractJobs(ctx, jobs)
	if err != nil {
		return nil, err
	}

	s.finalize(result)
	return result, nil
}

// extractJobs runs per-document extraction on a bounded worker pool and
// merges the results single-threaded in job order, so the outcome does not
// depend on worker scheduling.
func (s *Session) extractJobs(ctx context.Context, jobs []classify.Detection) (*Result, error) {
	perDoc := make([]*extract.Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, det := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := s.engine.Extract(det.Path, det.Type)
			if err != nil {
				return err
			}
			perDoc[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		SessionID: s.id,
		Values:    make(map[string]extract.FieldValue),
	}
	merged := &extract.Result{Values: result.Values}
	for i, res := range perDoc {
		extract.Merge(merged, res)
		result.Detections = append(result.Detections, jobs[i])
	}
	result.Confirmations = merged.Confirmations

	return result, nil
}

// finalize surfaces required fields that ended the session unset and were
// not already routed to manual confirmation.
func (s *Session) finalize(result *Result) {
	confirmed := make(map[string]bool, len(result.Confirmations))
	for _, c := range result.Confirmations {
		confirmed[c.Field] = true
	}

	for _, field := range s.ruleDoc.Fields {
		if !field.Required {
			continue
		}
		if v, ok := result.Values[field.Label]; ok && v.Set {
			continue
		}
		if confirmed[field.Label] {
			continue
		}
		result.Confirmations = append(result.Confirmations, extract.Confirmation{
			Field:  field.Label,
			Reason: fmt.Sprintf("required field not found in any %s document", field.Source.DocumentType),
		})
	}

	s.log.Infow("session complete",
		"session", s.id,
		"fields_set", len(result.Values),
		"confirmations", len(result.Confirmations),
		"documents", len(result.Detections),
		"unassigned", len(result.Unassigned),
	)
}
