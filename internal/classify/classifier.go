// Package classify decides which configured document type a PDF represents,
// scoring filename heuristics against content keyword heuristics.
package classify

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/huangfeng15/taizhang-sub000/internal/decoder"
	"github.com/huangfeng15/taizhang-sub000/internal/geometry"
	"github.com/huangfeng15/taizhang-sub000/internal/rules"
)

// TypeUnknown is returned when no configured type clears a nonzero score or
// the batch confidence floor.
const TypeUnknown = "unknown"

// Method records which heuristic produced a detection.
type Method string

const (
	MethodFilename Method = "filename"
	MethodContent  Method = "content"
	MethodHybrid   Method = "hybrid"
	MethodUnknown  Method = "unknown"

	// MethodAssigned marks a detection supplied by the caller as an
	// explicit type-to-path assignment instead of a heuristic.
	MethodAssigned Method = "assigned"
)

const (
	filenameAccept = 0.8 // filename score that decides on its own
	contentAccept  = 0.7 // content score that decides on its own

	// MinBatchConfidence is the floor below which a batch detection is
	// routed to the unknown bucket for operator triage instead of being
	// silently misclassified.
	MinBatchConfidence = 0.5

	// contentPages limits content scoring to the first pages; the
	// distinguishing markers of this document family sit on page one.
	contentPages = 2
)

// AmbiguousError reports that no document type cleared the confidence
// floor; the whole document is routed to manual type assignment.
// DetectBatch recovers it locally by placing the document in the unknown
// bucket; direct Detect callers observe it alongside the best-effort
// detection.
type AmbiguousError struct {
	Path       string
	Confidence float64
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("no document type cleared the confidence floor for %s (best %.2f)", e.Path, e.Confidence)
}

// Detection is the classification outcome for one document.
type Detection struct {
	Path       string  `json:"path"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Method     Method  `json:"method"`
}

// Batch groups detections by resolved type; detections below
// MinBatchConfidence land in Unknown.
type Batch struct {
	ByType  map[string][]Detection
	Unknown []Detection
}

// Classifier scores documents against the rule document's type descriptors.
type Classifier struct {
	types  []rules.DocumentType
	decode decoder.Provider
}

// New creates a classifier for the given type descriptors, reading document
// content through provider.
func New(types []rules.DocumentType, provider decoder.Provider) *Classifier {
	return &Classifier{types: types, decode: provider}
}

// Detect classifies the document at path. The decision cascade prefers a
// decisive filename score, then a decisive content score, then agreement
// between the two, then whichever heuristic scored higher individually.
// When the resolved type is unknown or its confidence falls below the
// type's floor, the best-effort detection is returned together with an
// AmbiguousError so the document can be routed to manual type assignment.
func (c *Classifier) Detect(path string) (Detection, error) {
	base := filepath.Base(path)

	bestFnType, bestFn := "", 0.0
	for _, dt := range c.types {
		if s := filenameScore(dt, base); s > bestFn {
			bestFnType, bestFn = dt.Name, s
		}
	}

	doc, err := c.decode.Decode(path)
	if err != nil {
		return Detection{}, fmt.Errorf("detect %s: %w", path, err)
	}
	content := geometry.Build(doc.CellsForPages(contentPages)).Text()

	bestCtType, bestCt := "", 0.0
	for _, dt := range c.types {
		if s := contentScore(dt, content); s > bestCt {
			bestCtType, bestCt = dt.Name, s
		}
	}

	det := Detection{Path: path}
	switch {
	case bestFn >= filenameAccept:
		det.Type, det.Confidence, det.Method = bestFnType, bestFn, MethodFilename
	case bestCt >= contentAccept:
		det.Type, det.Confidence, det.Method = bestCtType, bestCt, MethodContent
	case bestFnType != "" && bestFnType == bestCtType:
		det.Type, det.Confidence, det.Method = bestFnType, clamp01(bestFn+bestCt), MethodHybrid
	case bestFn > bestCt:
		det.Type, det.Confidence, det.Method = bestFnType, bestFn, MethodFilename
	case bestCt > 0:
		// Equal scores fall through here; content keywords are the
		// stronger signal for this document family.
		det.Type, det.Confidence, det.Method = bestCtType, bestCt, MethodContent
	default:
		det.Type, det.Confidence, det.Method = TypeUnknown, 0, MethodUnknown
	}

	if det.Type == TypeUnknown || det.Confidence < c.floorFor(det.Type) {
		return det, &AmbiguousError{Path: path, Confidence: det.Confidence}
	}

	return det, nil
}

// DetectBatch classifies every path and groups the results by resolved
// type. Ambiguous results, and unreadable documents, go to the unknown
// bucket rather than being silently misclassified.
func (c *Classifier) DetectBatch(paths []string) Batch {
	batch := Batch{ByType: make(map[string][]Detection)}

	for _, path := range paths {
		det, err := c.Detect(path)
		if err != nil {
			var ambiguous *AmbiguousError
			if !errors.As(err, &ambiguous) {
				det = Detection{Path: path, Type: TypeUnknown, Method: MethodUnknown}
			}
			batch.Unknown = append(batch.Unknown, det)
			continue
		}
		batch.ByType[det.Type] = append(batch.ByType[det.Type], det)
	}

	return batch
}

// floorFor combines the global batch floor with the type's own configured
// confidence threshold.
func (c *Classifier) floorFor(typeName string) float64 {
	floor := MinBatchConfidence
	for _, dt := range c.types {
		if dt.Name == typeName && dt.ConfidenceThreshold > floor {
			floor = dt.ConfidenceThreshold
		}
	}
	return floor
}

func filenameScore(dt rules.DocumentType, base string) float64 {
	if len(dt.FilenamePatterns) == 0 {
		return 0
	}
	matched := 0
	lower := strings.ToLower(base)
	for _, p := range dt.FilenamePatterns {
		if strings.Contains(lower, strings.ToLower(p)) {
			matched++
		}
	}
	return float64(matched) / float64(len(dt.FilenamePatterns))
}

func contentScore(dt rules.DocumentType, content string) float64 {
	if len(dt.ContentMarkers) == 0 {
		return 0
	}
	matched := 0
	for _, m := range dt.ContentMarkers {
		if strings.Contains(content, m) {
			matched++
		}
	}
	return float64(matched) / float64(len(dt.ContentMarkers))
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
