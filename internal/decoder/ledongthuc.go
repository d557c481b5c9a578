package decoder

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/huangfeng15/taizhang-sub000/internal/geometry"
)

const (
	defaultPageHeight = 792.0 // US Letter fallback when MediaBox is absent
	defaultRunHeight  = 12.0  // ledongthuc reports no glyph height; font size stands in
)

// PDFProvider decodes text runs with ledongthuc/pdf. Raw glyph runs are
// coalesced into word-level cells so anchors like 项目名称 match a single
// cell even when the content stream emits one run per glyph.
type PDFProvider struct {
	validator *Validator
}

// NewPDFProvider creates a provider that validates files up to maxFileSize
// bytes before decoding them.
func NewPDFProvider(maxFileSize int64) *PDFProvider {
	return &PDFProvider{validator: NewValidator(maxFileSize)}
}

// Decode validates and decodes the PDF at path.
func (p *PDFProvider) Decode(path string) (*Document, error) {
	if err := p.validator.ValidateFile(path); err != nil {
		return nil, err
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	doc := &Document{
		Path:      path,
		PageCount: reader.NumPage(),
	}

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		height := pageHeight(page)
		var runs []geometry.Cell
		for _, t := range page.Content().Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			h := t.FontSize
			if h <= 0 {
				h = defaultRunHeight
			}
			// Flip from PDF's bottom-left origin to top-left.
			runs = append(runs, geometry.Cell{
				Text: t.S,
				X0:   t.X,
				Y0:   height - t.Y - h,
				X1:   t.X + t.W,
				Y1:   height - t.Y,
				Page: pageNum,
			})
		}

		doc.Cells = append(doc.Cells, coalesceRuns(runs)...)
	}

	return doc, nil
}

// pageHeight reads the MediaBox height, falling back to US Letter.
func pageHeight(page pdf.Page) float64 {
	box := page.V.Key("MediaBox")
	if box.Kind() == pdf.Array && box.Len() == 4 {
		y0 := box.Index(1).Float64()
		y1 := box.Index(3).Float64()
		if y1 > y0 {
			return y1 - y0
		}
	}
	return defaultPageHeight
}

// coalesceRuns merges horizontally adjacent runs on the same baseline into
// word-level cells. Two runs merge when their vertical centers are within
// half a run height and the horizontal gap between them is smaller than
// 60% of the run height, which keeps label text together but leaves the
// wider label-to-value gaps intact.
func coalesceRuns(runs []geometry.Cell) []geometry.Cell {
	if len(runs) == 0 {
		return nil
	}

	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].Y0 != runs[j].Y0 {
			return runs[i].Y0 < runs[j].Y0
		}
		return runs[i].X0 < runs[j].X0
	})

	var out []geometry.Cell
	current := runs[0]

	for _, r := range runs[1:] {
		h := math.Max(current.Height(), r.Height())
		sameLine := math.Abs(r.CenterY()-current.CenterY()) <= h/2
		gap := r.X0 - current.X1

		if sameLine && gap >= -1 && gap <= 0.6*h {
			current.Text += r.Text
			current.X1 = math.Max(current.X1, r.X1)
			current.Y0 = math.Min(current.Y0, r.Y0)
			current.Y1 = math.Max(current.Y1, r.Y1)
			continue
		}

		out = append(out, current)
		current = r
	}

	return append(out, current)
}
