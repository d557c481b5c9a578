package geometry

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

const (
	// DefaultToleranceX absorbs sub-pixel horizontal jitter between renderers.
	DefaultToleranceX = 3.0
	// DefaultToleranceY absorbs sub-pixel vertical jitter between renderers.
	DefaultToleranceY = 3.0
)

// bandKey addresses one tolerance-bucketed row or column band on a page.
type bandKey struct {
	page int
	band int
}

// Row is a horizontal group of cells assembled from the row bands, ordered
// left to right.
type Row struct {
	CenterY float64
	Cells   []Cell
}

// Index holds the spatial lookup structures for one document's cells.
// It is read-only after Build returns and safe for concurrent queries.
type Index struct {
	cells      []Cell
	byPage     map[int][]int
	byRowBand  map[bandKey][]int
	byColBand  map[bandKey][]int
	toleranceX float64
	toleranceY float64
}

// Build constructs an Index over the given cells using the default
// tolerances. Cells are sorted into document order (page, top to bottom,
// left to right) so every query with multiple candidates resolves
// deterministically.
func Build(cells []Cell) *Index {
	return BuildWithTolerance(cells, DefaultToleranceX, DefaultToleranceY)
}

// BuildWithTolerance constructs an Index with explicit bucket tolerances.
func BuildWithTolerance(cells []Cell, toleranceX, toleranceY float64) *Index {
	if toleranceX <= 0 {
		toleranceX = DefaultToleranceX
	}
	if toleranceY <= 0 {
		toleranceY = DefaultToleranceY
	}

	idx := &Index{
		cells:      make([]Cell, 0, len(cells)),
		byPage:     make(map[int][]int),
		byRowBand:  make(map[bandKey][]int),
		byColBand:  make(map[bandKey][]int),
		toleranceX: toleranceX,
		toleranceY: toleranceY,
	}

	for _, c := range cells {
		if c.IsEmpty() {
			continue
		}
		idx.cells = append(idx.cells, c)
	}

	sort.SliceStable(idx.cells, func(i, j int) bool {
		a, b := idx.cells[i], idx.cells[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.Y0 != b.Y0 {
			return a.Y0 < b.Y0
		}
		return a.X0 < b.X0
	})

	for i, c := range idx.cells {
		idx.byPage[c.Page] = append(idx.byPage[c.Page], i)

		// A center near a band edge could fall into either neighbouring
		// bucket; flooring the scaled center picks exactly one.
		rk := bandKey{page: c.Page, band: int(math.Floor(c.CenterY() / toleranceY))}
		idx.byRowBand[rk] = append(idx.byRowBand[rk], i)

		ck := bandKey{page: c.Page, band: int(math.Floor(c.CenterX() / toleranceX))}
		idx.byColBand[ck] = append(idx.byColBand[ck], i)
	}

	return idx
}

// Len returns the number of indexed cells.
func (idx *Index) Len() int {
	return len(idx.cells)
}

// Cells returns the indexed cells in document order.
func (idx *Index) Cells() []Cell {
	return idx.cells
}

// ToleranceY returns the vertical bucket tolerance.
func (idx *Index) ToleranceY() float64 {
	return idx.toleranceY
}

// ToleranceX returns the horizontal bucket tolerance.
func (idx *Index) ToleranceX() float64 {
	return idx.toleranceX
}

// rowBandCandidates gathers the cells whose row band overlaps
// [centerY-span, centerY+span] on the given page, in document order. The
// bands are coarse; callers still apply the exact tolerance check.
func (idx *Index) rowBandCandidates(page int, centerY, span float64) []int {
	lo := int(math.Floor((centerY - span) / idx.toleranceY))
	hi := int(math.Floor((centerY + span) / idx.toleranceY))

	var out []int
	for band := lo; band <= hi; band++ {
		out = append(out, idx.byRowBand[bandKey{page: page, band: band}]...)
	}
	sort.Ints(out)
	return out
}

// colBandCandidates is the column-band mirror of rowBandCandidates.
func (idx *Index) colBandCandidates(page int, centerX, span float64) []int {
	lo := int(math.Floor((centerX - span) / idx.toleranceX))
	hi := int(math.Floor((centerX + span) / idx.toleranceX))

	var out []int
	for band := lo; band <= hi; band++ {
		out = append(out, idx.byColBand[bandKey{page: page, band: band}]...)
	}
	sort.Ints(out)
	return out
}

// FindRight returns the nearest cell whose left edge lies strictly to the
// right of the anchor's right edge, whose vertical center is within twice
// the vertical tolerance of the anchor's, and whose gap to the anchor does
// not exceed maxDistance. Candidates come from the row bands around the
// anchor's center rather than a full page scan.
func (idx *Index) FindRight(anchor Cell, maxDistance float64) (Cell, bool) {
	var best Cell
	bestDist := math.Inf(1)
	found := false

	for _, i := range idx.rowBandCandidates(anchor.Page, anchor.CenterY(), 2*idx.toleranceY) {
		cand := idx.cells[i]
		if cand.X0 <= anchor.X1 {
			continue
		}
		if math.Abs(cand.CenterY()-anchor.CenterY()) > 2*idx.toleranceY {
			continue
		}
		dist := cand.X0 - anchor.X1
		if dist > maxDistance {
			continue
		}
		if dist < bestDist {
			best, bestDist, found = cand, dist, true
		}
	}

	return best, found
}

// FindBelow is the vertical mirror of FindRight: the nearest cell below the
// anchor's bottom edge whose horizontal center is within twice the
// horizontal tolerance of the anchor's. Candidates come from the column
// bands around the anchor's center.
func (idx *Index) FindBelow(anchor Cell, maxDistance float64) (Cell, bool) {
	var best Cell
	bestDist := math.Inf(1)
	found := false

	for _, i := range idx.colBandCandidates(anchor.Page, anchor.CenterX(), 2*idx.toleranceX) {
		cand := idx.cells[i]
		if cand.Y0 <= anchor.Y1 {
			continue
		}
		if math.Abs(cand.CenterX()-anchor.CenterX()) > 2*idx.toleranceX {
			continue
		}
		dist := cand.Y0 - anchor.Y1
		if dist > maxDistance {
			continue
		}
		if dist < bestDist {
			best, bestDist, found = cand, dist, true
		}
	}

	return best, found
}

// FindByText locates the first cell in document order whose text matches
// keyText. Exact matching compares trimmed text; fuzzy matching also accepts
// cells that contain the key or equal it after width folding and whitespace
// removal, which tolerates 全角/半角 variants and padded labels.
func (idx *Index) FindByText(keyText string, fuzzy bool) (Cell, bool) {
	key := strings.TrimSpace(keyText)
	if key == "" {
		return Cell{}, false
	}
	normKey := normalizeLabel(key)

	for _, c := range idx.cells {
		text := strings.TrimSpace(c.Text)
		if text == key {
			return c, true
		}
		if !fuzzy {
			continue
		}
		if strings.Contains(text, key) || normalizeLabel(text) == normKey {
			return c, true
		}
	}

	return Cell{}, false
}

// RowsOnPage assembles a page's rows from its row bands, top to bottom,
// each row ordered left to right. Each cell belongs to exactly one band and
// therefore appears in exactly one row; a band whose center sits within the
// vertical tolerance of the previous row's seed joins that row, so a line
// whose cells straddle a band edge still reads as one row. Used for
// table-region extraction.
func (idx *Index) RowsOnPage(page int) []Row {
	var bands []int
	for k := range idx.byRowBand {
		if k.page == page {
			bands = append(bands, k.band)
		}
	}
	sort.Ints(bands)

	var rows []Row
	var seed float64
	for _, band := range bands {
		indices := idx.byRowBand[bandKey{page: page, band: band}]
		mean := 0.0
		for _, i := range indices {
			mean += idx.cells[i].CenterY()
		}
		mean /= float64(len(indices))

		if len(rows) > 0 && math.Abs(mean-seed) <= idx.toleranceY {
			r := &rows[len(rows)-1]
			for _, i := range indices {
				r.Cells = append(r.Cells, idx.cells[i])
			}
			continue
		}
		cells := make([]Cell, 0, len(indices))
		for _, i := range indices {
			cells = append(cells, idx.cells[i])
		}
		rows = append(rows, Row{Cells: cells})
		seed = mean
	}

	for r := range rows {
		sum := 0.0
		for _, c := range rows[r].Cells {
			sum += c.CenterY()
		}
		rows[r].CenterY = sum / float64(len(rows[r].Cells))
		sort.SliceStable(rows[r].Cells, func(i, j int) bool { return rows[r].Cells[i].X0 < rows[r].Cells[j].X0 })
	}

	return rows
}

// PageText joins a page's cell texts in document order, separated by spaces
// within a row band and newlines between bands.
func (idx *Index) PageText(page int) string {
	var sb strings.Builder
	for _, row := range idx.RowsOnPage(page) {
		for i, c := range row.Cells {
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(strings.TrimSpace(c.Text))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Text joins every page's text in page order.
func (idx *Index) Text() string {
	pages := make([]int, 0, len(idx.byPage))
	for p := range idx.byPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	var sb strings.Builder
	for _, p := range pages {
		sb.WriteString(idx.PageText(p))
	}
	return sb.String()
}

// normalizeLabel folds full-width characters to half-width and strips all
// whitespace, so "项 目 名 称：" matches the key "项目名称:".
func normalizeLabel(s string) string {
	folded := width.Narrow.String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, folded)
}
