// Package elevation reads ESRI ASCII terrain grids and looks up property ground levels.
package elevation

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"

	"github.com/stwalsh4118/floodfas/internal/models"
)

var (
	// ErrInvalidHeader is returned when one of the six header lines is missing or malformed.
	ErrInvalidHeader = errors.New("invalid ascii grid header")
	// ErrInvalidBody is returned when the cell values do not match the header dimensions.
	ErrInvalidBody = errors.New("invalid ascii grid body")
)

// headerKeys are the six header lines in file order.
var headerKeys = []string{"ncols", "nrows", "xllcorner", "yllcorner", "cellsize", "nodata_value"}

// Grid is a parsed ASCII grid. Values[0] is the northernmost row; NODATA cells are nil.
type Grid struct {
	Name     string       `json:"name"`
	Values   [][]*float64 `json:"-"`
	XCorner  float64      `json:"xllcorner"`
	YCorner  float64      `json:"yllcorner"`
	CellSize float64      `json:"cellsize"`
	NoData   float64      `json:"nodata_value"`
	Cols     int          `json:"ncols"`
	Rows     int          `json:"nrows"`
}

// ParseASCII reads a grid: six "key value" header lines followed by nrows × ncols
// whitespace separated values.
func ParseASCII(name string, r io.Reader) (*Grid, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(bufio.ScanWords)

	header := make(map[string]float64, len(headerKeys))
	for _, want := range headerKeys {
		if !scanner.Scan() {
			return nil, fmt.Errorf("%w: missing %s", ErrInvalidHeader, want)
		}
		if key := scanner.Text(); !strings.EqualFold(key, want) {
			return nil, fmt.Errorf("%w: expected %s, got %q", ErrInvalidHeader, want, key)
		}
		if !scanner.Scan() {
			return nil, fmt.Errorf("%w: missing value for %s", ErrInvalidHeader, want)
		}
		v, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidHeader, want, err)
		}
		header[want] = v
	}

	g := &Grid{
		Name:     name,
		Cols:     int(header["ncols"]),
		Rows:     int(header["nrows"]),
		XCorner:  header["xllcorner"],
		YCorner:  header["yllcorner"],
		CellSize: header["cellsize"],
		NoData:   header["nodata_value"],
	}
	if g.Cols <= 0 || g.Rows <= 0 || g.CellSize <= 0 {
		return nil, fmt.Errorf("%w: ncols, nrows and cellsize must be positive", ErrInvalidHeader)
	}

	g.Values = make([][]*float64, g.Rows)
	for row := range g.Values {
		g.Values[row] = make([]*float64, g.Cols)
		for col := range g.Values[row] {
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return nil, fmt.Errorf("failed to read grid %s: %w", name, err)
				}
				return nil, fmt.Errorf("%w: expected %d values, got %d", ErrInvalidBody, g.Rows*g.Cols, row*g.Cols+col)
			}
			v, err := strconv.ParseFloat(scanner.Text(), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d col %d: %v", ErrInvalidBody, row, col, err)
			}
			if v != g.NoData {
				g.Values[row][col] = &v
			}
		}
	}
	if scanner.Scan() {
		return nil, fmt.Errorf("%w: more than %d values", ErrInvalidBody, g.Rows*g.Cols)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read grid %s: %w", name, err)
	}

	return g, nil
}

// Bounds is the extent covered by the grid.
func (g *Grid) Bounds() *geom.Bounds {
	return geom.NewBounds(geom.XY).Set(
		g.XCorner, g.YCorner,
		g.XCorner+float64(g.Cols)*g.CellSize, g.YCorner+float64(g.Rows)*g.CellSize,
	)
}

// Contains reports whether (x, y) lies strictly inside the grid extent.
func (g *Grid) Contains(x, y float64) bool {
	b := g.Bounds()
	return x > b.Min(0) && x < b.Max(0) && y > b.Min(1) && y < b.Max(1)
}

// Lookup returns the value of the grid point nearest to (x, y). Coordinates are rounded
// to the nearest multiple of the cell size; indexes landing on the top or right edge
// fall back to the last row or column. ok is false outside the grid.
func (g *Grid) Lookup(x, y float64) (value *float64, ok bool) {
	if !g.Contains(x, y) {
		return nil, false
	}

	roundX := g.CellSize * math.RoundToEven(x/g.CellSize)
	roundY := g.CellSize * math.RoundToEven(y/g.CellSize)

	col := clamp(int((roundX-g.XCorner)/g.CellSize), g.Cols)
	row := clamp(int(float64(g.Rows)-(roundY-g.YCorner)/g.CellSize), g.Rows)

	return g.Values[row][col], true
}

func clamp(i, n int) int {
	return max(0, min(i, n-1))
}

// GroundLevel looks up (x, y) across grids. Later grids take precedence; a NODATA cell
// never hides a value from another grid.
func GroundLevel(grids []*Grid, x, y float64) *float64 {
	for i := len(grids) - 1; i >= 0; i-- {
		if v, ok := grids[i].Lookup(x, y); ok && v != nil {
			level := *v
			return &level
		}
	}
	return nil
}

// FillGroundLevels sets the ground level of every property that has none from the
// grids and returns how many were filled. Known ground levels are left untouched.
func FillGroundLevels(props []models.Property, grids []*Grid) int {
	filled := 0
	for i := range props {
		if props[i].GroundLevel != nil {
			continue
		}
		if level := GroundLevel(grids, props[i].Easting, props[i].Northing); level != nil {
			props[i].GroundLevel = level
			filled++
		}
	}
	return filled
}
