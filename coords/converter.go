// Package coords implements the stateless CoordinateConverter that maps
// between grid cells and screen pixels (spec §6.1).
package coords

// Converter is an affine grid<->pixel transform configured with a cell
// size, a border allowance, an anchor offset (where grid (0,0) sits on
// screen), and the current viewport pixel offset.
type Converter struct {
	CellSize      int
	CellBorder    int
	AnchorX       int
	AnchorY       int
	ViewportX     int
	ViewportY     int
}

// New returns a Converter with the given cell size; border and offsets
// default to zero until calibrated or set by the host.
func New(cellSize int) *Converter {
	return &Converter{CellSize: cellSize}
}

// GridToScreen converts a grid coordinate to pixel coordinates of the
// cell's top-left corner, accounting for anchor and viewport offset.
func (c *Converter) GridToScreen(x, y int) (px, py int) {
	stride := c.CellSize + c.CellBorder
	px = c.AnchorX + x*stride - c.ViewportX
	py = c.AnchorY + y*stride - c.ViewportY
	return
}

// ScreenToGrid converts pixel coordinates back to the grid cell
// containing them.
func (c *Converter) ScreenToGrid(px, py int) (x, y int) {
	stride := c.CellSize + c.CellBorder
	if stride == 0 {
		return 0, 0
	}
	x = (px + c.ViewportX - c.AnchorX) / stride
	y = (py + c.ViewportY - c.AnchorY) / stride
	return
}

// CalibrateCellSize adapts CellSize to a runtime pixel measurement (e.g.
// derived from a detected grid line spacing).
func (c *Converter) CalibrateCellSize(measuredPx int) {
	if measuredPx > 0 {
		c.CellSize = measuredPx
	}
}

// SetViewport updates the current viewport pixel offset.
func (c *Converter) SetViewport(x, y int) {
	c.ViewportX = x
	c.ViewportY = y
}

// SetAnchor sets the screen pixel origin of grid cell (0,0), normally
// determined once the host locates the game canvas.
func (c *Converter) SetAnchor(x, y int) {
	c.AnchorX = x
	c.AnchorY = y
}
