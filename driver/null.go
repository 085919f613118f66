package driver

import (
	"context"
	"image"
	"sync"
)

// Null is a deterministic in-memory BrowserDriver, satisfying spec §9's
// design note that both a real and a null/stub implementation must exist
// for testing. It tracks clicked/flagged cells and viewport position
// without touching anything outside the process.
type Null struct {
	mu       sync.Mutex
	clicked  map[[2]int]int
	flagged  map[[2]int]bool
	viewX    int
	viewY    int
	viewW    int
	viewH    int
	screen   image.Image
}

// NewNull returns a Null driver with the given initial viewport (in grid
// units) and a screenshot to serve from TakeScreenshot.
func NewNull(viewX, viewY, viewW, viewH int, screen image.Image) *Null {
	return &Null{
		clicked: make(map[[2]int]int),
		flagged: make(map[[2]int]bool),
		viewX:   viewX,
		viewY:   viewY,
		viewW:   viewW,
		viewH:   viewH,
		screen:  screen,
	}
}

func (n *Null) ClickCell(ctx context.Context, x, y int) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.clicked[[2]int{x, y}]++
	return true, nil
}

func (n *Null) FlagCell(ctx context.Context, x, y int) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.flagged[[2]int{x, y}] = !n.flagged[[2]int{x, y}]
	return true, nil
}

func (n *Null) DoubleClickCell(ctx context.Context, x, y int) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.clicked[[2]int{x, y}] += 2
	return true, nil
}

func (n *Null) ScrollTo(ctx context.Context, dx, dy int) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.viewX += dx
	n.viewY += dy
	return true, nil
}

func (n *Null) CurrentViewport(ctx context.Context) (x, y, width, height int, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.viewX, n.viewY, n.viewW, n.viewH, nil
}

func (n *Null) TakeScreenshot(ctx context.Context) (image.Image, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.screen, nil
}

// ClickCount reports how many times (x,y) was clicked, test/diagnostic
// convenience.
func (n *Null) ClickCount(x, y int) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.clicked[[2]int{x, y}]
}

// IsFlagged reports the current flagged state of (x,y).
func (n *Null) IsFlagged(x, y int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.flagged[[2]int{x, y}]
}

var _ BrowserDriver = (*Null)(nil)
