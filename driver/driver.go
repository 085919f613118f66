// Package driver defines the BrowserDriver contract (spec §6.1) plus a
// deterministic null implementation for tests and the demo binary.
package driver

import (
	"context"
	"image"
)

// BrowserDriver is the collaborator interface translating grid-level
// actions into browser-level operations. All operations may block and
// may fail.
type BrowserDriver interface {
	ClickCell(ctx context.Context, x, y int) (bool, error)
	FlagCell(ctx context.Context, x, y int) (bool, error)
	DoubleClickCell(ctx context.Context, x, y int) (bool, error)
	ScrollTo(ctx context.Context, dx, dy int) (bool, error)
	CurrentViewport(ctx context.Context) (x, y, width, height int, err error)
	TakeScreenshot(ctx context.Context) (image.Image, error)
}
