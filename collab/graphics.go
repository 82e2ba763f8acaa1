// ==============================================================================================
// FILE: collab/graphics.go
// ==============================================================================================
// PACKAGE: collab
// PURPOSE: Narrow interfaces for gopa's external collaborators - graphics,
//          network, files, python interop, and the HTTP server - plus one
//          minimal concrete implementation of each, mirroring the role
//          gopa_lang/graphics_stub.py's GraphicsStub plays in the original:
//          enough to observe the program's intent, nothing resembling real
//          rendering, a real network stack, or real CPython execution.
// ==============================================================================================

package collab

import (
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Canvas is the handle returned by Graphics.CreateCanvas.
type Canvas struct {
	ID     string
	Width  int
	Height int
}

// MouseClickHandler is invoked by Graphics.SimulateClick for every handler
// registered via Graphics.OnMouseClick, receiving the simulated coordinates.
type MouseClickHandler func(x, y int) error

// Graphics is gopa's drawing/event surface. The only implementation shipped
// here, TraceGraphics, writes one line per call to an io.Writer instead of
// rendering anything, the same trade the Python GraphicsStub makes.
type Graphics interface {
	CreateCanvas(width, height int) (Canvas, error)
	DrawCircle(x, y, size int, color string) error
	DrawRectangle(x1, y1, x2, y2 int, color string) error
	DrawLine(x1, y1, x2, y2 int, color string) error
	DrawText(text string, x, y, size int, color string) error
	OnMouseClick(canvas Canvas, handler MouseClickHandler)
	SimulateClick(x, y int) error
}

// TraceGraphics logs every draw/event call to Out instead of rendering it.
type TraceGraphics struct {
	Out      io.Writer
	handlers []registeredHandler
}

type registeredHandler struct {
	canvas  Canvas
	handler MouseClickHandler
}

func NewTraceGraphics(out io.Writer) *TraceGraphics {
	return &TraceGraphics{Out: out}
}

func (g *TraceGraphics) CreateCanvas(width, height int) (Canvas, error) {
	c := Canvas{ID: uuid.NewString(), Width: width, Height: height}
	fmt.Fprintf(g.Out, "[canvas] created %dx%d (%s)\n", width, height, c.ID)
	return c, nil
}

func (g *TraceGraphics) DrawCircle(x, y, size int, color string) error {
	fmt.Fprintf(g.Out, "[canvas] circle x=%d y=%d size=%d color=%s\n", x, y, size, color)
	return nil
}

func (g *TraceGraphics) DrawRectangle(x1, y1, x2, y2 int, color string) error {
	fmt.Fprintf(g.Out, "[canvas] rectangle from %d,%d to %d,%d color=%s\n", x1, y1, x2, y2, color)
	return nil
}

func (g *TraceGraphics) DrawLine(x1, y1, x2, y2 int, color string) error {
	fmt.Fprintf(g.Out, "[canvas] line from %d,%d to %d,%d color=%s\n", x1, y1, x2, y2, color)
	return nil
}

func (g *TraceGraphics) DrawText(text string, x, y, size int, color string) error {
	fmt.Fprintf(g.Out, "[canvas] text '%s' at %d,%d size=%d color=%s\n", text, x, y, size, color)
	return nil
}

func (g *TraceGraphics) OnMouseClick(canvas Canvas, handler MouseClickHandler) {
	g.handlers = append(g.handlers, registeredHandler{canvas: canvas, handler: handler})
	fmt.Fprintln(g.Out, "[event] registered mouse click handler")
}

func (g *TraceGraphics) SimulateClick(x, y int) error {
	for _, h := range g.handlers {
		if err := h.handler(x, y); err != nil {
			return err
		}
	}
	return nil
}
