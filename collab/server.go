// ==============================================================================================
// FILE: collab/server.go
// ==============================================================================================
// PACKAGE: collab
// PURPOSE: The HTTP server collaborator, kept deliberately separate from the
//          Graphics collaborator (spec.md's closure of Open Question #4 -
//          the Python original bundles both into one GraphicsStub class).
//          EchoServer binds `request` into a handler callback and treats a
//          non-nil returned value as the response body, matching
//          graphics_stub.py's start_server semantics.
// ==============================================================================================

package collab

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Request is bound to the gopa variable `request` before a handler body runs.
type Request struct {
	Path    string
	Query   map[string]string
	Headers map[string]string
	Body    map[string]any
}

// Handler runs a registered gopa handler body against req and returns the
// value (if any) a `return` statement inside it produced.
type Handler func(req Request) (result any, err error)

// Server is gopa's HTTP server collaborator interface.
type Server interface {
	RegisterHandler(method, path string, handler Handler)
	Start(port int) error
}

// EchoServer implements Server with labstack/echo.
type EchoServer struct {
	echo *echo.Echo
}

func NewEchoServer() *EchoServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return &EchoServer{echo: e}
}

func (s *EchoServer) RegisterHandler(method, path string, handler Handler) {
	wrapped := func(c echo.Context) error {
		req := Request{
			Path:    c.Request().URL.Path,
			Query:   flattenQuery(c),
			Headers: flattenHeaders(c),
			Body:    map[string]any{},
		}
		result, err := handler(req)
		if err != nil {
			return c.NoContent(http.StatusInternalServerError)
		}
		if result == nil {
			return c.NoContent(http.StatusOK)
		}
		switch v := result.(type) {
		case string:
			return c.String(http.StatusOK, v)
		default:
			encoded, marshalErr := json.Marshal(v)
			if marshalErr != nil {
				return c.NoContent(http.StatusInternalServerError)
			}
			return c.JSONBlob(http.StatusOK, encoded)
		}
	}

	switch method {
	case http.MethodGet:
		s.echo.GET(path, wrapped)
	case http.MethodPost:
		s.echo.POST(path, wrapped)
	default:
		s.echo.Any(path, wrapped)
	}
}

func (s *EchoServer) Start(port int) error {
	return s.echo.Start(":" + strconv.Itoa(port))
}

func flattenQuery(c echo.Context) map[string]string {
	out := map[string]string{}
	for k, v := range c.QueryParams() {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func flattenHeaders(c echo.Context) map[string]string {
	out := map[string]string{}
	for k, v := range c.Request().Header {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
