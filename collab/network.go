// ==============================================================================================
// FILE: collab/network.go
// ==============================================================================================
// PACKAGE: collab
// PURPOSE: The network collaborator - a deliberately thin HTTP client used by
//          gopa's `get` and `add ... to "url" using ...` sugar. Out of scope:
//          retries, TLS configuration, connection pooling tuning - a real
//          network stack is explicitly a non-goal; this just issues one
//          request and decodes a JSON body when present.
// ==============================================================================================

package collab

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Network is gopa's HTTP collaborator interface.
type Network interface {
	Get(rawURL string, params map[string]string) (status int, body any, err error)
	Post(rawURL string, params map[string]any) (status int, body any, err error)
}

// HTTPNetwork is the one concrete Network implementation: a stdlib
// net/http.Client with a fixed 10s timeout, matching spec.md's external
// interface description.
type HTTPNetwork struct {
	Client *http.Client
}

func NewHTTPNetwork() *HTTPNetwork {
	return &HTTPNetwork{Client: &http.Client{Timeout: 10 * time.Second}}
}

func (n *HTTPNetwork) Get(rawURL string, params map[string]string) (int, any, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, nil, err
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	resp, err := n.Client.Get(u.String())
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, decodeBody(resp.Body), nil
}

func (n *HTTPNetwork) Post(rawURL string, params map[string]any) (int, any, error) {
	payload, err := json.Marshal(params)
	if err != nil {
		return 0, nil, err
	}
	resp, err := n.Client.Post(rawURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, decodeBody(resp.Body), nil
}

func decodeBody(r io.Reader) any {
	raw, err := io.ReadAll(r)
	if err != nil {
		return ""
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err == nil {
		return parsed
	}
	return string(raw)
}
