package inttest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/partyhub/partyhub/internal/handler"
	"github.com/partyhub/partyhub/internal/server"
	"github.com/stretchr/testify/require"
)

// SetupHTTPServer serves the engine built by server.GetEngine, after routes have been registered
// through register, on a local port.
func SetupHTTPServer(t *testing.T, register func(engine *gin.Engine)) *HTTPClient {
	t.Helper()

	require.NoError(t, handler.RegisterValidation(), "failed to register validators")
	gin.SetMode(gin.TestMode)

	engine := server.GetEngine(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	register(engine)

	srv := httptest.NewServer(engine.Handler())
	t.Cleanup(srv.Close)

	return &HTTPClient{Client: srv.Client(), ServerURL: srv.URL}
}

// HTTPClient sends requests to the server started by SetupHTTPServer and fails the test on any
// unexpected status.
type HTTPClient struct {
	Client    *http.Client
	ServerURL string
}

func WithHeader(key string, value string) func(http.Header) {
	return func(header http.Header) {
		header.Add(key, value)
	}
}

// WithBasicAuth is how clients sign in.
func WithBasicAuth(email string, password string) func(http.Header) {
	return func(header http.Header) {
		r := http.Request{Header: header}
		r.SetBasicAuth(email, password)
	}
}

func WithAuthToken(token string) func(http.Header) {
	return WithHeader("Authorization", "Bearer "+token)
}

func withJSON(body io.Reader, headers []func(http.Header)) []func(http.Header) {
	if body == nil {
		return headers
	}
	return append(headers, func(header http.Header) {
		if header.Get("Content-Type") == "" {
			header.Set("Content-Type", "application/json")
		}
	})
}

// Get expects a 200.
func (hc *HTTPClient) Get(t *testing.T, path string, headers ...func(http.Header)) []byte {
	t.Helper()
	return hc.Do(t, http.MethodGet, path, nil, http.StatusOK, headers...)
}

// Post expects a 201.
func (hc *HTTPClient) Post(t *testing.T, path string, body io.Reader, headers ...func(http.Header)) []byte {
	t.Helper()
	return hc.Do(t, http.MethodPost, path, body, http.StatusCreated, headers...)
}

// Put sends body as JSON and expects a 200.
func (hc *HTTPClient) Put(t *testing.T, path string, body io.Reader, headers ...func(http.Header)) []byte {
	t.Helper()
	return hc.Do(t, http.MethodPut, path, body, http.StatusOK, withJSON(body, headers)...)
}

// Delete expects a 202.
func (hc *HTTPClient) Delete(t *testing.T, path string, headers ...func(http.Header)) []byte {
	t.Helper()
	return hc.Do(t, http.MethodDelete, path, nil, http.StatusAccepted, headers...)
}

// Do sends the request and returns the whole response body once the status matched expectedStatus.
func (hc *HTTPClient) Do(t *testing.T, method, path string, body io.Reader, expectedStatus int, headers ...func(http.Header)) []byte {
	t.Helper()

	what := fmt.Sprintf("%s %s", method, path)
	req, err := http.NewRequest(method, hc.ServerURL+path, body)
	require.NoError(t, err, what)
	for _, apply := range headers {
		apply(req.Header)
	}

	res, err := hc.Client.Do(req)
	require.NoError(t, err, what)
	defer func() { require.NoError(t, res.Body.Close(), what) }()

	payload, err := io.ReadAll(res.Body)
	require.NoError(t, err, what)
	require.Equalf(t, expectedStatus, res.StatusCode, "%s responded with %q", what, payload)
	return payload
}

func (hc *HTTPClient) GetJSON(t *testing.T, path string, v any, headers ...func(http.Header)) {
	t.Helper()
	decodeJSON(t, hc.Get(t, path, headers...), v)
}

// PostJSON sends body as JSON, expects a 201 and decodes the response into v.
func (hc *HTTPClient) PostJSON(t *testing.T, path string, body io.Reader, v any, headers ...func(http.Header)) {
	t.Helper()
	decodeJSON(t, hc.Post(t, path, body, withJSON(body, headers)...), v)
}

func (hc *HTTPClient) PutJSON(t *testing.T, path string, body io.Reader, v any, headers ...func(http.Header)) {
	t.Helper()
	decodeJSON(t, hc.Put(t, path, body, headers...), v)
}

func decodeJSON(t *testing.T, payload []byte, v any) {
	t.Helper()
	require.NoErrorf(t, json.Unmarshal(payload, v), "failed to decode %q", payload)
}

// Multipart builds a multipart/form-data body holding content in the "file" part next to the given
// fields. The returned header option sets the matching content type.
func Multipart(t *testing.T, filename string, content []byte, fields map[string]string) (io.Reader, func(http.Header)) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, w.WriteField(key, value))
	}
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return &body, WithHeader("Content-Type", w.FormDataContentType())
}
