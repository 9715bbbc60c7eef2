package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ByLCY/labelmaker/config"
	"github.com/ByLCY/labelmaker/generator"
	"github.com/ByLCY/labelmaker/layout"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

type blockingRenderer struct{}

func (blockingRenderer) Render(ctx context.Context, _ *layout.Result) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type errorBody struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func newTestServer(t *testing.T, opts generator.Options, mutate func(*config.ServerConfig)) *Server {
	t.Helper()
	if opts.Canvas.Width == 0 {
		opts.Canvas = layout.DefaultCanvas()
	}
	opts.NoLogo = true
	opts.Logger = quietLogger()
	gen, err := generator.New(opts)
	require.NoError(t, err)

	cfg := config.Default().Server
	cfg.Mode = gin.TestMode
	if mutate != nil {
		mutate(&cfg)
	}
	return New(gen, cfg, "Activos Fijos Etiquetas", quietLogger())
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func postForm(codes string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/labels", strings.NewReader(url.Values{"codes": {codes}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	assert.False(t, body.Success)
	return body
}

func TestFormPage(t *testing.T) {
	s := newTestServer(t, generator.Options{}, nil)
	w := do(s, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<title>Activos Fijos Etiquetas</title>")
	assert.Contains(t, body, "Ingrese un código de archivo por línea")
	assert.Contains(t, body, "Generar PDF")
	assert.Contains(t, body, "5.0 cm × 2.5 cm")
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestFormSubmit(t *testing.T) {
	s := newTestServer(t, generator.Options{}, nil)

	t.Run("generates pdf attachment", func(t *testing.T) {
		w := do(s, postForm("AF-00123\n\nAF-00124\n"))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="etiquetas.pdf"`)
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
	})

	t.Run("blank input re-renders form with error", func(t *testing.T) {
		w := do(s, postForm("  \n\t\n"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), msgNoCodes)
		assert.Contains(t, w.Body.String(), "<form")
	})
}

func TestFormSubmitUnsupportedSymbol(t *testing.T) {
	c := layout.DefaultCanvas()
	c.Symbology = "code39"
	s := newTestServer(t, generator.Options{Canvas: c}, nil)

	w := do(s, postForm("AF-1\naf-2"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "af-2")
	// 保留用户输入
	assert.Contains(t, w.Body.String(), "AF-1\naf-2")
}

func TestLabelsAPI(t *testing.T) {
	s := newTestServer(t, generator.Options{}, nil)

	w := do(s, postJSON("/api/v1/labels", `{"codes":["AF-1","AF-2","AF-3"]}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"missing codes", `{}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"empty list", `{"codes":[]}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"malformed json", `{"codes":`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"only blanks", `{"codes":["  ",""]}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"blank entry", `{"codes":["AF-1",""]}`, http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(s, postJSON("/api/v1/labels", tc.body))
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, decodeError(t, w).Error.Code)
		})
	}
}

func TestLabelsAPIMaxCodes(t *testing.T) {
	s := newTestServer(t, generator.Options{MaxCodes: 2}, nil)
	w := do(s, postJSON("/api/v1/labels", `{"codes":["A","B","C"]}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decodeError(t, w).Error.Code)
}

func TestLabelsAPIUnsupportedSymbol(t *testing.T) {
	c := layout.DefaultCanvas()
	c.Symbology = "code39"
	s := newTestServer(t, generator.Options{Canvas: c}, nil)

	w := do(s, postJSON("/api/v1/labels", `{"codes":["AF-1","af-2"]}`))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "UNSUPPORTED_SYMBOL", body.Error.Code)
	assert.Contains(t, body.Error.Message, "af-2")
}

func TestGenerateTimeout(t *testing.T) {
	s := newTestServer(t, generator.Options{Renderer: blockingRenderer{}}, func(cfg *config.ServerConfig) {
		cfg.GenerateTimeout = 20 * time.Millisecond
	})
	w := do(s, postJSON("/api/v1/labels", `{"codes":["AF-1"]}`))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, "TIMEOUT", decodeError(t, w).Error.Code)

	w = do(s, postForm("AF-1"))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), msgTimeout)
}

func TestBodyLimit(t *testing.T) {
	s := newTestServer(t, generator.Options{}, func(cfg *config.ServerConfig) {
		cfg.MaxBodySize = 16
	})
	w := do(s, postJSON("/api/v1/labels", `{"codes":["AF-00000000000000001"]}`))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "REQUEST_TOO_LARGE", decodeError(t, w).Error.Code)
}

func TestLayoutAPI(t *testing.T) {
	s := newTestServer(t, generator.Options{}, nil)
	w := do(s, postJSON("/api/v1/layout", `{"codes":["AF-1"," AF-2 "]}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res layout.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Pages, 2)
	assert.Equal(t, "AF-2", res.Pages[1].Code)
	assert.InDelta(t, 50.0, res.Pages[0].Width, 1e-9)
	assert.InDelta(t, 14.5, res.Pages[0].Barcode.Y, 1e-9)
	assert.Equal(t, "code128", res.Pages[0].Barcode.Symbology)

	w = do(s, postJSON("/api/v1/layout", `{"codes":["AF-1",""," ","AF-2"]}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decodeError(t, w).Error.Code)
}

func TestBarcodePreview(t *testing.T) {
	s := newTestServer(t, generator.Options{}, nil)

	w := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/barcode?code=AF-1&w=300&h=80", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())

	for _, target := range []string{
		"/api/v1/barcode",
		"/api/v1/barcode?code=AF-1&w=abc",
		"/api/v1/barcode?code=AF-1&h=99999",
	} {
		w := do(s, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t, generator.Options{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-42")
	w := do(s, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(requestIDHeader))
	assert.JSONEq(t, `{"status":"ok","symbology":"code128","logo":false}`, w.Body.String())
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, generator.Options{}, func(cfg *config.ServerConfig) {
		cfg.ShutdownTimeout = time.Second
	})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	transport := &http.Transport{DisableKeepAlives: true}
	defer transport.CloseIdleConnections()
	client := &http.Client{Transport: transport, Timeout: 5 * time.Second}

	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("服务在取消后未退出")
	}
}

func TestRunReportsListenError(t *testing.T) {
	s := newTestServer(t, generator.Options{}, func(cfg *config.ServerConfig) {
		cfg.Addr = "127.0.0.1:99999"
	})
	err := s.Run(context.Background())
	assert.Error(t, err)
}
