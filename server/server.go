// Package server 提供生成资产标签的网页表单与 JSON 接口。
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"image/png"
	"net"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/labelmaker/barcode"
	"github.com/ByLCY/labelmaker/config"
	"github.com/ByLCY/labelmaker/generator"
	"github.com/ByLCY/labelmaker/layout"
	"github.com/ByLCY/labelmaker/renderer"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	msgNoCodes  = "Ingrese por lo menos un código."
	msgTimeout  = "La generación tardó demasiado. Intente con menos códigos."
	msgTooLarge = "El formulario es demasiado grande."

	previewMaxWidth  = 2000
	previewMaxHeight = 1000
)

// Server 把 Generator 暴露为 HTTP 服务。
type Server struct {
	gen    *generator.Generator
	cfg    config.ServerConfig
	title  string
	logger *log.Logger
	engine *gin.Engine
}

// New 创建服务并注册路由。gin 的运行模式由调用方通过 gin.SetMode 设置。
func New(gen *generator.Generator, cfg config.ServerConfig, title string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		gen:    gen,
		cfg:    cfg,
		title:  title,
		logger: logger,
		engine: gin.New(),
	}

	if err := s.engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Warn("invalid trusted proxies, trusting none", "proxies", cfg.TrustedProxies, "err", err)
		_ = s.engine.SetTrustedProxies(nil)
	}
	s.engine.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))
	s.engine.Use(gin.Recovery(), RequestID(), AccessLog(logger))

	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/", s.handleForm)

	limited := s.engine.Group("/")
	if cfg.MaxBodySize > 0 {
		limited.Use(BodyLimit(cfg.MaxBodySize))
	}
	limited.POST("/labels", s.handleFormSubmit)

	api := limited.Group("/api/v1")
	api.POST("/labels", s.handleLabels)
	api.POST("/layout", s.handleLayout)
	api.GET("/barcode", s.handleBarcode)

	return s
}

// Handler 返回路由处理器，测试与自定义 http.Server 使用。
func (s *Server) Handler() http.Handler { return s.engine }

// Run 监听配置的地址直到 ctx 结束，然后在 ShutdownTimeout 内优雅关闭。
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve 在给定 listener 上提供服务，ctx 结束时关闭。
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		s.logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http 服务异常退出: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("关闭 http 服务失败: %w", err)
		}
		return nil
	})
	return eg.Wait()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"symbology": s.gen.Symbology().Name(),
		"logo":      s.gen.HasLogo(),
	})
}

type formView struct {
	Title     string
	Codes     string
	Error     string
	WidthCM   float64
	HeightCM  float64
	Symbology string
	MaxCodes  int
}

func (s *Server) renderForm(c *gin.Context, status int, codes, message string) {
	canvas := s.gen.Canvas()
	c.HTML(status, "form.html", formView{
		Title:     s.title,
		Codes:     codes,
		Error:     message,
		WidthCM:   canvas.Width / 10,
		HeightCM:  canvas.Height / 10,
		Symbology: s.gen.Symbology().Name(),
		MaxCodes:  s.cfg.MaxCodes,
	})
}

func (s *Server) handleForm(c *gin.Context) {
	s.renderForm(c, http.StatusOK, "", "")
}

func (s *Server) handleFormSubmit(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		_ = c.Error(err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.renderForm(c, http.StatusRequestEntityTooLarge, "", msgTooLarge)
			return
		}
		s.renderForm(c, http.StatusBadRequest, "", err.Error())
		return
	}
	text := c.Request.PostForm.Get("codes")
	codes := generator.ParseCodes(text)
	if len(codes) == 0 {
		s.renderForm(c, http.StatusBadRequest, text, msgNoCodes)
		return
	}

	pdf, err := s.generate(c, codes)
	if err != nil {
		_ = c.Error(err)
		status, _ := classify(err)
		s.renderForm(c, status, text, formMessage(err))
		return
	}
	sendPDF(c, pdf)
}

type labelsRequest struct {
	Codes []string `json:"codes" binding:"required,min=1"`
}

func (s *Server) bindCodes(c *gin.Context) ([]string, bool) {
	var req labelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortJSON(c, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE", err.Error())
			return nil, false
		}
		abortJSON(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return nil, false
	}
	return req.Codes, true
}

func (s *Server) handleLabels(c *gin.Context) {
	codes, ok := s.bindCodes(c)
	if !ok {
		return
	}
	pdf, err := s.generate(c, codes)
	if err != nil {
		s.fail(c, err)
		return
	}
	sendPDF(c, pdf)
}

func (s *Server) handleLayout(c *gin.Context) {
	codes, ok := s.bindCodes(c)
	if !ok {
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()
	res, err := s.gen.Layout(ctx, codes)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleBarcode(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		abortJSON(c, http.StatusBadRequest, "INVALID_INPUT", "query parameter code is required")
		return
	}
	width, err1 := queryInt(c, "w", 400, previewMaxWidth)
	height, err2 := queryInt(c, "h", 120, previewMaxHeight)
	if err := errors.Join(err1, err2); err != nil {
		abortJSON(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	img, err := barcode.Preview(s.gen.Symbology(), code, width, height)
	if err != nil {
		_ = c.Error(err)
		abortJSON(c, http.StatusUnprocessableEntity, "UNSUPPORTED_SYMBOL", err.Error())
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Type", "image/png")
	c.Status(http.StatusOK)
	if err := png.Encode(c.Writer, img); err != nil {
		_ = c.Error(err)
	}
}

func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.cfg.GenerateTimeout > 0 {
		return context.WithTimeout(c.Request.Context(), s.cfg.GenerateTimeout)
	}
	return context.WithCancel(c.Request.Context())
}

func (s *Server) generate(c *gin.Context, codes []string) ([]byte, error) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	return s.gen.Generate(ctx, codes)
}

func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	status, code := classify(err)
	abortJSON(c, status, code, err.Error())
}

func sendPDF(c *gin.Context, pdf []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", generator.FileName))
	c.Data(http.StatusOK, renderer.ContentType, pdf)
}

// classify 把生成错误映射为 HTTP 状态码与错误码。
func classify(err error) (int, string) {
	var invalid *layout.InvalidInputError
	var unsupported *layout.UnsupportedSymbolError
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.As(err, &unsupported):
		return http.StatusUnprocessableEntity, "UNSUPPORTED_SYMBOL"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	case errors.Is(err, context.Canceled):
		return 499, "CANCELED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func formMessage(err error) string {
	var unsupported *layout.UnsupportedSymbolError
	switch {
	case errors.As(err, &unsupported):
		return fmt.Sprintf("El código %q contiene caracteres que %s no puede representar.", unsupported.Code, unsupported.Symbology)
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	default:
		return err.Error()
	}
}

func queryInt(c *gin.Context, key string, def, limit int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 || v > limit {
		return 0, fmt.Errorf("%s must be an integer between 1 and %d", key, limit)
	}
	return v, nil
}
