// Package generator 把条码列表变成 PDF：整理输入、计算布局、渲染。
// 任一步失败都不返回任何字节，调用方不会拿到只有一部分页面的文件。
package generator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ByLCY/labelmaker/barcode"
	"github.com/ByLCY/labelmaker/fonts"
	"github.com/ByLCY/labelmaker/layout"
	"github.com/ByLCY/labelmaker/logo"
	"github.com/ByLCY/labelmaker/renderer"
	canvasrenderer "github.com/ByLCY/labelmaker/renderer/canvas"
)

// FileName 是下载或默认输出的文件名。
const FileName = "etiquetas.pdf"

// Options 配置一个 Generator。
type Options struct {
	Canvas   layout.Canvas
	Meta     layout.DocumentMeta
	LogoPath string
	NoLogo   bool
	// DPI 与 FontDir 仅在未指定 Renderer 时用于创建默认的 canvas 渲染器。
	DPI      float64
	FontDir  string
	MaxCodes int
	Renderer renderer.Renderer
	Logger   *log.Logger
}

// Generator 持有一次运行中只读共享的画布、码制与 logo，可被并发调用。
type Generator struct {
	canvas   layout.Canvas
	meta     layout.DocumentMeta
	sym      barcode.Symbology
	logo     *logo.Asset
	renderer renderer.Renderer
	logger   *log.Logger
	maxCodes int
}

// New 校验画布、解析码制并尝试加载 logo；logo 不可用时降级为无 logo。
func New(opts Options) (*Generator, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if err := opts.Canvas.Validate(); err != nil {
		return nil, err
	}
	sym, err := barcode.Lookup(opts.Canvas.Symbology)
	if err != nil {
		return nil, err
	}
	g := &Generator{
		canvas:   opts.Canvas,
		meta:     opts.Meta,
		sym:      sym,
		renderer: opts.Renderer,
		logger:   logger,
		maxCodes: opts.MaxCodes,
	}
	if g.renderer == nil {
		g.renderer = canvasrenderer.NewRenderer(canvasrenderer.Options{BaseDir: opts.FontDir, DPI: opts.DPI})
	}
	if font := opts.Canvas.CaptionFont; !isFontFile(font) && !fonts.Has(font) {
		logger.Warn("caption font is not built in, falling back", "font", font, "fallback", layout.DefaultCaptionFont)
	}
	if !opts.NoLogo {
		if asset, ok := logo.Load(opts.LogoPath, logger); ok {
			g.logo = asset
			logger.Debug("logo loaded", "path", asset.Path, "format", asset.Format, "vector", asset.IsVector())
		}
	}
	return g, nil
}

// Canvas 返回生成器使用的画布。
func (g *Generator) Canvas() layout.Canvas { return g.canvas }

// Symbology 返回画布所用的码制。
func (g *Generator) Symbology() barcode.Symbology { return g.sym }

// HasLogo 表示本次运行是否绘制 logo。
func (g *Generator) HasLogo() bool { return g.logo != nil }

// Layout 计算全部页面的布局，不做渲染。条码只去除首尾空白，空条码由 layout.Build 拒绝。
func (g *Generator) Layout(ctx context.Context, codes []string) (*layout.Result, error) {
	codes = Trim(codes)
	if len(codes) == 0 {
		return nil, &layout.InvalidInputError{Reason: "请至少输入一个条码"}
	}
	if g.maxCodes > 0 && len(codes) > g.maxCodes {
		return nil, &layout.InvalidInputError{Reason: fmt.Sprintf("一次最多生成 %d 个标签，收到 %d 个", g.maxCodes, len(codes))}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var lg layout.Logo
	if g.logo != nil {
		lg = g.logo
	}
	res, err := layout.Build(g.canvas, codes, lg, layout.BuildOptions{Symbology: g.sym, Meta: g.meta})
	if err != nil {
		return nil, err
	}
	g.checkCaptions(res)
	for _, page := range res.Pages {
		for _, o := range page.Overflow {
			g.logger.Warn("label overflow", "code", page.Code, "kind", o.Kind, "detail", o.Detail)
		}
	}
	return res, nil
}

// Generate 为每个条码生成一页标签并返回 PDF 字节，页面顺序与输入一致。
func (g *Generator) Generate(ctx context.Context, codes []string) ([]byte, error) {
	start := time.Now()
	res, err := g.Layout(ctx, codes)
	if err != nil {
		return nil, err
	}
	out, err := g.renderer.Render(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("生成 PDF 失败: %w", err)
	}
	g.logger.Info("labels generated",
		"pages", len(res.Pages),
		"bytes", len(out),
		"logo", g.logo != nil,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return out, nil
}

// textMeasurer 由能测量文字宽度的渲染器实现。
type textMeasurer interface {
	TextWidth(font string, sizePt float64, text string) (float64, error)
}

// checkCaptions 在渲染器支持测量时，记录宽于标签的条码文字。
func (g *Generator) checkCaptions(res *layout.Result) {
	m, ok := g.renderer.(textMeasurer)
	if !ok {
		return
	}
	for i := range res.Pages {
		page := &res.Pages[i]
		w, err := m.TextWidth(page.Caption.Font, page.Caption.FontSize, page.Caption.Text)
		if err != nil {
			g.logger.Debug("measure caption failed", "code", page.Code, "err", err)
			continue
		}
		if w > page.Width {
			page.Overflow = append(page.Overflow, layout.Overflow{
				Kind:   layout.OverflowCaptionWidth,
				Detail: fmt.Sprintf("文字宽 %.3fmm 超出标签宽度 %.3fmm", w, page.Width),
			})
		}
	}
}

func isFontFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ttf", ".otf":
		return true
	}
	return false
}

// ParseCodes 将多行文本拆成条码列表，每行一个，忽略空行与首尾空白。行长不设上限。
func ParseCodes(text string) []string {
	var codes []string
	for line := range strings.Lines(text) {
		if code := strings.TrimSpace(line); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

// Trim 去除每个条码的首尾空白，保留空条码与顺序。
func Trim(codes []string) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

// Normalize 去除每个条码的首尾空白并丢弃空条码，保持原有顺序。
func Normalize(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
