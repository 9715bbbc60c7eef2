package canvasrenderer

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/labelmaker/barcode"
	"github.com/ByLCY/labelmaker/fonts"
	"github.com/ByLCY/labelmaker/layout"
	"github.com/ByLCY/labelmaker/logo"
	"github.com/ByLCY/labelmaker/renderer"
)

// DefaultDPI 是位图 logo 嵌入 PDF 前重采样的分辨率。
const DefaultDPI = 300

// Renderer draws label layouts via github.com/tdewolff/canvas.
type Renderer struct {
	baseDir string
	dpi     float64

	fontMu       sync.Mutex
	fontFamilies map[string]*fontFamilyEntry
}

var _ renderer.Renderer = (*Renderer)(nil)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options configures the canvas renderer.
type Options struct {
	// BaseDir 用于解析以路径给出的字体文件（.ttf/.otf）。
	BaseDir string
	// DPI 为位图 logo 的重采样分辨率，<=0 时使用 DefaultDPI。
	DPI float64
}

// NewRenderer creates a canvas-based renderer.
func NewRenderer(opts Options) *Renderer {
	dpi := opts.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Renderer{
		baseDir:      opts.BaseDir,
		dpi:          dpi,
		fontFamilies: map[string]*fontFamilyEntry{},
	}
}

// Render renders every page of the result into one PDF, one label per page.
func (r *Renderer) Render(ctx context.Context, result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, result.Pages[0].Width, result.Pages[0].Height, nil)
	r.applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c := canvas.New(page.Width, page.Height)
		cctx := canvas.NewContext(c)
		if err := r.drawPage(c, cctx, page); err != nil {
			return nil, fmt.Errorf("第 %d 页 (%s): %w", i+1, page.Code, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// drawPage 按 logo、条码、文字的顺序绘制；坐标系为左下角原点、y 轴向上。
func (r *Renderer) drawPage(c *canvas.Canvas, ctx *canvas.Context, page layout.Page) error {
	if page.Logo != nil {
		r.drawLogo(c, ctx, *page.Logo)
	}
	r.drawBarcode(ctx, page.Barcode, page.Caption.Color)
	return r.drawCaption(ctx, page.Caption)
}

func (r *Renderer) drawLogo(c *canvas.Canvas, ctx *canvas.Context, box layout.ImageBox) {
	asset, ok := box.Source.(*logo.Asset)
	if !ok || asset == nil {
		return
	}
	if asset.IsVector() {
		view := canvas.Identity.Translate(box.X, box.Y).Scale(box.Scale, box.Scale)
		asset.Vector.RenderViewTo(c, view)
		return
	}
	img := asset.Raster(box.Width, box.Height, r.dpi)
	if img == nil || box.Width <= 0 {
		return
	}
	dpmm := float64(img.Bounds().Dx()) / box.Width
	if dpmm <= 0 {
		dpmm = 1
	}
	ctx.DrawImage(box.X, box.Y, img, canvas.DPMM(dpmm))
}

// drawBarcode 将相邻黑模块合并为矩形后填充，不描边。
func (r *Renderer) drawBarcode(ctx *canvas.Context, box layout.BarcodeBox, ink layout.Color) {
	ctx.SetFillColor(colorFromLayout(ink))
	ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	ctx.SetStrokeWidth(0)
	x0 := box.BarsX()
	for _, run := range barcode.Bars(box.Modules) {
		x := x0 + float64(run.Start)*box.ModuleWidth
		ctx.DrawPath(x, box.Y, canvas.Rectangle(float64(run.Width)*box.ModuleWidth, box.Height))
	}
}

func (r *Renderer) drawCaption(ctx *canvas.Context, caption layout.Caption) error {
	if caption.Text == "" {
		return nil
	}
	face, err := r.fontFace(caption.Font, caption.FontSize, caption.Color)
	if err != nil {
		return err
	}
	ctx.DrawText(caption.X, caption.Y, canvas.NewTextLine(face, caption.Text, canvas.Center))
	return nil
}

// TextWidth 返回文字在给定字体与字号（pt）下的宽度（mm）。
func (r *Renderer) TextWidth(font string, sizePt float64, text string) (float64, error) {
	face, err := r.fontFace(font, sizePt, layout.Color{})
	if err != nil {
		return 0, err
	}
	return face.TextWidth(text), nil
}

func (r *Renderer) fontFace(font string, sizePt float64, col layout.Color) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(sizePt, colorFromLayout(col), style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font string) (*canvas.FontFamily, canvas.FontStyle, error) {
	if font == "" {
		font = layout.DefaultCaptionFont
	}
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[font]; ok {
		return entry.family, entry.style, nil
	}

	entry, err := r.loadFamily(font)
	if err != nil {
		if font == layout.DefaultCaptionFont {
			return nil, canvas.FontRegular, err
		}
		fallback, fbErr := r.loadFamily(layout.DefaultCaptionFont)
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		entry = fallback
	}
	r.fontFamilies[font] = entry
	return entry.family, entry.style, nil
}

func (r *Renderer) loadFamily(font string) (*fontFamilyEntry, error) {
	var (
		data  []byte
		style canvas.FontStyle
	)
	if isFontFile(font) {
		path := font
		if !filepath.IsAbs(path) && r.baseDir != "" {
			path = filepath.Join(r.baseDir, path)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取字体 %s 失败: %w", font, err)
		}
		data = b
		style = parseFontStyle(strings.TrimSuffix(filepath.Base(font), filepath.Ext(font)))
	} else {
		b, s, err := fonts.Load(font)
		if err != nil {
			return nil, err
		}
		data = b
		style = canvasStyle(s)
	}
	family := canvas.NewFontFamily(font)
	if err := family.LoadFont(data, 0, style); err != nil {
		return nil, fmt.Errorf("加载字体 %s 失败: %w", font, err)
	}
	return &fontFamilyEntry{family: family, style: style}, nil
}

func isFontFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ttf", ".otf":
		return true
	}
	return false
}

func canvasStyle(s fonts.Style) canvas.FontStyle {
	switch s {
	case fonts.Bold:
		return canvas.FontBold
	case fonts.Italic:
		return canvas.FontRegular | canvas.FontItalic
	case fonts.BoldItalic:
		return canvas.FontBold | canvas.FontItalic
	default:
		return canvas.FontRegular
	}
}

// parseFontStyle 从字体文件名推断样式，例如 "Inter-BoldItalic"。
func parseFontStyle(style string) canvas.FontStyle {
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}
