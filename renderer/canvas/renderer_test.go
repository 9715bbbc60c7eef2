package canvasrenderer

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"regexp"
	"strings"
	"testing"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/labelmaker/barcode"
	"github.com/ByLCY/labelmaker/layout"
	"github.com/ByLCY/labelmaker/logo"
)

var pageObject = regexp.MustCompile(`/Type\s*/Page\b`)

func buildResult(t *testing.T, codes []string, lg layout.Logo) *layout.Result {
	t.Helper()
	sym, err := barcode.Lookup("code128")
	if err != nil {
		t.Fatalf("查找码制失败: %v", err)
	}
	res, err := layout.Build(layout.DefaultCanvas(), codes, lg, layout.BuildOptions{
		Symbology: sym,
		Meta:      layout.DocumentMeta{Title: "Activos Fijos"},
	})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	return res
}

func TestRenderOnePagePerCode(t *testing.T) {
	r := NewRenderer(Options{})
	codes := []string{"AF-00123", "AF-00124", "AF-00125"}
	out, err := r.Render(context.Background(), buildResult(t, codes, nil))
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("输出不是 PDF: %q", out[:min(len(out), 16)])
	}
	if got := len(pageObject.FindAll(out, -1)); got != len(codes) {
		t.Fatalf("期望 %d 页，实际 %d", len(codes), got)
	}
}

func TestRenderWithRasterLogo(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 600, 150))
	for y := 0; y < 150; y++ {
		for x := 0; x < 600; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	asset := &logo.Asset{Path: "logo.png", Format: "png", Image: img}
	res := buildResult(t, []string{"AF-1"}, asset)
	if res.Pages[0].Logo == nil {
		t.Fatal("默认画布应有 logo 空间")
	}
	out, err := NewRenderer(Options{DPI: 150}).Render(context.Background(), res)
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatal("输出不是 PDF")
	}
}

func TestRenderWithVectorLogo(t *testing.T) {
	svg := `<svg xmlns="http://www.w3.org/2000/svg" width="40" height="10" viewBox="0 0 40 10"><rect width="40" height="10" fill="#000"/></svg>`
	asset, err := logo.Decode(strings.NewReader(svg), "Logo.svg")
	if err != nil {
		t.Fatalf("解析 SVG 失败: %v", err)
	}
	out, err := NewRenderer(Options{}).Render(context.Background(), buildResult(t, []string{"AF-1", "AF-2"}, asset))
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if got := len(pageObject.FindAll(out, -1)); got != 2 {
		t.Fatalf("期望 2 页，实际 %d", got)
	}
}

func TestRenderHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := NewRenderer(Options{}).Render(ctx, buildResult(t, []string{"AF-1"}, nil))
	if err == nil || out != nil {
		t.Fatalf("取消后不应返回结果: out=%d err=%v", len(out), err)
	}
}

func TestRenderRejectsEmptyResult(t *testing.T) {
	r := NewRenderer(Options{})
	if _, err := r.Render(context.Background(), nil); err == nil {
		t.Fatal("nil 结果应报错")
	}
	if _, err := r.Render(context.Background(), &layout.Result{}); err == nil {
		t.Fatal("无页面时应报错")
	}
}

func TestFontFallbackAndCache(t *testing.T) {
	r := NewRenderer(Options{})
	w1, err := r.TextWidth("Helvetica-Bold", 9, "AF-00123")
	if err != nil {
		t.Fatalf("测量文字失败: %v", err)
	}
	if w1 <= 0 {
		t.Fatalf("文字宽度应为正数: %g", w1)
	}
	// 未知字体回退到默认粗体
	w2, err := r.TextWidth("Comic-Sans", 9, "AF-00123")
	if err != nil {
		t.Fatalf("回退字体失败: %v", err)
	}
	if w1 != w2 {
		t.Fatalf("回退字体应与默认字体一致: %g vs %g", w1, w2)
	}
	if len(r.fontFamilies) != 2 {
		t.Fatalf("字体缓存数量错误: %d", len(r.fontFamilies))
	}
	w3, _ := r.TextWidth("Helvetica-Bold", 18, "AF-00123")
	if w3 <= w1 {
		t.Fatalf("字号加倍后宽度应变大: %g <= %g", w3, w1)
	}
}

func TestParseFontStyle(t *testing.T) {
	cases := map[string]canvas.FontStyle{
		"Inter-Bold":       canvas.FontBold,
		"Inter-BoldItalic": canvas.FontBold | canvas.FontItalic,
		"Inter-SemiBold":   canvas.FontSemiBold,
		"Inter-Regular":    canvas.FontRegular,
		"Inter-Italic":     canvas.FontRegular | canvas.FontItalic,
	}
	for name, want := range cases {
		if got := parseFontStyle(name); got != want {
			t.Fatalf("%s 样式错误: got=%v want=%v", name, got, want)
		}
	}
}
