package layout

import (
	"fmt"
	"math"

	"github.com/ByLCY/labelmaker/binding"
)

// ComputeLayout 计算单个条码标签的摆放：自上而下依次为 logo（可选）、条码、文字，均水平居中。
// logo 为 nil 表示本次不绘制 logo。函数不做任何 I/O，相同输入总是得到相同结果。
func ComputeLayout(c Canvas, code string, logo Logo, sym Symbology) (Page, error) {
	if code == "" {
		return Page{}, &InvalidInputError{Reason: "条码不能为空"}
	}
	if sym == nil {
		return Page{}, fmt.Errorf("layout: 缺少条码编码器 Symbology")
	}

	page := Page{Code: code, Width: c.Width, Height: c.Height}
	centerX := c.Width / 2
	cursor := c.Height - c.MarginY

	if logo != nil {
		if box, ok := placeLogo(c, logo, cursor); ok {
			page.Logo = &box
			cursor = box.Y - c.LogoGap
		}
	}

	modules, err := sym.Encode(code)
	if err != nil {
		return Page{}, &UnsupportedSymbolError{Code: code, Symbology: sym.Name(), Err: err}
	}
	width := float64(len(modules)+2*c.QuietZone) * c.BarWidth
	// 即使 logo 占用过多空间，条码也不越过下边距；此时可能与 logo 重叠，仅记录不修正。
	barcodeY := math.Max(c.MarginY, cursor-c.BarcodeHeight)
	page.Barcode = BarcodeBox{
		Rect: Rect{
			X:      centerX - width/2,
			Y:      barcodeY,
			Width:  width,
			Height: c.BarcodeHeight,
		},
		Symbology:   sym.Name(),
		ModuleWidth: c.BarWidth,
		QuietZone:   c.QuietZone,
		Modules:     modules,
		ModuleCount: len(modules),
	}
	if page.Logo != nil && page.Barcode.Top() > page.Logo.Y {
		page.Overflow = append(page.Overflow, Overflow{
			Kind:   OverflowBarcodeOverLogo,
			Detail: fmt.Sprintf("条码顶部 %.3fmm 高于 logo 底部 %.3fmm", page.Barcode.Top(), page.Logo.Y),
		})
	}
	if bars := float64(len(modules)) * c.BarWidth; bars > c.Width {
		page.Overflow = append(page.Overflow, Overflow{
			Kind:   OverflowBarcodeWidth,
			Detail: fmt.Sprintf("条带宽 %.3fmm 超出标签宽度 %.3fmm", bars, c.Width),
		})
	}

	page.Caption = Caption{
		Text:     captionText(c.CaptionTemplate, code),
		X:        centerX,
		Y:        math.Max(c.MarginY/2, barcodeY-(c.CaptionGap+c.CaptionOffset)),
		Font:     c.CaptionFont,
		FontSize: c.CaptionSize,
		Color:    c.Ink,
	}
	return page, nil
}

// placeLogo 按可用区域等比缩放 logo。条码和文字优先：空间不足时直接放弃 logo。
func placeLogo(c Canvas, logo Logo, cursor float64) (ImageBox, bool) {
	available := c.AvailableLogoHeight()
	if available <= 0 {
		return ImageBox{}, false
	}
	maxHeight := math.Max(available-c.LogoGap, 0)
	if maxHeight == 0 {
		return ImageBox{}, false
	}
	w, h := logo.Size()
	if w <= 0 || h <= 0 {
		return ImageBox{}, false
	}
	scale := math.Min(c.ContentWidth()/w, maxHeight/h)
	if scale <= 0 {
		return ImageBox{}, false
	}
	sw, sh := w*scale, h*scale
	return ImageBox{
		Rect: Rect{
			X:      (c.Width - sw) / 2,
			Y:      cursor - sh,
			Width:  sw,
			Height: sh,
		},
		Scale:  scale,
		Source: logo,
	}, true
}

func captionText(template, code string) string {
	if template == "" {
		return code
	}
	return binding.Caption(template, code)
}
