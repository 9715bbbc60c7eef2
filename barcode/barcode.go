// Package barcode 把条码字符串编码成一维模块序列，供布局与渲染使用。
// 编码本身交给 boombuler/barcode，这里只负责选择码制并把位图展开成 []bool。
package barcode

import (
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/code93"
)

// Symbology 是一种一维码制。Encode 返回的切片中 true 表示黑条模块。
type Symbology interface {
	Name() string
	Encode(code string) ([]bool, error)
}

type encodeFunc func(content string) (barcode.Barcode, error)

type symbology struct {
	name   string
	encode encodeFunc
}

func (s symbology) Name() string { return s.name }

func (s symbology) Encode(code string) ([]bool, error) {
	bc, err := s.encode(code)
	if err != nil {
		return nil, fmt.Errorf("%s 编码失败: %w", s.name, err)
	}
	return modules(bc), nil
}

var registry = map[string]symbology{
	"code128": {name: "code128", encode: func(c string) (barcode.Barcode, error) {
		return code128.Encode(c)
	}},
	"code39": {name: "code39", encode: func(c string) (barcode.Barcode, error) {
		return code39.Encode(c, false, false)
	}},
	"code39-full": {name: "code39-full", encode: func(c string) (barcode.Barcode, error) {
		return code39.Encode(c, true, true)
	}},
	"code93": {name: "code93", encode: func(c string) (barcode.Barcode, error) {
		return code93.Encode(c, true, false)
	}},
}

// Lookup 按名称（不区分大小写）查找码制。
func Lookup(name string) (Symbology, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = "code128"
	}
	s, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("未知条码类型 %q，可选: %s", name, strings.Join(Names(), ", "))
	}
	return s, nil
}

// Names 返回已注册的码制名称（排序后）。
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Run 是一段连续的黑条，Start 与 Width 以模块为单位。
type Run struct {
	Start int
	Width int
}

// Bars 将相邻黑模块合并为条，减少渲染时绘制的矩形数量。
func Bars(modules []bool) []Run {
	var runs []Run
	start := -1
	for i, dark := range modules {
		switch {
		case dark && start < 0:
			start = i
		case !dark && start >= 0:
			runs = append(runs, Run{Start: start, Width: i - start})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, Run{Start: start, Width: len(modules) - start})
	}
	return runs
}

// Preview 生成指定像素尺寸的条码位图，用于网页预览。
func Preview(sym Symbology, code string, width, height int) (image.Image, error) {
	s, ok := sym.(symbology)
	if !ok {
		return nil, fmt.Errorf("码制 %s 不支持预览", sym.Name())
	}
	bc, err := s.encode(code)
	if err != nil {
		return nil, fmt.Errorf("%s 编码失败: %w", s.name, err)
	}
	// 宽度不足时按每模块一像素输出
	if w := bc.Bounds().Dx(); width < w {
		width = w
	}
	if height <= 0 {
		height = 1
	}
	scaled, err := barcode.Scale(bc, width, height)
	if err != nil {
		return nil, fmt.Errorf("缩放条码失败: %w", err)
	}
	return scaled, nil
}

func modules(bc barcode.Barcode) []bool {
	b := bc.Bounds()
	out := make([]bool, 0, b.Dx())
	for x := b.Min.X; x < b.Max.X; x++ {
		r, g, bl, _ := bc.At(x, b.Min.Y).RGBA()
		out = append(out, r+g+bl < 3*0x8000)
	}
	return out
}
