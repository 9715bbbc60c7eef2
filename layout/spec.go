package layout

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ByLCY/labelmaker/dsl"
)

// LabelSpec 是标签描述文件解析后的结果：画布、PDF 元信息与 logo 设置。
type LabelSpec struct {
	Name     string       `json:"name"`
	Version  string       `json:"version,omitempty"`
	Canvas   Canvas       `json:"canvas"`
	Meta     DocumentMeta `json:"meta"`
	LogoPath string       `json:"logoPath,omitempty"`
	NoLogo   bool         `json:"noLogo,omitempty"`
}

// ParseSpec 读取并解析标签描述文件。
func ParseSpec(r io.Reader) (*LabelSpec, error) {
	doc, err := dsl.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("解析标签描述失败: %w", err)
	}
	return CanvasFromSpec(doc)
}

// CanvasFromSpec 把 DSL 文档映射到 DefaultCanvas 之上，未出现的设置保持默认值。
// 未知命令会被忽略；长度或颜色写错则报错。
func CanvasFromSpec(doc *dsl.Document) (*LabelSpec, error) {
	if doc == nil {
		return nil, fmt.Errorf("标签描述为空")
	}
	spec := &LabelSpec{
		Name:    doc.Name,
		Version: doc.Version,
		Canvas:  DefaultCanvas(),
		Meta:    DocumentMeta{Title: doc.Name},
	}
	for _, cmd := range doc.Commands() {
		var err error
		switch strings.ToLower(cmd.Name) {
		case "meta":
			collectMeta(cmd.Block, &spec.Meta)
		case "canvas":
			err = applyCanvas(cmd, &spec.Canvas)
		case "logo":
			err = applyLogo(cmd, spec)
		case "barcode":
			err = applyBarcode(cmd, &spec.Canvas)
		case "caption":
			err = applyCaption(cmd, &spec.Canvas)
		case "ink":
			err = applyInk(cmd, &spec.Canvas)
		}
		if err != nil {
			return nil, fmt.Errorf("第 %d 行 %s: %w", cmd.Pos.Line, cmd.Name, err)
		}
	}
	if err := spec.Canvas.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// canvas 5cm 2.5cm margin 2mm 1.5mm
func applyCanvas(cmd *dsl.Command, c *Canvas) error {
	positional, attrs := parseArgs(cmd.Args, "margin", "width", "height")
	sizes := make([]string, 0, 2)
	for _, v := range positional {
		if v == "x" || v == "by" {
			continue
		}
		sizes = append(sizes, v)
	}
	if len(sizes) > 2 {
		return fmt.Errorf("画布尺寸最多两个值，得到 %d 个", len(sizes))
	}
	if len(sizes) > 0 {
		attrs["width"] = sizes[:1]
	}
	if len(sizes) > 1 {
		attrs["height"] = sizes[1:2]
	}
	if err := setLength(attrs, "width", &c.Width); err != nil {
		return err
	}
	if err := setLength(attrs, "height", &c.Height); err != nil {
		return err
	}
	if m, ok := attrs["margin"]; ok {
		switch len(m) {
		case 1:
			v, err := lengthMM(m[0])
			if err != nil {
				return err
			}
			c.MarginX, c.MarginY = v, v
		case 2:
			x, err := lengthMM(m[0])
			if err != nil {
				return err
			}
			y, err := lengthMM(m[1])
			if err != nil {
				return err
			}
			c.MarginX, c.MarginY = x, y
		default:
			return fmt.Errorf("margin 需要一个或两个长度")
		}
	}
	return nil
}

// logo "Logo.svg" gap 1mm | logo none
func applyLogo(cmd *dsl.Command, spec *LabelSpec) error {
	positional, attrs := parseArgs(cmd.Args, "gap", "file")
	if len(positional) > 0 {
		switch strings.ToLower(positional[0]) {
		case "none", "off":
			spec.NoLogo = true
		default:
			spec.LogoPath = positional[0]
		}
	}
	if f := first(attrs, "file"); f != "" {
		spec.LogoPath = f
	}
	return setLength(attrs, "gap", &spec.Canvas.LogoGap)
}

// barcode code128 height 9mm bar 0.45mm quiet 10 gap 1mm
func applyBarcode(cmd *dsl.Command, c *Canvas) error {
	positional, attrs := parseArgs(cmd.Args, "height", "bar", "quiet", "gap")
	if len(positional) > 0 {
		c.Symbology = strings.ToLower(positional[0])
	}
	if err := setLength(attrs, "height", &c.BarcodeHeight); err != nil {
		return err
	}
	if err := setLength(attrs, "bar", &c.BarWidth); err != nil {
		return err
	}
	if err := setLength(attrs, "gap", &c.CaptionGap); err != nil {
		return err
	}
	if q := first(attrs, "quiet"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			return fmt.Errorf("quiet 需要整数模块数: %w", err)
		}
		c.QuietZone = n
	}
	return nil
}

// caption font "Helvetica-Bold" size 9pt offset 0.5mm text "${code}"
// 也支持块写法：caption { "AF ${code}" }
func applyCaption(cmd *dsl.Command, c *Canvas) error {
	_, attrs := parseArgs(cmd.Args, "font", "size", "offset", "text")
	if f := first(attrs, "font"); f != "" {
		c.CaptionFont = f
	}
	if s := first(attrs, "size"); s != "" {
		l, err := ParseLength(s)
		if err != nil {
			return err
		}
		if l.Unit == UnitNone {
			l.Unit = UnitPT
		}
		c.CaptionSize = l.ToPT()
	}
	if err := setLength(attrs, "offset", &c.CaptionOffset); err != nil {
		return err
	}
	if t, ok := attrs["text"]; ok && len(t) > 0 {
		c.CaptionTemplate = t[0]
	}
	if text := extractText(cmd.Block); text != "" {
		c.CaptionTemplate = text
	}
	return nil
}

// ink #333
func applyInk(cmd *dsl.Command, c *Canvas) error {
	if len(cmd.Args) == 0 {
		return fmt.Errorf("ink 需要颜色值")
	}
	col, err := parseColor(cmd.Args[0].Text())
	if err != nil {
		return err
	}
	c.Ink = col
	return nil
}

// parseArgs 将命令参数拆成位置参数和关键字参数；keys 之后直到下一个关键字的值都归属于它。
func parseArgs(args []*dsl.Arg, keys ...string) ([]string, map[string][]string) {
	known := make(map[string]bool, len(keys))
	for _, k := range keys {
		known[k] = true
	}
	var positional []string
	attrs := map[string][]string{}
	current := ""
	for _, arg := range args {
		text := arg.Text()
		if arg.Kind() == dsl.KindIdent && known[strings.ToLower(text)] {
			current = strings.ToLower(text)
			if _, ok := attrs[current]; !ok {
				attrs[current] = nil
			}
			continue
		}
		if current == "" {
			positional = append(positional, text)
			continue
		}
		attrs[current] = append(attrs[current], text)
	}
	return positional, attrs
}

func first(attrs map[string][]string, key string) string {
	if vals := attrs[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

func setLength(attrs map[string][]string, key string, dst *float64) error {
	vals, ok := attrs[key]
	if !ok {
		return nil
	}
	if len(vals) != 1 {
		return fmt.Errorf("%s 需要一个长度", key)
	}
	v, err := lengthMM(vals[0])
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func lengthMM(value string) (float64, error) {
	l, err := ParseLength(value)
	if err != nil {
		return 0, err
	}
	return l.ToMM(), nil
}

func extractText(block *dsl.Block) string {
	if block == nil {
		return ""
	}
	var parts []string
	for _, st := range block.Statements {
		if st.Text != nil {
			parts = append(parts, string(st.Text.Value))
		}
	}
	return strings.Join(parts, " ")
}

func collectMeta(block *dsl.Block, meta *DocumentMeta) {
	if block == nil {
		return
	}
	for _, stmt := range block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		switch strings.ToLower(stmt.Assignment.Key) {
		case "title":
			meta.Title = valueToString(stmt.Assignment.Value)
		case "author":
			meta.Author = valueToString(stmt.Assignment.Value)
		case "subject":
			meta.Subject = valueToString(stmt.Assignment.Value)
		case "creator":
			meta.Creator = valueToString(stmt.Assignment.Value)
		case "keywords":
			meta.Keywords = valueToStringSlice(stmt.Assignment.Value)
		}
	}
}

// ParseColor 解析 #rgb / #rrggbb 颜色。
func ParseColor(value string) (Color, error) { return parseColor(value) }

func parseColor(value string) (Color, error) {
	value = strings.TrimPrefix(strings.TrimSpace(value), "#")
	switch len(value) {
	case 3:
		value = strings.Repeat(value[0:1], 2) + strings.Repeat(value[1:2], 2) + strings.Repeat(value[2:3], 2)
	case 6:
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	var out [3]int
	for i := range out {
		n, err := strconv.ParseUint(value[i*2:i*2+2], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
		}
		out[i] = int(n)
	}
	return Color{R: out[0], G: out[1], B: out[2]}, nil
}

func valueToString(val *dsl.Value) string {
	if val == nil {
		return ""
	}
	switch {
	case val.String != nil:
		return string(*val.String)
	case val.Number != nil:
		return *val.Number
	case val.Color != nil:
		return *val.Color
	case val.Ident != nil:
		return *val.Ident
	default:
		return ""
	}
}

func valueToStringSlice(val *dsl.Value) []string {
	if val == nil {
		return nil
	}
	if val.Array != nil {
		out := make([]string, 0, len(val.Array.Values))
		for _, item := range val.Array.Values {
			if s := valueToString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := valueToString(val); s != "" {
		return []string{s}
	}
	return nil
}
