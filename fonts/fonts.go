// Package fonts 提供标签文字使用的内置字体。
// 字体数据来自 Go 字体家族（golang.org/x/image/font/gofont），按 PostScript 风格的名称映射，
// 例如 "Helvetica-Bold" 映射到 Go Bold。
package fonts

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Style 是字体的粗细/倾斜组合。
type Style int

const (
	Regular Style = iota
	Bold
	Italic
	BoldItalic
)

type entry struct {
	data  []byte
	style Style
}

var builtin = map[string]entry{
	"helvetica":             {goregular.TTF, Regular},
	"helvetica-bold":        {gobold.TTF, Bold},
	"helvetica-oblique":     {goitalic.TTF, Italic},
	"helvetica-boldoblique": {gobolditalic.TTF, BoldItalic},
	"go":                    {goregular.TTF, Regular},
	"go-bold":               {gobold.TTF, Bold},
	"go-italic":             {goitalic.TTF, Italic},
	"go-bolditalic":         {gobolditalic.TTF, BoldItalic},
	"courier":               {gomono.TTF, Regular},
	"courier-bold":          {gomonobold.TTF, Bold},
}

// Load 返回内置字体的字节数据与样式，名称不区分大小写，可带 "embed:" 前缀。
func Load(name string) ([]byte, Style, error) {
	key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "embed:")))
	e, ok := builtin[key]
	if !ok {
		return nil, Regular, fmt.Errorf("未知内置字体 %q，可选: %s", name, strings.Join(Names(), ", "))
	}
	return e.data, e.style, nil
}

// Has 判断 name 是否为内置字体。
func Has(name string) bool {
	_, _, err := Load(name)
	return err == nil
}

// Names 返回全部内置字体名称（排序后）。
func Names() []string {
	out := make([]string, 0, len(builtin))
	for k := range builtin {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
