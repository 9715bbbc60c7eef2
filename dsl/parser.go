// Package dsl 解析标签描述文件。
//
//	label Activos v1 {
//	  meta { title: "Activos Fijos" }
//	  canvas 5cm 2.5cm margin 2mm 1.5mm
//	  barcode code128 height 9mm bar 0.45mm
//	  caption size 9pt {
//	    "AF ${code}"
//	  }
//	}
//
// 每条命令是一个标识符加若干参数，参数可以是带单位的数字、颜色、字符串或标识符，
// 命令末尾可以跟一个 { } 块。命令的含义由 layout 包解释。
package dsl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})\b`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `(?:\d+\.\d+|\.\d+|\d+)(?:pt|mm|cm|in)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Punct", Pattern: `[][,;:{}]`},
	})

	documentParser = participle.MustBuild[Document](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Document 是标签描述文件的根节点。
type Document struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Name    string         `parser:"Newline* 'label' @Ident"`
	Version string         `parser:"@Ident?"`
	Body    *Block         `parser:"@@ Newline*"`
}

// Commands 按声明顺序返回顶层命令。
func (d *Document) Commands() []*Command {
	if d == nil || d.Body == nil {
		return nil
	}
	var out []*Command
	for _, st := range d.Body.Statements {
		if st.Command != nil {
			out = append(out, st.Command)
		}
	}
	return out
}

// Block 是 { } 包围的语句列表，语句之间用换行或分号分隔。
type Block struct {
	Statements []*Statement `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Statement 是块内的一条语句。
type Statement struct {
	Assignment *Assignment  `parser:"  @@"`
	Command    *Command     `parser:"| @@"`
	Text       *TextLiteral `parser:"| @@"`
}

// Assignment 使用冒号语法（key: value），用于 meta 块。
type Assignment struct {
	Key   string `parser:"@Ident ':'"`
	Value *Value `parser:"Newline* @@"`
}

// Command 是一条标签设置，例如 `barcode code128 height 9mm`。块必须与命令同行开始。
type Command struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Name  string         `parser:"@Ident"`
	Args  []*Arg         `parser:"@@*"`
	Block *Block         `parser:"@@?"`
}

// Arg 是命令参数。
type Arg struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Number *string        `parser:"  @Number"`
	Color  *string        `parser:"| @Color"`
	String *StringLiteral `parser:"| @String"`
	Ident  *string        `parser:"| @Ident"`
}

// Arg 的种类。
const (
	KindNumber = "number"
	KindColor  = "color"
	KindString = "string"
	KindIdent  = "ident"
)

// Kind 返回参数种类。
func (a *Arg) Kind() string {
	switch {
	case a.Number != nil:
		return KindNumber
	case a.Color != nil:
		return KindColor
	case a.String != nil:
		return KindString
	default:
		return KindIdent
	}
}

// Text 返回参数文本，字符串已去掉引号。
func (a *Arg) Text() string {
	switch {
	case a.Number != nil:
		return *a.Number
	case a.Color != nil:
		return *a.Color
	case a.String != nil:
		return string(*a.String)
	case a.Ident != nil:
		return *a.Ident
	}
	return ""
}

// TextLiteral 是块内单独成行的字符串。
type TextLiteral struct {
	Value StringLiteral `parser:"@String"`
}

// Value 是赋值语句的右侧。
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Color  *string        `parser:"| @Color"`
	Array  *ArrayValue    `parser:"| @@"`
	Ident  *string        `parser:"| @Ident"`
}

// ArrayValue 是 `[ ... ]` 列表，元素之间用逗号、分号或换行分隔。
type ArrayValue struct {
	Values []*Value `parser:"'[' Newline* ( @@ ( (',' | ';' | Newline) Newline* @@ )* )? Newline* ']'"`
}

// StringLiteral 在捕获时按 Go 语法去掉引号。
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse 从 io.Reader 解析标签描述。
func Parse(r io.Reader) (*Document, error) {
	return documentParser.Parse("", r)
}

// ParseString 解析字符串形式的标签描述。
func ParseString(input string) (*Document, error) {
	return documentParser.ParseString("", input)
}
