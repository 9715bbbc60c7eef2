package layout

import "fmt"

// InvalidInputError 表示条码列表为空或存在空条码，生成在写入任何页面之前终止。
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "输入无效: " + e.Reason
}

// UnsupportedSymbolError 表示条码中含有当前码制无法编码的字符。
type UnsupportedSymbolError struct {
	Code      string
	Symbology string
	Err       error
}

func (e *UnsupportedSymbolError) Error() string {
	return fmt.Sprintf("条码 %q 无法使用 %s 编码: %v", e.Code, e.Symbology, e.Err)
}

func (e *UnsupportedSymbolError) Unwrap() error { return e.Err }
