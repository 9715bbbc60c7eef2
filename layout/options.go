package layout

// BuildOptions 配置布局阶段所需的依赖，例如条码编码后端。
type BuildOptions struct {
	Symbology Symbology
	Meta      DocumentMeta
}

// Symbology 负责把条码字符串编码成模块序列，true 表示黑条。
// 无法编码的字符应返回错误，布局层会包装成 UnsupportedSymbolError。
type Symbology interface {
	Name() string
	Encode(code string) ([]bool, error)
}

// Logo 是已解码的 logo 资源，只需提供原始宽高（任意单位，缩放比例会吸收单位差异）。
type Logo interface {
	Size() (width, height float64)
}
