package layout

// 该文件定义标签画布、布局结果等类型，供布局计算、渲染与调试 JSON 共用。
// 坐标原点位于标签左下角，y 轴向上（与 PDF 一致），单位均为毫米。

// Result 保存一次生成中全部标签页的布局结果（按输入顺序）。
type Result struct {
	Canvas Canvas       `json:"canvas"`
	Pages  []Page       `json:"pages"`
	Meta   DocumentMeta `json:"meta"`
}

// Page 是单个条码对应的一页标签，尺寸与画布完全一致。
type Page struct {
	Code     string     `json:"code"`
	Width    float64    `json:"width"`
	Height   float64    `json:"height"`
	Logo     *ImageBox  `json:"logo,omitempty"`
	Barcode  BarcodeBox `json:"barcode"`
	Caption  Caption    `json:"caption"`
	Overflow []Overflow `json:"overflow,omitempty"`
}

// Rect 以左下角坐标加宽高描述一个矩形。
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Top 返回矩形上边缘的 y 坐标。
func (r Rect) Top() float64 { return r.Y + r.Height }

// CenterX 返回矩形水平中点。
func (r Rect) CenterX() float64 { return r.X + r.Width/2 }

// ImageBox 记录 logo 的摆放位置与相对原始尺寸的缩放比例。
type ImageBox struct {
	Rect
	Scale  float64 `json:"scale"`
	Path   string  `json:"path,omitempty"`
	Source Logo    `json:"-"`
}

// BarcodeBox 记录条码的位置与编码后的模块序列（true 为黑条）。
// Width 包含左右静区。
type BarcodeBox struct {
	Rect
	Symbology   string  `json:"symbology"`
	ModuleWidth float64 `json:"moduleWidth"`
	QuietZone   int     `json:"quietZone"`
	Modules     []bool  `json:"-"`
	ModuleCount int     `json:"moduleCount"`
}

// BarsX 返回第一根条（静区之后）的 x 坐标。
func (b BarcodeBox) BarsX() float64 { return b.X + float64(b.QuietZone)*b.ModuleWidth }

// Caption 是条码下方的文字，X 为水平中点，Y 为基线。
type Caption struct {
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Font     string  `json:"font"`
	FontSize float64 `json:"fontSize"` // pt
	Color    Color   `json:"color"`
}

// Overflow 描述一次已知但不修正的越界情况。
type Overflow struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

const (
	// OverflowBarcodeOverLogo: 条码被下边距钳制后与 logo 区域重叠。
	OverflowBarcodeOverLogo = "barcode-over-logo"
	// OverflowBarcodeWidth: 条码条带总宽超过标签宽度。
	OverflowBarcodeWidth = "barcode-wider-than-label"
	// OverflowCaptionWidth: 条码文字宽于标签，由生成器在测量字体后记录。
	OverflowCaptionWidth = "caption-wider-than-label"
)

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
