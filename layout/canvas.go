package layout

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Canvas 描述一张标签的固定物理配置（毫米）。一次生成过程中只读，不随单个标签变化。
type Canvas struct {
	Width         float64 `json:"width" validate:"gt=0"`
	Height        float64 `json:"height" validate:"gt=0"`
	MarginX       float64 `json:"marginX" validate:"gte=0"`
	MarginY       float64 `json:"marginY" validate:"gte=0"`
	LogoGap       float64 `json:"logoGap" validate:"gte=0"`
	CaptionGap    float64 `json:"captionGap" validate:"gte=0"`
	CaptionOffset float64 `json:"captionOffset" validate:"gte=0"`
	BarcodeHeight float64 `json:"barcodeHeight" validate:"gt=0"`
	BarWidth      float64 `json:"barWidth" validate:"gt=0"`
	QuietZone     int     `json:"quietZone" validate:"gte=0"`

	Symbology       string  `json:"symbology" validate:"required"`
	CaptionFont     string  `json:"captionFont" validate:"required"`
	CaptionSize     float64 `json:"captionSize" validate:"gt=0"` // pt
	CaptionTemplate string  `json:"captionTemplate"`
	Ink             Color   `json:"ink"`
}

// 默认值对应 5.0cm × 2.5cm 的资产标签。
const (
	DefaultSymbology       = "code128"
	DefaultCaptionFont     = "Helvetica-Bold"
	DefaultCaptionSize     = 9.0
	DefaultCaptionTemplate = "${code}"
	DefaultQuietZone       = 10
)

// DefaultCanvas 返回资产标签的默认画布。
func DefaultCanvas() Canvas {
	return Canvas{
		Width:           Centimeters(5.0).ToMM(),
		Height:          Centimeters(2.5).ToMM(),
		MarginX:         Centimeters(0.2).ToMM(),
		MarginY:         Centimeters(0.15).ToMM(),
		LogoGap:         Centimeters(0.1).ToMM(),
		CaptionGap:      Centimeters(0.1).ToMM(),
		CaptionOffset:   Centimeters(0.05).ToMM(),
		BarcodeHeight:   Centimeters(0.9).ToMM(),
		BarWidth:        Centimeters(0.045).ToMM(),
		QuietZone:       DefaultQuietZone,
		Symbology:       DefaultSymbology,
		CaptionFont:     DefaultCaptionFont,
		CaptionSize:     DefaultCaptionSize,
		CaptionTemplate: DefaultCaptionTemplate,
	}
}

// ContentWidth 是左右边距之间的可用宽度。
func (c Canvas) ContentWidth() float64 { return c.Width - 2*c.MarginX }

// AvailableLogoHeight 是扣除上下边距、条码与条码文字间距后留给 logo 的高度（未扣 logo 间距）。
func (c Canvas) AvailableLogoHeight() float64 {
	return c.Height - 2*c.MarginY - c.BarcodeHeight - c.CaptionGap
}

var validate = validator.New()

// Validate 校验画布：所有长度非负、边距与条码能放进标签。
func (c Canvas) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("画布配置无效: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("画布配置无效: %w", err)
	}
	if c.ContentWidth() <= 0 {
		return fmt.Errorf("画布配置无效: 左右边距 %.2fmm 超出宽度 %.2fmm", c.MarginX, c.Width)
	}
	if c.Height-2*c.MarginY < c.BarcodeHeight {
		return fmt.Errorf("画布配置无效: 条码高度 %.2fmm 超出可用高度 %.2fmm", c.BarcodeHeight, c.Height-2*c.MarginY)
	}
	if c.CaptionGap+c.CaptionOffset <= 0 {
		return fmt.Errorf("画布配置无效: 文字间距与偏移之和必须大于 0，否则基线与条码底部重合")
	}
	for _, v := range []int{c.Ink.R, c.Ink.G, c.Ink.B} {
		if v < 0 || v > 255 {
			return fmt.Errorf("画布配置无效: 颜色分量 %d 超出 0-255", v)
		}
	}
	return nil
}
