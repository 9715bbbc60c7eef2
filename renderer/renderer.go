package renderer

import (
	"context"

	"github.com/ByLCY/labelmaker/layout"
)

// Renderer 将布局结果输出为最终文件，例如 PDF。
// Render 返回生成的二进制数据以及可能的错误；ctx 取消时应尽快返回，且不返回部分结果。
type Renderer interface {
	Render(ctx context.Context, result *layout.Result) ([]byte, error)
}

// ContentType 返回渲染结果的 MIME 类型，HTTP 下载时使用。
const ContentType = "application/pdf"
