package layout

import (
	"fmt"
)

// Build 为每个条码生成一页标签，页面顺序与输入一致。
// 各页只依赖画布、该页条码与共享的 logo，不依赖页码或之前的页面。
// 任一条码失败则整体失败，不返回部分结果。
func Build(c Canvas, codes []string, logo Logo, opts BuildOptions) (*Result, error) {
	if len(codes) == 0 {
		return nil, &InvalidInputError{Reason: "请至少输入一个条码"}
	}
	if opts.Symbology == nil {
		return nil, fmt.Errorf("layout: 缺少条码编码器 Symbology")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	for i, code := range codes {
		if code == "" {
			return nil, &InvalidInputError{Reason: fmt.Sprintf("第 %d 个条码为空", i+1)}
		}
	}

	pages := make([]Page, 0, len(codes))
	for _, code := range codes {
		page, err := ComputeLayout(c, code, logo, opts.Symbology)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}

	meta := opts.Meta
	if meta.Creator == "" {
		meta.Creator = "labelmaker"
	}
	return &Result{
		Canvas: c,
		Pages:  pages,
		Meta:   meta,
	}, nil
}
