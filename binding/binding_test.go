package binding

import "testing"

func TestCaptionReplacesCode(t *testing.T) {
	if got := Caption("${code}", "AF-00123"); got != "AF-00123" {
		t.Fatalf("模板替换错误: got=%q", got)
	}
	if got := Caption("Activo ${ code } / 2025", "AF-1"); got != "Activo AF-1 / 2025" {
		t.Fatalf("带空白的占位符未替换: got=%q", got)
	}
}

func TestInterpolateKeepsUnknownPlaceholder(t *testing.T) {
	got := Interpolate("${code}-${site}", map[string]string{"code": "X1"})
	if got != "X1-${site}" {
		t.Fatalf("未知占位符应保留: got=%q", got)
	}
	if got := Interpolate("${code}", nil); got != "${code}" {
		t.Fatalf("vars 为空时应原样返回: got=%q", got)
	}
}
