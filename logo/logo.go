// Package logo 负责读取标签上的 logo：SVG 保留为矢量，其余格式解码为位图。
// 找不到或无法解码的 logo 不算错误，Load 以 (nil, false) 表示本次不绘制 logo。
package logo

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/tdewolff/canvas"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultName 是程序目录下默认查找的 logo 文件名。
const DefaultName = "Logo.svg"

// maxLogoBytes 是 logo 文件大小上限。
const maxLogoBytes = 16 << 20

// Asset 是解码后的 logo。Vector 与 Image 二者只有一个非空。
type Asset struct {
	Path   string
	Format string
	Vector *canvas.Canvas
	Image  image.Image
}

// Size 返回原始尺寸：矢量为 SVG 画布单位，位图为像素。
func (a *Asset) Size() (float64, float64) {
	switch {
	case a == nil:
		return 0, 0
	case a.Vector != nil:
		return a.Vector.W, a.Vector.H
	case a.Image != nil:
		b := a.Image.Bounds()
		return float64(b.Dx()), float64(b.Dy())
	default:
		return 0, 0
	}
}

// IsVector 表示 logo 是否以矢量方式绘制。
func (a *Asset) IsVector() bool { return a != nil && a.Vector != nil }

// Raster 按摆放尺寸（毫米）和目标分辨率重采样位图，只缩小不放大。
func (a *Asset) Raster(widthMM, heightMM, dpi float64) image.Image {
	if a == nil || a.Image == nil {
		return nil
	}
	if dpi <= 0 || widthMM <= 0 || heightMM <= 0 {
		return a.Image
	}
	b := a.Image.Bounds()
	tw := int(math.Round(widthMM / 25.4 * dpi))
	th := int(math.Round(heightMM / 25.4 * dpi))
	if tw <= 0 || th <= 0 || (tw >= b.Dx() && th >= b.Dy()) {
		return a.Image
	}
	return imaging.Resize(a.Image, tw, th, imaging.Lanczos)
}

// Decode 从 r 读取 logo。name 仅用于根据扩展名判断是否为 SVG。
func Decode(r io.Reader, name string) (*Asset, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxLogoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("读取 logo 失败: %w", err)
	}
	if len(data) > maxLogoBytes {
		return nil, fmt.Errorf("logo 超过 %d 字节", maxLogoBytes)
	}
	if isSVG(name, data) {
		c, err := canvas.ParseSVG(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("解析 SVG 失败: %w", err)
		}
		return &Asset{Path: name, Format: "svg", Vector: c}, nil
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("解码图片失败: %w", err)
	}
	return &Asset{Path: name, Format: format, Image: img}, nil
}

// Open 读取并解码 path 指向的 logo。
func Open(path string) (*Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	asset, err := Decode(f, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	w, h := asset.Size()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%s: logo 尺寸无效 %gx%g", path, w, h)
	}
	return asset, nil
}

// Load 与 Open 相同，但把所有失败折叠为 ok=false，并在 debug 级别记录原因。
func Load(path string, logger *log.Logger) (*Asset, bool) {
	if path == "" {
		return nil, false
	}
	asset, err := Open(path)
	if err != nil {
		if logger != nil {
			logger.Debug("logo unavailable, continuing without it", "path", path, "err", err)
		}
		return nil, false
	}
	return asset, true
}

// Resolve 在可执行文件所在目录查找 name，找不到时退回当前工作目录。
// 绝对路径原样返回。
func Resolve(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		candidate := filepath.Join(filepath.Dir(exe), name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, name)
	}
	return name
}

func isSVG(name string, data []byte) bool {
	if strings.EqualFold(filepath.Ext(name), ".svg") {
		return true
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}
