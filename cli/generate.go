package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/labelmaker/config"
	"github.com/ByLCY/labelmaker/generator"
	"github.com/ByLCY/labelmaker/layout"
)

// labelOpts 是 generate、layout、form 共用的标签样式覆盖项。
type labelOpts struct {
	spec      string
	logo      string
	noLogo    bool
	symbology string
}

func (o *labelOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.spec, "spec", "", "label description file (.label)")
	cmd.Flags().StringVar(&o.logo, "logo", "", "logo file (SVG, PNG, JPEG, ...)")
	cmd.Flags().BoolVar(&o.noLogo, "no-logo", false, "omit the logo")
	cmd.Flags().StringVar(&o.symbology, "symbology", "", "barcode symbology: code128, code39, code39-full, code93")
}

func (o *labelOpts) apply(cfg *config.Config) {
	if o.spec != "" {
		cfg.Label.Spec = o.spec
	}
	if o.logo != "" {
		cfg.Label.Logo = o.logo
	}
	if o.noLogo {
		cfg.Label.NoLogo = true
	}
	if o.symbology != "" {
		cfg.Label.Symbology = strings.ToLower(o.symbology)
	}
}

// newGenerator 按配置与命令行覆盖项创建 Generator。命令行不限制条码数量。
func (o *labelOpts) newGenerator(ctx context.Context) (*generator.Generator, *config.Config, error) {
	cfg := configFromContext(ctx)
	o.apply(cfg)
	opts, err := cfg.GeneratorOptions(loggerFromContext(ctx))
	if err != nil {
		return nil, nil, err
	}
	opts.MaxCodes = 0
	gen, err := generator.New(opts)
	if err != nil {
		return nil, nil, err
	}
	return gen, cfg, nil
}

// collectCodes 合并命令行参数与 --file 中的条码；file 为 "-" 时读取标准输入。
func collectCodes(in io.Reader, args []string, file string) ([]string, error) {
	codes := append([]string(nil), args...)
	if file == "" {
		return codes, nil
	}
	var r io.Reader = in
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("打开条码文件失败: %w", err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("读取条码失败: %w", err)
	}
	return append(codes, generator.ParseCodes(string(data))...), nil
}

type generateOpts struct {
	labelOpts
	file   string
	output string
	debug  string
}

func newGenerateCmd() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:     "generate [code...]",
		Aliases: []string{"gen"},
		Short:   "Generate a PDF with one label per code",
		Example: `  labelmaker generate AF-00123 AF-00124
  labelmaker generate --file codes.txt --out inventario.pdf
  cat codes.txt | labelmaker generate --file - --no-logo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "read codes from file, one per line (- for stdin)")
	cmd.Flags().StringVarP(&opts.output, "out", "o", "", "output PDF path (default etiquetas.pdf)")
	cmd.Flags().StringVar(&opts.debug, "debug", "", "also write the layout as JSON to this path")

	return cmd
}

func runGenerate(ctx context.Context, in io.Reader, out io.Writer, args []string, opts generateOpts) error {
	logger := loggerFromContext(ctx)
	codes, err := collectCodes(in, args, opts.file)
	if err != nil {
		return err
	}
	if len(codes) == 0 {
		return errors.New("请至少输入一个条码（参数或 --file）")
	}

	gen, cfg, err := opts.newGenerator(ctx)
	if err != nil {
		return err
	}
	output := opts.output
	if output == "" {
		output = cfg.Label.Output
	}

	prog := newProgress(logger)
	if opts.debug != "" {
		res, err := gen.Layout(ctx, codes)
		if err != nil {
			return err
		}
		if err := writeFile(opts.debug, func(path string) error { return layout.WriteDebugJSON(res, path) }); err != nil {
			return fmt.Errorf("输出调试 JSON 失败: %w", err)
		}
		printFile(out, "layout", opts.debug)
	}

	pdf, err := gen.Generate(ctx, codes)
	if err != nil {
		return err
	}
	if err := writeFile(output, func(path string) error { return os.WriteFile(path, pdf, 0o644) }); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	prog.done(fmt.Sprintf("Generated %d labels", len(codes)))
	printFile(out, fmt.Sprintf("%d labels", len(codes)), output)
	c := gen.Canvas()
	printDetail(out, "%.1f × %.1f cm · %s · logo: %t", c.Width/10, c.Height/10, gen.Symbology().Name(), gen.HasLogo())
	return nil
}

// writeFile 先创建父目录再调用 write。
func writeFile(path string, write func(string) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return write(path)
}
