// Package cli 实现 labelmaker 命令行。
//
// 子命令：
//   - generate: 为条码列表生成 PDF 标签
//   - layout: 输出布局 JSON，便于调试
//   - serve: 启动网页表单
//   - form: 终端表单
//   - version: 版本信息
//
// 所有命令支持 --verbose (-v) 输出 debug 日志，日志器与配置通过 context.Context 传递。
package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ByLCY/labelmaker/config"
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion 设置版本信息，通常由 main 在构建时通过 ldflags 注入。
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute 运行命令行，出错时在标准错误输出一行错误信息。
func Execute() error {
	err := newRootCmd().ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render(iconError)+" "+err.Error())
	}
	return err
}

func newRootCmd() *cobra.Command {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:           "labelmaker",
		Short:         "Generate asset barcode labels as PDF",
		Long:          `labelmaker 为每个资产编码生成一页 5.0cm × 2.5cm 的条码标签（logo、Code 128 条码与编码文字），输出为一个 PDF。`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			level := cfg.Log.LogLevel()
			if verbose {
				level = charmlog.DebugLevel
			}
			logger := newLogger(cmd.ErrOrStderr(), level, cfg.Log.Formatter())
			ctx := withLogger(cmd.Context(), logger)
			ctx = withConfig(ctx, cfg)
			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetVersionTemplate(versionString() + "\n")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./labelmaker.toml)")

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newLayoutCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newFormCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func versionString() string {
	s := "labelmaker " + version
	if commit != "" {
		s += "\ncommit: " + commit
	}
	if date != "" {
		s += "\nbuilt: " + date
	}
	return s
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), versionString())
			return err
		},
	}
}
