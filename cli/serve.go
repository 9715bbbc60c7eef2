package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ByLCY/labelmaker/generator"
	"github.com/ByLCY/labelmaker/server"
)

func newServeCmd() *cobra.Command {
	var (
		opts labelOpts
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			cfg := configFromContext(cmd.Context())
			opts.apply(cfg)
			if addr != "" {
				cfg.Server.Addr = addr
			}

			genOpts, err := cfg.GeneratorOptions(logger)
			if err != nil {
				return err
			}
			gen, err := generator.New(genOpts)
			if err != nil {
				return err
			}

			gin.SetMode(cfg.Server.Mode)
			srv := server.New(gen, cfg.Server, cfg.Label.Title, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			printInfo(cmd.OutOrStdout(), "%s %s", styleTitle.Render(cfg.Label.Title), styleFile.Render("http://"+displayAddr(cfg.Server.Addr)))
			return srv.Run(ctx)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")

	return cmd
}

// displayAddr 把 ":8080" 之类的地址补全为可点击的主机名。
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
