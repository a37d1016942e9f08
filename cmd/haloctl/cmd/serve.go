package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/halolight/halolight/cmd/haloctl/internal/app"
	"github.com/halolight/halolight/cmd/haloctl/internal/server"
	"github.com/spf13/cobra"
)

var (
	serveAddr      string
	serveAccessLog bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the guarded admin route table",
	Long: `Starts an HTTP server that applies the access guards to the admin console
routes, and exposes the login, whoami and permission catalog endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := app.MustFromContext(cmd.Context())
		cfg := p.Config()
		logger := p.Logger()

		enforcer, err := p.Enforcer()
		if err != nil {
			return fmt.Errorf("failed to build policy enforcer: %w", err)
		}
		dir, err := p.Directory()
		if err != nil {
			return fmt.Errorf("failed to load directory: %w", err)
		}
		tokens, err := p.Tokens()
		if err != nil {
			return err
		}

		if err := server.ValidateRoutes(p.Guards().Routes()); err != nil {
			return fmt.Errorf("invalid guard routes: %w", err)
		}

		corsOpts := server.DefaultCORSOptions()
		if len(cfg.Server.AllowedOrigins) > 0 {
			corsOpts.AllowedOrigins = cfg.Server.AllowedOrigins
		}

		handler := server.NewH2CHandler(server.RouterOptions{
			Guards:      p.Guards(),
			Tokens:      tokens,
			Directory:   dir,
			Authorizer:  enforcer,
			Logger:      logger,
			CORSOptions: &corsOpts,
			AccessLog:   serveAccessLog || cfg.Debug,
		})

		addr := cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.Run(ctx, addr, handler, logger)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&serveAccessLog, "access-log", false, "Log every request")
	rootCmd.AddCommand(serveCmd)
}
