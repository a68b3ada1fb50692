package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/willangley/pdf-sprinkles/pkg/server"
)

const shutdownTimeout = 10 * time.Second

var (
	listenAddress string
	listenPort    int
	serverDebug   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve conversions over HTTP",
	Long: `Starts an HTTP server that accepts PDF uploads on POST /recognize?filename=NAME
and replies with the searchable PDF.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	flags := serveCmd.Flags()
	flags.StringVar(&listenAddress, "address", "", "address to listen on")
	flags.IntVarP(&listenPort, "port", "p", 0, "port to listen on")
	flags.BoolVar(&serverDebug, "debug", false, "include error detail in responses")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if flags.Changed("address") {
		cfg.Server.Address = listenAddress
	}
	if flags.Changed("port") {
		cfg.Server.Port = listenPort
	}
	if port := os.Getenv("PORT"); port != "" && !flags.Changed("port") {
		// App Engine and Cloud Run choose the port.
		cfg.Server.Address = ""
		n, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Server.Port = n
	}
	if flags.Changed("debug") {
		cfg.Server.Debug = serverDebug
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	conv, client, err := newConverter(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	handler := server.New(conv, client, server.Config{
		MaxInputSize:     int(cfg.MaxInputSize),
		MaxOutputSize:    int(cfg.MaxOutputSize),
		ExpectedAudience: cfg.Server.ExpectedAudience,
		Debug:            cfg.Server.Debug,
	}, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
