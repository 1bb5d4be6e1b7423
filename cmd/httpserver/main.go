package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/Hill11235/scratch-http-server/internal/accesslog"
	"github.com/Hill11235/scratch-http-server/internal/config"
	"github.com/Hill11235/scratch-http-server/internal/server"
	"github.com/Hill11235/scratch-http-server/internal/telemetry"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err == nil {
		return
	}

	var uerr *config.UsageError
	if errors.As(err, &uerr) {
		fmt.Fprintln(os.Stderr, config.Usage)
		os.Exit(2)
	}
	fmt.Fprintln(os.Stderr, "Server error:", err)
	os.Exit(1)
}

func newRootCmd() *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:           "httpserver <document_root> <port>",
		Short:         "Serve static files from a document root over HTTP/1.x",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return &config.UsageError{Cause: fmt.Errorf("expected 2 arguments, got %d", len(args))}
			}
			return nil
		},
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return config.BindFlags(v, cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, args)
			if err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &config.UsageError{Cause: err}
	})

	flags := cmd.Flags()
	flags.String("log-file", accesslog.DefaultPath, "file every request and response header is appended to")
	flags.Int("max-conns", 0, "maximum connections served at once, 0 for no limit")
	flags.Bool("trace", false, "export a span per connection to stdout")
	flags.Bool("debug", false, "enable debug logging")
	flags.String("config", "", "optional config file")

	return cmd
}

func run(cmd *cobra.Command, cfg config.Config) error {
	ctx := cmd.Context()

	log, err := newLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer log.Sync()

	sink, err := accesslog.Open(cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.Warn("failed to close request log", zap.Error(err))
		}
	}()

	tp := telemetry.Noop()
	if cfg.Trace {
		tp, err = telemetry.NewStdout(ctx, cmd.OutOrStdout())
		if err != nil {
			return err
		}
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("failed to shut down tracer provider", zap.Error(err))
		}
	}()

	worker := server.NewWorker(
		cfg.Root,
		sink,
		server.WorkerLogger(log),
		server.WorkerTracerProvider(tp),
	)

	srv, err := server.Serve(
		worker.Handle,
		cfg.Port,
		server.WithDispatcher(server.NewDispatcher(cfg.MaxConns)),
		server.WithLogger(log),
	)
	if err != nil {
		return err
	}

	port := srv.Addr().(*net.TCPAddr).Port
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "HTTP server started and listening on port: %d\n", port)
	log.Debug("serving", zap.String("root", cfg.Root), zap.Int("port", port), zap.Int("max_conns", cfg.MaxConns))

	<-ctx.Done()
	log.Info("server stopping")
	return srv.Close()
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
