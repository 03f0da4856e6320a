// Command print-order configures and orders a printed recipe book from the
// terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xenking/print-order/internal/domain/auth"
	"github.com/xenking/print-order/internal/ordersapi"
)

func main() {
	var (
		apiURL  string
		token   string
		timeout time.Duration
		debug   bool
	)
	flag.StringVar(&apiURL, "api-url", os.Getenv("PRINT_ORDERS_API_BASE_URL"), "orders API base URL (or PRINT_ORDERS_API_BASE_URL env)")
	flag.StringVar(&token, "token", os.Getenv("PRINT_TOKEN"), "bearer token (or PRINT_TOKEN env)")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "orders API request timeout")
	flag.BoolVar(&debug, "debug", false, "log orders API calls")
	flag.Parse()

	lg, err := newLogger(debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "create logger:", err)
		os.Exit(1)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = zctx.Base(ctx, lg)

	if token == "" {
		lg.Error("Bearer token is required: set -token or PRINT_TOKEN")
		os.Exit(1)
	}
	client, err := ordersapi.New(ordersapi.Options{
		BaseURL: apiURL,
		Timeout: timeout,
	}, auth.Static(token))
	if err != nil {
		lg.Error("Create orders API client", zap.Error(err))
		os.Exit(1)
	}

	if err := run(ctx, os.Stdin, os.Stdout, client); err != nil && !errors.Is(err, context.Canceled) {
		lg.Error("Order failed", zap.Error(err))
		os.Exit(1)
	}
}

// newLogger logs to stderr so that prompts on stdout stay readable.
func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = !debug
	return cfg.Build()
}
