// Command api-server serves the print order wizard API used by the web client.
package main

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	printorder "github.com/xenking/print-order/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := printorder.LoadConfig()
		if err != nil {
			return errors.Wrap(err, "config")
		}
		return printorder.Run(ctx, lg, m, cfg)
	})
}
