package kitchen

import (
	"context"
	"strconv"

	"tableside/internal/common/httpx"
	"tableside/internal/common/logger"
	"tableside/internal/config"
	"tableside/internal/connections/rabbitmq"
	"tableside/internal/microservices/kitchen/handlers"
	"tableside/internal/microservices/kitchen/service"
)

type Options struct {
	WorkerName string
	Prefetch   int
	// Port serves GET /kitchen/board and /healthz; 0 disables HTTP.
	Port int
}

// Run dials RabbitMQ and keeps the kitchen board up to date until ctx ends.
func Run(ctx context.Context, cfg config.RabbitMQConfig, opts Options, lg *logger.Logger) error {
	client, err := rabbitmq.Dial(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	ks := service.NewKitchenService(client, cfg.Exchange, cfg.Queue, opts.WorkerName, opts.Prefetch, lg)
	if opts.Port <= 0 {
		return ks.Run(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := httpx.New(":"+strconv.Itoa(opts.Port), handlers.Router(handlers.NewBoardHandler(ks.Board(), client)))
	httpErr := make(chan error, 1)
	go func() {
		err := srv.Run(ctx)
		if err != nil {
			lg.Error("board_http_failed", err, map[string]any{"port": opts.Port})
			cancel()
		}
		httpErr <- err
	}()
	lg.Info("board_http_started", map[string]any{"port": opts.Port})

	err = ks.Run(ctx)
	cancel()
	if herr := <-httpErr; err == nil {
		err = herr
	}
	return err
}
