package main

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/LimeChain/rpcmux/internal/demo"
	"github.com/LimeChain/rpcmux/internal/infrastructure/config"
	"github.com/LimeChain/rpcmux/internal/infrastructure/logger"
	"github.com/LimeChain/rpcmux/internal/infrastructure/startup"
	"github.com/LimeChain/rpcmux/internal/ratelimit"
	"github.com/LimeChain/rpcmux/internal/rpccore"
	"github.com/LimeChain/rpcmux/internal/transport/httpserver"
	"github.com/LimeChain/rpcmux/internal/transport/wsserver"
)

func main() {
	if err := config.LoadConfig(); err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		return
	}
	log := logger.InitLogger(viper.GetString("logging.level"))
	defer func() { _ = log.Sync() }()

	startup.LogStartup()

	module := rpccore.NewRpcModule()
	if err := demo.Register(module, log); err != nil {
		log.Error("failed to register demo module", zap.Error(err))
		return
	}

	dispatcher := rpccore.NewDispatcher(module.IntoMethods(), log)
	limiter := ratelimit.New(viper.GetInt("rateLimit.requestsPerMinute"))

	httpSrv := httpserver.NewServer(
		log,
		dispatcher,
		limiter,
		viper.GetInt64("rpc.maxRequestBodySize"),
		viper.GetString("server.httpPort"),
	)

	wsSrv := wsserver.NewServer(
		log,
		module,
		dispatcher,
		limiter,
		viper.GetInt("rpc.subscriptionBufferSize"),
		viper.GetString("server.wsPort"),
	)

	errCh := make(chan error, 2)
	go func() { errCh <- httpSrv.Start() }()
	go func() { errCh <- wsSrv.Start() }()

	if err := <-errCh; err != nil {
		log.Error("server stopped", zap.Error(err))
	}
}
