package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/awmpietro/golang-execution-graph/internal/bootstrap"
	"github.com/awmpietro/golang-execution-graph/internal/config"
	"github.com/awmpietro/golang-execution-graph/internal/logging"
	"github.com/awmpietro/golang-execution-graph/internal/transport/lambdatransport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	rt, err := bootstrap.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("failed to wire service", zap.Error(err))
	}
	defer rt.Close()

	h := lambdatransport.NewHandler(rt.Service)
	lambda.Start(h.Render)
}
