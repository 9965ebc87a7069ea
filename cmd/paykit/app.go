package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/DanielPopoola/paykit/internal/adapters/isogw"
	"github.com/DanielPopoola/paykit/internal/adapters/restgw"
	"github.com/DanielPopoola/paykit/internal/adapters/sandbox"
	"github.com/DanielPopoola/paykit/internal/adapters/transport"
	"github.com/DanielPopoola/paykit/internal/config"
	"github.com/DanielPopoola/paykit/internal/core/builder"
	"github.com/DanielPopoola/paykit/internal/core/dispatch"
	"github.com/DanielPopoola/paykit/internal/core/normalize"
	"github.com/DanielPopoola/paykit/internal/core/ports"
	"github.com/DanielPopoola/paykit/internal/metrics"
)

// gateway is a raw connector that also publishes its status vocabulary.
type gateway interface {
	ports.Connector
	StatusTable() normalize.StatusTable
}

type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   *builder.Client
	registry *metrics.Registry
	closers  []func() error
}

func newApp(opts *rootOptions) (*app, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: metrics.NewRegistry(),
	}

	gateways, err := a.gateways()
	if err != nil {
		a.Close()
		return nil, err
	}

	resolver := dispatch.NewResolver()
	normalizer := normalize.NewNormalizer()
	for _, gw := range gateways {
		normalizer.Register(gw.Name(), gw.StatusTable())
		resolver.Register(a.decorate(gw))
		logger.Debug("gateway registered", "gateway", gw.Name())
	}

	a.client = builder.NewClient(resolver, normalizer)
	return a, nil
}

// gateways builds the enabled connectors in resolution order: sandbox, REST, ISO 8583.
func (a *app) gateways() ([]gateway, error) {
	var gateways []gateway

	if a.cfg.Sandbox.Enabled {
		gateways = append(gateways, sandbox.New(a.cfg.Sandbox.Name, sandbox.WithLatency(a.cfg.Sandbox.Latency)))
	}
	if a.cfg.Rest.Enabled {
		gateways = append(gateways, restgw.New(a.cfg.Rest))
	}
	if a.cfg.ISO.Enabled {
		gw, err := isogw.Dial(a.cfg.ISO)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", a.cfg.ISO.Addr, err)
		}
		a.closers = append(a.closers, gw.Close)
		gateways = append(gateways, gw)
	}
	return gateways, nil
}

// decorate wraps a connector so every attempt is logged, failed attempts are
// retried and the overall outcome is counted.
func (a *app) decorate(gw ports.Connector) ports.Connector {
	var conn ports.Connector = transport.Logging(gw, a.logger)
	conn = transport.Retry(conn, a.cfg.Retry)
	return transport.Stats(conn, a.registry)
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
