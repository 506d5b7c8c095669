package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	appcfg "github.com/kapu/chess-lamp-go/internal/config"
	"github.com/kapu/chess-lamp-go/internal/device"
	"github.com/kapu/chess-lamp-go/internal/govee"
	"github.com/kapu/chess-lamp-go/internal/hue"
	"github.com/kapu/chess-lamp-go/internal/lamp"
	"github.com/kapu/chess-lamp-go/internal/lichess"
	"github.com/kapu/chess-lamp-go/internal/obslog"
	"github.com/kapu/chess-lamp-go/internal/session"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dev, err := buildDevice(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("device init failed", zap.Error(err))
	}

	player, err := lamp.NewPlayer(dev, cfg.Effects, logger)
	if err != nil {
		logger.Fatal("lamp effects init failed", zap.Error(err))
	}

	api := lichess.NewClient(cfg.LichessBaseURL, cfg.LichessToken)
	loop := session.NewLoop(api, player, cfg, logger)

	logger.Info("chess-lamp starting",
		zap.String("device", cfg.DeviceKind),
		zap.Duration("idle_poll", cfg.IdlePollInterval),
		zap.Duration("active_poll", cfg.ActivePollInterval))

	if err := loop.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("loop exited", zap.Error(err))
	}
	logger.Info("chess-lamp stopped")
}

// buildDevice wires the lamp backend. Govee uses LAN control with cloud
// fallback; a configured Hue bridge becomes the last-resort fallback, or the
// primary backend when device_kind is hue.
func buildDevice(ctx context.Context, cfg *appcfg.AppConfig, logger *zap.Logger) (device.Client, error) {
	var hueDev device.Client
	if cfg.HueBridgeIP != "" && cfg.HueUsername != "" {
		a, err := hue.NewAdapter(cfg.HueBridgeIP, cfg.HueUsername, cfg.HueLight, logger)
		if err != nil {
			if cfg.DeviceKind == appcfg.DeviceHue {
				return nil, err
			}
			logger.Warn("hue fallback unavailable", zap.Error(err))
		} else {
			hueDev = a
		}
	}
	if cfg.DeviceKind == appcfg.DeviceHue {
		return hueDev, nil
	}

	lan := govee.NewLAN(cfg.GoveeDeviceIP, logger)
	cloud := govee.NewCloud(cfg.GoveeCloudURL, cfg.GoveeAPIKey, cfg.GoveeModel, logger)
	ctrl := govee.NewController(lan, cloud, hueDev, cfg.GoveeDeviceMAC, logger)

	// Device id resolution and LAN discovery can run while the poll loop
	// starts; both are best-effort.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rctx, cancel := context.WithTimeout(gctx, 10*time.Second)
		defer cancel()
		ctrl.Resolve(rctx, cfg.GoveeModel)
		return nil
	})
	if !lan.Available() {
		g.Go(func() error {
			dctx, cancel := context.WithTimeout(gctx, 5*time.Second)
			defer cancel()
			ip, err := govee.Discover(dctx, logger)
			if err != nil {
				logger.Warn("lan discovery failed, cloud only", zap.Error(err))
				return nil
			}
			lan.SetIP(ip)
			logger.Info("lamp found on lan", zap.String("ip", ip))
			return nil
		})
	}
	_ = g.Wait()

	return ctrl, nil
}
