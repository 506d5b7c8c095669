package govee

import (
	"context"

	"go.uber.org/zap"

	"github.com/kapu/chess-lamp-go/internal/colorutil"
	"github.com/kapu/chess-lamp-go/internal/device"
)

// Controller drives one Govee lamp through up to three transport legs: LAN
// datagrams, the cloud API, and an optional vendor fallback client. Each leg
// is tried only when the previous one fails; nothing here blocks longer than
// the per-leg timeouts.
type Controller struct {
	lan      *LANTransport
	cloud    *CloudClient
	fallback device.Client

	mac      string
	deviceID string
	log      *zap.Logger
}

var _ device.Client = (*Controller)(nil)

func NewController(lan *LANTransport, cloud *CloudClient, fallback device.Client, mac string, log *zap.Logger) *Controller {
	return &Controller{
		lan:      lan,
		cloud:    cloud,
		fallback: fallback,
		mac:      mac,
		deviceID: mac,
		log:      log,
	}
}

// Resolve maps the configured MAC to the cloud device id once at startup.
// Failure is tolerable: the literal MAC stays in place.
func (c *Controller) Resolve(ctx context.Context, model string) {
	if c.cloud == nil {
		return
	}
	c.deviceID = ResolveDeviceID(ctx, c.cloud, c.mac, model)
	if c.deviceID != c.mac {
		c.log.Info("resolved cloud device id", zap.String("device", c.deviceID))
	}
}

func (c *Controller) SetColor(ctx context.Context, rgb colorutil.RGB, brightness int) bool {
	if c.lan.Available() {
		err := c.lan.SendColor(rgb, brightness)
		if err == nil {
			return true
		}
		c.log.Warn("lan color command failed, falling back to cloud", zap.Error(err))
	}
	if c.cloud != nil {
		err := c.cloud.SetColor(ctx, c.deviceID, rgb, brightness)
		if err == nil {
			return true
		}
		c.log.Warn("cloud color command failed", zap.Error(err))
	}
	if c.fallback != nil {
		return c.fallback.SetColor(ctx, rgb, brightness)
	}
	return false
}

// SetScene goes through the cloud only; the LAN protocol has no scene
// command for this device class.
func (c *Controller) SetScene(ctx context.Context, name string) bool {
	if c.cloud != nil {
		err := c.cloud.Control(ctx, c.deviceID, "scene", name)
		if err == nil {
			return true
		}
		c.log.Warn("cloud scene command failed", zap.String("scene", name), zap.Error(err))
	}
	if c.fallback != nil {
		return c.fallback.SetScene(ctx, name)
	}
	return false
}

func (c *Controller) TurnOn(ctx context.Context, on bool) bool {
	if c.lan.Available() {
		err := c.lan.SendPower(on)
		if err == nil {
			return true
		}
		c.log.Warn("lan power command failed, falling back to cloud", zap.Error(err))
	}
	if c.cloud != nil {
		value := "off"
		if on {
			value = "on"
		}
		err := c.cloud.Control(ctx, c.deviceID, "turn", value)
		if err == nil {
			return true
		}
		c.log.Warn("cloud power command failed", zap.Error(err))
	}
	if c.fallback != nil {
		return c.fallback.TurnOn(ctx, on)
	}
	return false
}

// QueryState is cloud-side only; LAN state queries are unreliable for this
// device class. nil means state unknown, not an error.
func (c *Controller) QueryState(ctx context.Context) *device.LampState {
	if c.cloud == nil {
		return nil
	}
	return c.cloud.QueryState(ctx, c.deviceID, c.mac)
}
