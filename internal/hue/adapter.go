// Package hue adapts a Philips Hue light behind the generic device client
// interface, either as the primary backend or as the vendor-library fallback
// leg of the Govee chain.
package hue

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/amimof/huego"
	"go.uber.org/zap"

	"github.com/kapu/chess-lamp-go/internal/colorutil"
	"github.com/kapu/chess-lamp-go/internal/device"
)

type Adapter struct {
	bridge  *huego.Bridge
	lightID int
	log     *zap.Logger
}

var _ device.Client = (*Adapter)(nil)

// NewAdapter connects to the bridge and binds to the named light, or to the
// first light when lightName is empty.
func NewAdapter(bridgeIP, username, lightName string, log *zap.Logger) (*Adapter, error) {
	bridge := huego.New(bridgeIP, username)
	lights, err := bridge.GetLights()
	if err != nil {
		return nil, fmt.Errorf("list hue lights: %w", err)
	}
	if len(lights) == 0 {
		return nil, fmt.Errorf("bridge %s has no lights", bridgeIP)
	}

	lightID := lights[0].ID
	found := lightName == ""
	for _, l := range lights {
		if strings.EqualFold(l.Name, lightName) {
			lightID = l.ID
			found = true
			break
		}
	}
	if !found {
		log.Warn("hue light not found, using first light",
			zap.String("wanted", lightName), zap.String("using", lights[0].Name))
	}
	return &Adapter{bridge: bridge, lightID: lightID, log: log}, nil
}

func (a *Adapter) SetColor(_ context.Context, c colorutil.RGB, brightness int) bool {
	x, y := rgbToXY(c)
	state := huego.State{
		On:  true,
		Bri: briFromPercent(brightness),
		Xy:  []float32{x, y},
	}
	if _, err := a.bridge.SetLightState(a.lightID, state); err != nil {
		a.log.Warn("hue set color failed", zap.Error(err))
		return false
	}
	return true
}

func (a *Adapter) SetScene(_ context.Context, name string) bool {
	scenes, err := a.bridge.GetScenes()
	if err != nil {
		a.log.Warn("hue list scenes failed", zap.Error(err))
		return false
	}
	for _, s := range scenes {
		if strings.EqualFold(s.Name, name) {
			if _, err := a.bridge.RecallScene(s.ID, 0); err != nil {
				a.log.Warn("hue recall scene failed", zap.String("scene", name), zap.Error(err))
				return false
			}
			return true
		}
	}
	a.log.Warn("hue scene not found", zap.String("scene", name))
	return false
}

func (a *Adapter) TurnOn(_ context.Context, on bool) bool {
	if _, err := a.bridge.SetLightState(a.lightID, huego.State{On: on}); err != nil {
		a.log.Warn("hue power command failed", zap.Error(err))
		return false
	}
	return true
}

func (a *Adapter) QueryState(_ context.Context) *device.LampState {
	light, err := a.bridge.GetLight(a.lightID)
	if err != nil || light.State == nil {
		return nil
	}
	// xy back to RGB is lossy; brightness and power are enough for restore.
	return &device.LampState{
		On:         light.State.On,
		Brightness: percentFromBri(light.State.Bri),
	}
}

func briFromPercent(pct int) uint8 {
	if pct <= 0 {
		return 1
	}
	if pct > 100 {
		pct = 100
	}
	return uint8(math.Round(float64(pct) * 254 / 100))
}

func percentFromBri(bri uint8) int {
	return int(math.Round(float64(bri) * 100 / 254))
}

// rgbToXY converts sRGB to CIE xy color coordinates, the gamut-independent
// form the bridge accepts.
func rgbToXY(c colorutil.RGB) (float32, float32) {
	r := gammaExpand(float64(c.R) / 255)
	g := gammaExpand(float64(c.G) / 255)
	b := gammaExpand(float64(c.B) / 255)

	x := r*0.664511 + g*0.154324 + b*0.162028
	y := r*0.283881 + g*0.668433 + b*0.047685
	z := r*0.000088 + g*0.072310 + b*0.986039

	sum := x + y + z
	if sum == 0 {
		return 0.3127, 0.3290 // D65 white point
	}
	return float32(x / sum), float32(y / sum)
}

func gammaExpand(v float64) float64 {
	if v > 0.04045 {
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return v / 12.92
}
