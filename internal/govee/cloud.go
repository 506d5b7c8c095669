package govee

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/kapu/chess-lamp-go/internal/colorutil"
	"github.com/kapu/chess-lamp-go/internal/device"
)

const (
	controlPath = "/v1/devices/control"
	devicesPath = "/router/api/v1/user/devices"

	devicesCacheKey = "devices"
	devicesCacheTTL = 30 * time.Second
)

// CloudClient talks to the vendor cloud API: signed control PUTs and the
// device-list endpoint used for state queries and id resolution.
type CloudClient struct {
	baseURL string
	apiKey  string
	model   string
	http    *fasthttp.Client
	timeout time.Duration
	cache   gcache.Cache
	log     *zap.Logger
}

type CloudOption func(*CloudClient)

func WithCloudTimeout(d time.Duration) CloudOption {
	return func(c *CloudClient) { c.timeout = d }
}

func NewCloud(baseURL, apiKey, model string, log *zap.Logger, opts ...CloudOption) *CloudClient {
	c := &CloudClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    &fasthttp.Client{ReadTimeout: 3 * time.Second, WriteTimeout: 3 * time.Second, MaxConnsPerHost: 4},
		timeout: 3 * time.Second,
		cache:   gcache.New(2).LRU().Expiration(devicesCacheTTL).Build(),
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type controlRequest struct {
	Device string     `json:"device"`
	Model  string     `json:"model"`
	Cmd    controlCmd `json:"cmd"`
}

type controlCmd struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type controlResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Control sends one command ("color", "brightness", "scene", "turn") to the
// device. Success requires both HTTP 200 and body code 200.
func (c *CloudClient) Control(ctx context.Context, deviceID, name string, value any) error {
	body := controlRequest{Device: deviceID, Model: c.model, Cmd: controlCmd{Name: name, Value: value}}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s command: %w", name, err)
	}

	status, respBody, err := c.do(ctx, fasthttp.MethodPut, controlPath, payload)
	if err != nil {
		return fmt.Errorf("%s command: %w", name, err)
	}
	if status != fasthttp.StatusOK {
		return fmt.Errorf("%s command: status %d", name, status)
	}
	var resp controlResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return fmt.Errorf("%s command: decode response: %w", name, err)
	}
	if resp.Code != 200 {
		return fmt.Errorf("%s command rejected: code %d %s", name, resp.Code, resp.Message)
	}
	return nil
}

// SetColor sends the color command followed by a brightness command. A failed
// brightness write is logged, not fatal: the turn color already landed.
func (c *CloudClient) SetColor(ctx context.Context, deviceID string, rgb colorutil.RGB, brightness int) error {
	if err := c.Control(ctx, deviceID, "color", rgb); err != nil {
		return err
	}
	if err := c.Control(ctx, deviceID, "brightness", brightness); err != nil {
		c.log.Warn("cloud brightness command failed", zap.Error(err))
	}
	return nil
}

// Devices returns the account's device list as raw objects, cached briefly so
// startup resolution and state capture do not double-hit the endpoint.
func (c *CloudClient) Devices(ctx context.Context) ([]map[string]any, error) {
	if v, err := c.cache.Get(devicesCacheKey); err == nil {
		return v.([]map[string]any), nil
	}

	status, body, err := c.do(ctx, fasthttp.MethodGet, devicesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("device list: %w", err)
	}
	if status != fasthttp.StatusOK {
		return nil, fmt.Errorf("device list: status %d", status)
	}

	devices, err := decodeDeviceList(body)
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(devicesCacheKey, devices)
	return devices, nil
}

// decodeDeviceList accepts the known response layouts: {"data":[...]},
// {"data":{"devices":[...]}}, or a bare top-level array.
func decodeDeviceList(body []byte) ([]map[string]any, error) {
	var outer any
	if err := json.Unmarshal(body, &outer); err != nil {
		return nil, fmt.Errorf("device list: decode: %w", err)
	}

	var rawList []any
	switch v := outer.(type) {
	case []any:
		rawList = v
	case map[string]any:
		switch data := v["data"].(type) {
		case []any:
			rawList = data
		case map[string]any:
			if list, ok := data["devices"].([]any); ok {
				rawList = list
			}
		}
	}

	devices := make([]map[string]any, 0, len(rawList))
	for _, item := range rawList {
		if m, ok := item.(map[string]any); ok {
			devices = append(devices, m)
		}
	}
	return devices, nil
}

// QueryState locates the device in the account list and extracts whatever
// state fields the response carries. nil means state unknown.
func (c *CloudClient) QueryState(ctx context.Context, deviceID, mac string) *device.LampState {
	devices, err := c.Devices(ctx)
	if err != nil {
		c.log.Debug("state query failed", zap.Error(err))
		return nil
	}
	for _, dev := range devices {
		id, _ := dev["device"].(string)
		if id == deviceID || idsMatch(id, mac) {
			return parseDeviceState(dev)
		}
	}
	return nil
}

// parseDeviceState pulls on/off, brightness, scene and color out of a device
// object, tolerating the shapes the API has been seen to return. Fields that
// do not match any known shape are simply absent.
func parseDeviceState(dev map[string]any) *device.LampState {
	state := &device.LampState{On: true, Brightness: 100}

	if v, ok := dev["onOff"]; ok {
		state.On = truthy(v)
	} else if v, ok := dev["powerState"]; ok {
		state.On = truthy(v)
	}
	if n, ok := toFloat(dev["brightness"]); ok {
		state.Brightness = int(n)
	}
	if s, ok := dev["scene"].(string); ok && s != "" {
		state.Scene = s
	}
	if rgb, ok := parseColorValue(dev["color"]); ok {
		state.Color = &rgb
	}
	if state.Color == nil {
		if props, ok := dev["properties"].([]any); ok {
			for _, p := range props {
				prop, ok := p.(map[string]any)
				if !ok {
					continue
				}
				name, _ := prop["name"].(string)
				if !strings.Contains(strings.ToLower(name), "color") {
					continue
				}
				if rgb, ok := parseColorValue(prop["value"]); ok {
					state.Color = &rgb
					break
				}
			}
		}
	}
	return state
}

// parseColorValue handles {"r","g","b"}, {"red","green","blue"}, [r,g,b]
// arrays and packed 0xRRGGBB integers.
func parseColorValue(v any) (colorutil.RGB, bool) {
	switch c := v.(type) {
	case map[string]any:
		r, okR := toFloat(firstOf(c, "r", "red"))
		g, okG := toFloat(firstOf(c, "g", "green"))
		b, okB := toFloat(firstOf(c, "b", "blue"))
		if okR || okG || okB {
			return colorutil.RGB{R: clampChan(r), G: clampChan(g), B: clampChan(b)}, true
		}
	case []any:
		if len(c) >= 3 {
			r, _ := toFloat(c[0])
			g, _ := toFloat(c[1])
			b, _ := toFloat(c[2])
			return colorutil.RGB{R: clampChan(r), G: clampChan(g), B: clampChan(b)}, true
		}
	case float64:
		return colorutil.FromPacked(uint32(c)), true
	}
	return colorutil.RGB{}, false
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func clampChan(f float64) uint8 {
	if f < 0 {
		return 0
	}
	if f > 255 {
		return 255
	}
	return uint8(f)
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b == 1
	case string:
		return b == "1" || strings.EqualFold(b, "on") || strings.EqualFold(b, "true")
	}
	return false
}

func (c *CloudClient) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	req.Header.Set("Govee-API-Key", c.apiKey)
	if body != nil {
		req.SetBody(body)
	}

	timeout := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		if until := time.Until(dl); until < timeout {
			timeout = until
		}
	}
	if timeout <= 0 {
		return 0, nil, ctx.Err()
	}

	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return 0, nil, err
	}
	out := make([]byte, len(resp.Body()))
	copy(out, resp.Body())
	return resp.StatusCode(), out, nil
}
