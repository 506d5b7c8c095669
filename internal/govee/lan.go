package govee

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/chess-lamp-go/internal/colorutil"
)

// LAN protocol constants. Commands are JSON datagrams; the device class in
// question rarely acknowledges them, so a read timeout after a successful
// write counts as provisional success.
const (
	multicastAddress = "239.255.255.250"
	discoveryPort    = 4001
	responsePort     = 4002

	lanWriteTimeout = 200 * time.Millisecond
	lanReadTimeout  = 300 * time.Millisecond
)

var controlPorts = []int{4001, 4002, 4003}

var errNoDeviceIP = errors.New("govee lan: no device address")

type lanMsg struct {
	Msg lanMsgBody `json:"msg"`
}

type lanMsgBody struct {
	Cmd  string `json:"cmd"`
	Data any    `json:"data"`
}

type colorwcData struct {
	Color            colorutil.RGB `json:"color"`
	ColorTemInKelvin int           `json:"colorTemInKelvin"`
}

type valueData struct {
	Value int `json:"value"`
}

type scanData struct {
	AccountTopic string `json:"account_topic"`
}

type scanResponse struct {
	Msg struct {
		Cmd  string `json:"cmd"`
		Data struct {
			IP     string `json:"ip"`
			Device string `json:"device"`
			SKU    string `json:"sku"`
		} `json:"data"`
	} `json:"msg"`
}

// LANTransport sends control datagrams straight to the lamp on the local
// network. Safe to construct without an address; Available reports whether a
// target is known.
type LANTransport struct {
	deviceIP string
	log      *zap.Logger
}

func NewLAN(deviceIP string, log *zap.Logger) *LANTransport {
	return &LANTransport{deviceIP: deviceIP, log: log}
}

func (t *LANTransport) Available() bool { return t.deviceIP != "" }

func (t *LANTransport) IP() string { return t.deviceIP }

func (t *LANTransport) SetIP(ip string) { t.deviceIP = ip }

// SendColor pushes the color command, then brightness best-effort. Each goes
// out on the first port that accepts the write, reply or not.
func (t *LANTransport) SendColor(c colorutil.RGB, brightness int) error {
	if !t.Available() {
		return errNoDeviceIP
	}
	color := lanMsg{Msg: lanMsgBody{Cmd: "colorwc", Data: colorwcData{Color: c}}}
	if err := t.send(color); err != nil {
		return err
	}
	if brightness > 0 {
		bri := lanMsg{Msg: lanMsgBody{Cmd: "brightness", Data: valueData{Value: brightness}}}
		if err := t.send(bri); err != nil {
			t.log.Debug("lan brightness write failed", zap.Error(err))
		}
	}
	return nil
}

// SendPower turns the lamp on or off.
func (t *LANTransport) SendPower(on bool) error {
	if !t.Available() {
		return errNoDeviceIP
	}
	v := 0
	if on {
		v = 1
	}
	return t.send(lanMsg{Msg: lanMsgBody{Cmd: "turn", Data: valueData{Value: v}}})
}

func (t *LANTransport) send(msg lanMsg) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Msg.Cmd, err)
	}

	var lastErr error
	for _, port := range controlPorts {
		conn, err := net.DialTimeout("udp", fmt.Sprintf("%s:%d", t.deviceIP, port), lanWriteTimeout)
		if err != nil {
			lastErr = err
			continue
		}
		_, err = conn.Write(payload)
		if err != nil {
			lastErr = err
			conn.Close()
			continue
		}

		buf := make([]byte, 1024)
		_ = conn.SetReadDeadline(time.Now().Add(lanReadTimeout))
		if n, err := conn.Read(buf); err == nil {
			t.log.Debug("lan reply", zap.Int("port", port), zap.ByteString("body", buf[:n]))
		}
		conn.Close()
		// No reply is normal for this device class; the write went out.
		return nil
	}
	if lastErr == nil {
		lastErr = errNoDeviceIP
	}
	return fmt.Errorf("govee lan %s: %w", msg.Msg.Cmd, lastErr)
}

// Discover broadcasts a scan request and waits for the first device response,
// returning its address. Used when no device IP is configured.
func Discover(ctx context.Context, log *zap.Logger) (string, error) {
	maddr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", multicastAddress, discoveryPort))
	if err != nil {
		return "", fmt.Errorf("resolve multicast address: %w", err)
	}

	listener, err := net.ListenUDP("udp4", &net.UDPAddr{Port: responsePort})
	if err != nil {
		return "", fmt.Errorf("listen for scan responses: %w", err)
	}
	defer listener.Close()

	req := lanMsg{Msg: lanMsgBody{Cmd: "scan", Data: scanData{AccountTopic: "reserve"}}}
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	if _, err := listener.WriteToUDP(payload, maddr); err != nil {
		return "", fmt.Errorf("send scan request: %w", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = listener.SetReadDeadline(deadline)

	buf := make([]byte, 2048)
	for {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		n, addr, err := listener.ReadFromUDP(buf)
		if err != nil {
			return "", fmt.Errorf("no scan response: %w", err)
		}
		var resp scanResponse
		if err := json.Unmarshal(buf[:n], &resp); err != nil {
			log.Debug("unparseable scan response", zap.String("from", addr.String()))
			continue
		}
		if resp.Msg.Cmd != "scan" {
			continue
		}
		ip := resp.Msg.Data.IP
		if ip == "" {
			ip = addr.IP.String()
		}
		log.Info("discovered device",
			zap.String("ip", ip),
			zap.String("sku", resp.Msg.Data.SKU),
			zap.String("device", resp.Msg.Data.Device))
		return ip, nil
	}
}
