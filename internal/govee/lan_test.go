package govee

import (
	"encoding/json"
	"testing"

	"github.com/kapu/chess-lamp-go/internal/colorutil"
)

// The device firmware is picky about the command layout: color must be nested
// under "color" inside "data", with colorTemInKelvin present.
func TestColorPayloadLayout(t *testing.T) {
	msg := lanMsg{Msg: lanMsgBody{Cmd: "colorwc", Data: colorwcData{Color: colorutil.RGB{R: 0, G: 255, B: 0}}}}
	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"msg":{"cmd":"colorwc","data":{"color":{"r":0,"g":255,"b":0},"colorTemInKelvin":0}}}`
	if string(payload) != want {
		t.Errorf("payload = %s, want %s", payload, want)
	}
}

func TestPowerPayloadLayout(t *testing.T) {
	msg := lanMsg{Msg: lanMsgBody{Cmd: "turn", Data: valueData{Value: 0}}}
	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"msg":{"cmd":"turn","data":{"value":0}}}`
	if string(payload) != want {
		t.Errorf("payload = %s, want %s", payload, want)
	}
}

func TestSendWithoutAddress(t *testing.T) {
	lan := NewLAN("", testLogger())
	if lan.Available() {
		t.Error("transport with no address reported available")
	}
	if err := lan.SendColor(colorutil.RGB{R: 1}, 50); err == nil {
		t.Error("SendColor without address should fail")
	}
	if err := lan.SendPower(true); err == nil {
		t.Error("SendPower without address should fail")
	}
}
