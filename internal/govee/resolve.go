package govee

import (
	"context"
	"strings"
)

// NormalizeMAC strips separators and uppercases, so "5c:e7:53..." and
// "5CE753..." compare equal.
func NormalizeMAC(s string) string {
	s = strings.ReplaceAll(s, ":", "")
	s = strings.ReplaceAll(s, "-", "")
	return strings.ToUpper(strings.TrimSpace(s))
}

// idsMatch compares two device identifiers colon- and case-insensitively,
// tolerating either being a substring of the other. Vendor APIs expose ids in
// formats that only partially overlap the MAC used on the LAN.
func idsMatch(a, b string) bool {
	na, nb := NormalizeMAC(a), NormalizeMAC(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

// ResolveDeviceID maps the configured MAC to the id the cloud API knows the
// device by: exact/substring MAC match, then the first device of the expected
// model, then the configured literal.
func ResolveDeviceID(ctx context.Context, cloud *CloudClient, mac, model string) string {
	devices, err := cloud.Devices(ctx)
	if err != nil || len(devices) == 0 {
		return mac
	}
	for _, dev := range devices {
		if id, ok := dev["device"].(string); ok && idsMatch(id, mac) {
			return id
		}
	}
	for _, dev := range devices {
		sku, _ := dev["sku"].(string)
		if sku == "" {
			sku, _ = dev["model"].(string)
		}
		if strings.EqualFold(sku, model) {
			if id, ok := dev["device"].(string); ok && id != "" {
				return id
			}
		}
	}
	return mac
}
