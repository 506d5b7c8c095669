package govee

import "testing"

func TestNormalizeMAC(t *testing.T) {
	cases := []struct{ in, want string }{
		{"5c:e7:53:34:20:4c", "5CE75334204C"},
		{"5C-E7-53-34-20-4C", "5CE75334204C"},
		{" aa:BB:cc ", "AABBCC"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeMAC(tc.in); got != tc.want {
			t.Errorf("NormalizeMAC(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIDsMatch(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"5C:E7:53:34:20:4C", "5ce75334204c", true},
		// Cloud ids often carry extra prefix segments around the MAC.
		{"12:5C:E7:53:34:20:4C:AB", "5C:E7:53:34:20:4C", true},
		{"5C:E7:53:34:20:4C", "11:22:33:44:55:66", false},
		{"", "5C:E7:53:34:20:4C", false},
	}
	for _, tc := range cases {
		if got := idsMatch(tc.a, tc.b); got != tc.want {
			t.Errorf("idsMatch(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
