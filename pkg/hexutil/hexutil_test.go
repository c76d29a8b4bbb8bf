package hexutil

import "testing"

func TestEncodeUint64(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{0, "0x0"},
		{1, "0x1"},
		{0x1000, "0x1000"},
		{0xdeadbeef, "0xdeadbeef"},
	}
	for _, c := range cases {
		if got := EncodeUint64(c.in); got != c.want {
			t.Errorf("EncodeUint64(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDecodeUint64WithPrefix(t *testing.T) {
	v, err := DecodeUint64("0x40000000")
	if err != nil {
		t.Fatalf("DecodeUint64: %v", err)
	}
	if v != 0x40000000 {
		t.Errorf("DecodeUint64 = 0x%x, want 0x40000000", v)
	}
}

func TestDecodeUint64WithoutPrefix(t *testing.T) {
	v, err := DecodeUint64("40000000")
	if err != nil {
		t.Fatalf("DecodeUint64: %v", err)
	}
	if v != 0x40000000 {
		t.Errorf("DecodeUint64 = 0x%x, want 0x40000000", v)
	}
}

func TestDecodeUint64RejectsMalformed(t *testing.T) {
	if _, err := DecodeUint64("0xZZZZ"); err == nil {
		t.Fatal("DecodeUint64 of a malformed hex string succeeded, want an error")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 255, 0x123456789abcdef0} {
		s := EncodeUint64(v)
		got, err := DecodeUint64(s)
		if err != nil {
			t.Fatalf("DecodeUint64(%q): %v", s, err)
		}
		if got != v {
			t.Errorf("round trip of %d via %q = %d", v, s, got)
		}
	}
}
