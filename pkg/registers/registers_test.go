package registers

import (
	"context"
	"errors"
	"testing"
)

type fakeLister struct {
	raw []RawRegister
	err error
}

func (f fakeLister) ListRegisters(ctx context.Context) ([]RawRegister, error) {
	return f.raw, f.err
}

func TestDefaultAArch64Classifier(t *testing.T) {
	cases := []struct {
		raw        string
		wantInc    bool
		wantClass  Class
		wantWidth  int
	}{
		{"long", true, Scalar, 8},
		{"uint64_t", true, Scalar, 8},
		{"void *", true, Scalar, 8},
		{"func_ptr", true, Scalar, 8},
		{"vec128", true, Vector128, 16},
		{"int128_union", true, Vector128, 16},
		{"short", false, Scalar, 0},
		{"unknown_type", false, Scalar, 0},
	}
	for _, tc := range cases {
		inc, class, width := DefaultAArch64Classifier(tc.raw)
		if inc != tc.wantInc || class != tc.wantClass || width != tc.wantWidth {
			t.Errorf("DefaultAArch64Classifier(%q) = (%v,%v,%d), want (%v,%v,%d)",
				tc.raw, inc, class, width, tc.wantInc, tc.wantClass, tc.wantWidth)
		}
	}
}

func TestBitCount(t *testing.T) {
	scalar := Descriptor{ByteWidth: 8, Class: Scalar}
	if got := scalar.BitCount(); got != 64 {
		t.Errorf("scalar BitCount() = %d, want 64", got)
	}
	vec := Descriptor{ByteWidth: 16, Class: Vector128}
	if got := vec.BitCount(); got != 64 {
		t.Errorf("vector128 BitCount() = %d, want 64 (one half at a time)", got)
	}
	small := Descriptor{ByteWidth: 2, Class: Scalar}
	if got := small.BitCount(); got != 16 {
		t.Errorf("2-byte BitCount() = %d, want 16", got)
	}
}

func TestClassString(t *testing.T) {
	if Scalar.String() != "scalar" {
		t.Errorf("Scalar.String() = %q, want scalar", Scalar.String())
	}
	if Vector128.String() != "vector128" {
		t.Errorf("Vector128.String() = %q, want vector128", Vector128.String())
	}
}

func TestLoadFiltersAndCaches(t *testing.T) {
	lister := fakeLister{raw: []RawRegister{
		{Name: "x0", Type: "long"},
		{Name: "pc", Type: "code_ptr"},
		{Name: "v0", Type: "vec128"},
		{Name: "cpsr", Type: "uint32_t"}, // not in allow-list
	}}

	inv := New()
	if err := inv.Load(context.Background(), lister, DefaultAArch64Classifier); err != nil {
		t.Fatalf("Load: %v", err)
	}

	descs := inv.Descriptors()
	if len(descs) != 3 {
		t.Fatalf("Descriptors() = %d entries, want 3 (cpsr excluded)", len(descs))
	}

	if _, ok := inv.Find("cpsr"); ok {
		t.Error("Find(cpsr) found an excluded register")
	}
	d, ok := inv.Find("v0")
	if !ok || d.Class != Vector128 || d.ByteWidth != 16 {
		t.Errorf("Find(v0) = %+v, %v; want Vector128/16/true", d, ok)
	}

	names := inv.Names()
	if len(names) != 3 {
		t.Fatalf("Names() = %d, want 3", len(names))
	}

	// A second Load call must be a no-op: calling it again with a lister that
	// would error must not disturb the already-cached inventory.
	if err := inv.Load(context.Background(), fakeLister{err: errors.New("boom")}, DefaultAArch64Classifier); err != nil {
		t.Fatalf("second Load returned an error: %v", err)
	}
	if len(inv.Descriptors()) != 3 {
		t.Error("second Load call mutated the cached inventory")
	}
}

func TestLoadPropagatesListerError(t *testing.T) {
	inv := New()
	err := inv.Load(context.Background(), fakeLister{err: errors.New("disconnected")}, DefaultAArch64Classifier)
	if err == nil {
		t.Fatal("Load with a failing lister succeeded, want error")
	}
	if len(inv.Descriptors()) != 0 {
		t.Error("Descriptors() non-empty after a failed Load")
	}
}

func TestDescriptorsOnUnloadedInventory(t *testing.T) {
	inv := New()
	if descs := inv.Descriptors(); len(descs) != 0 {
		t.Errorf("Descriptors() on unloaded inventory = %v, want empty", descs)
	}
	if _, ok := inv.Find("x0"); ok {
		t.Error("Find on unloaded inventory returned ok=true")
	}
}
