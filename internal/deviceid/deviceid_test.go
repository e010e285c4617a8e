package deviceid

import "testing"

func TestNormalizeStripsPrefixesAndSeparators(t *testing.T) {
	cases := map[string]ID{
		"VID_05A6&PID_0A00":       "05A60A00",
		"vid_05a6&pid_0a00":       "05A60A00",
		"05a6:0a00":               "05A60A00",
		" 05A6 0A00 \t":           "05A60A00",
		"05A60A00":                "05A60A00",
		"VID_05A6&PID_0A00&MI_00": "05A60A00MI00",
		"ROOT_HUB30":              "ROOTHUB30",
		"":                        "",
	}
	for raw, want := range cases {
		if got := Normalize(raw); got != want {
			t.Errorf("Normalize(%q): got %q want %q", raw, got, want)
		}
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"VID_05A6&PID_0A00",
		"vid__pid__",
		"VVID_ID_",
		"PID_VID_1234",
		"a b:c&d_e",
		"ÄBC_def",
		" VID_1 ",
		"",
	}
	for _, raw := range inputs {
		once := Normalize(raw)
		if twice := Normalize(string(once)); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", raw, once, twice)
		}
	}
}

func TestValidFlagsSuspectLengths(t *testing.T) {
	if !Normalize("VID_05A6&PID_0A00").Valid() {
		t.Fatal("expected well-formed identifier to be valid")
	}
	short := Normalize("VID_05A6")
	if short.Valid() {
		t.Fatalf("expected %q to be flagged", short)
	}
	if short != "05A6" {
		t.Fatalf("suspect identifiers must be returned as-is, got %q", short)
	}
}

func TestNormalizeAnyRejectsNonStrings(t *testing.T) {
	if id, ok := NormalizeAny(42); ok || id != "" {
		t.Fatalf("expected empty result for non-string, got %q ok=%v", id, ok)
	}
	if id, ok := NormalizeAny(nil); ok || id != "" {
		t.Fatalf("expected empty result for nil, got %q ok=%v", id, ok)
	}
	id, ok := NormalizeAny("vid_1234&pid_abcd")
	if !ok || id != "1234ABCD" {
		t.Fatalf("unexpected result %q ok=%v", id, ok)
	}
}

func TestVendorProduct(t *testing.T) {
	id := ID("05A60A00")
	if id.Vendor() != "05A6" || id.Product() != "0A00" {
		t.Fatalf("unexpected split: %q %q", id.Vendor(), id.Product())
	}
	if ID("123").Vendor() != "" {
		t.Fatal("expected empty vendor for malformed id")
	}
}

func TestSetContains(t *testing.T) {
	var empty Set
	if empty.Contains("05A60A00") {
		t.Fatal("nil set must contain nothing")
	}
	set := NewSet("05A60A00")
	if !set.Contains("05A60A00") || set.Contains("AAAA1111") {
		t.Fatal("unexpected membership")
	}
}
