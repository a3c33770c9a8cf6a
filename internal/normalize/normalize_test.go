package normalize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		want      string
		wantValid bool
	}{
		{"lowercase and trim", "  Baby Crib  ", "baby crib", true},
		{"collapse whitespace", "baby   crib\tmodel", "baby crib model", true},
		{"strip isolated jamo", "ㅋㅋ 유아용침대", "유아용침대", true},
		{"jamo only", "ㄱㄴㄷ", "", false},
		{"empty", "", "", false},
		{"whitespace only", "   ", "", false},
		{"hangul preserved", "유아용침대", "유아용침대", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Text(tt.in)
			if got.Valid != tt.wantValid {
				t.Fatalf("Text(%q).Valid = %v, want %v", tt.in, got.Valid, tt.wantValid)
			}
			if got.Value != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.in, got.Value, tt.want)
			}
		})
	}
}

func TestManufacturer(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"english suffixes", "Shuyang Sunnybury Baby Products Co., Ltd", "shuyang sunnybury baby products"},
		{"korean marker bare", "주식회사 한샘", "한샘"},
		{"korean marker bracketed", "㈜삼성전자", "삼성전자"},
		{"dash glyphs unified", "acme–tools", "acme-tools"},
		{"specials dropped", "Johnson & Johnson, Inc.", "johnson & johnson"},
		{"corporation word", "Acme Corporation", "acme"},
		{"suffix inside word untouched", "Coca-Cola", "coca-cola"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Manufacturer(tt.in)
			if !got.Valid {
				t.Fatalf("Manufacturer(%q) absent, want %q", tt.in, tt.want)
			}
			if got.Value != tt.want {
				t.Errorf("Manufacturer(%q) = %q, want %q", tt.in, got.Value, tt.want)
			}
		})
	}
}

func TestManufacturer_Idempotent(t *testing.T) {
	inputs := []string{
		"Shuyang Sunnybury Baby Products Co., Ltd",
		"주식회사 한샘",
		"㈜ LG전자 Inc.",
		"acme–tools GmbH",
		"",
		"   ",
		"Samsung Electronics Co., Ltd.",
	}
	for _, in := range inputs {
		once := Manufacturer(in)
		twice := Manufacturer(once.Value)
		if once.Valid && twice != once {
			t.Errorf("Manufacturer not idempotent for %q: first %+v, second %+v", in, once, twice)
		}
	}
}

func TestIsWeak(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"  ", true},
		{"a", true},
		{"ab", false},
		{"1", true},
		{"12", false},
		{"ㄱㄴ", true},
		{"ㅇㅏ", true},
		{"유아", false},
		{"침", true},
		{"a!", true},
		{"a1", false},
		{"MC676", false},
		{"!@#$", true},
	}
	for _, tt := range tests {
		if got := IsWeak(tt.in); got != tt.want {
			t.Errorf("IsWeak(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStrong(t *testing.T) {
	if got := Strong(FieldProduct, "a"); got.Valid {
		t.Errorf("Strong should demote weak input to absent, got %+v", got)
	}
	if got := Strong(FieldProduct, "유아용침대"); !got.Valid || got.Value != "유아용침대" {
		t.Errorf("Strong(product) = %+v", got)
	}
	// Manufacturer that reduces to a weak remainder after suffix stripping.
	if got := Strong(FieldManufacturer, "Co., Ltd."); got.Valid {
		t.Errorf("Strong should drop suffix-only manufacturer, got %+v", got)
	}
}

func TestFieldTable(t *testing.T) {
	if FieldModel.Weight() != 40 || FieldProduct.Weight() != 30 || FieldManufacturer.Weight() != 20 {
		t.Errorf("unexpected field weights: model=%d product=%d manufacturer=%d",
			FieldModel.Weight(), FieldProduct.Weight(), FieldManufacturer.Weight())
	}
	if FieldManufacturer.String() != "MANUFACTURER" {
		t.Errorf("FieldManufacturer.String() = %q", FieldManufacturer.String())
	}
	got := FieldManufacturer.Normalize("Acme Inc.")
	if got.Value != "acme" {
		t.Errorf("manufacturer field normalizer not applied: %+v", got)
	}
}
