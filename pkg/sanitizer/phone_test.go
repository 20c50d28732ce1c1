package sanitizer

import (
	"strings"
	"testing"
)

func TestNormalizeBookingPhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "eleven digit mobile is kept",
			input: "11987654321",
			want:  "+5511987654321",
		},
		{
			name:  "thirteen digits with country code",
			input: "5511987654321",
			want:  "+5511987654321",
		},
		{
			name:  "formatted with country code",
			input: "+55 (11) 98765-4321",
			want:  "+5511987654321",
		},
		{
			name:  "ten digit landline style gets the mobile nine",
			input: "1187654321",
			want:  "+5511987654321",
		},
		{
			name:  "twelve digits with country code then nine inserted",
			input: "551187654321",
			want:  "+5511987654321",
		},
		{
			name:  "punctuation only",
			input: "(21) 3456-7890",
			want:  "+5521934567890",
		},
		{
			name:  "too short uses placeholder",
			input: "98765",
			want:  BookingPhonePlaceholder,
		},
		{
			name:  "empty uses placeholder",
			input: "",
			want:  BookingPhonePlaceholder,
		},
		{
			name:  "letters only uses placeholder",
			input: "sem telefone",
			want:  BookingPhonePlaceholder,
		},
		{
			name:  "country code alone uses placeholder",
			input: "55",
			want:  BookingPhonePlaceholder,
		},
		{
			name:  "long foreign number passes through",
			input: "+351912345678",
			want:  "+55351912345678",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeBookingPhone(tt.input); got != tt.want {
				t.Errorf("NormalizeBookingPhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeBookingPhone_StripsCountryCodeExactlyOnce(t *testing.T) {
	// every 12 or 13 digit number starting with 55 loses exactly that prefix
	locals := []string{"1187654321", "11987654321", "5587654321", "55987654321"}
	for _, local := range locals {
		input := "55" + local
		got := NormalizeBookingPhone(input)
		want := NormalizeBookingPhone(local)
		if got != want {
			t.Errorf("NormalizeBookingPhone(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNormalizeBookingPhone_InsertsNineAfterAreaCode(t *testing.T) {
	for area := 11; area <= 99; area += 11 {
		local := strings.Repeat("3", 8)
		input := string(rune('0'+area/10)) + string(rune('0'+area%10)) + local
		got := NormalizeBookingPhone(input)
		want := "+55" + input[:2] + "9" + local
		if got != want {
			t.Errorf("NormalizeBookingPhone(%q) = %q, want %q", input, got, want)
		}
		if len(got) != len("+55")+11 {
			t.Errorf("NormalizeBookingPhone(%q) local part should have 11 digits, got %q", input, got)
		}
	}
}

func TestNormalizeBookingPhone_ShortNumbersNeverLeak(t *testing.T) {
	for n := 0; n < 10; n++ {
		input := strings.Repeat("7", n)
		if got := NormalizeBookingPhone(input); got != BookingPhonePlaceholder {
			t.Errorf("NormalizeBookingPhone(%q) = %q, want placeholder", input, got)
		}
	}
}

func TestNormalizeBookingPhone_Idempotent(t *testing.T) {
	inputs := []string{"11987654321", "5511987654321", "1187654321", "123", "+55 21 3456-7890"}
	for _, in := range inputs {
		once := NormalizeBookingPhone(in)
		twice := NormalizeBookingPhone(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestSanitizeContactPhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "national mobile",
			input: "(11) 98765-4321",
			want:  "+5511987654321",
		},
		{
			name:  "international format",
			input: "+55 11 98765 4321",
			want:  "+5511987654321",
		},
		{
			name:  "unparseable text kept trimmed",
			input: "  ligar depois  ",
			want:  "ligar depois",
		},
		{
			name:  "empty",
			input: "   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeContactPhone(tt.input); got != tt.want {
				t.Errorf("SanitizeContactPhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDigits(t *testing.T) {
	if got := Digits("+55 (11) 9.8765-4321"); got != "5511987654321" {
		t.Errorf("Digits() = %q", got)
	}
	if got := Digits("abc"); got != "" {
		t.Errorf("Digits(abc) = %q", got)
	}
}
