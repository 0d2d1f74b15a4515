package cli

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: Indian currency formatting is lossless up to two decimals.
// Stripping the rupee sign and group separators yields the original amount,
// and every group separator sits at an Indian grouping position (3 digits,
// then groups of 2).
func TestProperty_IndianCurrencyRoundTrips(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("Formatted amount parses back to the input", prop.ForAll(
		func(paise int64) bool {
			amount := float64(paise) / 100
			formatted := FormatIndianCurrency(amount)

			stripped := strings.NewReplacer("₹", "", ",", "").Replace(formatted)
			parsed, err := strconv.ParseFloat(stripped, 64)
			if err != nil {
				t.Logf("unparseable output %q for %v", formatted, amount)
				return false
			}
			return int64(parsed*100+0.5*sign(parsed)) == paise
		},
		gen.Int64Range(-1e12, 1e12),
	))

	properties.Property("Group separators follow Indian positions", prop.ForAll(
		func(rupees int64) bool {
			formatted := FormatIndianCurrency(float64(rupees))
			intPart := strings.TrimPrefix(formatted, "₹")
			intPart = strings.Split(intPart, ".")[0]

			groups := strings.Split(intPart, ",")
			if len(groups) == 1 {
				return len(groups[0]) <= 3
			}
			// Rightmost group has 3 digits, the rest have 2 except the leftmost.
			if len(groups[len(groups)-1]) != 3 {
				return false
			}
			for i := 1; i < len(groups)-1; i++ {
				if len(groups[i]) != 2 {
					return false
				}
			}
			return len(groups[0]) >= 1 && len(groups[0]) <= 2
		},
		gen.Int64Range(0, 1e15),
	))

	properties.TestingRun(t)
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

func TestFormatIndianCurrency(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "₹0.00"},
		{999, "₹999.00"},
		{1000, "₹1,000.00"},
		{100000, "₹1,00,000.00"},
		{10000000, "₹1,00,00,000.00"},
		{12345678.90, "₹1,23,45,678.90"},
		{-4500.25, "-₹4,500.25"},
	}

	for _, tt := range tests {
		if got := FormatIndianCurrency(tt.amount); got != tt.want {
			t.Errorf("FormatIndianCurrency(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFormatQuantity(t *testing.T) {
	tests := []struct {
		qty  int64
		want string
	}{
		{5, "5"},
		{100, "100"},
		{1500, "1,500"},
		{250000, "2,50,000"},
	}

	for _, tt := range tests {
		if got := FormatQuantity(tt.qty); got != tt.want {
			t.Errorf("FormatQuantity(%d) = %q, want %q", tt.qty, got, tt.want)
		}
	}
}

func TestFormatVolume(t *testing.T) {
	tests := []struct {
		volume int64
		want   string
	}{
		{500, "500"},
		{2500, "2.5 K"},
		{350000, "3.50 L"},
		{25000000, "2.50 Cr"},
	}

	for _, tt := range tests {
		if got := FormatVolume(tt.volume); got != tt.want {
			t.Errorf("FormatVolume(%d) = %q, want %q", tt.volume, got, tt.want)
		}
	}
}
