package notify

import (
	"strings"
	"testing"
)

func TestFormatVolume(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{2_500_000, "$2.50M"},
		{12_500, "$12.50K"},
		{999.5, "$999.50"},
		{0, "$0.00"},
	}
	for _, tt := range tests {
		if got := FormatVolume(tt.v); got != tt.want {
			t.Errorf("FormatVolume(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestStars(t *testing.T) {
	if got := Stars(3); got != "⭐⭐⭐" {
		t.Errorf("Stars(3) = %q", got)
	}
	if got := Stars(0); got != "⭐" {
		t.Errorf("Stars(0) = %q, want one star", got)
	}
}

func TestFormatOpportunity(t *testing.T) {
	title, body := FormatOpportunity(sampleOpportunity())

	if !strings.Contains(title, "20.00%") {
		t.Errorf("title = %q, want profit", title)
	}
	for _, want := range []string{
		"Buy *YES* on *kalshi* at $0.410 (24h vol $2.50M)",
		"Buy *NO* on *polymarket* at $0.390 (24h vol $12.50K)",
		"Total cost: $0.800",
		"Profit: *20.0000%*",
		"⭐⭐⭐⭐⭐",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestFormatEscapesMarkdown(t *testing.T) {
	opp := sampleOpportunity()
	opp.BuyYesOn.Question = "Will *this* be_bold?"
	opp.BuyNoOn.Question = opp.BuyYesOn.Question

	_, body := FormatOpportunity(opp)
	if !strings.Contains(body, `Will \*this\* be\_bold?`) {
		t.Errorf("question not escaped:\n%s", body)
	}
}
