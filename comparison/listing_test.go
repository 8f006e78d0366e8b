package comparison

import (
	"testing"

	"store-monitor/models"
)

const itemPageHTML = `<html><body>
<h1 class="x-item-title__mainTitle"><span class="ux-textspans ux-textspans--BOLD">Vintage Camera Lens 50mm</span></h1>
<div class="x-price-primary"><span class="ux-textspans">US $129.99</span></div>
</body></html>`

const endedPageHTML = `<html><body>
<h1 class="x-item-title__mainTitle"><span>Old Gadget</span></h1>
<div class="x-price-primary"><span class="ux-textspans">US $15.00</span></div>
<div class="vim-notification">This listing has ended.</div>
</body></html>`

func TestParseListingPage(t *testing.T) {
	point, err := parseListingPage(itemPageHTML)
	if err != nil {
		t.Fatalf("parseListingPage: %v", err)
	}
	if point.Title != "Vintage Camera Lens 50mm" {
		t.Errorf("title = %q", point.Title)
	}
	if point.Current != 129.99 {
		t.Errorf("price = %v, want 129.99", point.Current)
	}
	if point.Currency != "USD" {
		t.Errorf("currency = %q, want USD", point.Currency)
	}
	if point.Status != models.StatusActive {
		t.Errorf("status = %q, want active", point.Status)
	}
}

func TestParseListingPageEnded(t *testing.T) {
	point, err := parseListingPage(endedPageHTML)
	if err != nil {
		t.Fatalf("parseListingPage: %v", err)
	}
	if point.Status != models.StatusEnded {
		t.Errorf("status = %q, want ended", point.Status)
	}
}

func TestParseListingPageEmpty(t *testing.T) {
	if _, err := parseListingPage("<html><body><p>nothing here</p></body></html>"); err == nil {
		t.Error("expected an error for a page with no listing data")
	}
}

func TestDetectCurrency(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"US $10.00", "USD"},
		{"£9.50", "GBP"},
		{"€20.00", "EUR"},
		{"AU $30.00", "AUD"},
		{"C $25.00", "CAD"},
		{"", "USD"},
	}
	for _, tt := range tests {
		if got := detectCurrency(tt.text); got != tt.want {
			t.Errorf("detectCurrency(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
