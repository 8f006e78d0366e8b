package parser

import (
	"testing"
	"time"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{"plain", "$19.99", 19.99},
		{"thousands separator", "$1,234.50", 1234.50},
		{"range takes lower bound", "$10.00 to $20.00", 10.00},
		{"no symbol", "42", 42},
		{"whitespace", "  $5.25 ", 5.25},
		{"country prefix", "US $129.99", 129.99},
		{"pound symbol", "£9.50", 9.50},
		{"unparsable", "Free", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParsePrice(tt.input); got != tt.expected {
				t.Errorf("ParsePrice(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseListingDate(t *testing.T) {
	now := time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		input  string
		ok     bool
		expect time.Time
	}{
		{"valid", "2-Mar 14:05", true, time.Date(2024, 3, 2, 14, 5, 0, 0, time.UTC)},
		{"single digit hour", "2-Mar 9:05", true, time.Date(2024, 3, 2, 9, 5, 0, 0, time.UTC)},
		{"garbage", "yesterday", false, time.Time{}},
		{"empty", "", false, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseListingDate(tt.input, now)
			if ok != tt.ok {
				t.Fatalf("ParseListingDate(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && !got.Equal(tt.expect) {
				t.Errorf("ParseListingDate(%q) = %v, want %v", tt.input, got, tt.expect)
			}
		})
	}
}

const itemHTML = `
<ul>
<li class="s-item"><div class="s-item__title">Shop on eBay</div></li>
<li class="s-item">
  <a class="s-item__link" href="https://www.ebay.com/itm/334455667788?hash=abc">link</a>
  <div class="s-item__title">Widget Deluxe</div>
  <span class="s-item__price">$25.00</span>
  <div class="s-item__image"><img src="/thumbs/1.jpg" data-src="https://i.ebayimg.com/1.jpg"></div>
  <span class="SECONDARY_INFO">Brand New</span>
  <span class="s-item__shipping">Free shipping</span>
  <span class="s-item__quantitySold">12 sold</span>
</li>
<li class="s-item">
  <a class="s-item__link" href="https://www.ebay.com/itm/998877665544?x=1">link</a>
  <div><div class="s-item__title">Gadget</div><span>New Listing</span></div>
  <span class="s-item__price">$10.00 to $20.00</span>
</li>
<li class="s-item">
  <a class="s-item__link" href="https://www.ebay.com/usr/someone">link</a>
  <div class="s-item__title">No ID Item</div>
  <span class="s-item__price">$5.00</span>
</li>
</ul>`

func TestParseListings(t *testing.T) {
	p := NewParser(nil)
	records, err := p.Parse(itemHTML)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// The first container (ad slot) is skipped, the last one has no
	// extractable item id and is dropped.
	if len(records) != 2 {
		t.Fatalf("Parse() returned %d records, want 2", len(records))
	}

	first := records[0]
	if first.ID != "334455667788" {
		t.Errorf("ID = %q, want 334455667788", first.ID)
	}
	if first.Title != "Widget Deluxe" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Price != 25.00 {
		t.Errorf("Price = %v, want 25.00", first.Price)
	}
	if first.ImageURL != "https://i.ebayimg.com/1.jpg" {
		t.Errorf("ImageURL = %q, want data-src value", first.ImageURL)
	}
	if first.Shipping != "Free shipping" {
		t.Errorf("Shipping = %q", first.Shipping)
	}
	if first.SoldCount != 12 {
		t.Errorf("SoldCount = %d, want 12", first.SoldCount)
	}
	if first.IsNewListing {
		t.Error("IsNewListing = true, want false (no badge)")
	}

	second := records[1]
	if second.ID != "998877665544" {
		t.Errorf("ID = %q, want 998877665544", second.ID)
	}
	if second.Price != 10.00 {
		t.Errorf("range price = %v, want lower bound 10.00", second.Price)
	}
	if second.PriceText != "$10.00 to $20.00" {
		t.Errorf("PriceText = %q, want raw text preserved", second.PriceText)
	}
	if !second.IsNewListing {
		t.Error("IsNewListing = false, want true (badge in title region)")
	}
}

func TestParseMissingOptionalFields(t *testing.T) {
	html := `
	<li class="s-item">
	  <a class="s-item__link" href="https://www.ebay.com/itm/111?x=1">l</a>
	  <div class="s-item__title">Bare Item</div>
	</li>`

	p := NewParser(nil)
	records, err := p.Parse(html)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Parse() returned %d records, want 1", len(records))
	}

	r := records[0]
	if r.ID != "111" || r.Title != "Bare Item" {
		t.Errorf("required fields = (%q, %q)", r.ID, r.Title)
	}
	if r.ImageURL != "" || r.Shipping != "" || r.SoldCount != 0 {
		t.Errorf("optional fields should be zero, got image=%q shipping=%q sold=%d",
			r.ImageURL, r.Shipping, r.SoldCount)
	}
	if r.Price != 0 {
		t.Errorf("Price = %v, want 0 for missing price", r.Price)
	}
}

func TestParseMissingIDYieldsNothing(t *testing.T) {
	html := `
	<li class="s-item">
	  <div class="s-item__title">Orphan</div>
	  <span class="s-item__price">$3.00</span>
	</li>`

	p := NewParser(nil)
	records, err := p.Parse(html)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Parse() returned %d records, want 0", len(records))
	}
}

func TestParseSelectorFallback(t *testing.T) {
	// No .s-item__wrapper match; the div[data-listing-id] family should
	// pick this layout up.
	html := `
	<div data-listing-id="1">
	  <a class="s-item__link" href="https://www.ebay.com/itm/555?x=1">l</a>
	  <div class="s-item__title">Alt Layout A</div>
	</div>
	<div data-listing-id="2">
	  <a class="s-item__link" href="https://www.ebay.com/itm/556?x=1">l</a>
	  <div class="s-item__title">Alt Layout B</div>
	</div>
	<div data-listing-id="3">
	  <a class="s-item__link" href="https://www.ebay.com/itm/557?x=1">l</a>
	  <div class="s-item__title">Alt Layout C</div>
	</div>`

	p := NewParser(nil)
	records, err := p.Parse(html)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	// First container is discarded as the ad slot.
	if len(records) != 2 {
		t.Fatalf("Parse() returned %d records, want 2", len(records))
	}
	if records[0].ID != "556" {
		t.Errorf("first kept record ID = %q, want 556", records[0].ID)
	}
}

func TestYesterdayListingFlag(t *testing.T) {
	p := NewParser(nil)
	p.now = func() time.Time {
		return time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC)
	}

	html := `
	<li class="s-item">
	  <a class="s-item__link" href="https://www.ebay.com/itm/222?x=1">l</a>
	  <div class="s-item__title">Dated Item</div>
	  <span class="s-item__listingDate">2-Mar 08:15</span>
	</li>`

	records, err := p.Parse(html)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Parse() returned %d records, want 1", len(records))
	}
	r := records[0]
	if r.ListedAt == nil {
		t.Fatal("ListedAt = nil, want parsed date")
	}
	if !r.IsYesterdayListing {
		t.Error("IsYesterdayListing = false, want true")
	}
}
