package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SiteProfile describes one listing-page layout family: where to find
// listing containers, fields within them, and how pagination is labeled.
// The defaults target eBay storefront search pages; a yaml file can
// override them when the site shifts its markup.
type SiteProfile struct {
	// ContainerSelectors are tried in order; the first one that matches
	// at least one element wins. Families are exclusive fallbacks, never
	// merged.
	ContainerSelectors []string `yaml:"container_selectors"`

	Fields struct {
		Title         string `yaml:"title"`
		Link          string `yaml:"link"`
		Price         string `yaml:"price"`
		Image         string `yaml:"image"`
		Status        string `yaml:"status"`
		Shipping      string `yaml:"shipping"`
		Category      string `yaml:"category"`
		SellerInfo    string `yaml:"seller_info"`
		SoldCount     string `yaml:"sold_count"`
		OriginalPrice string `yaml:"original_price"`
		Discount      string `yaml:"discount"`
		Highlight     string `yaml:"highlight"`
		ListingDate   string `yaml:"listing_date"`
	} `yaml:"fields"`

	Pagination struct {
		NextSelector   string   `yaml:"next_selector"`
		NextLabels     []string `yaml:"next_labels"`
		WidgetSelector string   `yaml:"widget_selector"`
		PageParam      string   `yaml:"page_param"`
	} `yaml:"pagination"`

	UserAgents []string `yaml:"user_agents"`
}

// DefaultProfile returns the built-in eBay storefront profile.
func DefaultProfile() *SiteProfile {
	p := &SiteProfile{
		ContainerSelectors: []string{
			".s-item__wrapper",
			".srp-results .s-item",
			"#srp-river-results .s-item",
			".b-list__items_nofooter .s-item",
			"li.s-item",
			".srp-river-results li.s-item",
			"div[data-listing-id]",
		},
		UserAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36 Edg/121.0.0.0",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:123.0) Gecko/20100101 Firefox/123.0",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.4 Safari/605.1.15",
			"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/119.0",
		},
	}
	p.Fields.Title = ".s-item__title"
	p.Fields.Link = "a.s-item__link"
	p.Fields.Price = ".s-item__price"
	p.Fields.Image = ".s-item__image img, .s-item__image-img"
	p.Fields.Status = ".SECONDARY_INFO"
	p.Fields.Shipping = ".s-item__shipping, .s-item__freeXBorder"
	p.Fields.Category = ".s-item__category span.clipped"
	p.Fields.SellerInfo = ".s-item__seller-info-text, .s-item__seller-info"
	p.Fields.SoldCount = ".s-item__quantitySold"
	p.Fields.OriginalPrice = ".STRIKETHROUGH"
	p.Fields.Discount = ".s-item__discount"
	p.Fields.Highlight = ".LIGHT_HIGHLIGHT, .s-item__title--tagblock"
	p.Fields.ListingDate = ".s-item__listingDate"
	p.Pagination.NextSelector = "a.pagination__next, nav.pagination a[rel='next']"
	p.Pagination.NextLabels = []string{"next", "next page", ">"}
	p.Pagination.WidgetSelector = "nav.pagination, .pagination__items"
	p.Pagination.PageParam = "_pgn"
	return p
}

// LoadProfile reads a site profile from a yaml file, filling unset
// sections from the defaults.
func LoadProfile(path string) (*SiteProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	p := DefaultProfile()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse profile file: %w", err)
	}
	if len(p.ContainerSelectors) == 0 || len(p.UserAgents) == 0 {
		return nil, fmt.Errorf("profile is missing container selectors or user agents")
	}
	return p, nil
}
