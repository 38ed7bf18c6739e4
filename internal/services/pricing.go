package services

import (
	"fmt"
	"os"

	"github.com/postcraft/backend/internal/generation"
	"github.com/postcraft/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// TopUpTier maps one payment amount to the credits it buys.
type TopUpTier struct {
	Provider string `yaml:"provider" json:"provider"`
	Currency string `yaml:"currency" json:"currency"`
	Amount   int64  `yaml:"amount" json:"amount"`
	Credits  int64  `yaml:"credits" json:"credits"`
}

// PricingCatalog holds tool prices, variation counts and top-up tiers.
type PricingCatalog struct {
	Tools  map[models.ToolKind]generation.ToolPricing `yaml:"tools" json:"tools"`
	TopUps []TopUpTier                                `yaml:"topups" json:"topups"`
}

// DefaultTopUps is the built-in Razorpay price list (amounts in INR).
var DefaultTopUps = []TopUpTier{
	{Provider: "razorpay", Currency: "INR", Amount: 99, Credits: 40},
	{Provider: "razorpay", Currency: "INR", Amount: 199, Credits: 100},
	{Provider: "razorpay", Currency: "INR", Amount: 499, Credits: 300},
	{Provider: "razorpay", Currency: "INR", Amount: 999, Credits: 700},
}

// DefaultPricingCatalog builds the catalog from each tool's own pricing.
func DefaultPricingCatalog() *PricingCatalog {
	c := &PricingCatalog{
		Tools:  make(map[models.ToolKind]generation.ToolPricing, len(models.ToolKinds)),
		TopUps: append([]TopUpTier(nil), DefaultTopUps...),
	}
	for _, t := range generation.Tools() {
		c.Tools[t.Kind()] = t.DefaultPricing()
	}
	return c
}

// LoadPricingCatalog reads a YAML catalog. Environment variables in the format
// ${VAR} are expanded before parsing. Tools absent from the file keep their
// default pricing, and an empty top-up list keeps the default tiers.
// An empty path returns the defaults.
func LoadPricingCatalog(path string) (*PricingCatalog, error) {
	c := DefaultPricingCatalog()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pricing: read catalog: %w", err)
	}

	var file PricingCatalog
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &file); err != nil {
		return nil, fmt.Errorf("pricing: parse catalog: %w", err)
	}

	for kind, p := range file.Tools {
		c.Tools[kind] = p
	}
	if len(file.TopUps) > 0 {
		c.TopUps = file.TopUps
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the catalog for unknown tools, non-positive prices and duplicate tiers.
func (c *PricingCatalog) Validate() error {
	for kind, p := range c.Tools {
		if _, err := models.ParseToolKind(string(kind)); err != nil {
			return fmt.Errorf("pricing: catalog: %w", err)
		}
		for tier, tp := range map[models.Tier]generation.TierPricing{models.TierBasic: p.Basic, models.TierPremium: p.Premium} {
			if tp.Price <= 0 {
				return fmt.Errorf("pricing: catalog: %s/%s: price must be positive", kind, tier)
			}
			if tp.Variations < 0 {
				return fmt.Errorf("pricing: catalog: %s/%s: variations must not be negative", kind, tier)
			}
		}
	}
	for _, kind := range models.ToolKinds {
		if _, ok := c.Tools[kind]; !ok {
			return fmt.Errorf("pricing: catalog: no pricing for %s", kind)
		}
	}

	seen := make(map[string]bool, len(c.TopUps))
	for i, t := range c.TopUps {
		if t.Provider == "" {
			return fmt.Errorf("pricing: catalog: topups[%d]: provider is required", i)
		}
		if t.Amount <= 0 || t.Credits <= 0 {
			return fmt.Errorf("pricing: catalog: topups[%d]: amount and credits must be positive", i)
		}
		key := fmt.Sprintf("%s/%d", t.Provider, t.Amount)
		if seen[key] {
			return fmt.Errorf("pricing: catalog: duplicate top-up tier %s", key)
		}
		seen[key] = true
	}
	return nil
}

// Price returns the price and variation count of tool at tier.
func (c *PricingCatalog) Price(tool models.ToolKind, tier models.Tier) (generation.TierPricing, bool) {
	p, ok := c.Tools[tool]
	if !ok {
		return generation.TierPricing{}, false
	}
	tp := p.For(tier)
	if tp.Variations < 1 {
		tp.Variations = 1
	}
	return tp, true
}

// TierForCredits resolves the legacy credits selector: a value equal to the
// premium price selects premium, anything else basic.
func (c *PricingCatalog) TierForCredits(tool models.ToolKind, credits int64) models.Tier {
	if p, ok := c.Tools[tool]; ok && credits == p.Premium.Price && p.Premium.Price != p.Basic.Price {
		return models.TierPremium
	}
	return models.TierBasic
}

// CreditsFor returns the credits bought by amount through provider.
func (c *PricingCatalog) CreditsFor(provider string, amount int64) (int64, bool) {
	for _, t := range c.TopUps {
		if t.Provider == provider && t.Amount == amount {
			return t.Credits, true
		}
	}
	return 0, false
}
