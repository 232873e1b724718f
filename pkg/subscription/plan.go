package subscription

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// premiumMarker is the substring that identifies the premium tier in free-text
// product names ("Plano Premium Anual", "VemX1 PREMIUM").
const premiumMarker = "premium"

// DerivePlan maps a free-text product name to a plan.
// Anything that does not mention the premium tier is basic.
func DerivePlan(productName string) Plan {
	if strings.Contains(foldName(productName), premiumMarker) {
		return PlanPremium
	}
	return PlanBasic
}

// foldName lower-cases and strips diacritics so "Prémium" and "PREMIUM" compare equal.
func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// CatalogConfig holds plan catalog and reconciliation settings.
type CatalogConfig struct {
	CatalogFile string `env:"PLAN_CATALOG_FILE"`
	TrialDays   int    `env:"TRIAL_DAYS" envDefault:"7"`
}

// PlanInfo describes how a plan is sold on each provider.
type PlanInfo struct {
	Plan          Plan    `yaml:"plan"`
	Name          string  `yaml:"name"`
	Price         float64 `yaml:"price"`
	Currency      string  `yaml:"currency"`
	HotmartOffer  string  `yaml:"hotmart_offer"`
	PaddlePriceID string  `yaml:"paddle_price_id"`
}

// Catalog is the immutable set of sellable plans.
type Catalog struct {
	plans map[Plan]PlanInfo
}

// DefaultCatalog returns the built-in plan catalog.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(
		PlanInfo{Plan: PlanBasic, Name: "VemX1 Básico", Price: 9.90, Currency: "BRL"},
		PlanInfo{Plan: PlanPremium, Name: "VemX1 Premium", Price: 19.90, Currency: "BRL"},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// NewCatalog validates and copies the given plans.
func NewCatalog(plans ...PlanInfo) (*Catalog, error) {
	if len(plans) == 0 {
		return nil, errors.Join(ErrFailedToLoadCatalog, errors.New("at least one plan is required"))
	}
	c := &Catalog{plans: make(map[Plan]PlanInfo, len(plans))}
	for _, p := range plans {
		if !p.Plan.Valid() {
			return nil, errors.Join(ErrFailedToLoadCatalog, fmt.Errorf("unknown plan %q", p.Plan))
		}
		if p.Price < 0 {
			return nil, errors.Join(ErrFailedToLoadCatalog, fmt.Errorf("plan %s has negative price", p.Plan))
		}
		if p.Currency == "" {
			p.Currency = "BRL"
		}
		c.plans[p.Plan] = p
	}
	return c, nil
}

// LoadCatalog reads a YAML catalog file. An empty path yields the default catalog.
//
//	plans:
//	  - plan: premium
//	    name: VemX1 Premium
//	    price: 19.90
//	    hotmart_offer: abc123
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}
	var doc struct {
		Plans []PlanInfo `yaml:"plans"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}
	return NewCatalog(doc.Plans...)
}

// Lookup returns the catalog entry for a plan.
func (c *Catalog) Lookup(p Plan) (PlanInfo, error) {
	info, ok := c.plans[p]
	if !ok {
		return PlanInfo{}, errors.Join(ErrPlanNotInCatalog, fmt.Errorf("plan %q", p))
	}
	return info, nil
}

// Plans returns all entries ordered by plan name.
func (c *Catalog) Plans() []PlanInfo {
	out := make([]PlanInfo, 0, len(c.plans))
	for _, p := range c.plans {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b PlanInfo) int { return strings.Compare(string(a.Plan), string(b.Plan)) })
	return out
}

// PlanByPaddlePrice finds the plan sold under a Paddle price id.
func (c *Catalog) PlanByPaddlePrice(priceID string) (Plan, bool) {
	if priceID == "" {
		return PlanNone, false
	}
	for _, p := range c.plans {
		if p.PaddlePriceID == priceID {
			return p.Plan, true
		}
	}
	return PlanNone, false
}

// PlanByHotmartOffer finds the plan sold under a Hotmart offer code.
func (c *Catalog) PlanByHotmartOffer(code string) (Plan, bool) {
	if code == "" {
		return PlanNone, false
	}
	for _, p := range c.plans {
		if p.HotmartOffer == code {
			return p.Plan, true
		}
	}
	return PlanNone, false
}
