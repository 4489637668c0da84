// Package supplier holds the supplier reference data consulted by the quote
// pipeline: profiles, eligibility, and the reliability ledger updated from
// completed case outcomes.
package supplier

import "github.com/quoteflow-systems/engine/domain"

// Profile describes one supplier in the registry.
type Profile struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Reliability float64  `yaml:"reliability" json:"reliability"` // 0.0–1.0
	Strategic   bool     `yaml:"strategic" json:"strategic"`
	Regions     []string `yaml:"regions" json:"regions"`
	Products    []string `yaml:"products" json:"products"`
}

// Eligible reports whether the supplier can serve the request's product type
// and region. An empty list or a "*" entry matches everything.
func (p Profile) Eligible(req domain.StructuredRequest) bool {
	return matches(p.Products, req.ProductType) && matches(p.Regions, req.Region)
}

func matches(values []string, want string) bool {
	if len(values) == 0 {
		return true
	}
	for _, v := range values {
		if v == "*" || v == want {
			return true
		}
	}
	return false
}
