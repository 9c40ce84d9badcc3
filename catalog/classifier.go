package catalog

import "strings"

// TypeClassifier tags a product with its type. Classification is pluggable:
// deployments with real product metadata should supply their own
// implementation instead of relying on name matching.
type TypeClassifier interface {
	Classify(p Product) ProductType
}

// StaticClassifier classifies by an explicit productID → type table and
// falls back to a secondary classifier for unknown ids. This is the
// preferred implementation when the catalog records types directly.
type StaticClassifier struct {
	Types    map[string]ProductType
	Fallback TypeClassifier
}

func (c StaticClassifier) Classify(p Product) ProductType {
	if t, ok := c.Types[p.ID]; ok {
		return t
	}
	if c.Fallback != nil {
		return c.Fallback.Classify(p)
	}
	return TypePhysical
}

// NameClassifier infers the type from product name tokens. It exists as a
// stand-in for catalogs that do not record a type; anything unrecognized is
// treated as physical.
type NameClassifier struct{}

var (
	digitalTokens = []string{"ebook", "e-book", "digital", "download", "license", "software", "subscription", "online course"}
	serviceTokens = []string{"service", "consulting", "support", "installation", "training", "maintenance", "assembly"}
)

func (NameClassifier) Classify(p Product) ProductType {
	name := strings.ToLower(p.Name)
	for _, tok := range serviceTokens {
		if strings.Contains(name, tok) {
			return TypeService
		}
	}
	for _, tok := range digitalTokens {
		if strings.Contains(name, tok) {
			return TypeDigital
		}
	}
	return TypePhysical
}
