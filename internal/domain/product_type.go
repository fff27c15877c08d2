package domain

import (
	"fmt"
	"strings"
)

type ProductType string

const (
	ProductTypeHeatSink  ProductType = "HEAT_SINK"
	ProductTypeCapacitor ProductType = "CAPACITOR"
	ProductTypeOther     ProductType = "OTHER"
)

var productTypes = []ProductType{ProductTypeHeatSink, ProductTypeCapacitor, ProductTypeOther}

func ProductTypes() []ProductType {
	out := make([]ProductType, len(productTypes))
	copy(out, productTypes)
	return out
}

func (t ProductType) Valid() bool {
	for _, known := range productTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseProductType accepts the enum value in any case, with spaces or dashes
// in place of the underscore ("heat sink", "Heat-Sink").
func ParseProductType(raw string) (ProductType, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	value = strings.NewReplacer(" ", "_", "-", "_").Replace(value)
	t := ProductType(value)
	if !t.Valid() {
		return "", fmt.Errorf("unknown product type %q", raw)
	}
	return t, nil
}
