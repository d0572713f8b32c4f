package edm

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	registerType(Decimal, parseDecimal)
}

// parseDecimal accepts the optional M suffix of OData decimal literals.
func parseDecimal(raw string) (any, error) {
	text := strings.TrimRight(raw, "Mm")
	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil, fmt.Errorf("cannot parse '%s' as Edm.Decimal: %w", raw, err)
	}
	return d, nil
}
