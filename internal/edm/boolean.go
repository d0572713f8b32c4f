package edm

import (
	"fmt"
	"strconv"
)

func init() {
	registerType(Boolean, parseBoolean)
	registerType(Null, func(string) (any, error) { return nil, nil })
}

func parseBoolean(raw string) (any, error) {
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("cannot parse '%s' as Edm.Boolean: %w", raw, err)
	}
	return v, nil
}
