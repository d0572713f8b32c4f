package edm

import (
	"fmt"
	"strconv"
	"strings"
)

func init() {
	registerType(Byte, intParser(Byte, 8, true))
	registerType(SByte, intParser(SByte, 8, false))
	registerType(Int16, intParser(Int16, 16, false))
	registerType(Int32, intParser(Int32, 32, false))
	registerType(Int64, intParser(Int64, 64, false))
	registerType(Single, floatParser(Single, 32))
	registerType(Double, floatParser(Double, 64))
}

// intParser returns a parser yielding int64 values range-checked against bits.
func intParser(t SimpleType, bits int, unsigned bool) LiteralParser {
	return func(raw string) (any, error) {
		text := strings.TrimRight(raw, "Ll")
		if unsigned {
			v, err := strconv.ParseUint(text, 10, bits)
			if err != nil {
				return nil, fmt.Errorf("cannot parse '%s' as %s: %w", raw, t, err)
			}
			return int64(v), nil
		}
		v, err := strconv.ParseInt(text, 10, bits)
		if err != nil {
			return nil, fmt.Errorf("cannot parse '%s' as %s: %w", raw, t, err)
		}
		return v, nil
	}
}

func floatParser(t SimpleType, bits int) LiteralParser {
	return func(raw string) (any, error) {
		text := strings.TrimRight(raw, "dDfF")
		v, err := strconv.ParseFloat(text, bits)
		if err != nil {
			return nil, fmt.Errorf("cannot parse '%s' as %s: %w", raw, t, err)
		}
		return v, nil
	}
}
