package edm

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

func init() {
	registerType(String, func(raw string) (any, error) { return raw, nil })
	registerType(Guid, parseGuid)
	registerType(Binary, parseBinary)
}

func parseGuid(raw string) (any, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("cannot parse '%s' as Edm.Guid: %w", raw, err)
	}
	return id, nil
}

// parseBinary decodes the hex digits of an X'..' or binary'..' literal.
func parseBinary(raw string) (any, error) {
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("cannot parse '%s' as Edm.Binary: %w", raw, err)
	}
	return b, nil
}
