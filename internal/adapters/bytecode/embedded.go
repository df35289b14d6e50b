package bytecode

import (
	_ "embed"
	"fmt"

	"github.com/trebuchet-org/ensmock/internal/domain"
)

// Runtime code of the ENS registry (records mapping at slot 0, resolver and
// ttl packed in one word) and of the public resolver.
var (
	//go:embed embedded/registry.hex
	registryHex string

	//go:embed embedded/resolver.hex
	resolverHex string
)

// Embedded returns a copy of the built-in runtime bytecode for contract
func Embedded(contract string) ([]byte, bool) {
	var raw string
	switch contract {
	case domain.ContractRegistry:
		raw = registryHex
	case domain.ContractResolver:
		raw = resolverHex
	default:
		return nil, false
	}
	code, err := Parse([]byte(raw))
	if err != nil {
		panic(fmt.Sprintf("embedded %s bytecode: %v", contract, err))
	}
	return code, true
}
