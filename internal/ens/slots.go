package ens

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/trebuchet-org/ensmock/internal/domain"
)

// RecordsBaseSlot is the storage slot of the registry's
// mapping(bytes32 => Record) records
const RecordsBaseSlot = 0

// Word offsets of a record. The deployed registry packs resolver and ttl
// into the word at resolverOffset, so ttlOffset is the unpacked position only.
const (
	ownerOffset    = 0
	resolverOffset = 1
	ttlOffset      = 2
)

// SlotsFor computes the storage slots of a node's record:
// owner = keccak256(node . uint256(0)), resolver = owner+1, ttl = owner+2
func SlotsFor(node common.Hash) domain.Slots {
	base := uint256.NewInt(RecordsBaseSlot).Bytes32()
	owner := crypto.Keccak256Hash(node.Bytes(), base[:])

	return domain.Slots{
		Owner:    offset(owner, ownerOffset),
		Resolver: offset(owner, resolverOffset),
		TTL:      offset(owner, ttlOffset),
	}
}

// SlotsForDomain hashes the domain and returns its record slots
func SlotsForDomain(name string) (domain.Slots, error) {
	node, err := NameHash(name)
	if err != nil {
		return domain.Slots{}, err
	}
	return SlotsFor(node), nil
}

// offset adds n to a slot with 256-bit wrap-around
func offset(slot common.Hash, n uint64) common.Hash {
	if n == 0 {
		return slot
	}
	v := new(uint256.Int).SetBytes32(slot.Bytes())
	v.AddUint64(v, n)
	return common.Hash(v.Bytes32())
}

// PadAddress left-pads an address to a storage word
func PadAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

// ParseSlot parses a user-supplied slot. Both QUANTITY ("0x1") and full
// 32-byte DATA forms are accepted.
func ParseSlot(s string) (common.Hash, error) {
	raw := strings.TrimSpace(s)
	if !strings.HasPrefix(raw, "0x") && !strings.HasPrefix(raw, "0X") {
		return common.Hash{}, fmt.Errorf("%w: %q is missing 0x prefix", domain.ErrInvalidSlot, s)
	}
	v, err := uint256.FromHex(normalizeQuantity(raw[2:]))
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %q: %v", domain.ErrInvalidSlot, s, err)
	}
	return common.Hash(v.Bytes32()), nil
}

// normalizeQuantity strips leading zeros so full-width words parse as quantities
func normalizeQuantity(digits string) string {
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" && digits != "" {
		trimmed = "0"
	}
	return "0x" + trimmed
}

// SlotQuantity formats a slot as a JSON-RPC QUANTITY (no leading zeros).
// This is the canonical wire format for setStorageAt positions.
func SlotQuantity(slot common.Hash) string {
	v := new(uint256.Int).SetBytes32(slot.Bytes())
	return v.Hex()
}
