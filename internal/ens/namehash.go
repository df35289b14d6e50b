package ens

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/ensmock/internal/domain"
	"golang.org/x/net/idna"
)

// RootNode is the namehash of the empty domain
var RootNode = common.Hash{}

// UTS-46 lookup processing: non-transitional mapping with label validation
// and STD3 rules. Hyphen placement is not checked.
var profile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(false),
	idna.ValidateLabels(true),
	idna.CheckHyphens(false),
)

// Normalize maps a domain to the form that is hashed on chain.
func Normalize(name string) (string, error) {
	if name == "" {
		return "", nil
	}
	if !utf8.ValidString(name) {
		return "", fmt.Errorf("%w: %q is not valid UTF-8", domain.ErrInvalidDomain, name)
	}
	out, err := profile.ToUnicode(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", domain.ErrInvalidDomain, name, err)
	}
	for _, label := range strings.Split(out, ".") {
		if label == "" {
			return "", fmt.Errorf("%w: %q has an empty label", domain.ErrInvalidDomain, name)
		}
	}
	return out, nil
}

// NameHash computes the ENS node of a domain. The empty domain is the root.
func NameHash(name string) (common.Hash, error) {
	normalized, err := Normalize(name)
	if err != nil {
		return common.Hash{}, err
	}
	if normalized == "" {
		return RootNode, nil
	}

	node := RootNode
	labels := strings.Split(normalized, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		node = crypto.Keccak256Hash(node.Bytes(), crypto.Keccak256([]byte(labels[i])))
	}
	return node, nil
}

// MustNameHash is NameHash for inputs known to be valid
func MustNameHash(name string) common.Hash {
	node, err := NameHash(name)
	if err != nil {
		panic(err)
	}
	return node
}

// LabelHash hashes a single label after normalization
func LabelHash(label string) (common.Hash, error) {
	if strings.Contains(label, ".") {
		return common.Hash{}, fmt.Errorf("%w: label %q contains a dot", domain.ErrInvalidDomain, label)
	}
	normalized, err := Normalize(label)
	if err != nil {
		return common.Hash{}, err
	}
	if normalized == "" {
		return common.Hash{}, fmt.Errorf("%w: empty label", domain.ErrInvalidDomain)
	}
	return crypto.Keccak256Hash([]byte(normalized)), nil
}
