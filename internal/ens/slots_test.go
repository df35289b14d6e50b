package ens

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/ensmock/internal/domain"
	"pgregory.net/rapid"
)

const rootOwnerSlot = "0xad3228b676f7d3cd4284a5443f17f1962b36e491b30a40b2405849e597ba5fb5"

func TestSlotsFor_Root(t *testing.T) {
	slots := SlotsFor(RootNode)

	assert.Equal(t, common.HexToHash(rootOwnerSlot), slots.Owner)
	assert.Equal(t, common.HexToHash("0xad3228b676f7d3cd4284a5443f17f1962b36e491b30a40b2405849e597ba5fb6"), slots.Resolver)
	assert.Equal(t, common.HexToHash("0xad3228b676f7d3cd4284a5443f17f1962b36e491b30a40b2405849e597ba5fb7"), slots.TTL)
}

func TestSlotsFor_Deterministic(t *testing.T) {
	first, err := SlotsForDomain("")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := SlotsForDomain("")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSlotsFor_SampleDomainsDoNotCollide(t *testing.T) {
	names := []string{"", "eth", "random.eth", "foo.eth", "bar.foo.eth", "resolver.eth", "test", "a.b.c.d"}
	seen := make(map[common.Hash]string)
	for _, name := range names {
		slots, err := SlotsForDomain(name)
		require.NoError(t, err)
		for _, s := range []common.Hash{slots.Owner, slots.Resolver, slots.TTL} {
			prev, dup := seen[s]
			require.False(t, dup, "slot %s shared by %q and %q", s.Hex(), prev, name)
			seen[s] = name
		}
	}
}

func TestSlotsFor_OwnerSlotsAreCollisionFree(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		label := rapid.StringMatching(`[a-z0-9]{1,16}`)
		a := label.Draw(t, "a") + "." + label.Draw(t, "tldA")
		b := label.Draw(t, "b") + "." + label.Draw(t, "tldB")
		if a == b {
			t.Skip("identical domains")
		}

		slotsA, err := SlotsForDomain(a)
		if err != nil {
			t.Fatalf("slots for %q: %v", a, err)
		}
		slotsB, err := SlotsForDomain(b)
		if err != nil {
			t.Fatalf("slots for %q: %v", b, err)
		}
		if slotsA.Owner == slotsB.Owner {
			t.Fatalf("owner slot collision between %q and %q", a, b)
		}
	})
}

func TestOffset_WrapsAround(t *testing.T) {
	max := common.HexToHash("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	assert.Equal(t, common.Hash{}, offset(max, 1))
	assert.Equal(t, common.BigToHash(common.Big1), offset(max, 2))
}

func TestPadAddress(t *testing.T) {
	addr := common.HexToAddress("0xBBbBBbbbBbBbBbbbbBbbBbBbbbBBbBbBBbbbbBbb")
	padded := PadAddress(addr)
	assert.Equal(t, "0x000000000000000000000000bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", padded.Hex())
}

func TestParseSlot(t *testing.T) {
	one := common.BigToHash(common.Big1)

	tests := []struct {
		input    string
		expected common.Hash
		wantErr  bool
	}{
		{input: "0x1", expected: one},
		{input: "0x0000000000000000000000000000000000000000000000000000000000000001", expected: one},
		{input: "0x0", expected: common.Hash{}},
		{input: rootOwnerSlot, expected: common.HexToHash(rootOwnerSlot)},
		{input: "0x", wantErr: true},
		{input: "1", wantErr: true},
		{input: "0xzz", wantErr: true},
		{input: "0x1" + fmt.Sprintf("%064d", 0), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			slot, err := ParseSlot(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidSlot)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, slot)
		})
	}
}

func TestSlotQuantity(t *testing.T) {
	assert.Equal(t, "0x0", SlotQuantity(common.Hash{}))
	assert.Equal(t, "0x1", SlotQuantity(common.BigToHash(common.Big1)))
	assert.Equal(t, rootOwnerSlot, SlotQuantity(common.HexToHash(rootOwnerSlot)))
}
