package identity

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ppiankov/discountclaim/internal/model"
)

// StaticLinker serves groups declared in configuration. An address outside
// every group forms a group of its own.
type StaticLinker struct {
	groups map[common.Address]model.IdentityGroup
}

// NewStaticLinker validates groups; an address may appear in one group only.
func NewStaticLinker(groups [][]string) (*StaticLinker, error) {
	l := &StaticLinker{groups: make(map[common.Address]model.IdentityGroup)}

	for i, members := range groups {
		addrs := make([]common.Address, 0, len(members))
		for _, m := range members {
			if !common.IsHexAddress(m) {
				return nil, model.NewConfigError(fmt.Sprintf("identity group %d: invalid address %q", i, m), nil)
			}
			addrs = append(addrs, common.HexToAddress(m))
		}

		group := model.IdentityGroup{IdempotencyKey: groupKey(addrs), LinkedAddresses: addrs}
		for _, a := range addrs {
			if prev, ok := l.groups[a]; ok && prev.IdempotencyKey != group.IdempotencyKey {
				return nil, model.NewConfigError(fmt.Sprintf("identity group %d: address %s already belongs to another group", i, a.Hex()), nil)
			}
			l.groups[a] = group
		}
	}
	return l, nil
}

// Resolve implements Linker.
func (l *StaticLinker) Resolve(_ context.Context, addr common.Address) (model.IdentityGroup, error) {
	if g, ok := l.groups[addr]; ok {
		return g, nil
	}
	single := []common.Address{addr}
	return model.IdentityGroup{IdempotencyKey: groupKey(single), LinkedAddresses: single}, nil
}

func groupKey(addrs []common.Address) string {
	hexes := make([]string, len(addrs))
	for i, a := range addrs {
		hexes[i] = a.Hex()
	}
	return GroupKey(hexes)
}
