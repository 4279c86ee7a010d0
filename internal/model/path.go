package model

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Path is an ordered hop sequence of token addresses. An empty path, or a
// single-element path, means no swap is required for that side.
type Path []common.Address

// IsTrivial reports whether the path performs no hop.
func (p Path) IsTrivial() bool {
	return len(p) <= 1
}

// First returns the first element, or false for an empty path.
func (p Path) First() (common.Address, bool) {
	if len(p) == 0 {
		return common.Address{}, false
	}
	return p[0], true
}

// Last returns the terminal element, or false for an empty path.
func (p Path) Last() (common.Address, bool) {
	if len(p) == 0 {
		return common.Address{}, false
	}
	return p[len(p)-1], true
}

// Hops returns the consecutive pairs traversed by the path.
func (p Path) Hops() [][2]common.Address {
	if len(p) < 2 {
		return nil
	}
	hops := make([][2]common.Address, 0, len(p)-1)
	for i := 0; i+1 < len(p); i++ {
		hops = append(hops, [2]common.Address{p[i], p[i+1]})
	}
	return hops
}

func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

func (p Path) Strings() []string {
	out := make([]string, 0, len(p))
	for _, addr := range p {
		out = append(out, addr.Hex())
	}
	return out
}

func (p Path) String() string {
	return "[" + strings.Join(p.Strings(), ",") + "]"
}

// ParsePath converts string addresses into a Path.
func ParsePath(inputs []string) (Path, error) {
	path := make(Path, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("invalid address: %s", input)
		}
		path = append(path, common.HexToAddress(input))
	}
	return path, nil
}
