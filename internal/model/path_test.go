package model

import (
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestPathHops(t *testing.T) {
	a := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	b := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	c := common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")

	got := Path{a, b, c}.Hops()
	want := [][2]common.Address{{a, b}, {b, c}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("hops mismatch: %+v != %+v", got, want)
	}

	if hops := (Path{a}).Hops(); hops != nil {
		t.Fatalf("single element path should have no hops")
	}
	if !(Path{}).IsTrivial() || !(Path{a}).IsTrivial() || (Path{a, b}).IsTrivial() {
		t.Fatalf("trivial classification mismatch")
	}
}

func TestParsePath(t *testing.T) {
	path, err := ParsePath([]string{" 0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "", "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(path) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(path))
	}
	if _, err := ParsePath([]string{"0x123"}); err == nil {
		t.Fatalf("expected error for invalid address")
	}
}

func TestPairMatches(t *testing.T) {
	a := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	b := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	pair := NewPair(a, b, common.Address{})

	if pair.Token0 != b || pair.Token1 != a {
		t.Fatalf("tokens not sorted: %+v", pair)
	}
	if !pair.Matches(a, b) || !pair.Matches(b, a) {
		t.Fatalf("pair should match both orders")
	}
	if pair.Matches(a, a) {
		t.Fatalf("pair should not match identical tokens")
	}
}
