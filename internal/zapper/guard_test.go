package zapper

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"lpzap/internal/dex"
	"lpzap/internal/model"
)

type stubRegistry map[[2]common.Address]common.Address

func (s stubRegistry) GetPair(_ context.Context, a, b common.Address) (common.Address, error) {
	token0, token1 := model.SortTokens(a, b)
	return s[[2]common.Address{token0, token1}], nil
}

type failingRegistry struct{ err error }

func (f failingRegistry) GetPair(context.Context, common.Address, common.Address) (common.Address, error) {
	return common.Address{}, f.err
}

func TestGuardCheck(t *testing.T) {
	pairAB := common.HexToAddress("0x00000000000000000000000000000000000000ab")
	token0, token1 := model.SortTokens(tokenA, tokenB)
	guard := NewGuard(stubRegistry{{token0, token1}: pairAB})

	pair, err := guard.Check(context.Background(), tokenB, tokenA)
	require.NoError(t, err)
	require.Equal(t, model.Pair{Token0: token0, Token1: token1, Address: pairAB}, pair)

	_, err = guard.Check(context.Background(), tokenA, tokenC)
	require.ErrorIs(t, err, dex.ErrPairNotFound)
	require.Contains(t, err.Error(), "pair doesn't exist")

	_, err = guard.Check(context.Background(), tokenA, tokenA)
	require.ErrorIs(t, err, dex.ErrPairNotFound)

	require.NoError(t, guard.CheckPath(context.Background(), model.Path{tokenA, tokenB, tokenA}))
	require.NoError(t, guard.CheckPath(context.Background(), model.Path{tokenA}))
	require.ErrorIs(t, guard.CheckPath(context.Background(), model.Path{tokenA, tokenB, tokenC}), dex.ErrPairNotFound)
}

func TestGuardPropagatesRegistryErrors(t *testing.T) {
	boom := errors.New("rpc down")
	_, err := NewGuard(failingRegistry{err: boom}).Check(context.Background(), tokenA, tokenB)
	require.ErrorIs(t, err, boom)
	require.Nil(t, Kind(err))
}

func TestResolveSides(t *testing.T) {
	tests := []struct {
		name  string
		path0 model.Path
		path1 model.Path
		hint  [2]common.Address
		want  [2]common.Address
		err   error
	}{
		{name: "empty first side", path0: nil, path1: model.Path{tokenA, tokenB}, want: [2]common.Address{tokenA, tokenB}},
		{name: "both swapped", path0: model.Path{tokenA, tokenB}, path1: model.Path{tokenA, tokenC}, want: [2]common.Address{tokenB, tokenC}},
		{name: "hint unordered", path0: model.Path{tokenA, tokenB}, path1: model.Path{tokenA, tokenC}, hint: [2]common.Address{tokenC, tokenB}, want: [2]common.Address{tokenB, tokenC}},
		{name: "hint mismatch", path0: nil, path1: model.Path{tokenA, tokenB}, hint: [2]common.Address{tokenB, tokenC}, err: dex.ErrPathMismatch},
		{name: "half hint", path0: nil, path1: model.Path{tokenA, tokenB}, hint: [2]common.Address{tokenB}, err: dex.ErrInvalidRequest},
		{name: "both empty", err: dex.ErrPathMismatch},
		{name: "wrong start", path0: model.Path{tokenB, tokenC}, err: dex.ErrPathMismatch},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolveSides(tokenA, tc.path0, tc.path1, tc.hint)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestNewPlanSplitsInput(t *testing.T) {
	req := baseRequest(7)
	p, err := newPlan(req, testNow)
	require.NoError(t, err)
	require.Equal(t, int64(3), p.legs[0].InputAmount.Int64())
	require.Equal(t, int64(4), p.legs[1].InputAmount.Int64())
	require.Zero(t, p.legs[0].MinOutput.Sign())
	require.Zero(t, p.minLiquidity[1].Sign())

	req.Path1[1] = tokenC
	require.Equal(t, tokenB, p.legs[1].Path[1])
}
