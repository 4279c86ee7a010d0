package zapper

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lpzap/internal/dex"
	"lpzap/internal/memdex"
	"lpzap/internal/model"
)

const (
	testNow      = uint64(1_700_000_000)
	testDeadline = testNow + 600
)

var (
	tokenA     = memdex.LabelAddress("token-a")
	tokenB     = memdex.LabelAddress("token-b")
	tokenC     = memdex.LabelAddress("token-c")
	tokenD     = memdex.LabelAddress("token-d")
	provider   = memdex.LabelAddress("provider")
	caller     = memdex.LabelAddress("caller")
	recipient  = memdex.LabelAddress("recipient")
	zapperAddr = memdex.LabelAddress("zapper")

	wrappedToken = memdex.New(memdex.Config{}).Router().WrappedNative()
)

func requireAmount(t *testing.T, want, got *big.Int) {
	t.Helper()
	require.Zero(t, want.Cmp(got), "want %s, got %s", want, got)
}

type recordingObserver struct {
	mu      sync.Mutex
	results []*Result
}

func (o *recordingObserver) ObserveZap(res *Result) {
	o.mu.Lock()
	o.results = append(o.results, res)
	o.mu.Unlock()
}

type fixture struct {
	t      *testing.T
	ex     *memdex.Exchange
	zapper *Zapper
	weth   common.Address
}

func newFixture(t *testing.T, observer Observer) *fixture {
	t.Helper()
	ex := memdex.New(memdex.Config{Now: testNow})
	f := &fixture{t: t, ex: ex, weth: ex.Router().WrappedNative()}

	f.seed(tokenA, tokenB, 1_000_000_000, 1_000_000_000)
	f.seed(tokenB, tokenC, 1_000_000_000, 2_000_000_000)

	ex.Mint(model.Native(), provider, big.NewInt(500_000_000))
	require.NoError(t, ex.Atomic(context.Background(), func(ctx context.Context) error {
		return ex.Wrapped().Deposit(ctx, provider, big.NewInt(500_000_000))
	}))
	ex.Mint(model.Token(tokenA), provider, big.NewInt(1_000_000_000))
	f.seedHeld(f.weth, tokenA, 500_000_000, 1_000_000_000)

	z, err := New(Config{Address: zapperAddr}, ex, ex, ex.Router(), ex.Wrapped(), zap.NewNop(), observer)
	require.NoError(t, err)
	f.zapper = z
	return f
}

func (f *fixture) seed(a, b common.Address, amountA, amountB int64) {
	f.t.Helper()
	f.ex.Mint(model.Token(a), provider, big.NewInt(amountA))
	f.ex.Mint(model.Token(b), provider, big.NewInt(amountB))
	f.seedHeld(a, b, amountA, amountB)
}

func (f *fixture) seedHeld(a, b common.Address, amountA, amountB int64) {
	f.t.Helper()
	_, err := f.ex.Seed(context.Background(), provider, a, b, big.NewInt(amountA), big.NewInt(amountB))
	require.NoError(f.t, err)
}

func (f *fixture) fund(owner, token common.Address, amount int64) {
	f.t.Helper()
	f.ex.Mint(model.Token(token), owner, big.NewInt(amount))
	require.NoError(f.t, f.ex.Atomic(context.Background(), func(ctx context.Context) error {
		return f.ex.Approve(ctx, token, owner, zapperAddr, big.NewInt(amount))
	}))
}

func (f *fixture) balance(asset model.Asset, owner common.Address) *big.Int {
	f.t.Helper()
	bal, err := f.ex.BalanceOf(context.Background(), asset, owner)
	require.NoError(f.t, err)
	return bal
}

func (f *fixture) pair(a, b common.Address) common.Address {
	f.t.Helper()
	pair, err := f.ex.GetPair(context.Background(), a, b)
	require.NoError(f.t, err)
	return pair
}

func (f *fixture) requireZapperEmpty(assets ...model.Asset) {
	f.t.Helper()
	for _, asset := range append(assets, model.Native(), model.Token(f.weth)) {
		require.Zero(f.t, f.balance(asset, zapperAddr).Sign(), "zapper holds %s", asset)
		if token, ok := asset.TokenAddress(); ok {
			require.Zero(f.t, f.ex.Allowance(token, zapperAddr, f.ex.Router().Address()).Sign(), "router allowance on %s", asset)
		}
	}
}

func baseRequest(amount int64) ZapRequest {
	return ZapRequest{
		InputAsset:  tokenA,
		InputAmount: big.NewInt(amount),
		Path0:       model.Path{},
		Path1:       model.Path{tokenA, tokenB},
		Recipient:   recipient,
		Deadline:    testDeadline,
	}
}

func TestZapConservesValue(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, nil)
	f.fund(caller, tokenA, 10_000_000)

	req := baseRequest(10_000_000)
	req.PairHint = [2]common.Address{tokenB, tokenA}
	res, err := f.zapper.Zap(context.Background(), Call{Caller: caller}, req)
	require.NoError(err)
	require.Equal(StateDone, res.State)
	require.Equal(f.pair(tokenA, tokenB), res.Pair.Address)
	require.Equal([2]common.Address{tokenA, tokenB}, res.Sides)

	require.Equal(int64(5_000_000), res.Outputs[0].Int64())
	for i, side := range res.Sides {
		sum := new(big.Int).Add(res.Used[i], res.DustOf(model.Token(side)))
		requireAmount(t, res.Outputs[i], sum)
	}

	spent := new(big.Int).Sub(big.NewInt(10_000_000), f.balance(model.Token(tokenA), caller))
	expectedSpent := new(big.Int).Sub(big.NewInt(10_000_000), res.DustOf(model.Token(tokenA)))
	requireAmount(t, expectedSpent, spent)
	requireAmount(t, res.DustOf(model.Token(tokenB)), f.balance(model.Token(tokenB), caller))

	require.Equal(res.Liquidity, f.balance(model.Token(res.Pair.Address), recipient))
	require.Zero(f.balance(model.Token(res.Pair.Address), caller).Sign())
	f.requireZapperEmpty(model.Token(tokenA), model.Token(tokenB))
	require.NotEmpty(res.Effects)
	require.Len(res.ID, 36)
}

func TestEmptyAndSingleElementPathsMatch(t *testing.T) {
	run := func(path0 model.Path) *Result {
		f := newFixture(t, nil)
		f.fund(caller, tokenA, 4_000_001)
		req := baseRequest(4_000_001)
		req.Path0 = path0
		res, err := f.zapper.Zap(context.Background(), Call{Caller: caller}, req)
		require.NoError(t, err)
		return res
	}

	empty := run(model.Path{})
	single := run(model.Path{tokenA})
	nilPath := run(nil)

	for _, other := range []*Result{single, nilPath} {
		require.Equal(t, empty.Sides, other.Sides)
		require.Equal(t, empty.Outputs, other.Outputs)
		require.Equal(t, empty.Used, other.Used)
		require.Equal(t, empty.Liquidity, other.Liquidity)
		require.Equal(t, empty.Dust, other.Dust)
	}
	require.Equal(t, int64(2_000_000), empty.Outputs[0].Int64())
}

func TestZapThroughMultiHopLegs(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, nil)
	f.fund(caller, tokenA, 2_000_000)

	req := baseRequest(2_000_000)
	req.Path0 = model.Path{tokenA, tokenB}
	req.Path1 = model.Path{tokenA, tokenB, tokenC}
	res, err := f.zapper.Zap(context.Background(), Call{Caller: caller}, req)
	require.NoError(err)
	require.Equal(f.pair(tokenB, tokenC), res.Pair.Address)
	require.Zero(f.balance(model.Token(tokenA), caller).Sign())
	require.Equal(res.Liquidity, f.balance(model.Token(res.Pair.Address), recipient))
	f.requireZapperEmpty(model.Token(tokenA), model.Token(tokenB), model.Token(tokenC))
}

func TestZapFailuresLeaveNoTrace(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(req *ZapRequest)
		call    Call
		kind    error
		state   State
		message string
	}{
		{
			name:   "swap below minimum",
			mutate: func(req *ZapRequest) { req.MinSwapOut[1] = big.NewInt(10_000_000) },
			kind:   dex.ErrSlippageExceeded,
			state:  StateGuardChecked,
		},
		{
			name:   "liquidity below minimum",
			mutate: func(req *ZapRequest) { req.MinLiquidity[0] = big.NewInt(9_000_000) },
			kind:   dex.ErrInsufficientLiquidityOutput,
			state:  StateLegsResolved,
		},
		{
			name:    "missing hop pair",
			mutate:  func(req *ZapRequest) { req.Path1 = model.Path{tokenA, tokenD} },
			kind:    dex.ErrPairNotFound,
			state:   StateInit,
			message: "pair doesn't exist",
		},
		{
			name: "missing target pair",
			mutate: func(req *ZapRequest) {
				req.Path0 = model.Path{tokenA, tokenB}
				req.Path1 = model.Path{tokenA, wrappedToken}
			},
			kind:  dex.ErrPairNotFound,
			state: StateInit,
		},
		{
			name:   "expired",
			mutate: func(req *ZapRequest) { req.Deadline = testNow - 1 },
			kind:   dex.ErrExpired,
			state:  StateInit,
		},
		{
			name:   "path starts elsewhere",
			mutate: func(req *ZapRequest) { req.Path1 = model.Path{tokenB, tokenC} },
			kind:   dex.ErrPathMismatch,
			state:  StateInit,
		},
		{
			name:   "single element differs from input",
			mutate: func(req *ZapRequest) { req.Path0 = model.Path{tokenC} },
			kind:   dex.ErrPathMismatch,
			state:  StateInit,
		},
		{
			name:   "identical sides",
			mutate: func(req *ZapRequest) { req.Path0 = model.Path{tokenA, tokenB} },
			kind:   dex.ErrPathMismatch,
			state:  StateInit,
		},
		{
			name:   "hint disagrees with paths",
			mutate: func(req *ZapRequest) { req.PairHint = [2]common.Address{tokenB, tokenC} },
			kind:   dex.ErrPathMismatch,
			state:  StateInit,
		},
		{
			name:   "zero amount",
			mutate: func(req *ZapRequest) { req.InputAmount = big.NewInt(0) },
			kind:   dex.ErrInvalidRequest,
			state:  StateInit,
		},
		{
			name:   "zero recipient",
			mutate: func(req *ZapRequest) { req.Recipient = common.Address{} },
			kind:   dex.ErrInvalidRequest,
			state:  StateInit,
		},
		{
			name:   "native value attached",
			mutate: func(*ZapRequest) {},
			call:   Call{Caller: caller, Value: big.NewInt(1)},
			kind:   dex.ErrInvalidRequest,
			state:  StateInit,
		},
		{
			name:   "amount above approval",
			mutate: func(req *ZapRequest) { req.InputAmount = big.NewInt(10_000_001) },
			kind:   dex.ErrTransferFailed,
			state:  StateGuardChecked,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require := require.New(t)
			observer := &recordingObserver{}
			f := newFixture(t, observer)
			f.fund(caller, tokenA, 10_000_000)
			pairAB := f.pair(tokenA, tokenB)
			reserveA, reserveB := f.ex.Reserves(pairAB, tokenA, tokenB)

			req := baseRequest(10_000_000)
			tc.mutate(&req)
			call := tc.call
			if call.Caller == (common.Address{}) {
				call.Caller = caller
			}

			res, err := f.zapper.Zap(context.Background(), call, req)
			require.ErrorIs(err, tc.kind)
			var zerr *Error
			require.True(errors.As(err, &zerr))
			require.Equal(tc.state, zerr.State)
			if tc.message != "" {
				require.Contains(err.Error(), tc.message)
			}
			require.Equal(StateFailed, res.State)
			require.Equal(tc.kind, Kind(res.Err))
			require.Len(observer.results, 1)

			require.Equal(int64(10_000_000), f.balance(model.Token(tokenA), caller).Int64())
			require.Equal(int64(10_000_000), f.ex.Allowance(tokenA, caller, zapperAddr).Int64())
			require.Zero(f.balance(model.Token(tokenB), caller).Sign())
			require.Zero(f.balance(model.Token(pairAB), recipient).Sign())
			afterA, afterB := f.ex.Reserves(pairAB, tokenA, tokenB)
			require.Equal(reserveA, afterA)
			require.Equal(reserveB, afterB)
			f.requireZapperEmpty(model.Token(tokenA), model.Token(tokenB))
		})
	}
}

func TestZapNativeMatchesWrappedZap(t *testing.T) {
	require := require.New(t)
	const value = 3_000_001
	nativeReq := NativeZapRequest{
		Path0:     model.Path{},
		Path1:     nil,
		Recipient: recipient,
		Deadline:  testDeadline,
	}

	nf := newFixture(t, nil)
	nativeReq.Path1 = model.Path{nf.weth, tokenA}
	nf.ex.Mint(model.Native(), caller, big.NewInt(value))
	nativeRes, err := nf.zapper.ZapNative(context.Background(), Call{Caller: caller, Value: big.NewInt(value)}, nativeReq)
	require.NoError(err)
	require.Equal(model.Native(), nativeRes.Input)

	wf := newFixture(t, nil)
	wf.ex.Mint(model.Native(), caller, big.NewInt(value))
	require.NoError(wf.ex.Atomic(context.Background(), func(ctx context.Context) error {
		if err := wf.ex.Wrapped().Deposit(ctx, caller, big.NewInt(value)); err != nil {
			return err
		}
		return wf.ex.Approve(ctx, wf.weth, caller, zapperAddr, big.NewInt(value))
	}))
	wrappedRes, err := wf.zapper.Zap(context.Background(), Call{Caller: caller}, ZapRequest{
		InputAsset:  wf.weth,
		InputAmount: big.NewInt(value),
		Path0:       model.Path{},
		Path1:       model.Path{wf.weth, tokenA},
		Recipient:   recipient,
		Deadline:    testDeadline,
	})
	require.NoError(err)

	require.Equal(nativeRes.Pair, wrappedRes.Pair)
	require.Equal(nativeRes.Used, wrappedRes.Used)
	require.Equal(nativeRes.Liquidity, wrappedRes.Liquidity)
	requireAmount(t, wrappedRes.DustOf(model.Token(wf.weth)), nativeRes.DustOf(model.Native()))
	requireAmount(t, wrappedRes.DustOf(model.Token(tokenA)), nativeRes.DustOf(model.Token(tokenA)))

	// native-origin dust comes back as native, token-origin dust as wrapped
	require.Zero(nf.balance(model.Token(nf.weth), caller).Sign())
	requireAmount(t, nativeRes.DustOf(model.Native()), nf.balance(model.Native(), caller))
	require.Zero(wf.balance(model.Native(), caller).Sign())
	requireAmount(t, wrappedRes.DustOf(model.Token(wf.weth)), wf.balance(model.Token(wf.weth), caller))

	nf.requireZapperEmpty(model.Token(tokenA))
	wf.requireZapperEmpty(model.Token(tokenA))
}

func TestZapNativeFailureRefundsValue(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, nil)
	f.ex.Mint(model.Native(), caller, big.NewInt(1_000_000))

	_, err := f.zapper.ZapNative(context.Background(), Call{Caller: caller, Value: big.NewInt(1_000_000)}, NativeZapRequest{
		Path1:        model.Path{f.weth, tokenA},
		MinLiquidity: [2]*big.Int{nil, big.NewInt(1_000_000_000)},
		Recipient:    recipient,
		Deadline:     testDeadline,
	})
	require.ErrorIs(err, dex.ErrInsufficientLiquidityOutput)
	require.Equal(int64(1_000_000), f.balance(model.Native(), caller).Int64())
	f.requireZapperEmpty(model.Token(tokenA))

	_, err = f.zapper.ZapNative(context.Background(), Call{Caller: caller}, NativeZapRequest{
		Path1:     model.Path{f.weth, tokenA},
		Recipient: recipient,
		Deadline:  testDeadline,
	})
	require.ErrorIs(err, dex.ErrInvalidRequest)
}

func TestConcurrentZapsSettleIndependently(t *testing.T) {
	require := require.New(t)
	observer := &recordingObserver{}
	f := newFixture(t, observer)
	pairAB := f.pair(tokenA, tokenB)
	supplyBefore := f.ex.TotalSupply(model.Token(pairAB))

	const workers = 16
	callers := make([]common.Address, workers)
	for i := range callers {
		callers[i] = memdex.LabelAddress(fmt.Sprintf("caller-%d", i))
		f.fund(callers[i], tokenA, 1_000_000)
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for _, who := range callers {
		wg.Add(1)
		go func(who common.Address) {
			defer wg.Done()
			req := baseRequest(1_000_000)
			_, err := f.zapper.Zap(context.Background(), Call{Caller: who}, req)
			errs <- err
		}(who)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(err)
	}

	minted := new(big.Int)
	for _, res := range observer.results {
		minted.Add(minted, res.Liquidity)
	}
	require.Len(observer.results, workers)
	require.Equal(minted, f.balance(model.Token(pairAB), recipient))
	require.Equal(new(big.Int).Add(supplyBefore, minted), f.ex.TotalSupply(model.Token(pairAB)))
	f.requireZapperEmpty(model.Token(tokenA), model.Token(tokenB))
}

func TestPreflightHasNoEffects(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, nil)

	pair, err := f.zapper.Preflight(context.Background(), baseRequest(1_000))
	require.NoError(err)
	require.Equal(f.pair(tokenA, tokenB), pair.Address)
	require.True(pair.Matches(tokenA, tokenB))

	req := baseRequest(1_000)
	req.Path1 = model.Path{tokenA, tokenD}
	_, err = Preflight(context.Background(), f.ex, testNow, req)
	require.ErrorIs(err, dex.ErrPairNotFound)
	require.Zero(f.balance(model.Token(tokenA), caller).Sign())
}

func TestNewRequiresCollaborators(t *testing.T) {
	ex := memdex.New(memdex.Config{})
	_, err := New(Config{}, ex, ex, ex.Router(), ex.Wrapped(), nil, nil)
	require.Error(t, err)
	_, err = New(Config{Address: zapperAddr}, nil, ex, ex.Router(), ex.Wrapped(), nil, nil)
	require.Error(t, err)
}
