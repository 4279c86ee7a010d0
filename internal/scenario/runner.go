package scenario

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"lpzap/internal/memdex"
	"lpzap/internal/model"
	"lpzap/internal/zapper"
)

// Options configures a Runner. Both fields may be nil.
type Options struct {
	Logger   *zap.Logger
	Observer zapper.Observer
}

// Outcome pairs a scripted zap with what actually happened.
type Outcome struct {
	Name     string
	Expected string
	Actual   string
	Receipt  model.ZapReceipt
}

func (o Outcome) Matched() bool {
	return o.Expected == o.Actual
}

// Report collects the outcomes of one scenario run in script order.
type Report struct {
	Scenario string
	Outcomes []Outcome
}

func (r *Report) Receipts() []model.ZapReceipt {
	receipts := make([]model.ZapReceipt, 0, len(r.Outcomes))
	for _, outcome := range r.Outcomes {
		receipts = append(receipts, outcome.Receipt)
	}
	return receipts
}

// Mismatches returns the outcomes whose result differs from the expectation.
func (r *Report) Mismatches() []Outcome {
	var out []Outcome
	for _, outcome := range r.Outcomes {
		if !outcome.Matched() {
			out = append(out, outcome)
		}
	}
	return out
}

// Runner holds a scenario's exchange after its market has been set up.
type Runner struct {
	sc       *Scenario
	ex       *memdex.Exchange
	zapper   *zapper.Zapper
	logger   *zap.Logger
	tokens   map[string]common.Address
	decimals map[string]int32
	accounts map[string]common.Address
}

// LiquidityProvider seeds every scripted pool.
var LiquidityProvider = memdex.LabelAddress("liquidity-provider")

// NewRunner builds the exchange, funds the accounts and seeds the pools.
func NewRunner(ctx context.Context, sc *Scenario, opts Options) (*Runner, error) {
	if sc == nil {
		return nil, fmt.Errorf("scenario is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ex := memdex.New(memdex.Config{Now: sc.Now})
	r := &Runner{
		sc:       sc,
		ex:       ex,
		logger:   logger,
		tokens:   map[string]common.Address{WrappedSymbol: ex.Router().WrappedNative()},
		decimals: map[string]int32{NativeSymbol: defaultDecimals, WrappedSymbol: defaultDecimals},
		accounts: make(map[string]common.Address, len(sc.Accounts)),
	}
	for _, token := range sc.Tokens {
		r.tokens[token.Symbol] = memdex.LabelAddress("token:" + token.Symbol)
		r.decimals[token.Symbol] = token.Decimals
	}
	for _, account := range sc.Accounts {
		r.accounts[account.Name] = memdex.LabelAddress("account:" + account.Name)
	}

	for _, account := range sc.Accounts {
		for symbol, value := range account.Balances {
			amount, err := ToBaseUnits(value, r.decimals[symbol])
			if err != nil {
				return nil, fmt.Errorf("account %s balance %s: %w", account.Name, symbol, err)
			}
			if err := r.fund(ctx, r.accounts[account.Name], symbol, amount); err != nil {
				return nil, fmt.Errorf("fund account %s: %w", account.Name, err)
			}
		}
	}

	for i, pool := range sc.Pools {
		var amounts [2]*big.Int
		for side, symbol := range pool.Tokens {
			amount, err := ToBaseUnits(pool.Amounts[side], r.decimals[symbol])
			if err != nil {
				return nil, fmt.Errorf("pool %d amount %s: %w", i, symbol, err)
			}
			if err := r.fund(ctx, LiquidityProvider, symbol, amount); err != nil {
				return nil, fmt.Errorf("fund pool %d: %w", i, err)
			}
			amounts[side] = amount
		}
		a, b := r.tokens[pool.Tokens[0]], r.tokens[pool.Tokens[1]]
		liquidity, err := ex.Seed(ctx, LiquidityProvider, a, b, amounts[0], amounts[1])
		if err != nil {
			return nil, fmt.Errorf("seed pool %s/%s: %w", pool.Tokens[0], pool.Tokens[1], err)
		}
		logger.Debug("pool seeded",
			zap.String("token0", pool.Tokens[0]),
			zap.String("token1", pool.Tokens[1]),
			zap.String("liquidity", liquidity.String()),
		)
	}

	z, err := zapper.New(zapper.Config{Address: memdex.LabelAddress("zapper")}, ex, ex, ex.Router(), ex.Wrapped(), logger, opts.Observer)
	if err != nil {
		return nil, err
	}
	r.zapper = z
	return r, nil
}

func (r *Runner) fund(ctx context.Context, owner common.Address, symbol string, amount *big.Int) error {
	switch symbol {
	case NativeSymbol:
		r.ex.Mint(model.Native(), owner, amount)
		return nil
	case WrappedSymbol:
		r.ex.Mint(model.Native(), owner, amount)
		return r.ex.Atomic(ctx, func(ctx context.Context) error {
			return r.ex.Wrapped().Deposit(ctx, owner, amount)
		})
	default:
		r.ex.Mint(model.Token(r.tokens[symbol]), owner, amount)
		return nil
	}
}

func (r *Runner) Exchange() *memdex.Exchange {
	return r.ex
}

func (r *Runner) Zapper() *zapper.Zapper {
	return r.zapper
}

// Account returns the address of a scripted account.
func (r *Runner) Account(name string) (common.Address, bool) {
	addr, ok := r.accounts[name]
	return addr, ok
}

// Asset returns the ledger asset a symbol names.
func (r *Runner) Asset(symbol string) (model.Asset, bool) {
	if symbol == NativeSymbol {
		return model.Native(), true
	}
	addr, ok := r.tokens[symbol]
	if !ok {
		return model.Asset{}, false
	}
	return model.Token(addr), true
}

// Balance returns an account's balance of symbol in base units.
func (r *Runner) Balance(ctx context.Context, account, symbol string) (*big.Int, error) {
	owner, ok := r.accounts[account]
	if !ok {
		return nil, fmt.Errorf("unknown account %q", account)
	}
	asset, ok := r.Asset(symbol)
	if !ok {
		return nil, fmt.Errorf("unknown token %q", symbol)
	}
	return r.ex.BalanceOf(ctx, asset, owner)
}

// Run executes every scripted zap in order. Failing zaps are outcomes, not
// errors; an error means the script itself could not be executed.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{Scenario: r.sc.Name, Outcomes: make([]Outcome, 0, len(r.sc.Zaps))}
	for i, script := range r.sc.Zaps {
		name := script.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		outcome, err := r.runZap(ctx, name, script)
		if err != nil {
			return report, fmt.Errorf("zap %s: %w", name, err)
		}
		if !outcome.Matched() {
			r.logger.Warn("zap outcome mismatch",
				zap.String("zap", name),
				zap.String("expected", outcome.Expected),
				zap.String("actual", outcome.Actual),
				zap.String("error", outcome.Receipt.Error),
			)
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}
	return report, nil
}

func (r *Runner) runZap(ctx context.Context, name string, script Zap) (Outcome, error) {
	caller := r.accounts[script.Caller]
	recipient := caller
	if script.Recipient != "" {
		recipient = r.accounts[script.Recipient]
	}
	expected := script.Expect
	if expected == "" {
		expected = "ok"
	}

	amount, err := ToBaseUnits(script.Amount, r.decimals[script.Input])
	if err != nil {
		return Outcome{}, fmt.Errorf("amount: %w", err)
	}
	path0, err := r.path(script.Path0)
	if err != nil {
		return Outcome{}, err
	}
	path1, err := r.path(script.Path1)
	if err != nil {
		return Outcome{}, err
	}
	var hint [2]common.Address
	if len(script.Pair) == 2 {
		hint = [2]common.Address{r.tokens[script.Pair[0]], r.tokens[script.Pair[1]]}
	}

	inputSymbol := script.Input
	if inputSymbol == NativeSymbol {
		inputSymbol = WrappedSymbol
	}
	var minSwapOut, minLiquidity [2]*big.Int
	for side, path := range [2][]string{script.Path0, script.Path1} {
		symbol := inputSymbol
		if len(path) > 0 {
			symbol = path[len(path)-1]
		}
		if minSwapOut[side], err = ToBaseUnits(script.MinSwapOut[side], r.decimals[symbol]); err != nil {
			return Outcome{}, fmt.Errorf("min_swap_out: %w", err)
		}
		if minLiquidity[side], err = ToBaseUnits(script.MinLiquidity[side], r.decimals[symbol]); err != nil {
			return Outcome{}, fmt.Errorf("min_liquidity: %w", err)
		}
	}

	deadlineIn := int64(defaultDeadlineIn)
	if script.DeadlineIn != nil {
		deadlineIn = *script.DeadlineIn
	}
	deadline := uint64(int64(r.ex.Now()) + deadlineIn)

	var res *zapper.Result
	var zapErr error
	if script.Input == NativeSymbol {
		res, zapErr = r.zapper.ZapNative(ctx, zapper.Call{Caller: caller, Value: amount}, zapper.NativeZapRequest{
			Path0:        path0,
			Path1:        path1,
			PairHint:     hint,
			MinSwapOut:   minSwapOut,
			MinLiquidity: minLiquidity,
			Recipient:    recipient,
			Deadline:     deadline,
		})
	} else {
		input := r.tokens[script.Input]
		if !script.SkipApproval {
			if err := r.approve(ctx, input, caller, amount); err != nil {
				return Outcome{}, err
			}
		}
		res, zapErr = r.zapper.Zap(ctx, zapper.Call{Caller: caller}, zapper.ZapRequest{
			InputAsset:   input,
			InputAmount:  amount,
			Path0:        path0,
			Path1:        path1,
			PairHint:     hint,
			MinSwapOut:   minSwapOut,
			MinLiquidity: minLiquidity,
			Recipient:    recipient,
			Deadline:     deadline,
		})
		if !script.SkipApproval {
			if err := r.approve(ctx, input, caller, new(big.Int)); err != nil {
				return Outcome{}, err
			}
		}
	}

	outcome := Outcome{Name: name, Expected: expected, Actual: zapper.Label(zapErr)}
	if res != nil {
		outcome.Receipt = res.Receipt()
	}
	return outcome, nil
}

func (r *Runner) approve(ctx context.Context, token, owner common.Address, amount *big.Int) error {
	return r.ex.Atomic(ctx, func(ctx context.Context) error {
		return r.ex.Approve(ctx, token, owner, r.zapper.Address(), amount)
	})
}

func (r *Runner) path(symbols []string) (model.Path, error) {
	path := make(model.Path, 0, len(symbols))
	for _, symbol := range symbols {
		addr, ok := r.tokens[symbol]
		if !ok {
			return nil, fmt.Errorf("unknown token %q", symbol)
		}
		path = append(path, addr)
	}
	return path, nil
}

// Run sets up sc and executes its zaps.
func Run(ctx context.Context, sc *Scenario, opts Options) (*Report, error) {
	runner, err := NewRunner(ctx, sc, opts)
	if err != nil {
		return nil, err
	}
	return runner.Run(ctx)
}
