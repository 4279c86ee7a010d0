// Package zapper turns a single input asset into an LP position for any pair
// in one atomic call: it splits the input over two swap paths, deposits the
// results as liquidity and returns every leftover unit to the caller.
package zapper

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"lpzap/internal/dex"
	"lpzap/internal/model"
)

// Config holds zapper settings.
type Config struct {
	// Address is the zapper's own account. Callers approve it to pull input
	// tokens.
	Address common.Address
}

// Zapper sequences guard, swapper, composer and sweeper into the public entry
// points. It keeps no state between calls.
type Zapper struct {
	cfg      Config
	host     dex.Host
	ledger   dex.Ledger
	router   dex.Router
	guard    *Guard
	swapper  *Swapper
	composer *Composer
	sweeper  *Sweeper
	native   *NativeAdapter
	logger   *zap.Logger
	observer Observer
}

// New wires a Zapper to its collaborators. logger and observer may be nil.
func New(cfg Config, host dex.Host, ledger dex.Ledger, router dex.Router, wrapped dex.WrappedNative, logger *zap.Logger, observer Observer) (*Zapper, error) {
	if cfg.Address == (common.Address{}) {
		return nil, fmt.Errorf("zapper address is required")
	}
	if host == nil || ledger == nil || router == nil || wrapped == nil {
		return nil, fmt.Errorf("host, ledger, router and wrapped native are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	guard := NewGuard(router)
	return &Zapper{
		cfg:      cfg,
		host:     host,
		ledger:   ledger,
		router:   router,
		guard:    guard,
		swapper:  NewSwapper(cfg.Address, ledger, router, guard, host.Now),
		composer: NewComposer(cfg.Address, ledger, router),
		sweeper:  NewSweeper(cfg.Address, ledger),
		native:   NewNativeAdapter(cfg.Address, ledger, wrapped, router.WrappedNative()),
		logger:   logger,
		observer: observer,
	}, nil
}

func (z *Zapper) Address() common.Address {
	return z.cfg.Address
}

// Zap pulls req.InputAmount of req.InputAsset from the caller, who must have
// approved the zapper, and mints LP shares to req.Recipient.
func (z *Zapper) Zap(ctx context.Context, call Call, req ZapRequest) (*Result, error) {
	return z.execute(ctx, EntryZap, call, req)
}

// ZapNative spends the call's attached native value. Wrapped dust is returned
// to the caller as native currency.
func (z *Zapper) ZapNative(ctx context.Context, call Call, req NativeZapRequest) (*Result, error) {
	return z.execute(ctx, EntryZapNative, call, req.withInput(z.native.Token(), call.Value))
}

// Preflight validates req against the router's registry without effects.
func (z *Zapper) Preflight(ctx context.Context, req ZapRequest) (model.Pair, error) {
	return Preflight(ctx, z.router, z.host.Now(), req)
}

// execution is the per-call view of the zapper's components, sharing one
// effect journal.
type execution struct {
	entry    Entry
	call     Call
	state    State
	journal  *journal
	swapper  *Swapper
	composer *Composer
	sweeper  *Sweeper
	native   *NativeAdapter
	result   *Result
}

func (z *Zapper) newExecution(entry Entry, call Call, req ZapRequest) *execution {
	j := &journal{}
	input := model.Token(req.InputAsset)
	if entry == EntryZapNative {
		input = model.Native()
	}
	var amount *big.Int
	if req.InputAmount != nil {
		amount = new(big.Int).Set(req.InputAmount)
	}
	return &execution{
		entry:    entry,
		call:     call,
		state:    StateInit,
		journal:  j,
		swapper:  z.swapper.withJournal(j),
		composer: z.composer.withJournal(j),
		sweeper:  z.sweeper.withJournal(j),
		native:   z.native.withJournal(j),
		result: &Result{
			ID:          uuid.NewString(),
			Entry:       entry,
			Caller:      call.Caller,
			Recipient:   req.Recipient,
			Input:       input,
			InputAmount: amount,
		},
	}
}

func (e *execution) advance(state State) {
	e.state = state
	e.result.State = state
}

func (z *Zapper) execute(ctx context.Context, entry Entry, call Call, req ZapRequest) (*Result, error) {
	run := z.newExecution(entry, call, req)
	run.result.Timestamp = z.host.Now()

	err := z.host.Atomic(ctx, func(ctx context.Context) error {
		return z.settle(ctx, run, req)
	})
	run.result.Effects = run.journal.snapshot()
	if err != nil {
		zerr := &Error{State: run.state, Err: err}
		res := run.result
		res.State = StateFailed
		res.Err = zerr
		res.Outputs, res.Used, res.Liquidity, res.Dust = [2]*big.Int{}, [2]*big.Int{}, nil, nil
		z.logger.Warn("zap failed",
			zap.String("id", res.ID),
			zap.String("entry", string(entry)),
			zap.String("caller", call.Caller.Hex()),
			zap.String("state", string(run.state)),
			zap.Error(err),
		)
		z.observer.ObserveZap(res)
		return res, zerr
	}

	res := run.result
	z.logger.Info("zap settled",
		zap.String("id", res.ID),
		zap.String("entry", string(entry)),
		zap.String("pair", res.Pair.Address.Hex()),
		zap.String("liquidity", res.Liquidity.String()),
		zap.Int("dust_assets", countNonZero(res.Dust)),
	)
	z.observer.ObserveZap(res)
	return res, nil
}

// settle runs the state machine. Any error it returns makes the host discard
// every effect performed so far.
func (z *Zapper) settle(ctx context.Context, run *execution, req ZapRequest) error {
	self := z.cfg.Address
	caller := run.call.Caller
	native := run.entry == EntryZapNative

	if caller == (common.Address{}) {
		return fmt.Errorf("%w: zero caller", dex.ErrInvalidRequest)
	}
	if !native && run.call.Value != nil && run.call.Value.Sign() != 0 {
		return fmt.Errorf("%w: zap does not accept native value", dex.ErrInvalidRequest)
	}
	p, err := newPlan(req, z.host.Now())
	if err != nil {
		return err
	}
	run.result.Sides = p.sides

	pair, err := p.check(ctx, z.guard)
	if err != nil {
		return err
	}
	run.result.Pair = pair
	run.advance(StateGuardChecked)

	if native {
		if err := z.ledger.Transfer(ctx, model.Native(), caller, self, p.amount); err != nil {
			return asTransferFailure(err, "receive native value")
		}
		run.journal.pull(model.Native(), caller, p.amount)
		if err := run.native.Wrap(ctx, p.amount); err != nil {
			return err
		}
	} else {
		if err := z.ledger.TransferFrom(ctx, p.input, self, caller, self, p.amount); err != nil {
			return asTransferFailure(err, "pull input")
		}
		run.journal.pull(model.Token(p.input), caller, p.amount)
	}

	var outputs [2]*big.Int
	for i, leg := range p.legs {
		out, err := run.swapper.Swap(ctx, leg, self, p.deadline)
		if err != nil {
			return fmt.Errorf("leg %d: %w", i, err)
		}
		outputs[i] = out
	}
	run.result.Outputs = outputs
	run.advance(StateLegsResolved)

	used0, used1, liquidity, err := run.composer.Compose(ctx, p.liquidityRequest(outputs[0], outputs[1]))
	if err != nil {
		return err
	}
	run.result.Used = [2]*big.Int{used0, used1}
	run.result.Liquidity = liquidity
	run.advance(StateLiquidityComposed)

	assets := []model.Asset{model.Token(p.input), model.Token(p.sides[0]), model.Token(p.sides[1])}
	if native {
		if _, err := run.native.UnwrapAll(ctx); err != nil {
			return err
		}
		wrapped := model.Token(run.native.Token())
		for i, asset := range assets {
			if asset == wrapped {
				assets[i] = model.Native()
			}
		}
		assets = append(assets, model.Native())
	}
	dust, err := run.sweeper.Sweep(ctx, assets, caller)
	if err != nil {
		return err
	}
	run.result.Dust = dust
	run.advance(StateSwept)

	run.advance(StateDone)
	return nil
}

func countNonZero(dust []model.DustTransfer) int {
	n := 0
	for _, d := range dust {
		if d.Amount != "0" {
			n++
		}
	}
	return n
}
