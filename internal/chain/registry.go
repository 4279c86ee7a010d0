package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"lpzap/internal/dex"
	"lpzap/internal/model"
)

// ContractCaller performs read-only contract calls.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// RegistryConfig selects the router to read from.
type RegistryConfig struct {
	Router common.Address
	Retry  RetryPolicy
}

// Registry resolves pairs through a live V2 router's factory.
type Registry struct {
	caller  ContractCaller
	router  common.Address
	factory common.Address
	wrapped common.Address
	retry   RetryPolicy
	logger  *zap.Logger
	tokens  tokenCache
}

var _ dex.PairRegistry = (*Registry)(nil)

// NewRegistry reads the router's factory and wrapped native token.
func NewRegistry(ctx context.Context, caller ContractCaller, cfg RegistryConfig, logger *zap.Logger) (*Registry, error) {
	if caller == nil {
		return nil, fmt.Errorf("contract caller is nil")
	}
	if cfg.Router == (common.Address{}) {
		return nil, fmt.Errorf("router address is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{caller: caller, router: cfg.Router, retry: cfg.Retry, logger: logger}

	routerABI, err := RouterABI()
	if err != nil {
		return nil, fmt.Errorf("parse router abi: %w", err)
	}
	if r.factory, err = r.callAddress(ctx, cfg.Router, routerABI, "factory"); err != nil {
		return nil, err
	}
	if r.wrapped, err = r.callAddress(ctx, cfg.Router, routerABI, "WETH"); err != nil {
		return nil, err
	}
	logger.Info("router resolved",
		zap.String("router", cfg.Router.Hex()),
		zap.String("factory", r.factory.Hex()),
		zap.String("wrapped_native", r.wrapped.Hex()),
	)
	return r, nil
}

func (r *Registry) Router() common.Address {
	return r.router
}

func (r *Registry) Factory() common.Address {
	return r.factory
}

// WrappedNative returns the router's wrapped native token.
func (r *Registry) WrappedNative() common.Address {
	return r.wrapped
}

// GetPair returns the factory's pair for a and b, zero when absent.
func (r *Registry) GetPair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	factoryABI, err := FactoryABI()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse factory abi: %w", err)
	}
	return r.callAddress(ctx, r.factory, factoryABI, "getPair", tokenA, tokenB)
}

// GetAmountsOut quotes path for amountIn at the latest block.
func (r *Registry) GetAmountsOut(ctx context.Context, amountIn *big.Int, path model.Path) ([]*big.Int, error) {
	routerABI, err := RouterABI()
	if err != nil {
		return nil, fmt.Errorf("parse router abi: %w", err)
	}
	values, err := r.call(ctx, r.router, routerABI, "getAmountsOut", amountIn, []common.Address(path))
	if err != nil {
		return nil, err
	}
	amounts, ok := values[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("getAmountsOut: unexpected type %T", values[0])
	}
	return amounts, nil
}

func (r *Registry) callAddress(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...interface{}) (common.Address, error) {
	values, err := r.call(ctx, to, contractABI, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s: unexpected type %T", method, values[0])
	}
	return addr, nil
}

func (r *Registry) call(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}

	var resp []byte
	err = withRetry(ctx, r.retry, r.logger, method, func(ctx context.Context) error {
		var callErr error
		resp, callErr = r.caller.CallContract(ctx, msg, nil)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, to.Hex(), err)
	}

	values, err := contractABI.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: empty result", method)
	}
	return values, nil
}
