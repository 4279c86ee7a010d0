package scenario

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadBasicScenario(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "basic.yaml"))
	require.NoError(t, err)
	require.Equal(t, "basic", sc.Name)
	require.Len(t, sc.Tokens, 3)
	require.Len(t, sc.Zaps, 7)
	require.NotNil(t, sc.Zaps[3].DeadlineIn)
	require.Equal(t, int64(-1), *sc.Zaps[3].DeadlineIn)
}

func TestParseRejectsInvalidScenarios(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unknown key",
			yaml: "name: x\nflavour: sour\n",
		},
		{
			name: "reserved symbol",
			yaml: "tokens:\n  - symbol: WNATIVE\n",
		},
		{
			name: "duplicate symbol",
			yaml: "tokens:\n  - symbol: TKA\n  - symbol: TKA\n",
		},
		{
			name: "native pool",
			yaml: "tokens:\n  - symbol: TKA\npools:\n  - tokens: [NATIVE, TKA]\n    amounts: [\"1\", \"1\"]\n",
		},
		{
			name: "unknown caller",
			yaml: "tokens:\n  - symbol: TKA\nzaps:\n  - caller: carol\n    input: TKA\n    amount: \"1\"\n",
		},
		{
			name: "native in path",
			yaml: "accounts:\n  - name: alice\nzaps:\n  - caller: alice\n    input: NATIVE\n    amount: \"1\"\n    path1: [NATIVE]\n",
		},
		{
			name: "one sided pair",
			yaml: "tokens:\n  - symbol: TKA\naccounts:\n  - name: alice\nzaps:\n  - caller: alice\n    input: TKA\n    pair: [TKA]\n",
		},
		{
			name: "unknown balance token",
			yaml: "accounts:\n  - name: alice\n    balances:\n      XYZ: \"1\"\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.Error(t, err)
		})
	}
}

func TestRunBasicScenario(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	sc, err := Load(filepath.Join("testdata", "basic.yaml"))
	require.NoError(err)
	runner, err := NewRunner(ctx, sc, Options{})
	require.NoError(err)

	report, err := runner.Run(ctx)
	require.NoError(err)
	require.Len(report.Outcomes, len(sc.Zaps))
	require.Empty(report.Mismatches(), "%+v", report.Mismatches())

	receipts := report.Receipts()
	require.Len(receipts, len(sc.Zaps))
	for _, receipt := range receipts {
		require.NotEmpty(receipt.ID)
	}

	first := receipts[0]
	require.True(first.Succeeded())
	require.Equal("zap", first.Entry)
	bob, ok := runner.Account("bob")
	require.True(ok)
	require.Equal(bob.Hex(), first.Recipient)
	require.NotEmpty(first.Liquidity)

	native := receipts[1]
	require.True(native.Succeeded())
	require.Equal("zap_native", native.Entry)

	for _, receipt := range receipts[2:] {
		require.False(receipt.Succeeded())
		require.Equal("failed", receipt.State)
	}

	// Only the two successful zaps spent alice's funds.
	tka, err := runner.Balance(ctx, "alice", "TKA")
	require.NoError(err)
	spent := new(big.Int).Sub(mustUnits(t, "100"), tka)
	require.True(spent.Cmp(mustUnits(t, "10")) <= 0, "alice spent %s TKA", spent)

	nativeBal, err := runner.Balance(ctx, "alice", NativeSymbol)
	require.NoError(err)
	require.True(nativeBal.Cmp(mustUnits(t, "9")) >= 0, "alice holds %s native", nativeBal)
	require.True(nativeBal.Cmp(mustUnits(t, "10")) < 0, "alice holds %s native", nativeBal)

	usd, err := runner.Balance(ctx, "bob", "USD")
	require.NoError(err)
	require.Equal("250500000", usd.String())

	allowance := runner.Exchange().Allowance(runner.tokens["TKA"], runner.accounts["alice"], runner.Zapper().Address())
	require.Zero(allowance.Sign())
}

func TestRunReportsMismatches(t *testing.T) {
	sc, err := Parse([]byte(`
name: wrong expectation
now: 1700000000
tokens:
  - symbol: TKA
    decimals: 18
  - symbol: TKB
    decimals: 18
accounts:
  - name: alice
    balances:
      TKA: "5"
pools:
  - tokens: [TKA, TKB]
    amounts: ["100", "100"]
zaps:
  - name: succeeds anyway
    caller: alice
    input: TKA
    amount: "1"
    path1: [TKA, TKB]
    expect: expired
`))
	require.NoError(t, err)

	report, err := Run(context.Background(), sc, Options{})
	require.NoError(t, err)
	mismatches := report.Mismatches()
	require.Len(t, mismatches, 1)
	require.Equal(t, "expired", mismatches[0].Expected)
	require.Equal(t, "ok", mismatches[0].Actual)
}

func TestNewRunnerRejectsExcessPrecision(t *testing.T) {
	sc, err := Parse([]byte(`
tokens:
  - symbol: TKA
    decimals: 2
  - symbol: TKB
    decimals: 2
pools:
  - tokens: [TKA, TKB]
    amounts: ["0.001", "1"]
`))
	require.NoError(t, err)

	_, err = NewRunner(context.Background(), sc, Options{})
	require.ErrorContains(t, err, "decimal places")
}

func mustUnits(t *testing.T, value string) *big.Int {
	t.Helper()
	v, err := ToBaseUnits(value, defaultDecimals)
	require.NoError(t, err)
	return v
}
