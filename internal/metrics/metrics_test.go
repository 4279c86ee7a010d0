package metrics

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"lpzap/internal/dex"
	"lpzap/internal/model"
	"lpzap/internal/zapper"
)

func TestObserveZap(t *testing.T) {
	require := require.New(t)
	m, err := New()
	require.NoError(err)

	m.ObserveZap(&zapper.Result{
		Entry:     zapper.EntryZapNative,
		Liquidity: big.NewInt(1_500),
		Dust: []model.DustTransfer{
			{Asset: model.Native(), Amount: "4"},
			{Asset: model.Token(common.BytesToAddress([]byte{1})), Amount: "0"},
			{Asset: model.Token(common.BytesToAddress([]byte{2})), Amount: "9"},
		},
		Effects: []string{"pull", "wrap", "swap", "add liquidity", "sweep"},
	})
	m.ObserveZap(&zapper.Result{
		Entry: zapper.EntryZap,
		Err:   &zapper.Error{State: zapper.StateGuardChecked, Err: dex.ErrSlippageExceeded},
	})
	m.ObserveZap(nil)

	require.Equal(1.0, testutil.ToFloat64(m.zaps.WithLabelValues("zap_native", "ok")))
	require.Equal(1.0, testutil.ToFloat64(m.zaps.WithLabelValues("zap", "slippage_exceeded")))
	require.Equal(1.0, testutil.ToFloat64(m.dust.WithLabelValues("native")))
	require.Equal(1.0, testutil.ToFloat64(m.dust.WithLabelValues("token")))
	require.Equal(1_500.0, testutil.ToFloat64(m.lpMinted))

	path := filepath.Join(t.TempDir(), "lpzap.prom")
	require.NoError(m.WriteTextfile(path))
	raw, err := os.ReadFile(path)
	require.NoError(err)
	require.True(strings.Contains(string(raw), `lpzap_zaps_total{entry="zap",result="slippage_exceeded"} 1`))
	require.NoError(m.WriteTextfile(""))
}
