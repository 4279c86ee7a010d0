// Package metrics records zap outcomes in a Prometheus registry.
package metrics

import (
	"errors"
	"math/big"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"lpzap/internal/zapper"
)

const namespace = "lpzap"

// Metrics implements zapper.Observer.
type Metrics struct {
	registry *prometheus.Registry

	zaps     *prometheus.CounterVec
	dust     *prometheus.CounterVec
	lpMinted prometheus.Counter
	effects  prometheus.Histogram
}

var _ zapper.Observer = (*Metrics)(nil)

// New registers the zap collectors on a fresh registry.
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		zaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zaps_total",
			Help:      "number of zap calls by entry point and result",
		}, []string{"entry", "result"}),
		dust: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dust_transfers_total",
			Help:      "number of non-zero leftover balances returned to callers",
		}, []string{"asset"}),
		lpMinted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lp_minted_total",
			Help:      "LP shares minted by successful zaps",
		}),
		effects: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "zap_effects",
			Help:      "ledger effects performed per successful zap",
			Buckets:   prometheus.LinearBuckets(2, 2, 8),
		}),
	}
	errs := []error{
		m.registry.Register(m.zaps),
		m.registry.Register(m.dust),
		m.registry.Register(m.lpMinted),
		m.registry.Register(m.effects),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// Registry exposes the underlying registry for export.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveZap records one finished zap.
func (m *Metrics) ObserveZap(res *zapper.Result) {
	if res == nil {
		return
	}
	m.zaps.WithLabelValues(string(res.Entry), zapper.Label(res.Err)).Inc()
	if res.Err != nil {
		return
	}

	for _, d := range res.Dust {
		if d.Amount == "" || d.Amount == "0" {
			continue
		}
		label := "token"
		if d.Asset.IsNative() {
			label = "native"
		}
		m.dust.WithLabelValues(label).Inc()
	}
	if res.Liquidity != nil {
		minted, _ := new(big.Float).SetInt(res.Liquidity).Float64()
		m.lpMinted.Add(minted)
	}
	m.effects.Observe(float64(len(res.Effects)))
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
