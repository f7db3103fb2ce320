// Package metrics exports node and channel gauges in the Prometheus text
// format, for the node_exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/lcwatch/lcw/pkg/node"
	"github.com/lcwatch/lcw/pkg/report"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "lcw"

// Exporter holds one snapshot of gauges on a private registry.
type Exporter struct {
	reg *prometheus.Registry

	WalletSats        *prometheus.GaugeVec
	CapacitySats      *prometheus.GaugeVec
	RoutedPayments    *prometheus.GaugeVec
	RoutedAmountSats  prometheus.Gauge
	FeesCollectedSats prometheus.Gauge
	CentralityScore   *prometheus.GaugeVec

	ChannelCapacitySats *prometheus.GaugeVec
	ChannelPayments     *prometheus.GaugeVec
	ChannelFeePPM       *prometheus.GaugeVec
	ChannelTxPerDay     *prometheus.GaugeVec
}

func NewExporter() *Exporter {
	e := &Exporter{
		reg: prometheus.NewRegistry(),
		WalletSats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "node",
			Name:      "wallet_sats",
			Help:      "On-chain wallet funds by confirmation state",
		}, []string{"state"}),
		CapacitySats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "node",
			Name:      "capacity_sats",
			Help:      "Channel capacity summed over all channels by direction",
		}, []string{"direction"}),
		RoutedPayments: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "node",
			Name:      "routed_payments",
			Help:      "Forwarded payments in the reporting period by direction",
		}, []string{"direction"}),
		RoutedAmountSats: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "node",
			Name:      "routed_amount_sats",
			Help:      "Amount forwarded in the reporting period",
		}),
		FeesCollectedSats: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "node",
			Name:      "fees_collected_sats",
			Help:      "Routing fees collected since the node started",
		}),
		CentralityScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "node",
			Name:      "centrality_score",
			Help:      "Centrality score of the node in the channel graph",
		}, []string{"mode"}),
		ChannelCapacitySats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "channel",
			Name:      "capacity_sats",
			Help:      "Channel balance by direction",
		}, []string{"short_id", "alias", "direction"}),
		ChannelPayments: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "channel",
			Name:      "payments",
			Help:      "Forwarded payments in the reporting period by direction",
		}, []string{"short_id", "direction"}),
		ChannelFeePPM: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "channel",
			Name:      "fee_ppm",
			Help:      "Proportional channel fee",
		}, []string{"short_id"}),
		ChannelTxPerDay: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "channel",
			Name:      "tx_per_day",
			Help:      "Average forwarded payments per day",
		}, []string{"short_id"}),
	}
	e.reg.MustRegister(
		e.WalletSats, e.CapacitySats, e.RoutedPayments, e.RoutedAmountSats,
		e.FeesCollectedSats, e.CentralityScore,
		e.ChannelCapacitySats, e.ChannelPayments, e.ChannelFeePPM, e.ChannelTxPerDay,
	)
	return e
}

// ObserveStatus records the node summary and the displayed channels.
func (e *Exporter) ObserveStatus(s report.Status) {
	if sum := s.Summary; sum != nil {
		e.observeSummary(sum)
	}
	for _, c := range s.Channels {
		e.observeChannel(c)
	}
}

func (e *Exporter) observeSummary(s *node.Summary) {
	e.WalletSats.WithLabelValues("confirmed").Set(float64(s.WalletConfirmed))
	e.WalletSats.WithLabelValues("unconfirmed").Set(float64(s.WalletUnconfirmed))
	e.CapacitySats.WithLabelValues("in").Set(float64(s.InputCapacity))
	e.CapacitySats.WithLabelValues("out").Set(float64(s.OutputCapacity))
	e.RoutedPayments.WithLabelValues("in").Set(float64(s.InPayments))
	e.RoutedPayments.WithLabelValues("out").Set(float64(s.OutPayments))
	e.RoutedAmountSats.Set(s.RoutedAmount)
	e.FeesCollectedSats.Set(s.FeesCollected)
}

func (e *Exporter) observeChannel(c *node.Channel) {
	alias := report.SanitizeAlias(c.Alias)
	e.ChannelCapacitySats.WithLabelValues(c.ShortID, alias, "in").Set(float64(c.InputCapacity))
	e.ChannelCapacitySats.WithLabelValues(c.ShortID, alias, "out").Set(float64(c.OutputCapacity))
	e.ChannelPayments.WithLabelValues(c.ShortID, "in").Set(float64(c.InPayments))
	e.ChannelPayments.WithLabelValues(c.ShortID, "out").Set(float64(c.OutPayments))
	e.ChannelFeePPM.WithLabelValues(c.ShortID).Set(float64(c.PPMFee))
	e.ChannelTxPerDay.WithLabelValues(c.ShortID).Set(c.TxPerDay)
}

// ObserveAnalysis records the node's centrality score.
func (e *Exporter) ObserveAnalysis(a report.Analysis) {
	e.CentralityScore.WithLabelValues(a.Mode).Set(float64(a.Result.Score))
}

// WriteTextfile atomically replaces path with the current gauges.
func (e *Exporter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.reg); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// Gatherer exposes the registry, e.g. for an HTTP handler.
func (e *Exporter) Gatherer() prometheus.Gatherer {
	return e.reg
}
