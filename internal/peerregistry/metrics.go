package peerregistry

import "github.com/prometheus/client_golang/prometheus"

// metricsSet is the flat var-block-style Prometheus collector group for
// the registry, one GaugeVec/CounterVec per observed dimension, labeled
// by peer_id. Registered once per Registry instance rather than as
// package vars, since a process may run more than one mesh controller.
type metricsSet struct {
	rssi     *prometheus.GaugeVec
	lastSeen *prometheus.GaugeVec
	received *prometheus.CounterVec
	sent     *prometheus.CounterVec
	relayed  *prometheus.CounterVec
}

func newMetricsSet() *metricsSet {
	m := &metricsSet{
		rssi: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bitpack_peer_rssi_dbm",
			Help: "Last observed RSSI for a peer, in dBm.",
		}, []string{"peer_id"}),
		lastSeen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bitpack_peer_last_seen_seconds",
			Help: "Unix timestamp a peer was last observed.",
		}, []string{"peer_id"}),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bitpack_peer_packets_received_total",
			Help: "Packets received from a peer.",
		}, []string{"peer_id"}),
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bitpack_peer_packets_sent_total",
			Help: "Packets sent to a peer.",
		}, []string{"peer_id"}),
		relayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bitpack_peer_packets_relayed_total",
			Help: "Packets relayed to a peer.",
		}, []string{"peer_id"}),
	}
	return m
}

// Register adds all of r's collectors to reg. Call once per Registry,
// with a dedicated *prometheus.Registry in tests to avoid duplicate
// registration panics across test cases.
func (r *Registry) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		r.metrics.rssi,
		r.metrics.lastSeen,
		r.metrics.received,
		r.metrics.sent,
		r.metrics.relayed,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// observe refreshes the gauges from info's current snapshot. Counters
// are incremented directly by the Registry methods that call observe,
// since prometheus.Counter only exposes Inc/Add, not Set.
func (m *metricsSet) observe(peerID string, info *PeerInfo) {
	m.rssi.WithLabelValues(peerID).Set(float64(info.RSSI))
	m.lastSeen.WithLabelValues(peerID).Set(float64(info.LastSeen.Unix()))
}

func (m *metricsSet) forget(peerID string) {
	m.rssi.DeleteLabelValues(peerID)
	m.lastSeen.DeleteLabelValues(peerID)
	m.received.DeleteLabelValues(peerID)
	m.sent.DeleteLabelValues(peerID)
	m.relayed.DeleteLabelValues(peerID)
}
