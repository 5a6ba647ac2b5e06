package mqtt

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stat is the client-side metrics surface (SPEC_FULL.md §3's domain-stack
// wiring for observability). Grounded on the teacher's server-side Stat,
// same counter/gauge idiom, re-pointed at what a client actually does:
// packets/bytes moved, successful (re)connects, and completed QoS cycles rather
// than inbound HTTP connection counts.
type Stat struct {
	Uptime             prometheus.Counter
	Connected          prometheus.Gauge
	PacketReceived     prometheus.Counter
	ByteReceived       prometheus.Counter
	PacketSent         prometheus.Counter
	ByteSent           prometheus.Counter
	Reconnects         prometheus.Counter
	QoSCyclesCompleted prometheus.Counter
	ProtocolErrors     prometheus.Counter
}

var (
	stat = Stat{
		Uptime:             prometheus.NewCounter(prometheus.CounterOpts{Name: "mqttc_uptime_seconds", Help: "Seconds since the client first connected"}),
		Connected:          prometheus.NewGauge(prometheus.GaugeOpts{Name: "mqttc_connected", Help: "1 if the client currently holds an open connection"}),
		PacketReceived:     prometheus.NewCounter(prometheus.CounterOpts{Name: "mqttc_received_packets", Help: "Total control packets received"}),
		ByteReceived:       prometheus.NewCounter(prometheus.CounterOpts{Name: "mqttc_received_bytes", Help: "Total bytes received"}),
		PacketSent:         prometheus.NewCounter(prometheus.CounterOpts{Name: "mqttc_sent_packets", Help: "Total control packets sent"}),
		ByteSent:           prometheus.NewCounter(prometheus.CounterOpts{Name: "mqttc_sent_bytes", Help: "Total bytes sent"}),
		Reconnects:         prometheus.NewCounter(prometheus.CounterOpts{Name: "mqttc_reconnects", Help: "Total successful (re)connect sequences"}),
		QoSCyclesCompleted: prometheus.NewCounter(prometheus.CounterOpts{Name: "mqttc_qos_cycles_completed", Help: "Total QoS 1/2 publish cycles that reached their terminal ack"}),
		ProtocolErrors:     prometheus.NewCounter(prometheus.CounterOpts{Name: "mqttc_protocol_errors", Help: "Total connections closed due to a protocol error"}),
	}
	registerOnce sync.Once
)

func (s *Stat) register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(s.Uptime, s.Connected, s.PacketReceived, s.ByteReceived,
			s.PacketSent, s.ByteSent, s.Reconnects, s.QoSCyclesCompleted, s.ProtocolErrors)
		go s.refreshUptime()
	})
}

func (s *Stat) refreshUptime() {
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for range tick.C {
		s.Uptime.Inc()
	}
}
