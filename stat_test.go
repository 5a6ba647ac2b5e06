package mqtt

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestStatRegisterIsIdempotent(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("register panicked: %v", r)
		}
	}()
	stat.register()
	stat.register()
}

func TestStatIncrementDoesNotPanic(t *testing.T) {
	testStat := Stat{
		Connected:          prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_mqttc_connected", Help: "t"}),
		PacketReceived:     prometheus.NewCounter(prometheus.CounterOpts{Name: "test_mqttc_received_packets", Help: "t"}),
		ByteReceived:       prometheus.NewCounter(prometheus.CounterOpts{Name: "test_mqttc_received_bytes", Help: "t"}),
		PacketSent:         prometheus.NewCounter(prometheus.CounterOpts{Name: "test_mqttc_sent_packets", Help: "t"}),
		ByteSent:           prometheus.NewCounter(prometheus.CounterOpts{Name: "test_mqttc_sent_bytes", Help: "t"}),
		Reconnects:         prometheus.NewCounter(prometheus.CounterOpts{Name: "test_mqttc_reconnects", Help: "t"}),
		QoSCyclesCompleted: prometheus.NewCounter(prometheus.CounterOpts{Name: "test_mqttc_qos_cycles", Help: "t"}),
		ProtocolErrors:     prometheus.NewCounter(prometheus.CounterOpts{Name: "test_mqttc_protocol_errors", Help: "t"}),
	}

	testStat.Connected.Set(1)
	testStat.PacketReceived.Inc()
	testStat.ByteReceived.Add(100)
	testStat.PacketSent.Inc()
	testStat.ByteSent.Add(200)
	testStat.Reconnects.Inc()
	testStat.QoSCyclesCompleted.Inc()
	testStat.ProtocolErrors.Inc()
}

func TestGlobalStatInitialized(t *testing.T) {
	fields := []prometheus.Collector{
		stat.Uptime, stat.Connected, stat.PacketReceived, stat.ByteReceived,
		stat.PacketSent, stat.ByteSent, stat.Reconnects, stat.QoSCyclesCompleted, stat.ProtocolErrors,
	}
	for i, f := range fields {
		if f == nil {
			t.Errorf("stat field %d should not be nil", i)
		}
	}
}
