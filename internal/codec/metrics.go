package codec

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts codec activity. A nil *Metrics records nothing.
type Metrics struct {
	encoded *prometheus.CounterVec
	decoded *prometheus.CounterVec
	skipped *prometheus.CounterVec
}

// NewMetrics creates the codec counters and registers them with reg.
// A nil reg leaves the counters unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		encoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recmap",
			Name:      "records_encoded_total",
			Help:      "Records produced from local objects.",
		}, []string{"record_type"}),
		decoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recmap",
			Name:      "records_decoded_total",
			Help:      "Records merged into local objects.",
		}, []string{"record_type"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recmap",
			Name:      "fields_skipped_total",
			Help:      "Fields left out of an encode or decode, by reason.",
		}, []string{"record_type", "code"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.encoded, m.decoded, m.skipped} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeEncode(recordType string, r *Report) {
	if m == nil {
		return
	}
	m.encoded.WithLabelValues(recordType).Inc()
	m.observeSkipped(recordType, r)
}

func (m *Metrics) observeDecode(recordType string, r *Report) {
	if m == nil {
		return
	}
	m.decoded.WithLabelValues(recordType).Inc()
	m.observeSkipped(recordType, r)
}

func (m *Metrics) observeSkipped(recordType string, r *Report) {
	for _, f := range r.Skipped {
		m.skipped.WithLabelValues(recordType, string(f.Code)).Inc()
	}
}
