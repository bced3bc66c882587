package sales

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts document lifecycle events. A nil *Metrics records nothing.
type Metrics struct {
	issued    *prometheus.CounterVec
	approvals *prometheus.CounterVec
	conflicts *prometheus.CounterVec
}

// NewMetrics registers the collectors against registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	issued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sitecost_documents_issued_total",
		Help: "Sales documents numbered and stored, by document type.",
	}, []string{"doc_type"})
	approvals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sitecost_document_approvals_total",
		Help: "DRAFT to APPROVED transitions, by document type.",
	}, []string{"doc_type"})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sitecost_document_number_conflicts_total",
		Help: "Transactions retried after a number or child uniqueness conflict.",
	}, []string{"op"})
	registerer.MustRegister(issued, approvals, conflicts)
	return &Metrics{issued: issued, approvals: approvals, conflicts: conflicts}
}

func (m *Metrics) documentIssued(t DocType) {
	if m == nil {
		return
	}
	m.issued.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) approved(t DocType) {
	if m == nil {
		return
	}
	m.approvals.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) numberConflict(op string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(op).Inc()
}
