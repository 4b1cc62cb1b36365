package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ledger module: lifecycle counters,
// funded-value totals, the pool balance mirror, and critical path durations.
type Metrics struct {
	InvoicesCreated   prometheus.Counter
	InvoicesFunded    prometheus.Counter
	InvoicesRepaid    prometheus.Counter
	InvoicesDefaulted prometheus.Counter

	ValueFunded     prometheus.Counter
	PoolBalance     prometheus.Gauge
	LateFeesCharged prometheus.Counter

	CreateDuration prometheus.Histogram
	FundDuration   prometheus.Histogram
	RepayDuration  prometheus.Histogram
	ClaimDuration  prometheus.Histogram
}

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// New creates a Metrics instance with all ledger metrics registered.
func New() *Metrics {
	return &Metrics{
		InvoicesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "factorline_invoices_created_total",
			Help: "Total number of invoices posted for funding",
		}),
		InvoicesFunded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "factorline_invoices_funded_total",
			Help: "Total number of invoices funded by investors",
		}),
		InvoicesRepaid: promauto.NewCounter(prometheus.CounterOpts{
			Name: "factorline_invoices_repaid_total",
			Help: "Total number of invoices repaid",
		}),
		InvoicesDefaulted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "factorline_invoices_defaulted_total",
			Help: "Total number of invoices defaulted via insurance claim",
		}),
		ValueFunded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "factorline_value_funded_minor_units_total",
			Help: "Cumulative principal funded, in settlement-asset minor units",
		}),
		PoolBalance: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "factorline_insurance_pool_balance_minor_units",
			Help: "Current insurance pool balance, in settlement-asset minor units",
		}),
		LateFeesCharged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "factorline_late_fees_minor_units_total",
			Help: "Cumulative late fees charged on overdue repayments",
		}),
		CreateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "factorline_create_invoice_duration_seconds",
			Help:    "Duration of CreateInvoice operations",
			Buckets: durationBuckets,
		}),
		FundDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "factorline_fund_invoice_duration_seconds",
			Help:    "Duration of FundInvoice operations (settlement critical path)",
			Buckets: durationBuckets,
		}),
		RepayDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "factorline_repay_invoice_duration_seconds",
			Help:    "Duration of RepayInvoice operations (settlement critical path)",
			Buckets: durationBuckets,
		}),
		ClaimDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "factorline_claim_insurance_duration_seconds",
			Help:    "Duration of ClaimInsurance operations",
			Buckets: durationBuckets,
		}),
	}
}

func (m *Metrics) IncrementCreated()   { m.InvoicesCreated.Inc() }
func (m *Metrics) IncrementRepaid()    { m.InvoicesRepaid.Inc() }
func (m *Metrics) IncrementDefaulted() { m.InvoicesDefaulted.Inc() }

// IncrementFunded records a successful funding and its principal.
func (m *Metrics) IncrementFunded(amount uint64) {
	m.InvoicesFunded.Inc()
	m.ValueFunded.Add(float64(amount))
}

// SetPoolBalance mirrors the insurance pool aggregate after a change.
func (m *Metrics) SetPoolBalance(balance uint64) {
	m.PoolBalance.Set(float64(balance))
}

// AddLateFees records late fees collected with a repayment.
func (m *Metrics) AddLateFees(fee uint64) {
	if fee > 0 {
		m.LateFeesCharged.Add(float64(fee))
	}
}

// ObserveCreate records the duration of a CreateInvoice operation.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveCreate(start time.Time) {
	m.CreateDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveFund(start time.Time) {
	m.FundDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveRepay(start time.Time) {
	m.RepayDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveClaim(start time.Time) {
	m.ClaimDuration.Observe(time.Since(start).Seconds())
}
