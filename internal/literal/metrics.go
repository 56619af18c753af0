package literal

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Form is the shape of a top-level encoding result.
type Form string

// Literal forms. A value.Expr passed through unchanged counts as native.
const (
	FormNull    Form = "null"    // NULL or a typed NULL cast
	FormNative  Form = "native"  // the type's own literal syntax
	FormSpecial Form = "special" // NaN or an infinity
	FormMagic   Form = "magic"   // $literal$ over a native literal
	FormBinary  Form = "binary"  // $literal$ over from_base64
)

var forms = []Form{FormNull, FormNative, FormSpecial, FormMagic, FormBinary}

// Metrics counts encodings by the literal form produced.
type Metrics struct {
	encodings *prometheus.CounterVec
	errors    *prometheus.CounterVec
}

// NewMetrics creates the encoder metrics. They are not registered until
// Register is called.
func NewMetrics() *Metrics {
	m := &Metrics{
		encodings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "litenc_literal_encodings_total",
			Help: "Total number of values encoded as literals, by literal form.",
		}, []string{"form"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "litenc_literal_encoding_errors_total",
			Help: "Total number of values that could not be encoded, by error code.",
		}, []string{"code"}),
	}

	for _, f := range forms {
		m.encodings.WithLabelValues(string(f))
	}
	return m
}

// Register registers the collectors with reg. Already registered collectors
// are not an error.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.encodings, m.errors} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

// Unregister removes the collectors from reg.
func (m *Metrics) Unregister(reg prometheus.Registerer) {
	reg.Unregister(m.encodings)
	reg.Unregister(m.errors)
}

func (m *Metrics) observe(f Form) {
	if m == nil {
		return
	}
	m.encodings.WithLabelValues(string(f)).Inc()
}

func (m *Metrics) observeError(err error) {
	if m == nil {
		return
	}
	code := "unknown"
	var ee *EncodingError
	if errors.As(err, &ee) {
		code = string(ee.Code)
	}
	m.errors.WithLabelValues(code).Inc()
}
