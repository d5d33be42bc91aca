package models

// Metrics holds the raw performance values of one instrument at one date.
// A nil field means the source had no usable value.
type Metrics struct {
	YTDReturn        *float64 `json:"ytd_return"`
	OneMonthReturn   *float64 `json:"one_month_return"`
	ThreeMonthReturn *float64 `json:"three_month_return"`
	OneYearReturn    *float64 `json:"one_year_return"`
	ThreeYearReturn  *float64 `json:"three_year_return"`
	FiveYearReturn   *float64 `json:"five_year_return"`
	TenYearReturn    *float64 `json:"ten_year_return"`
	SharpeRatio3Y    *float64 `json:"sharpe_ratio_3y"`
	StdDev3Y         *float64 `json:"std_dev_3y"`
	SortinoRatio3Y   *float64 `json:"sortino_ratio_3y"`
	ExpenseRatio     *float64 `json:"expense_ratio"`
	UpCaptureRatio   *float64 `json:"up_capture_ratio"`
	DownCaptureRatio *float64 `json:"down_capture_ratio"`
	ManagerTenure    *float64 `json:"manager_tenure"`
}

type metricField struct {
	name string
	ref  func(*Metrics) **float64
}

// metricFields is the single source of truth for metric names and column order.
var metricFields = []metricField{
	{"ytd_return", func(m *Metrics) **float64 { return &m.YTDReturn }},
	{"one_month_return", func(m *Metrics) **float64 { return &m.OneMonthReturn }},
	{"three_month_return", func(m *Metrics) **float64 { return &m.ThreeMonthReturn }},
	{"one_year_return", func(m *Metrics) **float64 { return &m.OneYearReturn }},
	{"three_year_return", func(m *Metrics) **float64 { return &m.ThreeYearReturn }},
	{"five_year_return", func(m *Metrics) **float64 { return &m.FiveYearReturn }},
	{"ten_year_return", func(m *Metrics) **float64 { return &m.TenYearReturn }},
	{"sharpe_ratio_3y", func(m *Metrics) **float64 { return &m.SharpeRatio3Y }},
	{"std_dev_3y", func(m *Metrics) **float64 { return &m.StdDev3Y }},
	{"sortino_ratio_3y", func(m *Metrics) **float64 { return &m.SortinoRatio3Y }},
	{"expense_ratio", func(m *Metrics) **float64 { return &m.ExpenseRatio }},
	{"up_capture_ratio", func(m *Metrics) **float64 { return &m.UpCaptureRatio }},
	{"down_capture_ratio", func(m *Metrics) **float64 { return &m.DownCaptureRatio }},
	{"manager_tenure", func(m *Metrics) **float64 { return &m.ManagerTenure }},
}

// MetricNames lists the metric column names in storage order.
var MetricNames = func() []string {
	names := make([]string, len(metricFields))
	for i, f := range metricFields {
		names[i] = f.name
	}
	return names
}()

var metricIndex = func() map[string]int {
	idx := make(map[string]int, len(metricFields))
	for i, f := range metricFields {
		idx[f.name] = i
	}
	return idx
}()

// IsMetric reports whether name is a known metric column.
func IsMetric(name string) bool {
	_, ok := metricIndex[name]
	return ok
}

// Get returns the value of the named metric and whether the name is known.
func (m *Metrics) Get(name string) (*float64, bool) {
	i, ok := metricIndex[name]
	if !ok {
		return nil, false
	}
	return *metricFields[i].ref(m), true
}

// Set stores v under the named metric. Unknown names are ignored.
func (m *Metrics) Set(name string, v *float64) bool {
	i, ok := metricIndex[name]
	if !ok {
		return false
	}
	*metricFields[i].ref(m) = v
	return true
}

// Values returns the metrics in MetricNames order.
func (m *Metrics) Values() []*float64 {
	out := make([]*float64, len(metricFields))
	for i, f := range metricFields {
		out[i] = *f.ref(m)
	}
	return out
}

// Pointers returns addresses of every metric field in MetricNames order,
// suitable for database scans.
func (m *Metrics) Pointers() []**float64 {
	out := make([]**float64, len(metricFields))
	for i, f := range metricFields {
		out[i] = f.ref(m)
	}
	return out
}

// AllNull reports whether no metric carries a value.
func (m *Metrics) AllNull() bool {
	for _, v := range m.Values() {
		if v != nil {
			return false
		}
	}
	return true
}

// Clone deep-copies the metric values.
func (m Metrics) Clone() Metrics {
	var out Metrics
	for i, f := range metricFields {
		if v := *f.ref(&m); v != nil {
			c := *v
			*metricFields[i].ref(&out) = &c
		}
	}
	return out
}

// Float returns a pointer to v, handy for building metrics in code.
func Float(v float64) *float64 { return &v }
