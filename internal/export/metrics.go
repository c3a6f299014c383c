package export

import "github.com/prometheus/client_golang/prometheus"

func newArchivesCounter(reg prometheus.Registerer) (*prometheus.CounterVec, error) {
	c := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "export_archives_total",
			Help: "Total number of export archive builds by format and outcome.",
		},
		[]string{"format", "status"},
	)
	if err := reg.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}
