package metrics

import (
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Service exposes the soulsearch collectors of a registry as plain data.
type Service struct {
	gatherer prometheus.Gatherer
}

// NewService creates a new metrics service.
func NewService(gatherer prometheus.Gatherer) *Service {
	return &Service{gatherer: gatherer}
}

// Metric represents a single metric data point.
type Metric struct {
	Type  string  `json:"type"`
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Summary returns every soulsearch counter sample, plus the observation count
// of histograms, sorted by type and key.
func (s *Service) Summary() ([]Metric, error) {
	families, err := s.gatherer.Gather()
	if err != nil {
		return nil, err
	}
	out := []Metric{}
	for _, mf := range families {
		name := mf.GetName()
		if !strings.HasPrefix(name, namespace+"_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			metric := Metric{Type: strings.TrimPrefix(name, namespace+"_"), Key: strings.Join(labels, ",")}
			switch {
			case m.GetCounter() != nil:
				metric.Value = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				metric.Value = float64(m.GetHistogram().GetSampleCount())
			default:
				continue
			}
			out = append(out, metric)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}
