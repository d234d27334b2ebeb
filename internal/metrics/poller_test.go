package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterIsIdempotent(t *testing.T) {
	Register()
	Register()

	PollsTotal.WithLabelValues("changed").Inc()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "glmusage_polls_total" {
			found = true
		}
	}
	if !found {
		t.Fatal("glmusage_polls_total not registered")
	}
}
