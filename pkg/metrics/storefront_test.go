package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStorefrontMetricsExportCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStorefront(reg)

	m.CartMutation("add", true)
	m.CartMutation("add", false)
	m.CartMutation("add", false)
	m.CartPersistFailure("update")
	m.CheckoutFinished("failed", "validating", 5*time.Millisecond)
	m.ConfirmationFinished("")
	m.BackendCall("create_order", "2xx", 20*time.Millisecond)
	m.AuthThrottled("sign_in", "account")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "storefront_cart_mutations_total", map[string]string{"op": "add", "result": "rejected"}); err != nil {
		t.Fatalf("fetch rejected: %v", err)
	} else if got != 2 {
		t.Fatalf("expected rejected=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "storefront_cart_persist_failures_total", map[string]string{"op": "update"}); err != nil {
		t.Fatalf("fetch persist failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected persist failures=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "storefront_order_confirmations_total", map[string]string{"outcome": "unknown"}); err != nil {
		t.Fatalf("fetch confirmations: %v", err)
	} else if got != 1 {
		t.Fatalf("expected normalized outcome, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "storefront_auth_throttled_total", map[string]string{"action": "sign_in", "scope": "account"}); err != nil {
		t.Fatalf("fetch throttled: %v", err)
	} else if got != 1 {
		t.Fatalf("expected throttled=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "storefront_backend_request_duration_seconds", map[string]string{"op": "create_order"}); err != nil {
		t.Fatalf("fetch backend latency: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected latency sum > 0, got %f", got)
	}
}

func TestNilStorefrontIsNoop(t *testing.T) {
	var m *Storefront
	m.CartMutation("add", true)
	m.CheckoutFinished("failed", "validating", time.Second)

	unregistered := NewStorefront(nil)
	unregistered.ConfirmationFinished("succeeded")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
