package linker

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts linker activity. A nil *Metrics records nothing.
type Metrics struct {
	installed prometheus.Counter
	linked    prometheus.Counter
	jit       prometheus.Counter
	passes    prometheus.Counter
	failures  prometheus.Counter
}

// NewMetrics registers the linker counters with reg. Counters already
// registered by another graph are shared.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	counter := func(name, help string) (prometheus.Counter, error) {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "objectgraph",
			Subsystem: "linker",
			Name:      name,
			Help:      help,
		})
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
					return existing, nil
				}
			}
			return nil, err
		}
		return c, nil
	}

	m := &Metrics{}
	var err error
	if m.installed, err = counter("bindings_installed_total", "Bindings installed from modules."); err != nil {
		return nil, err
	}
	if m.linked, err = counter("bindings_linked_total", "Bindings whose dependencies were all attached."); err != nil {
		return nil, err
	}
	if m.jit, err = counter("bindings_synthesized_total", "Bindings synthesized on demand for requested keys."); err != nil {
		return nil, err
	}
	if m.passes, err = counter("link_passes_total", "Link passes over the request queue."); err != nil {
		return nil, err
	}
	if m.failures, err = counter("unresolved_keys_total", "Requested keys no binding could satisfy."); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) addInstalled(n int) {
	if m != nil {
		m.installed.Add(float64(n))
	}
}

func (m *Metrics) incLinked() {
	if m != nil {
		m.linked.Inc()
	}
}

func (m *Metrics) incSynthesized() {
	if m != nil {
		m.jit.Inc()
	}
}

func (m *Metrics) incPasses() {
	if m != nil {
		m.passes.Inc()
	}
}

func (m *Metrics) incFailures() {
	if m != nil {
		m.failures.Inc()
	}
}
