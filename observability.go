package pool

import (
	"encoding/json"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// EventKind names a slot transition.
type EventKind uint8

const (
	EventSpawn EventKind = iota + 1
	EventFree
	EventReserve
	EventRedeem
	EventCancel
	EventClear
	EventLoad
)

var eventKindNames = [...]string{
	EventSpawn:   "spawn",
	EventFree:    "free",
	EventReserve: "reserve",
	EventRedeem:  "redeem",
	EventCancel:  "cancel",
	EventClear:   "clear",
	EventLoad:    "load",
}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) && eventKindNames[k] != "" {
		return eventKindNames[k]
	}
	return fmt.Sprintf("event(%d)", uint8(k))
}

// Event describes one slot transition. Alive and Slots are the pool's counts
// after the transition. Handle is the none handle for Clear and Load.
type Event struct {
	Kind   EventKind
	Handle ErasedHandle
	Alive  int
	Slots  int
}

// Observer receives pool events. Observers run synchronously inside the pool
// operation and must not call back into the pool.
type Observer interface {
	PoolEvent(ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// PoolEvent calls f(ev).
func (f ObserverFunc) PoolEvent(ev Event) { f(ev) }

type compositeObserver struct {
	observers []Observer
}

func (c compositeObserver) PoolEvent(ev Event) {
	for _, observer := range c.observers {
		observer.PoolEvent(ev)
	}
}

// Observers chains observers in order, skipping nils.
func Observers(obs ...Observer) Observer {
	var out []Observer
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	switch len(out) {
	case 0:
		return noopObserver{}
	case 1:
		return out[0]
	default:
		return compositeObserver{observers: out}
	}
}

type noopObserver struct{}

func (noopObserver) PoolEvent(Event) {}

// LogFormat controls how the logging observer encodes events.
type LogFormat uint8

const (
	LogFormatKeyValue LogFormat = iota
	LogFormatJSON
)

type loggingObserver struct {
	logger Logger
	format LogFormat
}

// NewLoggingObserver logs every event through logger.
func NewLoggingObserver(logger Logger, format LogFormat) Observer {
	if logger == nil {
		return noopObserver{}
	}
	if format != LogFormatJSON {
		format = LogFormatKeyValue
	}
	return loggingObserver{logger: logger, format: format}
}

func (o loggingObserver) PoolEvent(ev Event) {
	switch o.format {
	case LogFormatJSON:
		o.logJSON(ev)
	default:
		o.logKeyValue(ev)
	}
}

func (o loggingObserver) logJSON(ev Event) {
	payload := map[string]any{
		"kind":  ev.Kind.String(),
		"alive": ev.Alive,
		"slots": ev.Slots,
	}
	if !ev.Handle.IsNone() {
		payload["index"] = ev.Handle.Index()
		payload["generation"] = ev.Handle.Generation()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		o.logger.With("kind", ev.Kind.String()).Error("pool event marshal error", "err", err)
		return
	}
	o.logger.Info(string(data))
}

func (o loggingObserver) logKeyValue(ev Event) {
	args := []any{
		"alive", ev.Alive,
		"slots", ev.Slots,
	}
	if !ev.Handle.IsNone() {
		args = append(args, "index", ev.Handle.Index(), "generation", ev.Handle.Generation())
	}
	o.logger.With("kind", ev.Kind.String()).Info("pool event", args...)
}

// PrometheusOptions names the metrics registered by NewPrometheusObserver.
type PrometheusOptions struct {
	// Namespace prefixes metric names. Defaults to "pool".
	Namespace string
	// Pool is attached as a constant "pool" label so several pools can share a registry.
	Pool string
}

// PrometheusObserver exports event counters and occupancy gauges.
type PrometheusObserver struct {
	events *prometheus.CounterVec
	alive  prometheus.Gauge
	slots  prometheus.Gauge
}

// NewPrometheusObserver creates the pool metrics and registers them with reg,
// or with the default registerer when reg is nil.
func NewPrometheusObserver(reg prometheus.Registerer, opts PrometheusOptions) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if opts.Namespace == "" {
		opts.Namespace = "pool"
	}
	var labels prometheus.Labels
	if opts.Pool != "" {
		labels = prometheus.Labels{"pool": opts.Pool}
	}

	o := &PrometheusObserver{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "events_total",
			Help:        "Slot transitions by kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
		alive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "alive_objects",
			Help:        "Live objects in the pool.",
			ConstLabels: labels,
		}),
		slots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "slots",
			Help:        "Slots allocated by the pool, live or not.",
			ConstLabels: labels,
		}),
	}
	for _, c := range []prometheus.Collector{o.events, o.alive, o.slots} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("pool: register metrics: %w", err)
		}
	}
	return o, nil
}

// PoolEvent implements Observer.
func (o *PrometheusObserver) PoolEvent(ev Event) {
	o.events.WithLabelValues(ev.Kind.String()).Inc()
	o.alive.Set(float64(ev.Alive))
	o.slots.Set(float64(ev.Slots))
}

var (
	_ Observer = (*PrometheusObserver)(nil)
	_ Observer = loggingObserver{}
	_ Observer = compositeObserver{}
)
