package metrics

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"mercator-hq/threadstats/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// StorageMode controls whether a metric value is retained for later queries
// or only computed when it is logged.
type StorageMode int

const (
	// Persist registers the metric with the Prometheus registry so its value
	// can be gathered at any time.
	Persist StorageMode = iota

	// TransientLogOnly keeps the metric out of the Prometheus registry. Its
	// value is computed only when the registry is logged.
	TransientLogOnly
)

// String returns the storage mode name used in logs.
func (m StorageMode) String() string {
	switch m {
	case Persist:
		return "persist"
	case TransientLogOnly:
		return "log_only"
	default:
		return "unknown"
	}
}

// Opts describes a named metric.
type Opts struct {
	// Name is the metric name without namespace and subsystem.
	Name string

	// Help is the metric description.
	Help string

	// ConstLabels distinguish series sharing a name (e.g. one per thread).
	// Labelled series count toward the cardinality limit.
	ConstLabels prometheus.Labels

	// Counter exposes the value as a counter instead of a gauge.
	Counter bool
}

// Handle is a named metric whose value is produced on demand.
type Handle struct {
	name     string
	help     string
	labels   prometheus.Labels
	key      string
	mode     StorageMode
	producer func() float64
}

// Name returns the fully-qualified metric name.
func (h *Handle) Name() string { return h.name }

// Help returns the metric description.
func (h *Handle) Help() string { return h.help }

// Mode returns the storage mode the handle ended up with.
func (h *Handle) Mode() StorageMode { return h.mode }

// Labels returns a copy of the const labels.
func (h *Handle) Labels() prometheus.Labels {
	out := make(prometheus.Labels, len(h.labels))
	for k, v := range h.labels {
		out[k] = v
	}
	return out
}

// CurrentValue invokes the producer.
func (h *Handle) CurrentValue() float64 {
	return h.producer()
}

// Sample is a point-in-time value of one handle.
type Sample struct {
	Name   string
	Labels prometheus.Labels
	Value  float64
	Mode   StorageMode
}

// Registry is a find-or-create store of named metrics backed by a
// Prometheus registry.
//
// Handles are indexed by fully-qualified name plus const labels, so asking
// twice for the same series returns the first handle and ignores the second
// producer.
type Registry struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry
	logger   *slog.Logger
	limiter  *CardinalityLimiter

	mu      sync.RWMutex
	handles map[string]*Handle
	order   []*Handle
}

// NewRegistry creates a metric registry with the specified configuration
// and Prometheus registry. If registry is nil, a fresh one is created; the
// global default registry is never used. cfg is copied and not modified.
func NewRegistry(cfg *config.MetricsConfig, registry *prometheus.Registry, logger *slog.Logger) *Registry {
	var own config.MetricsConfig
	if cfg != nil {
		own = *cfg
	}
	cfg = &own
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}

	return &Registry{
		config:   cfg,
		registry: registry,
		logger:   logger.With("component", "metrics.registry"),
		limiter:  NewCardinalityLimiter(cfg.MaxSeries),
		handles:  make(map[string]*Handle),
	}
}

// FindOrCreate returns the handle for opts, creating it with producer and
// mode if it does not exist yet.
//
// A Persist handle whose labelled series would exceed the cardinality limit,
// or whose Prometheus registration fails, is kept as TransientLogOnly and a
// warning is logged.
func (r *Registry) FindOrCreate(opts Opts, producer func() float64, mode StorageMode) *Handle {
	name := prometheus.BuildFQName(r.config.Namespace, r.config.Subsystem, opts.Name)
	key := seriesKey(name, opts.ConstLabels)

	r.mu.RLock()
	h, ok := r.handles[key]
	r.mu.RUnlock()
	if ok {
		return h
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if h, ok := r.handles[key]; ok {
		return h
	}

	h = &Handle{
		name:     name,
		help:     opts.Help,
		labels:   copyLabels(opts.ConstLabels),
		key:      key,
		mode:     mode,
		producer: producer,
	}

	if mode == Persist {
		h.mode = r.register(h, opts)
	}

	r.handles[key] = h
	r.order = append(r.order, h)
	return h
}

func (r *Registry) register(h *Handle, opts Opts) StorageMode {
	if len(h.labels) > 0 && !r.limiter.Allow(h.key) {
		r.logger.Warn("series limit reached, keeping metric in log-only mode",
			"metric", h.name,
			"max_series", r.config.MaxSeries,
		)
		return TransientLogOnly
	}

	var collector prometheus.Collector
	if opts.Counter {
		collector = prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   r.config.Namespace,
			Subsystem:   r.config.Subsystem,
			Name:        opts.Name,
			Help:        opts.Help,
			ConstLabels: h.labels,
		}, h.producer)
	} else {
		collector = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   r.config.Namespace,
			Subsystem:   r.config.Subsystem,
			Name:        opts.Name,
			Help:        opts.Help,
			ConstLabels: h.labels,
		}, h.producer)
	}

	if err := r.registry.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			r.logger.Warn("metric registered outside this registry, keeping log-only handle",
				"metric", h.name,
			)
		} else {
			r.logger.Warn("failed to register metric, keeping log-only handle",
				"metric", h.name,
				"error", err,
			)
		}
		return TransientLogOnly
	}

	return Persist
}

// Lookup returns the handle for a fully-qualified name and label set.
func (r *Registry) Lookup(name string, labels prometheus.Labels) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[seriesKey(name, labels)]
	return h, ok
}

// Handles returns every handle in creation order.
func (r *Registry) Handles() []*Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Handle, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Snapshot evaluates every handle, persisted and log-only, in creation order.
func (r *Registry) Snapshot() []Sample {
	handles := r.Handles()
	samples := make([]Sample, 0, len(handles))
	for _, h := range handles {
		samples = append(samples, Sample{
			Name:   h.name,
			Labels: h.Labels(),
			Value:  h.CurrentValue(),
			Mode:   h.mode,
		})
	}
	return samples
}

// Log evaluates every handle and writes one record per handle at level.
// Log-only handles are evaluated here and by Snapshot, never by a scrape.
func (r *Registry) Log(ctx context.Context, logger *slog.Logger, level slog.Level) {
	if logger == nil {
		logger = r.logger
	}
	if !logger.Enabled(ctx, level) {
		return
	}

	for _, s := range r.Snapshot() {
		attrs := []slog.Attr{
			slog.String("metric", s.Name),
			slog.Float64("value", s.Value),
			slog.String("mode", s.Mode.String()),
		}
		for _, k := range sortedKeys(s.Labels) {
			attrs = append(attrs, slog.String(k, s.Labels[k]))
		}
		logger.LogAttrs(ctx, level, "metric value", attrs...)
	}
}

// Prometheus returns the underlying Prometheus registry. Only Persist
// handles are visible through it.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.registry
}

// SeriesCount returns the number of labelled series admitted by the
// cardinality limiter.
func (r *Registry) SeriesCount() int {
	return r.limiter.Count()
}

func seriesKey(name string, labels prometheus.Labels) string {
	if len(labels) == 0 {
		return name
	}

	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte('{')
	for i, k := range sortedKeys(labels) {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(labels[k])
	}
	sb.WriteByte('}')
	return sb.String()
}

func sortedKeys(labels prometheus.Labels) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyLabels(labels prometheus.Labels) prometheus.Labels {
	if len(labels) == 0 {
		return nil
	}
	out := make(prometheus.Labels, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}
