package observability

import (
	"context"
	"sync"
	"time"

	channerics "github.com/niceyeti/channerics/channels"

	"sweepcore/atomic_float"
)

// Thresholds configures when Collector fires alert callbacks.
type Thresholds struct {
	ErrorRate      float64
	LatencySecs    float64
	SuccessRate    float64
	SampleInterval time.Duration
}

// DefaultThresholds returns conservative defaults; SampleInterval is
// clamped to at least 10s per spec §6.3's "sampled at >=10s".
func DefaultThresholds() Thresholds {
	return Thresholds{ErrorRate: 0.3, LatencySecs: 2.0, SuccessRate: 0.5, SampleInterval: 10 * time.Second}
}

type opCounters struct {
	success *atomic_float.AtomicFloat64
	failure *atomic_float.AtomicFloat64
}

// Collector is an in-memory Observability aggregator: counters and
// gauges held as lock-free atomic floats (per atomic_float's original
// design note: many goroutines mutating a scalar without a dedicated
// lock), histograms as a bounded, mutex-guarded recent-samples window,
// and alert evaluation run on a low-priority ticker goroutine.
type Collector struct {
	thresholds Thresholds

	mu         sync.Mutex
	counters   map[string]*atomic_float.AtomicFloat64
	gauges     map[string]*atomic_float.AtomicFloat64
	histograms map[string][]float64
	ops        map[string]*opCounters
	callbacks  []AlertCallback
}

const histogramWindow = 256

// NewCollector returns a Collector using the given thresholds.
func NewCollector(thresholds Thresholds) *Collector {
	if thresholds.SampleInterval < 10*time.Second {
		thresholds.SampleInterval = 10 * time.Second
	}
	return &Collector{
		thresholds: thresholds,
		counters:   make(map[string]*atomic_float.AtomicFloat64),
		gauges:     make(map[string]*atomic_float.AtomicFloat64),
		histograms: make(map[string][]float64),
		ops:        make(map[string]*opCounters),
	}
}

func (c *Collector) counterFor(name string) *atomic_float.AtomicFloat64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	af, ok := c.counters[name]
	if !ok {
		af = atomic_float.NewAtomicFloat64(0)
		c.counters[name] = af
	}
	return af
}

func (c *Collector) gaugeFor(name string) *atomic_float.AtomicFloat64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	af, ok := c.gauges[name]
	if !ok {
		af = atomic_float.NewAtomicFloat64(0)
		c.gauges[name] = af
	}
	return af
}

func (c *Collector) opsFor(layer, name string) *opCounters {
	key := layer + "/" + name
	c.mu.Lock()
	defer c.mu.Unlock()
	oc, ok := c.ops[key]
	if !ok {
		oc = &opCounters{success: atomic_float.NewAtomicFloat64(0), failure: atomic_float.NewAtomicFloat64(0)}
		c.ops[key] = oc
	}
	return oc
}

// addUntilSucceeds retries AtomicAdd until the CAS succeeds, per
// atomic_float's documented contract that a failed CAS means a
// concurrent writer changed the value and the caller must retry.
func addUntilSucceeds(af *atomic_float.AtomicFloat64, delta float64) {
	for {
		if _, ok := af.AtomicAdd(delta); ok {
			return
		}
	}
}

// RecordOperation tracks per-(layer,name) success/failure counts and
// pushes the duration into that operation's latency histogram.
func (c *Collector) RecordOperation(layer, name string, durationSeconds float64, success bool, tags map[string]string) {
	oc := c.opsFor(layer, name)
	if success {
		addUntilSucceeds(oc.success, 1)
	} else {
		addUntilSucceeds(oc.failure, 1)
	}
	c.RecordHistogram(name+"/latency", durationSeconds, layer, tags)
}

// IncrementCounter adds value (default 1) to the named counter.
func (c *Collector) IncrementCounter(name string, value float64, layer string, tags map[string]string) {
	if value == 0 {
		value = 1
	}
	addUntilSucceeds(c.counterFor(layerScoped(layer, name)), value)
}

// SetGauge sets the named gauge's current value.
func (c *Collector) SetGauge(name string, value float64, layer string, tags map[string]string) {
	af := c.gaugeFor(layerScoped(layer, name))
	for {
		old := af.AtomicRead()
		if _, ok := af.AtomicAdd(value - old); ok {
			return
		}
	}
}

// RecordHistogram appends value to name's recent-samples window,
// trimming to histogramWindow entries.
func (c *Collector) RecordHistogram(name string, value float64, layer string, tags map[string]string) {
	key := layerScoped(layer, name)
	c.mu.Lock()
	defer c.mu.Unlock()
	samples := append(c.histograms[key], value)
	if len(samples) > histogramWindow {
		samples = samples[len(samples)-histogramWindow:]
	}
	c.histograms[key] = samples
}

// RegisterAlertCallback adds fn to the set invoked on threshold crossing.
func (c *Collector) RegisterAlertCallback(fn AlertCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, fn)
}

// Counter returns the current value of a named counter (0 if never
// incremented).
func (c *Collector) Counter(name string, layer string) float64 {
	c.mu.Lock()
	af, ok := c.counters[layerScoped(layer, name)]
	c.mu.Unlock()
	if !ok {
		return 0
	}
	return af.AtomicRead()
}

// Gauge returns the current value of a named gauge (0 if never set).
func (c *Collector) Gauge(name string, layer string) float64 {
	c.mu.Lock()
	af, ok := c.gauges[layerScoped(layer, name)]
	c.mu.Unlock()
	if !ok {
		return 0
	}
	return af.AtomicRead()
}

func layerScoped(layer, name string) string {
	if layer == "" {
		return name
	}
	return layer + "/" + name
}

// Snapshot is a point-in-time read of every (layer,name) operation's
// success rate, error rate, and mean latency.
type Snapshot struct {
	Layer       string
	Name        string
	SuccessRate float64
	ErrorRate   float64
	MeanLatency float64
}

// FullSnapshot is the payload Dashboard pushes to a connected browser:
// per-operation stats plus raw counter/gauge values.
type FullSnapshot struct {
	Operations []Snapshot
	Counters   map[string]float64
	Gauges     map[string]float64
}

func (c *Collector) fullSnapshot() FullSnapshot {
	ops := c.snapshots()

	c.mu.Lock()
	counters := make(map[string]float64, len(c.counters))
	for k, af := range c.counters {
		counters[k] = af.AtomicRead()
	}
	gauges := make(map[string]float64, len(c.gauges))
	for k, af := range c.gauges {
		gauges[k] = af.AtomicRead()
	}
	c.mu.Unlock()

	return FullSnapshot{Operations: ops, Counters: counters, Gauges: gauges}
}

func (c *Collector) snapshots() []Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Snapshot, 0, len(c.ops))
	for key, oc := range c.ops {
		layer, name := splitKey(key)
		succ := oc.success.AtomicRead()
		fail := oc.failure.AtomicRead()
		total := succ + fail
		var successRate, errorRate float64
		if total > 0 {
			successRate = succ / total
			errorRate = fail / total
		}
		mean := meanOf(c.histograms[key+"/latency"])
		out = append(out, Snapshot{Layer: layer, Name: name, SuccessRate: successRate, ErrorRate: errorRate, MeanLatency: mean})
	}
	return out
}

func splitKey(key string) (layer, name string) {
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			return key[:i], key[i+1:]
		}
	}
	return "", key
}

func meanOf(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}

// evaluate checks every tracked operation against thresholds and fires
// registered callbacks for any crossing.
func (c *Collector) evaluate() {
	c.mu.Lock()
	callbacks := append([]AlertCallback(nil), c.callbacks...)
	c.mu.Unlock()
	if len(callbacks) == 0 {
		return
	}

	for _, snap := range c.snapshots() {
		if snap.ErrorRate > c.thresholds.ErrorRate {
			fireAll(callbacks, Alert{Kind: ErrorRateAlert, Layer: snap.Layer, Value: snap.ErrorRate})
		}
		if snap.MeanLatency > c.thresholds.LatencySecs {
			fireAll(callbacks, Alert{Kind: LatencyAlert, Layer: snap.Layer, Value: snap.MeanLatency})
		}
		if snap.SuccessRate < c.thresholds.SuccessRate {
			fireAll(callbacks, Alert{Kind: SuccessRateAlert, Layer: snap.Layer, Value: snap.SuccessRate})
		}
	}
}

func fireAll(callbacks []AlertCallback, alert Alert) {
	for _, cb := range callbacks {
		cb(alert)
	}
}

// Run drives periodic alert evaluation on Thresholds.SampleInterval
// until ctx is cancelled, using the same channerics ticker idiom as the
// teacher's websocket ping/pong loop.
func (c *Collector) Run(ctx context.Context) error {
	ticker := channerics.NewTicker(ctx.Done(), c.thresholds.SampleInterval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker:
			c.evaluate()
		}
	}
}

var _ Observability = (*Collector)(nil)
