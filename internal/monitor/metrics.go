package monitor

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/Anima/internal/alarm"
	"github.com/turtacn/Anima/pkg/logger"
)

var (
	// BreathsTotal counts started breaths.
	BreathsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "anima_breaths_total",
		Help: "Total number of breaths started",
	})
	// PhaseTransitions counts breath phase changes, partitioned by edge.
	PhaseTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "anima_phase_transitions_total",
		Help: "Breath phase transitions",
	}, []string{"from", "to"})
	// CurrentPhase is the ordinal of the current breath phase.
	CurrentPhase = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "anima_breath_phase",
		Help: "Current breath phase (0=off)",
	})
	// AlarmActive is 1 while an alarm is on.
	AlarmActive = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "anima_alarm_active",
		Help: "Whether an alarm is active",
	}, []string{"alarm", "priority"})
	// AlarmActivations counts alarm raises.
	AlarmActivations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "anima_alarm_activations_total",
		Help: "Total number of alarm activations",
	}, []string{"alarm"})
	// ValveLevel is the last drive level written to the inspiratory valve.
	ValveLevel = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "anima_insp_valve_level",
		Help: "Inspiratory proportional valve drive level (0-255)",
	})
	// Measured holds the per-breath measurements shown on the panel.
	Measured = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "anima_measured",
		Help: "Per-breath measured values",
	}, []string{"quantity"})
	// Waveform holds the latest live waveform samples.
	Waveform = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "anima_waveform",
		Help: "Latest waveform sample",
	}, []string{"signal"})
	// TickDuration tracks control tick execution time in seconds.
	TickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "anima_tick_duration_seconds",
		Help:    "Time spent in one control tick",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .02, .03, .05},
	})
	// TickOverruns counts ticks that took longer than the loop period.
	TickOverruns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "anima_tick_overruns_total",
		Help: "Control ticks that exceeded the loop period",
	})
	// ActuatorErrors counts failed actuator writes, partitioned by device.
	ActuatorErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "anima_actuator_errors_total",
		Help: "Failed actuator commands",
	}, []string{"device"})
	// SensorErrors counts failed sensor reads, partitioned by sensor.
	SensorErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "anima_sensor_errors_total",
		Help: "Failed sensor reads",
	}, []string{"sensor"})
)

var registerOnce sync.Once

// Register adds the collectors to the default registry. Safe to call more
// than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			BreathsTotal,
			PhaseTransitions,
			CurrentPhase,
			AlarmActive,
			AlarmActivations,
			ValveLevel,
			Measured,
			Waveform,
			TickDuration,
			TickOverruns,
			ActuatorErrors,
			SensorErrors,
		)
	})
}

// InitMetrics registers Prometheus metrics and starts an HTTP server to expose them.
// It takes an address string (e.g., ":9090") on which to listen for requests.
// An empty address registers only.
func InitMetrics(addr string) {
	Register()
	if addr == "" {
		return
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Log.Info("Metrics server starting", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Log.Error("Metrics server failed", "err", err)
		}
	}()
}

// AlarmObserver mirrors alarm raises and clears into the alarm metrics.
type AlarmObserver struct{}

func (AlarmObserver) AlarmRaised(c alarm.Code) {
	AlarmActive.WithLabelValues(c.String(), alarm.PriorityOf(c).String()).Set(1)
	AlarmActivations.WithLabelValues(c.String()).Inc()
}

func (AlarmObserver) AlarmCleared(c alarm.Code) {
	AlarmActive.WithLabelValues(c.String(), alarm.PriorityOf(c).String()).Set(0)
}

// Personal.AI order the ending
