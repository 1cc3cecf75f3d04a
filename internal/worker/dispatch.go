package worker

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/farmcast/farmcast/internal/alert"
	"github.com/farmcast/farmcast/internal/device"
	"github.com/farmcast/farmcast/internal/push"
	"github.com/farmcast/farmcast/internal/weather"
)

// SnapshotFetcher fetches a fresh weather snapshot for one coordinate.
type SnapshotFetcher interface {
	GetSnapshot(ctx context.Context, lat, lon float64) (*weather.Snapshot, error)
}

// DispatchStatus classifies the outcome of one device's pass.
type DispatchStatus string

const (
	// StatusSkipped: cached token or coordinates unusable; data quality,
	// not an error.
	StatusSkipped DispatchStatus = "skipped"

	// StatusNoAlert: snapshot evaluated, no threshold crossed.
	StatusNoAlert DispatchStatus = "no_alert"

	// StatusDeduplicated: alert already sent today for this type.
	StatusDeduplicated DispatchStatus = "deduplicated"

	// StatusSent: push delivered and outcome recorded.
	StatusSent DispatchStatus = "sent"

	// StatusFailed: fetch or delivery failed transiently; the device
	// stays enabled and is retried on the next tick.
	StatusFailed DispatchStatus = "failed"

	// StatusDisabled: the push provider reported the token permanently
	// invalid and the device was disabled.
	StatusDisabled DispatchStatus = "disabled"
)

// DispatchJob evaluates weather alerts for every enabled device and delivers
// at most one notification per device per alert type per calendar day.
type DispatchJob struct {
	config   DispatchConfig
	registry device.Repository
	weather  SnapshotFetcher
	sender   push.Sender
	logger   zerolog.Logger

	// now is the job's date source for dedup. Injected so tests can
	// simulate day rollover deterministically.
	now func() time.Time

	metrics *DispatchMetrics
}

// DispatchJobConfig holds dependencies for creating a DispatchJob.
type DispatchJobConfig struct {
	Config   DispatchConfig
	Registry device.Repository
	Weather  SnapshotFetcher
	Sender   push.Sender
	Logger   zerolog.Logger

	// Now overrides the job's clock. Nil uses time.Now.
	Now func() time.Time
}

// NewDispatchJob creates a new alert dispatch job.
func NewDispatchJob(cfg DispatchJobConfig) *DispatchJob {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &DispatchJob{
		config:   cfg.Config.withDefaults(),
		registry: cfg.Registry,
		weather:  cfg.Weather,
		sender:   cfg.Sender,
		logger:   cfg.Logger,
		now:      now,
		metrics:  &DispatchMetrics{},
	}
}

// RunResult summarizes one dispatch run. The run's only externally
// observable effects are push deliveries and registry mutations; the result
// exists for logging and metrics.
type RunResult struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Devices      int
	Sent         int
	Deduplicated int
	NoAlert      int
	Skipped      int
	Failed       int
	Disabled     int

	// Err is set only for the run-fatal condition: the registry itself
	// could not be read.
	Err error
}

// Run executes one dispatch pass. Each device is processed independently;
// one device's failure never aborts or rolls back another's. The pass is
// safe to re-execute from a cold start at any time: the registry mutation
// per device is the atomic unit of progress.
func (j *DispatchJob) Run(ctx context.Context) *RunResult {
	startTime := j.now()
	result := &RunResult{StartTime: startTime}
	today := startTime.UTC().Format("2006-01-02")

	j.logger.Info().
		Int("concurrency", j.config.Concurrency).
		Str("date", today).
		Msg("starting alert dispatch run")

	devicesChan := make(chan *device.Device)
	resultsChan := make(chan deviceResult)

	var workers sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for d := range devicesChan {
				resultsChan <- j.processDevice(ctx, d, today)
			}
		}()
	}

	// Stream enabled devices to the pool. A registry read failure here is
	// the only run-fatal condition.
	var listErr error
	go func() {
		defer close(devicesChan)
		listErr = j.registry.ListEnabled(ctx, func(d *device.Device) error {
			select {
			case devicesChan <- d:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	go func() {
		workers.Wait()
		close(resultsChan)
	}()

	for dr := range resultsChan {
		result.Devices++
		switch dr.status {
		case StatusSent:
			result.Sent++
		case StatusDeduplicated:
			result.Deduplicated++
		case StatusNoAlert:
			result.NoAlert++
		case StatusSkipped:
			result.Skipped++
		case StatusFailed:
			result.Failed++
		case StatusDisabled:
			result.Disabled++
		}
	}

	result.Err = listErr
	result.EndTime = j.now()
	result.Duration = result.EndTime.Sub(startTime)
	j.metrics.record(result)

	event := j.logger.Info()
	if result.Err != nil {
		event = j.logger.Error().Err(result.Err)
	}
	event.
		Dur("duration", result.Duration).
		Int("devices", result.Devices).
		Int("sent", result.Sent).
		Int("deduplicated", result.Deduplicated).
		Int("no_alert", result.NoAlert).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Int("disabled", result.Disabled).
		Msg("alert dispatch run completed")

	return result
}

type deviceResult struct {
	key    string
	status DispatchStatus
	alert  alert.Type
	err    error
}

// processDevice runs the full evaluate-dedup-send-record flow for one device.
// Every failure is contained here and reflected in the returned result.
func (j *DispatchJob) processDevice(ctx context.Context, d *device.Device, today string) deviceResult {
	logger := j.logger.With().Str("device_key", d.Key).Logger()

	if d.Token == "" || !isFinite(d.Lat) || !isFinite(d.Lon) {
		logger.Debug().Msg("skipping device with unusable token or coordinates")
		return deviceResult{key: d.Key, status: StatusSkipped}
	}

	deviceCtx, cancel := context.WithTimeout(ctx, j.config.DeviceTimeout)
	defer cancel()

	snap, err := j.weather.GetSnapshot(deviceCtx, d.Lat, d.Lon)
	if err != nil {
		j.recordError(ctx, d.Key, fmt.Errorf("weather fetch: %w", err), false, logger)
		return deviceResult{key: d.Key, status: StatusFailed, err: err}
	}

	a := alert.Evaluate(snap, j.config.Thresholds)
	if a == nil {
		return deviceResult{key: d.Key, status: StatusNoAlert}
	}

	if d.LastSentByType[string(a.Type)] == today {
		logger.Debug().
			Str("alert_type", string(a.Type)).
			Msg("alert already sent today, deduplicated")
		return deviceResult{key: d.Key, status: StatusDeduplicated, alert: a.Type}
	}

	err = j.sender.Send(deviceCtx, push.Notification{
		Token:    d.Token,
		Title:    a.Title,
		Body:     a.Message,
		Platform: d.Platform,
		Data: map[string]string{
			"type":     string(a.Type),
			"severity": string(a.Severity),
			"lat":      strconv.FormatFloat(d.Lat, 'f', -1, 64),
			"lon":      strconv.FormatFloat(d.Lon, 'f', -1, 64),
			"target":   "/advisory",
		},
	})
	if err != nil {
		disable := push.IsInvalidToken(err)
		j.recordError(ctx, d.Key, fmt.Errorf("push delivery: %w", err), disable, logger)
		if disable {
			logger.Warn().Str("alert_type", string(a.Type)).Msg("device disabled, token invalid")
			return deviceResult{key: d.Key, status: StatusDisabled, alert: a.Type, err: err}
		}
		return deviceResult{key: d.Key, status: StatusFailed, alert: a.Type, err: err}
	}

	if err := j.registry.RecordOutcome(ctx, d.Key, device.OutcomePatch{
		SentType: string(a.Type),
		SentDate: today,
	}); err != nil {
		// Delivery succeeded but the dedup entry did not persist; the
		// next tick may re-send this type once. Best effort only.
		logger.Error().Err(err).Msg("failed to record sent outcome")
	}

	logger.Info().
		Str("alert_type", string(a.Type)).
		Str("severity", string(a.Severity)).
		Msg("alert dispatched")
	return deviceResult{key: d.Key, status: StatusSent, alert: a.Type}
}

// recordError merges a failure onto the device record. Uses the run context,
// not the per-device one: a timed-out fetch must still be recordable.
func (j *DispatchJob) recordError(ctx context.Context, key string, cause error, disable bool, logger zerolog.Logger) {
	logger.Warn().Err(cause).Bool("disable", disable).Msg("device dispatch failed")

	if err := j.registry.RecordOutcome(ctx, key, device.OutcomePatch{
		Error:   cause.Error(),
		Disable: disable,
	}); err != nil {
		logger.Error().Err(err).Msg("failed to record error outcome")
	}
}

// Metrics returns a copy of the job's cumulative metrics.
func (j *DispatchJob) Metrics() DispatchMetrics {
	return j.metrics.snapshot()
}

// DispatchMetrics tracks dispatch job statistics across runs.
type DispatchMetrics struct {
	mu sync.RWMutex

	TotalRuns       int64
	TotalDevices    int64
	TotalSent       int64
	TotalDedup      int64
	TotalFailed     int64
	TotalDisabled   int64
	LastRunAt       time.Time
	LastRunDuration time.Duration
}

func (m *DispatchMetrics) record(r *RunResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRuns++
	m.TotalDevices += int64(r.Devices)
	m.TotalSent += int64(r.Sent)
	m.TotalDedup += int64(r.Deduplicated)
	m.TotalFailed += int64(r.Failed)
	m.TotalDisabled += int64(r.Disabled)
	m.LastRunAt = r.EndTime
	m.LastRunDuration = r.Duration
}

func (m *DispatchMetrics) snapshot() DispatchMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return DispatchMetrics{
		TotalRuns:       m.TotalRuns,
		TotalDevices:    m.TotalDevices,
		TotalSent:       m.TotalSent,
		TotalDedup:      m.TotalDedup,
		TotalFailed:     m.TotalFailed,
		TotalDisabled:   m.TotalDisabled,
		LastRunAt:       m.LastRunAt,
		LastRunDuration: m.LastRunDuration,
	}
}

// MetricsSnapshot returns the cumulative metrics as a map for the worker's
// status endpoint.
func (j *DispatchJob) MetricsSnapshot() map[string]interface{} {
	m := j.Metrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"total_devices":     m.TotalDevices,
		"total_sent":        m.TotalSent,
		"total_deduped":     m.TotalDedup,
		"total_failed":      m.TotalFailed,
		"total_disabled":    m.TotalDisabled,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
