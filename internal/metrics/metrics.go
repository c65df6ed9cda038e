package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "attendance"

var (
	FramesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "frames_total", Help: "Frames sampled from the camera",
	})
	FrameErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "frame_errors_total", Help: "Failed frame acquisitions",
	})
	Recognitions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "recognitions_total", Help: "Identities returned by the recognizer",
	})
	RecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "records_total", Help: "New attendance records",
	}, []string{"period"})
	DuplicatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "duplicate_detections_total", Help: "Detections of already recorded identities",
	})
	SessionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "sessions_total", Help: "Finished capture sessions by outcome",
	}, []string{"outcome"})
	SchedulerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "scheduler_errors_total", Help: "Scheduler iteration errors",
	})
	SchedulerState = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "scheduler_state", Help: "0 idle, 1 in session, 2 stopped",
	})
	LedgerRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "ledger_records", Help: "Records held in the in-memory ledger",
	})
	FlushDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "flush_seconds", Help: "Ledger flush latency per sink",
		Buckets: prometheus.DefBuckets,
	}, []string{"sink"})
	FlushErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "flush_errors_total", Help: "Ledger flush failures per sink",
	}, []string{"sink"})

	JobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "job_runs_total", Help: "Background job runs",
	}, []string{"job"})
	JobErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "job_errors_total", Help: "Background job failures, panics included",
	}, []string{"job"})
	JobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "job_duration_seconds", Help: "Background job duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
)

func init() {
	prometheus.MustRegister(
		FramesTotal, FrameErrors, Recognitions, RecordsTotal, DuplicatesTotal,
		SessionsTotal, SchedulerErrors, SchedulerState, LedgerRecords,
		FlushDuration, FlushErrors,
		JobRuns, JobErrors, JobDuration,
	)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveFlush(sink string, d time.Duration, err error) {
	FlushDuration.WithLabelValues(sink).Observe(d.Seconds())
	if err != nil {
		FlushErrors.WithLabelValues(sink).Inc()
	}
}

func ObserveJob(job string, d time.Duration, err error) {
	JobRuns.WithLabelValues(job).Inc()
	JobDuration.WithLabelValues(job).Observe(d.Seconds())
	if err != nil {
		JobErrors.WithLabelValues(job).Inc()
	}
}
