package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowcraft_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowcraft_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// Workflow Execution Metrics
	WorkflowExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowcraft_workflow_executions_total",
			Help: "Total number of workflow executions",
		},
		[]string{"workflow_id", "status"},
	)

	WorkflowExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowcraft_workflow_execution_duration_seconds",
			Help:    "Workflow execution duration in seconds",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"workflow_id"},
	)

	WorkflowExecutionsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flowcraft_workflow_executions_in_progress",
			Help: "Number of workflow executions currently in progress",
		},
	)

	// Node Execution Metrics (spec.md §4.6's per-node NodeProgress transitions)
	NodeExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowcraft_node_executions_total",
			Help: "Total number of node executions",
		},
		[]string{"node_type", "status"},
	)

	NodeExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowcraft_node_execution_duration_seconds",
			Help:    "Node execution duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"node_type"},
	)

	// Queue Metrics
	QueueTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowcraft_queue_tasks_total",
			Help: "Total number of tasks enqueued",
		},
		[]string{"task_type"},
	)

	QueueTasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowcraft_queue_tasks_processed_total",
			Help: "Total number of tasks processed",
		},
		[]string{"task_type", "status"},
	)

	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flowcraft_queue_depth",
			Help: "Number of tasks in the queue",
		},
		[]string{"queue_name"},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowcraft_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flowcraft_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	// Credential Metrics (C4's OAuth refresh path)
	CredentialRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowcraft_credential_refresh_total",
			Help: "Total number of OAuth credential token refreshes",
		},
		[]string{"type", "status"},
	)
)

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// HTTPMiddleware records HTTP metrics for every request.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := r.URL.Path

		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RecordWorkflowExecution records workflow execution metrics.
func RecordWorkflowExecution(workflowID, status string, durationSeconds float64) {
	WorkflowExecutionsTotal.WithLabelValues(workflowID, status).Inc()
	if durationSeconds > 0 {
		WorkflowExecutionDuration.WithLabelValues(workflowID).Observe(durationSeconds)
	}
}

// RecordNodeExecution records node execution metrics.
func RecordNodeExecution(nodeType, status string, durationSeconds float64) {
	NodeExecutionsTotal.WithLabelValues(nodeType, status).Inc()
	if durationSeconds > 0 {
		NodeExecutionDuration.WithLabelValues(nodeType).Observe(durationSeconds)
	}
}

// UpdateQueueDepth updates the queue depth gauge.
func UpdateQueueDepth(queueName string, depth int64) {
	QueueDepth.WithLabelValues(queueName).Set(float64(depth))
}

// RecordCredentialRefresh records an OAuth token refresh attempt.
func RecordCredentialRefresh(credType, status string) {
	CredentialRefreshTotal.WithLabelValues(credType, status).Inc()
}
