package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/flowcraft-dev/flowcraft/internal/api/dto"
	"github.com/flowcraft-dev/flowcraft/internal/domain/models"
	"github.com/flowcraft-dev/flowcraft/internal/domain/repositories"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/config"
	"github.com/flowcraft-dev/flowcraft/internal/worker/progress"
)

// ExecutionHandler exposes execution lookup, cancellation, and a live SSE
// stream of an in-flight run's progress (spec.md §3, §4.5; the cancel and
// stream endpoints are both supplemented beyond the core spec).
type ExecutionHandler struct {
	executions *repositories.ExecutionRepository
	bus        *progress.Bus
	inspector  *asynq.Inspector
}

func NewExecutionHandler(executions *repositories.ExecutionRepository, bus *progress.Bus, redisCfg *config.RedisConfig) *ExecutionHandler {
	inspector := asynq.NewInspector(asynq.RedisClientOpt{
		Addr:     redisCfg.Addr(),
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})
	return &ExecutionHandler{executions: executions, bus: bus, inspector: inspector}
}

func (h *ExecutionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseExecutionID(r)
	if err != nil {
		dto.BadRequest(w, "invalid execution id")
		return
	}

	exec, err := h.executions.FindByID(r.Context(), id)
	if err != nil {
		dto.NotFound(w, "execution")
		return
	}
	dto.JSON(w, http.StatusOK, exec)
}

func (h *ExecutionHandler) List(w http.ResponseWriter, r *http.Request) {
	workflowID := r.URL.Query().Get("workflowId")
	if workflowID == "" {
		dto.BadRequest(w, "workflowId is required")
		return
	}

	var wfID int64
	if _, err := fmt.Sscanf(workflowID, "%d", &wfID); err != nil {
		dto.BadRequest(w, "invalid workflowId")
		return
	}

	executions, total, err := h.executions.FindByWorkflowID(r.Context(), wfID, repositories.NewListOptions(1, 50))
	if err != nil {
		dto.InternalServerError(w, "failed to list executions")
		return
	}
	dto.JSONWithMeta(w, http.StatusOK, executions, &dto.Meta{Page: 1, PerPage: 50, Total: total})
}

// Cancel asks the worker currently running this execution to stop. The
// scheduler checks for cancellation between node dispatches; the node in
// flight runs under the same cancelled context, so a handler that watches
// it returns early with an error and the execution ends failed with that
// node's error.
func (h *ExecutionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := parseExecutionID(r)
	if err != nil {
		dto.BadRequest(w, "invalid execution id")
		return
	}

	exec, err := h.executions.FindByID(r.Context(), id)
	if err != nil {
		dto.NotFound(w, "execution")
		return
	}

	if exec.Status != models.ExecutionStatusRunning && exec.Status != models.ExecutionStatusPending {
		dto.Conflict(w, "execution is not in a cancellable state")
		return
	}

	if exec.TaskID == "" {
		dto.Conflict(w, "execution has no associated task")
		return
	}

	if err := h.inspector.CancelProcessing(exec.TaskID); err != nil {
		log.Error().Err(err).Str("executionId", id.String()).Msg("failed to cancel task")
		dto.InternalServerError(w, "failed to cancel execution")
		return
	}

	dto.JSON(w, http.StatusAccepted, map[string]string{"status": "cancel requested"})
}

// Stream serves execution progress as Server-Sent Events, one event per
// ExecutionProgress snapshot emitted on the Progress Bus (spec.md §4.5).
func (h *ExecutionHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id, err := parseExecutionID(r)
	if err != nil {
		dto.BadRequest(w, "invalid execution id")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		dto.InternalServerError(w, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := make(chan models.ExecutionProgress, 16)
	token := h.bus.Subscribe(id, func(p models.ExecutionProgress) {
		select {
		case events <- p:
		default:
		}
	})
	defer h.bus.Unsubscribe(id, token)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case p := <-events:
			data, err := json.Marshal(p)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
			if p.Status == models.ExecutionStatusCompleted || p.Status == models.ExecutionStatusFailed {
				return
			}
		}
	}
}

func parseExecutionID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}
