package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flowcraft-dev/flowcraft/internal/api/dto"
	"github.com/flowcraft-dev/flowcraft/internal/domain/models"
	"github.com/flowcraft-dev/flowcraft/internal/domain/repositories"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/queue"
	"github.com/flowcraft-dev/flowcraft/internal/worker/scheduler"
)

// WorkflowHandler exposes workflow CRUD plus the execute/preview entry
// points spec.md §2 describes ("the CRUD surface creates an Execution row
// ... then spawns the Scheduler asynchronously").
type WorkflowHandler struct {
	workflows   *repositories.WorkflowRepository
	executions  *repositories.ExecutionRepository
	queueClient *queue.Client
}

func NewWorkflowHandler(workflows *repositories.WorkflowRepository, executions *repositories.ExecutionRepository, queueClient *queue.Client) *WorkflowHandler {
	return &WorkflowHandler{workflows: workflows, executions: executions, queueClient: queueClient}
}

func (h *WorkflowHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("perPage"))
	opts := repositories.NewListOptions(page, perPage)

	workflows, total, err := h.workflows.FindAll(r.Context(), opts)
	if err != nil {
		dto.InternalServerError(w, "failed to list workflows")
		return
	}

	totalPages := int(total) / opts.Limit
	if int(total)%opts.Limit > 0 {
		totalPages++
	}
	dto.JSONWithMeta(w, http.StatusOK, workflows, &dto.Meta{
		Page: page, PerPage: opts.Limit, Total: total, TotalPages: totalPages,
	})
}

func (h *WorkflowHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.BadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		dto.BadRequest(w, "name is required")
		return
	}

	wf := &models.Workflow{
		Name:        req.Name,
		Description: req.Description,
		Nodes:       toNodeList(req.Nodes),
		Edges:       toEdgeList(req.Edges),
	}

	if err := h.workflows.Create(r.Context(), wf); err != nil {
		dto.InternalServerError(w, "failed to create workflow")
		return
	}
	dto.JSON(w, http.StatusCreated, wf)
}

func (h *WorkflowHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseWorkflowID(r)
	if err != nil {
		dto.BadRequest(w, "invalid workflow id")
		return
	}

	wf, err := h.workflows.FindByID(r.Context(), id)
	if err != nil {
		dto.NotFound(w, "workflow")
		return
	}
	dto.JSON(w, http.StatusOK, wf)
}

func (h *WorkflowHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseWorkflowID(r)
	if err != nil {
		dto.BadRequest(w, "invalid workflow id")
		return
	}

	wf, err := h.workflows.FindByID(r.Context(), id)
	if err != nil {
		dto.NotFound(w, "workflow")
		return
	}

	var req dto.UpdateWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.BadRequest(w, "invalid request body")
		return
	}

	if req.Name != nil {
		wf.Name = *req.Name
	}
	if req.Description != nil {
		wf.Description = *req.Description
	}
	if req.IsActive != nil {
		wf.IsActive = *req.IsActive
	}
	if req.Nodes != nil {
		wf.Nodes = toNodeList(req.Nodes)
	}
	if req.Edges != nil {
		wf.Edges = toEdgeList(req.Edges)
	}

	if err := h.workflows.Update(r.Context(), wf); err != nil {
		dto.InternalServerError(w, "failed to update workflow")
		return
	}
	dto.JSON(w, http.StatusOK, wf)
}

func (h *WorkflowHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseWorkflowID(r)
	if err != nil {
		dto.BadRequest(w, "invalid workflow id")
		return
	}
	if err := h.workflows.Delete(r.Context(), id); err != nil {
		dto.InternalServerError(w, "failed to delete workflow")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Preview runs static validation without creating an execution (spec.md
// §4.6 Phase 1, exposed as a dry run).
func (h *WorkflowHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id, err := parseWorkflowID(r)
	if err != nil {
		dto.BadRequest(w, "invalid workflow id")
		return
	}
	wf, err := h.workflows.FindByID(r.Context(), id)
	if err != nil {
		dto.NotFound(w, "workflow")
		return
	}
	dto.JSON(w, http.StatusOK, scheduler.Preview(wf))
}

// Execute creates a pending Execution row and hands it off to the worker
// queue — the CRUD→engine boundary spec.md §2 describes.
func (h *WorkflowHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := parseWorkflowID(r)
	if err != nil {
		dto.BadRequest(w, "invalid workflow id")
		return
	}

	wf, err := h.workflows.FindByID(r.Context(), id)
	if err != nil {
		dto.NotFound(w, "workflow")
		return
	}

	var req dto.ExecuteWorkflowRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			dto.BadRequest(w, "invalid request body")
			return
		}
	}

	if preview := scheduler.Preview(wf); !preview.Valid {
		dto.NodeValidationError(w, preview.NodeID, preview.Message)
		return
	}

	exec := &models.Execution{
		WorkflowID: wf.ID,
		Status:     models.ExecutionStatusPending,
		StartedAt:  time.Now(),
	}
	// exec.Data only carries an object-shaped trigger payload forward
	// (it is gorm-typed as a map); a non-object triggerData (array,
	// string, number) still reaches the worker via the queue payload
	// below, just not this row.
	if len(req.TriggerData) > 0 {
		var asMap map[string]interface{}
		if err := json.Unmarshal(req.TriggerData, &asMap); err == nil {
			exec.Data = models.JSON(asMap)
		}
	}

	if err := h.executions.Create(r.Context(), exec); err != nil {
		dto.InternalServerError(w, "failed to create execution")
		return
	}

	payload := queue.WorkflowExecutionPayload{
		WorkflowID:  wf.ID,
		ExecutionID: exec.ID,
	}
	if len(req.TriggerData) > 0 {
		payload.TriggerData = req.TriggerData
	}

	taskInfo, err := h.queueClient.EnqueueWorkflowExecution(r.Context(), payload)
	if err != nil {
		dto.InternalServerError(w, "failed to enqueue execution")
		return
	}
	_ = h.executions.SetTaskID(r.Context(), exec.ID, taskInfo.ID)

	dto.JSON(w, http.StatusAccepted, exec)
}

func parseWorkflowID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func toNodeList(reqs []dto.NodeRequest) models.NodeList {
	out := make(models.NodeList, 0, len(reqs))
	for _, n := range reqs {
		out = append(out, models.Node{
			ID:       n.ID,
			Type:     n.Type,
			Position: models.JSON(n.Position),
			Data:     n.Data,
		})
	}
	return out
}

func toEdgeList(reqs []dto.EdgeRequest) models.EdgeList {
	out := make(models.EdgeList, 0, len(reqs))
	for _, e := range reqs {
		out = append(out, models.Edge{
			ID:           e.ID,
			Source:       e.Source,
			Target:       e.Target,
			SourceHandle: e.SourceHandle,
			TargetHandle: e.TargetHandle,
		})
	}
	return out
}
