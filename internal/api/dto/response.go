// Package dto shapes CRUD-layer request/response bodies and the uniform
// envelope every handler replies with. Grounded on the teacher's
// internal/api/dto/response.go Response/ErrorData envelope, narrowed to the
// resources this engine actually exposes.
package dto

import (
	"encoding/json"
	"net/http"
	"time"
)

const (
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeBadRequest     = "BAD_REQUEST"
	ErrCodeConflict       = "CONFLICT"
	ErrCodeInternalServer = "INTERNAL_SERVER_ERROR"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
)

type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorData  `json:"error,omitempty"`
	Meta      *Meta       `json:"meta,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	NodeID  string `json:"nodeId,omitempty"`
}

type Meta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{
		Success:   status >= 200 && status < 300,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

func JSONWithMeta(w http.ResponseWriter, status int, data interface{}, meta *Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{
		Success:   status >= 200 && status < 300,
		Data:      data,
		Meta:      meta,
		Timestamp: time.Now().Unix(),
	})
}

func Error(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{
		Success:   false,
		Error:     &ErrorData{Code: code, Message: message},
		Timestamp: time.Now().Unix(),
	})
}

// NodeValidationError reports a per-node-type validation failure (spec.md
// §4.6 Phase 1 surfaced over HTTP instead of only onto an Execution row).
func NodeValidationError(w http.ResponseWriter, nodeID, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(Response{
		Success: false,
		Error: &ErrorData{
			Code:    ErrCodeValidation,
			Message: message,
			NodeID:  nodeID,
		},
		Timestamp: time.Now().Unix(),
	})
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func NotFound(w http.ResponseWriter, resource string) {
	Error(w, http.StatusNotFound, ErrCodeNotFound, resource+" not found")
}

func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, ErrCodeConflict, message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func InternalServerError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, ErrCodeInternalServer, message)
}

// Request bodies

type CreateWorkflowRequest struct {
	Name        string              `json:"name" validate:"required,min=1,max=200"`
	Description string              `json:"description,omitempty"`
	Nodes       []NodeRequest       `json:"nodes"`
	Edges       []EdgeRequest       `json:"edges"`
}

type UpdateWorkflowRequest struct {
	Name        *string       `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string       `json:"description,omitempty"`
	IsActive    *bool         `json:"isActive,omitempty"`
	Nodes       []NodeRequest `json:"nodes,omitempty"`
	Edges       []EdgeRequest `json:"edges,omitempty"`
}

type NodeRequest struct {
	ID       string                 `json:"id" validate:"required"`
	Type     string                 `json:"type" validate:"required"`
	Position map[string]interface{} `json:"position,omitempty"`
	Data     map[string]interface{} `json:"data"`
}

type EdgeRequest struct {
	ID           string `json:"id"`
	Source       string `json:"source" validate:"required"`
	Target       string `json:"target" validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// ExecuteWorkflowRequest seeds the trigger node's output for this run.
// TriggerData is arbitrary JSON (spec.md's `triggerData?: any`), not
// restricted to an object, so it is carried as raw bytes rather than
// decoded into a fixed Go shape.
type ExecuteWorkflowRequest struct {
	TriggerData json.RawMessage `json:"triggerData,omitempty"`
}

type CreateCredentialRequest struct {
	Name string                 `json:"name" validate:"required,min=1,max=100"`
	Type string                 `json:"type" validate:"required"`
	Data map[string]interface{} `json:"data" validate:"required"`
}

type UpdateCredentialRequest struct {
	Name *string                `json:"name,omitempty"`
	Data map[string]interface{} `json:"data,omitempty"`
}
