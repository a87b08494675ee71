package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Workflow is a persisted DAG of Nodes connected by Edges (spec.md §3).
// ID is a stable integer — workflows are referenced by URL path segment and
// by foreign key from Execution, never renumbered.
type Workflow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	IsActive    bool      `gorm:"not null;default:false" json:"isActive"`
	Nodes       NodeList  `gorm:"type:jsonb;not null;default:'[]'" json:"nodes"`
	Edges       EdgeList  `gorm:"type:jsonb;not null;default:'[]'" json:"edges"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Workflow) TableName() string {
	return "workflows"
}

// Node is one vertex of the workflow graph.
type Node struct {
	ID       string                 `json:"id"`
	Type     string                 `json:"type"`
	Position JSON                   `json:"position,omitempty"`
	Data     map[string]interface{} `json:"data"`
}

// Edge is a directed dependency: Target may execute only after Source
// succeeds.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// NodeList/EdgeList back the workflow's jsonb Nodes/Edges columns.
type NodeList []Node

func (n NodeList) Value() (driver.Value, error) {
	if n == nil {
		return "[]", nil
	}
	return json.Marshal(n)
}

func (n *NodeList) Scan(value interface{}) error {
	if value == nil {
		*n = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan NodeList: not a byte slice")
	}
	return json.Unmarshal(bytes, n)
}

type EdgeList []Edge

func (e EdgeList) Value() (driver.Value, error) {
	if e == nil {
		return "[]", nil
	}
	return json.Marshal(e)
}

func (e *EdgeList) Scan(value interface{}) error {
	if value == nil {
		*e = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan EdgeList: not a byte slice")
	}
	return json.Unmarshal(bytes, e)
}
