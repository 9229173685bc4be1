package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type RunMethod string

const (
	RunMethodPost RunMethod = "POST"
	RunMethodGet  RunMethod = "GET"
	RunMethodEmit RunMethod = "EMIT"
)

// RunHandle identifies one accepted backtest submission.
type RunHandle struct {
	ID        uuid.UUID
	StartedAt time.Time
	Method    RunMethod
}

func NewRunHandle(method RunMethod) RunHandle {
	return RunHandle{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		Method:    method,
	}
}

func (h RunHandle) String() string {
	return fmt.Sprintf("run %s (%s, %s)", h.ID.String()[:8], h.Method, h.StartedAt.Format("15:04:05"))
}
