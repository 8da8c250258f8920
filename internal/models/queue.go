package models

import "time"

type QueueCustomer struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Phone         string     `json:"phone"`
	Email         string     `json:"email,omitempty"`
	Service       string     `json:"service"`
	EstimatedWait int        `json:"estimatedWait"`
	Status        string     `json:"status"`
	JoinedAt      time.Time  `json:"joinedAt"`
	ServedAt      *time.Time `json:"servedAt,omitempty"`
	Priority      string     `json:"priority"`
	Avatar        string     `json:"avatar,omitempty"`
}

const (
	CustomerStatusCurrent = "current"
	CustomerStatusWaiting = "waiting"
	CustomerStatusServed  = "served"
	CustomerStatusAbsent  = "absent"
)

const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// QueueUpdate is a wholesale snapshot of a queue's aggregate counters, never
// a diff.
type QueueUpdate struct {
	QueueID           string `json:"queueId,omitempty"`
	CurrentNumber     int    `json:"currentNumber"`
	TotalWaiting      int    `json:"totalWaiting"`
	EstimatedWaitTime int    `json:"estimatedWaitTime"`
}

type Queue struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	BranchID string `json:"branch_id"`
	Status   string `json:"status"`
}
