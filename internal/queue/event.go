// Package queue defines the audit events emitted by catalog and store
// operations and the sinks that persist them: a local append-only file and
// a RabbitMQ queue drained by a background consumer.
package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Action names the audited operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionBuy    Action = "buy"
	ActionRent   Action = "rent"
	ActionReturn Action = "return"
)

// Change is one old→new pair of an administrative update.
type Change struct {
	Field string `json:"field"`
	Old   any    `json:"old"`
	New   any    `json:"new"`
}

// AuditEvent is published for every inventory or catalog mutation. It
// carries enough information for the audit log without querying the
// primary database.
type AuditEvent struct {
	ID          string    `json:"id"`
	Action      Action    `json:"action"`
	Actor       string    `json:"actor"`
	MovieID     uint64    `json:"movie_id"`
	MovieTitle  string    `json:"movie_title"`
	Copies      int       `json:"copies,omitempty"`
	TotalCharge float64   `json:"total_charge,omitempty"`
	OverdueTax  float64   `json:"overdue_tax,omitempty"`
	Changes     []Change  `json:"changes,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewAuditEvent stamps a fresh event with a random id.
func NewAuditEvent(action Action, actor string, at time.Time) AuditEvent {
	return AuditEvent{ID: uuid.NewString(), Action: action, Actor: actor, OccurredAt: at.UTC()}
}

// Line renders the event as a single human-friendly log line ending in "\n".
func (e AuditEvent) Line() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | id=%s | actor=%q | movie_id=%d | movie=%q",
		e.OccurredAt.Format(time.RFC3339), e.Action, e.ID, e.Actor, e.MovieID, e.MovieTitle)
	switch e.Action {
	case ActionBuy, ActionRent:
		fmt.Fprintf(&b, " | copies=%d | total=%.2f", e.Copies, e.TotalCharge)
	case ActionReturn:
		fmt.Fprintf(&b, " | copies=%d | overdue_tax=%.2f", e.Copies, e.OverdueTax)
	}
	for _, c := range e.Changes {
		fmt.Fprintf(&b, " | %s: %v -> %v", c.Field, c.Old, c.New)
	}
	b.WriteByte('\n')
	return b.String()
}
