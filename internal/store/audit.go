// ABOUTME: Audit log entity and store methods for session registry changes
// ABOUTME: Records server registrations, removals, and session switches

package store

import (
	"context"
	"time"
)

// AuditAction represents an auditable session-registry action.
type AuditAction string

const (
	AuditServerAdded          AuditAction = "server_added"
	AuditServerRemoved        AuditAction = "server_removed"
	AuditTenantSelected       AuditAction = "tenant_selected"
	AuditSecondFactorRequired AuditAction = "second_factor_required"
	AuditSignedOut            AuditAction = "signed_out"
)

// ValidAuditActions lists all valid audit actions.
var ValidAuditActions = []AuditAction{
	AuditServerAdded,
	AuditServerRemoved,
	AuditTenantSelected,
	AuditSecondFactorRequired,
	AuditSignedOut,
}

// AuditEntry records a single session-registry change.
type AuditEntry struct {
	ID         string         `json:"id"`                    // UUID v4, generated on append if empty
	Action     AuditAction    `json:"action"`                // what happened
	ServerCode string         `json:"server_code,omitempty"` // server involved, if any
	CompanyID  *int64         `json:"company_id,omitempty"`  // company involved, if any
	Detail     map[string]any `json:"detail,omitempty"`      // additional context
	CreatedAt  time.Time      `json:"created_at"`            // when it happened
}

// AuditFilter specifies filtering options for listing audit entries.
type AuditFilter struct {
	Action     *AuditAction // filter by action type
	ServerCode *string      // filter by server code
	Since      *time.Time   // entries after this time
	Limit      int          // max results (default 100, max 1000)
}

// AuditStore defines methods for the audit log.
type AuditStore interface {
	AppendAudit(ctx context.Context, e *AuditEntry) error
	ListAudit(ctx context.Context, filter AuditFilter) ([]*AuditEntry, error)
}
