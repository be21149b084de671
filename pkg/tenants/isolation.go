// Package tenants provides structured, hashed receipts for authorization
// decision points. This is audit-adjacent logging only — it is not a cache
// of PDP decisions and carries no authority: it never participates in the
// enforcement path, it only records what the enforcer already decided.
package tenants

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

// DecisionReceipt is a structured record of a single enforcement decision,
// suitable for structured log output at decision points per the fail-closed
// propagation policy: denials are logged with subject/tenant/action/resource
// fields, never surfaced to end users as free-form strings.
type DecisionReceipt struct {
	ReceiptID    string    `json:"receipt_id"`
	SubjectID    string    `json:"subject_id"`
	TenantID     string    `json:"tenant_id,omitempty"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type"`
	Allowed      bool      `json:"allowed"`
	DenyReason   string    `json:"deny_reason,omitempty"`
	ContentHash  string    `json:"content_hash"`
	Timestamp    time.Time `json:"timestamp"`
}

// ReceiptFactory issues DecisionReceipts with a monotonic id sequence and an
// overridable clock for deterministic tests.
type ReceiptFactory struct {
	seq   int64
	clock func() time.Time
}

// NewReceiptFactory creates a factory using the wall clock.
func NewReceiptFactory() *ReceiptFactory {
	return &ReceiptFactory{clock: time.Now}
}

// WithClock overrides the clock, for deterministic tests.
func (f *ReceiptFactory) WithClock(clock func() time.Time) *ReceiptFactory {
	f.clock = clock
	return f
}

// Record produces a DecisionReceipt for one enforcement outcome.
func (f *ReceiptFactory) Record(subjectID, tenantID, action, resourceType string, allowed bool, denyReason string) *DecisionReceipt {
	seq := atomic.AddInt64(&f.seq, 1)

	receipt := &DecisionReceipt{
		ReceiptID:    fmt.Sprintf("dec-%d", seq),
		SubjectID:    subjectID,
		TenantID:     tenantID,
		Action:       action,
		ResourceType: resourceType,
		Allowed:      allowed,
		DenyReason:   denyReason,
		Timestamp:    f.clock(),
	}

	hashInput := fmt.Sprintf("%s:%s:%s:%s:%t:%s", receipt.SubjectID, receipt.TenantID, receipt.Action, receipt.ResourceType, receipt.Allowed, receipt.DenyReason)
	h := sha256.Sum256([]byte(hashInput))
	receipt.ContentHash = "sha256:" + hex.EncodeToString(h[:])

	return receipt
}
