package tenants_test

import (
	"testing"
	"time"

	"github.com/Mindburn-Labs/helm/core/pkg/tenants"
	"github.com/stretchr/testify/assert"
)

func TestReceiptFactory_Record_Allowed(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := tenants.NewReceiptFactory().WithClock(func() time.Time { return fixed })

	r := f.Record("subject-1", "tenant-1", "list", "invoice", true, "")

	assert.Equal(t, "dec-1", r.ReceiptID)
	assert.True(t, r.Allowed)
	assert.Empty(t, r.DenyReason)
	assert.NotEmpty(t, r.ContentHash)
	assert.Equal(t, fixed, r.Timestamp)
}

func TestReceiptFactory_Record_Denied(t *testing.T) {
	f := tenants.NewReceiptFactory()

	r := f.Record("subject-1", "tenant-1", "delete", "invoice", false, "INSUFFICIENT_PERMISSIONS")

	assert.False(t, r.Allowed)
	assert.Equal(t, "INSUFFICIENT_PERMISSIONS", r.DenyReason)
}

func TestReceiptFactory_SequenceIncrements(t *testing.T) {
	f := tenants.NewReceiptFactory()

	r1 := f.Record("s", "t", "a", "r", true, "")
	r2 := f.Record("s", "t", "a", "r", true, "")

	assert.NotEqual(t, r1.ReceiptID, r2.ReceiptID)
}

func TestReceiptFactory_HashIsDeterministic(t *testing.T) {
	fixed := time.Unix(0, 0)
	f1 := tenants.NewReceiptFactory().WithClock(func() time.Time { return fixed })
	f2 := tenants.NewReceiptFactory().WithClock(func() time.Time { return fixed })

	r1 := f1.Record("s", "t", "a", "r", false, "DENIED")
	r2 := f2.Record("s", "t", "a", "r", false, "DENIED")

	assert.Equal(t, r1.ContentHash, r2.ContentHash)
}
