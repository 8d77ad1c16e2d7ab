package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordLedgerWrite(t *testing.T) {
	before := testutil.ToFloat64(ledgerWrites.WithLabelValues("LEARN"))
	creditBefore := testutil.ToFloat64(ledgerAmount.WithLabelValues("credit"))
	debitBefore := testutil.ToFloat64(ledgerAmount.WithLabelValues("debit"))

	RecordLedgerWrite("LEARN", 12.5)
	RecordLedgerWrite("LEARN", -2)

	assert.Equal(t, before+2, testutil.ToFloat64(ledgerWrites.WithLabelValues("LEARN")))
	assert.Equal(t, creditBefore+12.5, testutil.ToFloat64(ledgerAmount.WithLabelValues("credit")))
	assert.Equal(t, debitBefore+2, testutil.ToFloat64(ledgerAmount.WithLabelValues("debit")))
}

func TestSetGII(t *testing.T) {
	SetGII(0.87)
	assert.Equal(t, 0.87, testutil.ToFloat64(giiValue))
}

func TestRecordGIIRefresh(t *testing.T) {
	before := testutil.ToFloat64(giiRefreshes.WithLabelValues("error"))
	RecordGIIRefresh(false)
	assert.Equal(t, before+1, testutil.ToFloat64(giiRefreshes.WithLabelValues("error")))
}
