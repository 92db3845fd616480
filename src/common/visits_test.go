package common

import (
	"testing"
	"time"
	"vms/src/models"
	"vms/src/types"

	"github.com/stretchr/testify/assert"
)

func TestApplyTransitionTable(t *testing.T) {
	cases := []struct {
		from    types.VisitStatus
		to      types.VisitStatus
		allowed bool
	}{
		{types.VISIT_PENDING, types.VISIT_APPROVED, true},
		{types.VISIT_PENDING, types.VISIT_REJECTED, true},
		{types.VISIT_PENDING, types.VISIT_CANCELLED, true},
		{types.VISIT_PENDING, types.VISIT_CHECKED_IN, false},
		{types.VISIT_PENDING, types.VISIT_COMPLETED, false},
		{types.VISIT_APPROVED, types.VISIT_CHECKED_IN, true},
		{types.VISIT_APPROVED, types.VISIT_CANCELLED, true},
		{types.VISIT_APPROVED, types.VISIT_REJECTED, false},
		{types.VISIT_APPROVED, types.VISIT_COMPLETED, false},
		{types.VISIT_CHECKED_IN, types.VISIT_COMPLETED, true},
		{types.VISIT_CHECKED_IN, types.VISIT_CANCELLED, false},
		{types.VISIT_COMPLETED, types.VISIT_CHECKED_IN, false},
		{types.VISIT_REJECTED, types.VISIT_APPROVED, false},
		{types.VISIT_CANCELLED, types.VISIT_APPROVED, false},
	}
	for _, c := range cases {
		visit := models.Visit{Status: c.from}
		_, err := ApplyTransition(&visit, c.to, TransitionOpts{})
		if c.allowed {
			assert.Nilf(t, err, "%s -> %s should be allowed", c.from, c.to)
			assert.Equal(t, c.to, visit.Status)
		} else {
			assert.NotNilf(t, err, "%s -> %s should be rejected", c.from, c.to)
			var terr *TransitionError
			assert.ErrorAs(t, err, &terr)
			assert.Equal(t, c.from, terr.From)
			assert.Equal(t, c.to, terr.To)
			// visit untouched on rejection
			assert.Equal(t, c.from, visit.Status)
		}
	}
}

func TestApproveStampsTokenAndTimestamp(t *testing.T) {
	now := time.Now()
	visit := models.Visit{Status: types.VISIT_PENDING}
	events, err := ApplyTransition(&visit, types.VISIT_APPROVED, TransitionOpts{Now: now})
	assert.Nil(t, err)
	assert.Empty(t, events)
	assert.Equal(t, types.VISIT_APPROVED, visit.Status)
	assert.NotNil(t, visit.QRToken)
	assert.Equal(t, now, *visit.ApprovedAt)
}

func TestApproveKeepsExistingQRToken(t *testing.T) {
	token := "existing"
	visit := models.Visit{Status: types.VISIT_PENDING, QRToken: &token}
	_, err := ApplyTransition(&visit, types.VISIT_APPROVED, TransitionOpts{})
	assert.Nil(t, err)
	assert.Equal(t, "existing", *visit.QRToken)
}

func TestApproveCascadesToCheckInWhenAutoCheckIn(t *testing.T) {
	company := models.Company{AutoCheckIn: true}
	visit := models.Visit{Status: types.VISIT_PENDING}
	events, err := ApplyTransition(&visit, types.VISIT_APPROVED, TransitionOpts{Company: &company})
	assert.Nil(t, err)
	assert.Equal(t, types.VISIT_CHECKED_IN, visit.Status)
	assert.NotNil(t, visit.CheckInTime)
	assert.Equal(t, []types.VisitEventType{types.VISIT_EVENT_CHECK_IN}, events)
}

func TestApproveNeverCascadesForAccessVisits(t *testing.T) {
	company := models.Company{AutoCheckIn: true}
	visit := models.Visit{Status: types.VISIT_PENDING, Origin: types.ORIGIN_ACCESS}
	_, err := ApplyTransition(&visit, types.VISIT_APPROVED, TransitionOpts{Company: &company})
	assert.Nil(t, err)
	assert.Equal(t, types.VISIT_APPROVED, visit.Status)
	assert.Nil(t, visit.CheckInTime)
}

func TestCompleteClearsQRToken(t *testing.T) {
	token := "qr"
	visit := models.Visit{Status: types.VISIT_CHECKED_IN, QRToken: &token}
	events, err := ApplyTransition(&visit, types.VISIT_COMPLETED, TransitionOpts{})
	assert.Nil(t, err)
	assert.Nil(t, visit.QRToken)
	assert.NotNil(t, visit.CheckOutTime)
	assert.Equal(t, []types.VisitEventType{types.VISIT_EVENT_CHECK_OUT}, events)
}

func TestCompleteViaQRRecordsQRCheckOut(t *testing.T) {
	visit := models.Visit{Status: types.VISIT_CHECKED_IN}
	events, err := ApplyTransition(&visit, types.VISIT_COMPLETED, TransitionOpts{ViaQR: true})
	assert.Nil(t, err)
	assert.Equal(t, []types.VisitEventType{types.VISIT_EVENT_CHECK_OUT_QR}, events)
}

func TestRejectRecordsReason(t *testing.T) {
	visit := models.Visit{Status: types.VISIT_PENDING}
	_, err := ApplyTransition(&visit, types.VISIT_REJECTED, TransitionOpts{Reason: "no show"})
	assert.Nil(t, err)
	assert.Equal(t, types.VISIT_REJECTED, visit.Status)
	assert.Equal(t, "no show", visit.RejectionReason)
	assert.NotNil(t, visit.RejectedAt)
}

func TestRejectWithoutReasonIsAccepted(t *testing.T) {
	visit := models.Visit{Status: types.VISIT_PENDING}
	_, err := ApplyTransition(&visit, types.VISIT_REJECTED, TransitionOpts{})
	assert.Nil(t, err)
	assert.Equal(t, "", visit.RejectionReason)
}

func TestInitializeVisitDefaultsToPending(t *testing.T) {
	company := models.Company{}
	visit := models.Visit{}
	events := InitializeVisit(&visit, &company, time.Now())
	assert.Empty(t, events)
	assert.Equal(t, types.VISIT_PENDING, visit.Status)
	assert.Nil(t, visit.QRToken)
}

func TestInitializeVisitAutoApproval(t *testing.T) {
	company := models.Company{AutoApproval: true}
	visit := models.Visit{}
	events := InitializeVisit(&visit, &company, time.Now())
	assert.Empty(t, events)
	assert.Equal(t, types.VISIT_APPROVED, visit.Status)
	assert.NotNil(t, visit.QRToken)
	assert.NotNil(t, visit.ApprovedAt)
}

func TestInitializeVisitAutoApprovalWithAutoCheckIn(t *testing.T) {
	company := models.Company{AutoApproval: true, AutoCheckIn: true}
	visit := models.Visit{}
	events := InitializeVisit(&visit, &company, time.Now())
	assert.Equal(t, []types.VisitEventType{types.VISIT_EVENT_CHECK_IN}, events)
	assert.Equal(t, types.VISIT_CHECKED_IN, visit.Status)
	assert.NotNil(t, visit.CheckInTime)
}

func TestInitializeVisitAutoCheckInAloneDoesNothing(t *testing.T) {
	company := models.Company{AutoCheckIn: true}
	visit := models.Visit{}
	events := InitializeVisit(&visit, &company, time.Now())
	assert.Empty(t, events)
	assert.Equal(t, types.VISIT_PENDING, visit.Status)
}

func TestInitializeVisitAccessCodeForcesApproved(t *testing.T) {
	// Even with both auto flags off and even with auto check-in on, an
	// access visit lands on approved with no check-in.
	for _, company := range []models.Company{{}, {AutoApproval: true, AutoCheckIn: true}} {
		visit := models.Visit{VisitType: types.VISIT_ACCESS_CODE}
		events := InitializeVisit(&visit, &company, time.Now())
		assert.Empty(t, events)
		assert.Equal(t, types.VISIT_APPROVED, visit.Status)
		assert.Nil(t, visit.CheckInTime)
		assert.NotNil(t, visit.QRToken)
	}
}

func TestInitializeVisitAccessOriginForcesApproved(t *testing.T) {
	company := models.Company{AutoApproval: true, AutoCheckIn: true}
	visit := models.Visit{Origin: types.ORIGIN_ACCESS}
	events := InitializeVisit(&visit, &company, time.Now())
	assert.Empty(t, events)
	assert.Equal(t, types.VISIT_APPROVED, visit.Status)
	assert.Nil(t, visit.CheckInTime)
}
