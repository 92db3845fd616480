package common

import (
	"fmt"
	"time"
	"vms/src/models"
	"vms/src/types"
	"vms/src/utils"
)

// TransitionError reports a disallowed source -> target status pair. The
// visit is left untouched whenever one is returned.
type TransitionError struct {
	From types.VisitStatus
	To   types.VisitStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal visit status transition: %s -> %s", e.From, e.To)
}

var transitions = map[types.VisitStatus][]types.VisitStatus{
	types.VISIT_PENDING:    {types.VISIT_APPROVED, types.VISIT_REJECTED, types.VISIT_CANCELLED},
	types.VISIT_APPROVED:   {types.VISIT_CHECKED_IN, types.VISIT_CANCELLED},
	types.VISIT_CHECKED_IN: {types.VISIT_COMPLETED},
	types.VISIT_COMPLETED:  {},
	types.VISIT_REJECTED:   {},
	types.VISIT_CANCELLED:  {},
}

func allowed(from, to types.VisitStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

type TransitionOpts struct {
	Company *models.Company
	Reason  string
	ViaQR   bool
	Now     time.Time
}

// InitializeVisit derives the starting status of a freshly created visit
// from the company settings and the visit type, stamping tokens and
// timestamps. Returned events must be appended to the visit's event log by
// the caller. Access-originated visits are forced to approved with no
// check-in regardless of the auto flags: the organizer performs the
// physical check-in.
func InitializeVisit(visit *models.Visit, company *models.Company, now time.Time) []types.VisitEventType {
	visit.Status = types.VISIT_PENDING
	if visit.VisitType == types.VISIT_ACCESS_CODE || visit.Origin == types.ORIGIN_ACCESS {
		markApproved(visit, now)
		return nil
	}
	if !company.AutoApproval {
		return nil
	}
	markApproved(visit, now)
	if !company.AutoCheckIn {
		return nil
	}
	visit.Status = types.VISIT_CHECKED_IN
	visit.CheckInTime = &now
	return []types.VisitEventType{types.VISIT_EVENT_CHECK_IN}
}

// ApplyTransition validates the requested transition against the table and,
// if legal, applies the target status and its side effects to the visit in
// memory. Persistence and notification fan-out stay with the caller.
func ApplyTransition(visit *models.Visit, target types.VisitStatus, opts TransitionOpts) ([]types.VisitEventType, error) {
	if !allowed(visit.Status, target) {
		return nil, &TransitionError{From: visit.Status, To: target}
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	var events []types.VisitEventType
	switch target {
	case types.VISIT_APPROVED:
		markApproved(visit, now)
		// Auto check-in cascades unless the visit came through an
		// access flow, which always stops at approved.
		if opts.Company != nil && opts.Company.AutoCheckIn && visit.Origin != types.ORIGIN_ACCESS {
			visit.Status = types.VISIT_CHECKED_IN
			visit.CheckInTime = &now
			events = append(events, types.VISIT_EVENT_CHECK_IN)
		}
	case types.VISIT_CHECKED_IN:
		visit.Status = types.VISIT_CHECKED_IN
		if visit.CheckInTime == nil {
			visit.CheckInTime = &now
		}
		events = append(events, types.VISIT_EVENT_CHECK_IN)
	case types.VISIT_COMPLETED:
		visit.Status = types.VISIT_COMPLETED
		visit.CheckOutTime = &now
		visit.QRToken = nil
		if opts.ViaQR {
			events = append(events, types.VISIT_EVENT_CHECK_OUT_QR)
		} else {
			events = append(events, types.VISIT_EVENT_CHECK_OUT)
		}
	case types.VISIT_REJECTED:
		visit.Status = types.VISIT_REJECTED
		visit.RejectedAt = &now
		visit.RejectionReason = opts.Reason
	case types.VISIT_CANCELLED:
		visit.Status = types.VISIT_CANCELLED
	}
	return events, nil
}

func markApproved(visit *models.Visit, now time.Time) {
	visit.Status = types.VISIT_APPROVED
	visit.ApprovedAt = &now
	if visit.QRToken == nil {
		token := utils.NewOpaqueToken()
		visit.QRToken = &token
	}
}
