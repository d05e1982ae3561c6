package services

import (
	"context"
	"errors"
	"io"
	"log"

	"pathology-lab-server/database"
	"pathology-lab-server/models"
)

// BookingStore is the persistence surface the engine needs. Implemented by
// database.BookingStore in production, mocked in tests.
type BookingStore interface {
	FindBooking(ctx context.Context, id uint) (*models.Booking, error)
	FindPartner(ctx context.Context, id uint) (*models.User, error)
	UpdateBookingFrom(ctx context.Context, id uint, from models.BookingStatus, updates map[string]interface{}) (bool, error)
}

// ReportUploader stores a report artifact and returns an opaque reference.
type ReportUploader interface {
	UploadReport(ctx context.Context, bookingID uint, filename string, file io.Reader) (string, error)
}

// Notifier fires best-effort notifications on qualifying transitions.
type Notifier interface {
	BookingCompleted(booking *models.Booking)
	BookingDeclined(booking *models.Booking)
}

// TransitionRequest carries a requested status change and its extras.
type TransitionRequest struct {
	Status         models.BookingStatus
	PartnerID      *uint     // required for accepted → assigned
	ReportFile     io.Reader // required for sample_collected → report_uploaded
	ReportFilename string
}

// transitionRule describes who may fire one edge of the graph and what the
// payload must carry.
type transitionRule struct {
	roles               []models.UserRole
	assignedPartnerOnly bool
	needsPartner        bool
	needsReport         bool
}

var adminOnly = []models.UserRole{models.RoleAdmin}
var partnerOnly = []models.UserRole{models.RolePartner}

// transitionRules is keyed by target status, then by the prior status it is
// legal from. Together with models.validTransitions this is the whole
// authorization table for the lifecycle.
var transitionRules = map[models.BookingStatus]map[models.BookingStatus]transitionRule{
	models.StatusAccepted: {
		models.StatusPending: {roles: adminOnly},
	},
	models.StatusAssigned: {
		models.StatusAccepted: {roles: adminOnly, needsPartner: true},
	},
	models.StatusReached: {
		models.StatusAssigned: {roles: partnerOnly, assignedPartnerOnly: true},
	},
	models.StatusSampleCollected: {
		// The double-confirm before collection is a client-side prompt; once
		// the request arrives from the assigned partner it is accepted.
		models.StatusReached: {roles: partnerOnly, assignedPartnerOnly: true},
	},
	models.StatusReportUploaded: {
		models.StatusSampleCollected: {roles: partnerOnly, assignedPartnerOnly: true, needsReport: true},
	},
	models.StatusCompleted: {
		models.StatusReportUploaded: {roles: adminOnly},
	},
	models.StatusDeclined: {
		models.StatusPending:  {roles: adminOnly},
		models.StatusAccepted: {roles: adminOnly},
	},
}

// TransitionEngine validates and applies booking status changes.
type TransitionEngine struct {
	store    BookingStore
	uploader ReportUploader
	notifier Notifier
}

// NewTransitionEngine creates a transition engine
func NewTransitionEngine(store BookingStore, uploader ReportUploader, notifier Notifier) *TransitionEngine {
	return &TransitionEngine{store: store, uploader: uploader, notifier: notifier}
}

// Apply validates the requested transition against the stored booking and
// applies it. The stored status is the sole source of truth: the write is a
// conditional update keyed on the status the engine just read, so a lost
// race surfaces as an invalid transition instead of a divergent next state.
// All status-dependent fields (partner assignment, report reference) change
// in that same conditional update.
func (e *TransitionEngine) Apply(ctx context.Context, actor *models.User, bookingID uint, req TransitionRequest) (*models.Booking, error) {
	if !req.Status.IsValid() {
		return nil, Errorf(KindValidation, "unknown status %q", req.Status)
	}

	booking, err := e.store.FindBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, Errorf(KindNotFound, "booking %d not found", bookingID)
		}
		return nil, err
	}

	rule, ok := transitionRules[req.Status][booking.Status]
	if !ok {
		return nil, Errorf(KindInvalidTransition,
			"cannot move booking from %s to %s", booking.Status, req.Status)
	}

	if err := e.authorize(actor, booking, rule); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"status": req.Status}

	if rule.needsPartner {
		if req.PartnerID == nil {
			return nil, Errorf(KindValidation, "a partner is required to assign this booking")
		}
		partner, err := e.store.FindPartner(ctx, *req.PartnerID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return nil, Errorf(KindNotFound, "partner %d not found in roster", *req.PartnerID)
			}
			return nil, err
		}
		updates["assigned_partner_id"] = partner.ID
		updates["assigned_partner_name"] = partner.FullName
	}

	if rule.needsReport {
		if req.ReportFile == nil {
			return nil, Errorf(KindValidation, "a report file is required to mark the report uploaded")
		}
		updates["report_file_url"] = e.uploadReport(ctx, booking.ID, req)
	}

	applied, err := e.store.UpdateBookingFrom(ctx, booking.ID, booking.Status, updates)
	if err != nil {
		return nil, err
	}
	if !applied {
		// A concurrent request advanced the booking first. Re-read and report
		// the authoritative status.
		current, rerr := e.store.FindBooking(ctx, bookingID)
		if rerr == nil {
			return nil, Errorf(KindInvalidTransition,
				"cannot move booking from %s to %s", current.Status, req.Status)
		}
		return nil, Errorf(KindInvalidTransition,
			"booking status changed concurrently, requested %s", req.Status)
	}

	updated, err := e.store.FindBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// The conditional update only succeeds once per edge, so terminal-entry
	// notifications cannot double-fire on a repeated request.
	if e.notifier != nil {
		switch req.Status {
		case models.StatusCompleted:
			e.notifier.BookingCompleted(updated)
		case models.StatusDeclined:
			e.notifier.BookingDeclined(updated)
		}
	}

	return updated, nil
}

// authorize checks the actor's role and, for partner edges, ownership of the
// booking. Role failures are authorization errors; the booking is untouched.
func (e *TransitionEngine) authorize(actor *models.User, booking *models.Booking, rule transitionRule) error {
	allowed := false
	for _, role := range rule.roles {
		if actor.Role == role {
			allowed = true
			break
		}
	}
	if !allowed {
		return Errorf(KindAuthorization, "role %s may not perform this transition", actor.Role)
	}
	if rule.assignedPartnerOnly && !booking.IsAssignedTo(actor.ID) {
		return Errorf(KindAuthorization, "booking is not assigned to you")
	}
	return nil
}

// uploadReport hands the artifact to external storage. Failure degrades to
// the sentinel reference instead of blocking the workflow: a storage outage
// must not freeze sample collection, the admin remediation queue picks the
// booking up later.
func (e *TransitionEngine) uploadReport(ctx context.Context, bookingID uint, req TransitionRequest) string {
	if e.uploader == nil {
		log.Printf("⚠️ No report uploader configured, recording failed upload for booking %d", bookingID)
		return models.ReportUploadFailed
	}
	url, err := e.uploader.UploadReport(ctx, bookingID, req.ReportFilename, req.ReportFile)
	if err != nil {
		log.Printf("❌ Report upload failed for booking %d: %v", bookingID, err)
		return models.ReportUploadFailed
	}
	return url
}
