package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/storeops/internal/errs"
	"github.com/deppfellow/storeops/internal/lib/geo"
	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/repository"
	"github.com/deppfellow/storeops/internal/server"
	"github.com/deppfellow/storeops/internal/sqlerr"
)

// Clock-in outcomes recorded in metrics.
const (
	clockInOK             = "ok"
	clockInOutside        = "outside_geofence"
	clockInAlreadyOpen    = "already_clocked_in"
	clockInMissingStoreID = "no_store"
)

var (
	errAlreadyClockedIn = errs.New(http.StatusConflict, "ALREADY_CLOCKED_IN", "You are already clocked in")
	errNotClockedIn     = errs.New(http.StatusConflict, "NOT_CLOCKED_IN", "You are not clocked in")
)

type AttendanceService struct {
	server *server.Server
	repos  *repository.Repositories
	now    func() time.Time
}

func NewAttendanceService(s *server.Server, repos *repository.Repositories) *AttendanceService {
	return &AttendanceService{
		server: s,
		repos:  repos,
		now:    time.Now,
	}
}

// ClockIn opens a shift at the caller's store when the reported position lies
// inside the store's geofence.
func (s *AttendanceService) ClockIn(ctx context.Context, p *model.Principal, payload *model.ClockPayload) (*model.Attendance, error) {
	if p.StoreID == nil {
		s.server.Metrics.RecordClockIn(clockInMissingStoreID)
		return nil, errNoStore
	}

	store, err := s.repos.Store.GetByID(ctx, *p.StoreID)
	if err != nil {
		return nil, err
	}

	pos := geo.Point{Lat: *payload.Latitude, Lng: *payload.Longitude}
	inside, distance := geo.Within(geo.Point{Lat: store.Latitude, Lng: store.Longitude}, pos, store.GeofenceRadiusM)
	if !inside {
		s.server.Metrics.RecordClockIn(clockInOutside)
		s.server.Logger.Info().
			Int64("user_id", p.UserID).
			Int64("store_id", store.ID).
			Float64("distance_m", distance).
			Msg("clock-in outside geofence")

		return nil, errs.New(http.StatusBadRequest, "OUTSIDE_GEOFENCE", fmt.Sprintf(
			"You are %.0f m from %s; clock-in is allowed within %.0f m", distance, store.Name, store.GeofenceRadiusM))
	}

	if _, err := s.repos.Attendance.GetOpen(ctx, p.UserID); err == nil {
		s.server.Metrics.RecordClockIn(clockInAlreadyOpen)
		return nil, errAlreadyClockedIn
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	now := s.now().UTC()
	a := &model.Attendance{
		UserID:           p.UserID,
		StoreID:          store.ID,
		ClockInAt:        now,
		ClockInLat:       pos.Lat,
		ClockInLng:       pos.Lng,
		ClockInDistanceM: distance,
		Note:             payload.Note,
		CreatedAt:        now,
	}
	if err := s.repos.Attendance.Create(ctx, a); err != nil {
		// Lost a race with a concurrent clock-in.
		if sqlerr.Classify(err) == sqlerr.UniqueViolation {
			s.server.Metrics.RecordClockIn(clockInAlreadyOpen)
			return nil, errAlreadyClockedIn
		}
		return nil, err
	}

	s.server.Metrics.RecordClockIn(clockInOK)
	s.server.Logger.Info().
		Int64("user_id", p.UserID).
		Int64("store_id", store.ID).
		Int64("attendance_id", a.ID).
		Msg("clocked in")

	return a, nil
}

// ClockOut closes the caller's open shift. The position is recorded, not checked.
func (s *AttendanceService) ClockOut(ctx context.Context, p *model.Principal, payload *model.ClockPayload) (*model.Attendance, error) {
	a, err := s.repos.Attendance.GetOpen(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNotClockedIn
		}
		return nil, err
	}

	now := s.now().UTC()
	lat, lng := *payload.Latitude, *payload.Longitude
	a.ClockOutAt = &now
	a.ClockOutLat = &lat
	a.ClockOutLng = &lng
	if payload.Note != "" {
		a.Note = appendNote(a.Note, payload.Note)
	}

	if err := s.repos.Attendance.ClockOut(ctx, a); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNotClockedIn
		}
		return nil, err
	}

	s.server.Logger.Info().
		Int64("user_id", p.UserID).
		Int64("attendance_id", a.ID).
		Dur("worked", a.Worked()).
		Msg("clocked out")

	return a, nil
}

// Current returns the caller's open shift, nil when not clocked in.
func (s *AttendanceService) Current(ctx context.Context, p *model.Principal) (*model.Attendance, error) {
	a, err := s.repos.Attendance.GetOpen(ctx, p.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// List returns attendance records. Staff only see their own.
func (s *AttendanceService) List(ctx context.Context, p *model.Principal, payload *model.ListAttendancePayload) ([]model.Attendance, error) {
	storeID, err := listingStore(p, payload.StoreID)
	if err != nil {
		return nil, err
	}

	userID := payload.UserID
	if p.Role == model.RoleStaff {
		if userID != nil && *userID != p.UserID {
			return nil, errs.NewForbiddenError("You can only view your own attendance", true)
		}
		self := p.UserID
		userID = &self
	}

	from, to := dayRange(payload.From, payload.To)
	return s.repos.Attendance.List(ctx, model.AttendanceFilter{
		StoreID: storeID,
		UserID:  userID,
		From:    from,
		To:      to,
	})
}

// Summary totals worked hours of closed shifts per employee.
func (s *AttendanceService) Summary(ctx context.Context, p *model.Principal, payload *model.AttendanceSummaryPayload) ([]model.AttendanceSummary, error) {
	storeID, err := listingStore(p, payload.StoreID)
	if err != nil {
		return nil, err
	}

	from, to := dayRange(payload.From, payload.To)
	return s.repos.Attendance.Summary(ctx, model.AttendanceFilter{
		StoreID: storeID,
		From:    from,
		To:      to,
	})
}

// dayRange turns inclusive UTC days into a half-open instant range.
func dayRange(from, to model.Date) (*time.Time, *time.Time) {
	var start, end *time.Time
	if !from.IsZero() {
		t := from.Start(time.UTC)
		start = &t
	}
	if !to.IsZero() {
		t := to.AddDays(1).Start(time.UTC)
		end = &t
	}
	return start, end
}
