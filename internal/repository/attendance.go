package repository

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/deppfellow/storeops/internal/database"
	"github.com/deppfellow/storeops/internal/model"
)

type AttendanceRepository struct {
	db *database.Database
	q  database.DBTX
}

const attendanceColumns = `id, user_id, store_id, clock_in_at, clock_in_lat, clock_in_lng,
	clock_in_distance_m, clock_out_at, clock_out_lat, clock_out_lng, note, created_at`

func scanAttendance(row scanner) (model.Attendance, error) {
	var a model.Attendance
	err := row.Scan(&a.ID, &a.UserID, &a.StoreID, &a.ClockInAt, &a.ClockInLat, &a.ClockInLng,
		&a.ClockInDistanceM, &a.ClockOutAt, &a.ClockOutLat, &a.ClockOutLng, &a.Note, &a.CreatedAt)
	return a, err
}

func (r *AttendanceRepository) Create(ctx context.Context, a *model.Attendance) error {
	query := r.db.Rebind(`
		INSERT INTO attendance (user_id, store_id, clock_in_at, clock_in_lat, clock_in_lng,
			clock_in_distance_m, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	return r.q.QueryRowContext(ctx, query,
		a.UserID, a.StoreID, a.ClockInAt, a.ClockInLat, a.ClockInLng,
		a.ClockInDistanceM, a.Note, a.CreatedAt,
	).Scan(&a.ID)
}

// GetOpen returns the user's shift that has not been clocked out.
func (r *AttendanceRepository) GetOpen(ctx context.Context, userID int64) (*model.Attendance, error) {
	query := r.db.Rebind(`SELECT ` + attendanceColumns + `
		FROM attendance WHERE user_id = ? AND clock_out_at IS NULL`)

	a, err := scanAttendance(r.q.QueryRowContext(ctx, query, userID))
	if err != nil {
		return nil, notFound("attendance", err)
	}
	return &a, nil
}

// ClockOut closes an open shift. Already-closed shifts are not touched.
func (r *AttendanceRepository) ClockOut(ctx context.Context, a *model.Attendance) error {
	query := r.db.Rebind(`
		UPDATE attendance
		SET clock_out_at = ?, clock_out_lat = ?, clock_out_lng = ?, note = ?
		WHERE id = ? AND clock_out_at IS NULL`)

	res, err := r.q.ExecContext(ctx, query, a.ClockOutAt, a.ClockOutLat, a.ClockOutLng, a.Note, a.ID)
	if err != nil {
		return err
	}
	return affected("attendance", res)
}

func (r *AttendanceRepository) List(ctx context.Context, f model.AttendanceFilter) ([]model.Attendance, error) {
	w := attendanceWhere(f)

	query := r.db.Rebind(`SELECT ` + attendanceColumns + ` FROM attendance a` + w.String() +
		` ORDER BY clock_in_at DESC, id DESC`)
	rows, err := r.q.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanAttendance)
}

func (r *AttendanceRepository) Summary(ctx context.Context, f model.AttendanceFilter) ([]model.AttendanceSummary, error) {
	w := attendanceWhere(f)
	w.add("a.clock_out_at IS NOT NULL")

	query := r.db.Rebind(`
		SELECT a.user_id, u.full_name, a.clock_in_at, a.clock_out_at
		FROM attendance a
		JOIN users u ON u.id = a.user_id` + w.String())

	rows, err := r.q.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byUser := map[int64]*model.AttendanceSummary{}
	worked := map[int64]time.Duration{}
	for rows.Next() {
		var (
			userID int64
			name   string
			in     time.Time
			out    time.Time
		)
		if err := rows.Scan(&userID, &name, &in, &out); err != nil {
			return nil, err
		}
		s, ok := byUser[userID]
		if !ok {
			s = &model.AttendanceSummary{UserID: userID, FullName: name}
			byUser[userID] = s
		}
		s.Shifts++
		worked[userID] += out.Sub(in)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.AttendanceSummary, 0, len(byUser))
	for id, s := range byUser {
		s.Hours = roundHours(worked[id])
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func attendanceWhere(f model.AttendanceFilter) where {
	var w where
	if f.StoreID != nil {
		w.add("a.store_id = ?", *f.StoreID)
	}
	if f.UserID != nil {
		w.add("a.user_id = ?", *f.UserID)
	}
	if f.From != nil {
		w.add("a.clock_in_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		w.add("a.clock_in_at < ?", f.To.UTC())
	}
	return w
}

// roundHours rounds to two decimals.
func roundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*100) / 100
}
