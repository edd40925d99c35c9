package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// slotUniqueIndex is the partial unique index enforcing at-most-one
// slot-occupying booking per (department, date, slot). Its violation is
// translated to ErrSlotConflict and nothing else produces that error.
const slotUniqueIndex = "appointments_slot_taken_idx"

// DB is the subset of pgxpool.Pool the ledger uses; pgxmock satisfies it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type PgLedger struct {
	db DB
}

func NewPgLedger(pool *pgxpool.Pool) *PgLedger {
	return &PgLedger{db: pool}
}

// NewPgLedgerWithDB allows injecting a mock connection in tests.
func NewPgLedgerWithDB(db DB) *PgLedger {
	return &PgLedger{db: db}
}

// Helpers

func scanDepartment(row pgx.Row) (*Department, error) {
	var d Department
	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.SlotsPerDay,
		&d.WorkingDays,
		&d.WorkingHours.Start,
		&d.WorkingHours.End,
		&d.IsActive,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}
	return &d, nil
}

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Phone,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return &c, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var date time.Time
	var doctorID *uuid.UUID

	err := row.Scan(
		&a.ID,
		&a.ClientID,
		&a.DepartmentID,
		&doctorID,
		&date,
		&a.SlotNumber,
		&a.Status,
		&a.Notes,
		&a.BookedBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.DoctorID = doctorID
	a.Date = DateOf(date)
	return &a, nil
}

const appointmentColumns = `id, client_id, department_id, doctor_id, slot_date, slot_number, status, notes, booked_by, created_at, updated_at`

// Interface methods

func (r *PgLedger) GetDepartmentByID(ctx context.Context, id uuid.UUID) (*Department, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, slots_per_day, working_days, working_hours_start, working_hours_end, is_active, created_at, updated_at
		FROM departments
		WHERE id = $1
	`, id)
	return scanDepartment(row)
}

func (r *PgLedger) ListActiveDepartments(ctx context.Context) ([]Department, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, slots_per_day, working_days, working_hours_start, working_hours_end, is_active, created_at, updated_at
		FROM departments
		WHERE is_active
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func (r *PgLedger) GetClientByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, phone, created_at, updated_at
		FROM clients
		WHERE id = $1
	`, id)
	return scanClient(row)
}

func (r *PgLedger) Reserve(ctx context.Context, p ReserveParams) (*Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reserve tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Friendly pre-check; the unique index below is the actual guard against
	// interleaved inserts.
	var existing int
	err = tx.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE department_id = $1 AND slot_date = $2 AND slot_number = $3
		  AND status NOT IN ('cancelled', 'no_show')
	`, p.DepartmentID, p.Date.String(), p.SlotNumber).Scan(&existing)
	if err != nil {
		return nil, fmt.Errorf("check slot occupancy: %w", err)
	}
	if existing > 0 {
		return nil, ErrSlotConflict
	}

	id := uuid.New()
	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (id, client_id, department_id, doctor_id, slot_date, slot_number, status, notes, booked_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'booked', $7, $8, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, p.ClientID, p.DepartmentID, p.DoctorID, p.Date.String(), p.SlotNumber, p.Notes, p.BookedBy)

	appt, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotConflict
		}
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotConflict
		}
		return nil, fmt.Errorf("commit reserve tx: %w", err)
	}
	return appt, nil
}

func (r *PgLedger) Release(ctx context.Context, id uuid.UUID, newStatus Status) (*Appointment, error) {
	if !newStatus.Valid() {
		return nil, ErrInvalidTransition
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin release tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanAppointment(tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		return nil, err
	}

	// Re-applying the status an appointment already has is a no-op, so
	// repeated cancels are harmless.
	if current.Status == newStatus {
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit release tx: %w", err)
		}
		return current, nil
	}

	if !CanTransition(current.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, newStatus)
	}

	updated, err := scanAppointment(tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, id, newStatus))
	if err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit release tx: %w", err)
	}
	return updated, nil
}

func (r *PgLedger) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgLedger) ListOccupyingForRange(ctx context.Context, departmentID uuid.UUID, from, to Date) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE department_id = $1
		  AND slot_date BETWEEN $2 AND $3
		  AND status NOT IN ('cancelled', 'no_show')
	`, departmentID, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgLedger) CountInFlightForClient(ctx context.Context, clientID uuid.UUID) (int, error) {
	return r.countInFlight(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE client_id = $1
		  AND status NOT IN ('cancelled', 'completed', 'no_show')
	`, clientID)
}

func (r *PgLedger) CountInFlightForClientOnDate(ctx context.Context, clientID uuid.UUID, date Date) (int, error) {
	return r.countInFlight(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE client_id = $1
		  AND slot_date = $2
		  AND status NOT IN ('cancelled', 'completed', 'no_show')
	`, clientID, date.String())
}

func (r *PgLedger) CountInFlightForClientInDepartment(ctx context.Context, clientID, departmentID uuid.UUID) (int, error) {
	return r.countInFlight(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE client_id = $1
		  AND department_id = $2
		  AND status NOT IN ('cancelled', 'completed', 'no_show')
	`, clientID, departmentID)
}

func (r *PgLedger) countInFlight(ctx context.Context, sql string, args ...any) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PgLedger) HistoryForClient(ctx context.Context, clientID uuid.UUID, createdAfter time.Time) ([]HistoryRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT status, slot_date, CASE WHEN status = 'cancelled' THEN updated_at END
		FROM appointments
		WHERE client_id = $1
		  AND created_at >= $2
	`, clientID, createdAfter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []HistoryRow
	for rows.Next() {
		var h HistoryRow
		var date time.Time
		if err := rows.Scan(&h.Status, &date, &h.CancelledAt); err != nil {
			return nil, err
		}
		h.Date = DateOf(date)
		result = append(result, h)
	}
	return result, rows.Err()
}

func (r *PgLedger) FindOverdue(ctx context.Context, before Date) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE slot_date < $1
		  AND status IN ('booked', 'confirmed')
	`, before.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgLedger) InsertPenalty(ctx context.Context, p ClientPenalty) (*ClientPenalty, error) {
	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO client_penalties (id, client_id, penalty_type, penalty_date, duration_days, reason, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING id, client_id, penalty_type, penalty_date, duration_days, reason, is_active, created_at
	`, id, p.ClientID, p.PenaltyType, p.PenaltyDate.String(), p.DurationDays, p.Reason, p.IsActive)

	return scanPenalty(row)
}

func (r *PgLedger) ListPenaltiesForClient(ctx context.Context, clientID uuid.UUID) ([]ClientPenalty, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, client_id, penalty_type, penalty_date, duration_days, reason, is_active, created_at
		FROM client_penalties
		WHERE client_id = $1
		ORDER BY penalty_date DESC
	`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ClientPenalty
	for rows.Next() {
		p, err := scanPenalty(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *PgLedger) CountPenaltiesOfTypeSince(ctx context.Context, clientID uuid.UUID, t PenaltyType, since Date) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT count(*)
		FROM client_penalties
		WHERE client_id = $1
		  AND penalty_type = $2
		  AND penalty_date >= $3
	`, clientID, t, since.String()).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func scanPenalty(row pgx.Row) (*ClientPenalty, error) {
	var p ClientPenalty
	var date time.Time

	err := row.Scan(
		&p.ID,
		&p.ClientID,
		&p.PenaltyType,
		&date,
		&p.DurationDays,
		&p.Reason,
		&p.IsActive,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.PenaltyDate = DateOf(date)
	return &p, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && (pgErr.ConstraintName == slotUniqueIndex || pgErr.ConstraintName == "")
}
