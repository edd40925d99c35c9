package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var appointmentCols = []string{
	"id", "client_id", "department_id", "doctor_id", "slot_date",
	"slot_number", "status", "notes", "booked_by", "created_at", "updated_at",
}

func appointmentRow(id, clientID, deptID uuid.UUID, date time.Time, slot int, status Status) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(appointmentCols).
		AddRow(id, clientID, deptID, (*uuid.UUID)(nil), date, slot, status, "", "staff", now, now)
}

func TestReserveInsertsBookedRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ledger := NewPgLedgerWithDB(mock)
	deptID, clientID := uuid.New(), uuid.New()
	date := time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\)`).
		WithArgs(deptID, "2025-06-16", 2).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO appointments`).
		WithArgs(pgxmock.AnyArg(), clientID, deptID, (*uuid.UUID)(nil), "2025-06-16", 2, "checkup", "staff").
		WillReturnRows(appointmentRow(uuid.New(), clientID, deptID, date, 2, StatusBooked))
	mock.ExpectCommit()

	appt, err := ledger.Reserve(context.Background(), ReserveParams{
		DepartmentID: deptID,
		ClientID:     clientID,
		Date:         NewDate(2025, time.June, 16),
		SlotNumber:   2,
		Notes:        "checkup",
		BookedBy:     "staff",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusBooked, appt.Status)
	assert.Equal(t, NewDate(2025, time.June, 16), appt.Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveConflictOnOccupiedSlot(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ledger := NewPgLedgerWithDB(mock)
	deptID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\)`).
		WithArgs(deptID, "2025-06-16", 2).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err = ledger.Reserve(context.Background(), ReserveParams{
		DepartmentID: deptID,
		ClientID:     uuid.New(),
		Date:         NewDate(2025, time.June, 16),
		SlotNumber:   2,
	})
	assert.ErrorIs(t, err, ErrSlotConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveTranslatesUniqueViolation(t *testing.T) {
	// The pre-check saw a free slot but a concurrent insert won the race;
	// the partial unique index turns the loser's insert into 23505.
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ledger := NewPgLedgerWithDB(mock)
	deptID, clientID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\)`).
		WithArgs(deptID, "2025-06-16", 2).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO appointments`).
		WithArgs(pgxmock.AnyArg(), clientID, deptID, (*uuid.UUID)(nil), "2025-06-16", 2, "", "").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: slotUniqueIndex})
	mock.ExpectRollback()

	_, err = ledger.Reserve(context.Background(), ReserveParams{
		DepartmentID: deptID,
		ClientID:     clientID,
		Date:         NewDate(2025, time.June, 16),
		SlotNumber:   2,
	})
	assert.ErrorIs(t, err, ErrSlotConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseUpdatesStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ledger := NewPgLedgerWithDB(mock)
	id, clientID, deptID := uuid.New(), uuid.New(), uuid.New()
	date := time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FOR UPDATE`).
		WithArgs(id).
		WillReturnRows(appointmentRow(id, clientID, deptID, date, 1, StatusBooked))
	mock.ExpectQuery(`UPDATE appointments`).
		WithArgs(id, StatusCancelled).
		WillReturnRows(appointmentRow(id, clientID, deptID, date, 1, StatusCancelled))
	mock.ExpectCommit()

	appt, err := ledger.Release(context.Background(), id, StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, appt.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseSameStatusIsNoOp(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ledger := NewPgLedgerWithDB(mock)
	id := uuid.New()
	date := time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FOR UPDATE`).
		WithArgs(id).
		WillReturnRows(appointmentRow(id, uuid.New(), uuid.New(), date, 1, StatusCancelled))
	mock.ExpectCommit()

	appt, err := ledger.Release(context.Background(), id, StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, appt.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseRejectsIllegalTransition(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ledger := NewPgLedgerWithDB(mock)
	id := uuid.New()
	date := time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FOR UPDATE`).
		WithArgs(id).
		WillReturnRows(appointmentRow(id, uuid.New(), uuid.New(), date, 1, StatusCompleted))
	mock.ExpectRollback()

	_, err = ledger.Release(context.Background(), id, StatusBooked)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountInFlightForClient(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ledger := NewPgLedgerWithDB(mock)
	clientID := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\)`).
		WithArgs(clientID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	n, err := ledger.CountInFlightForClient(context.Background(), clientID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAppointmentByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ledger := NewPgLedgerWithDB(mock)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM appointments`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(appointmentCols))

	_, err = ledger.GetAppointmentByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
