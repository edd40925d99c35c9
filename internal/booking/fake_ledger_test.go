package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// fakeLedger is an in-memory Ledger for exercising the policy engine,
// scorer, penalty manager and facade without a database.
type fakeLedger struct {
	departments  map[uuid.UUID]*Department
	clients      map[uuid.UUID]*Client
	appointments map[uuid.UUID]*Appointment
	penalties    []ClientPenalty
	history      map[uuid.UUID][]HistoryRow

	reserveErr       error
	insertPenaltyErr error
	releaseCalls     int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		departments:  make(map[uuid.UUID]*Department),
		clients:      make(map[uuid.UUID]*Client),
		appointments: make(map[uuid.UUID]*Appointment),
		history:      make(map[uuid.UUID][]HistoryRow),
	}
}

func (f *fakeLedger) addDepartment(d Department) *Department {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	f.departments[d.ID] = &d
	return &d
}

func (f *fakeLedger) addClient(c Client) *Client {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.clients[c.ID] = &c
	return &c
}

func (f *fakeLedger) addAppointment(a Appointment) *Appointment {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.appointments[a.ID] = &a
	return &a
}

func (f *fakeLedger) GetDepartmentByID(_ context.Context, id uuid.UUID) (*Department, error) {
	d, ok := f.departments[id]
	if !ok {
		return nil, ErrDepartmentNotFound
	}
	return d, nil
}

func (f *fakeLedger) ListActiveDepartments(_ context.Context) ([]Department, error) {
	var out []Department
	for _, d := range f.departments {
		if d.IsActive {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeLedger) GetClientByID(_ context.Context, id uuid.UUID) (*Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return nil, ErrClientNotFound
	}
	return c, nil
}

func (f *fakeLedger) Reserve(_ context.Context, p ReserveParams) (*Appointment, error) {
	if f.reserveErr != nil {
		return nil, f.reserveErr
	}
	for _, a := range f.appointments {
		if a.DepartmentID == p.DepartmentID && a.Date == p.Date && a.SlotNumber == p.SlotNumber && a.Status.SlotOccupying() {
			return nil, ErrSlotConflict
		}
	}
	now := time.Now()
	appt := &Appointment{
		ID:           uuid.New(),
		ClientID:     p.ClientID,
		DepartmentID: p.DepartmentID,
		DoctorID:     p.DoctorID,
		Date:         p.Date,
		SlotNumber:   p.SlotNumber,
		Status:       StatusBooked,
		Notes:        p.Notes,
		BookedBy:     p.BookedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.appointments[appt.ID] = appt
	return appt, nil
}

func (f *fakeLedger) Release(_ context.Context, id uuid.UUID, newStatus Status) (*Appointment, error) {
	f.releaseCalls++
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if a.Status == newStatus {
		return a, nil
	}
	if !CanTransition(a.Status, newStatus) {
		return nil, ErrInvalidTransition
	}
	a.Status = newStatus
	a.UpdatedAt = time.Now()
	return a, nil
}

func (f *fakeLedger) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return a, nil
}

func (f *fakeLedger) ListOccupyingForRange(_ context.Context, departmentID uuid.UUID, from, to Date) ([]Appointment, error) {
	var out []Appointment
	for _, a := range f.appointments {
		if a.DepartmentID != departmentID || !a.Status.SlotOccupying() {
			continue
		}
		if a.Date.Before(from) || a.Date.After(to) {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeLedger) CountInFlightForClient(_ context.Context, clientID uuid.UUID) (int, error) {
	n := 0
	for _, a := range f.appointments {
		if a.ClientID == clientID && a.Status.InFlight() {
			n++
		}
	}
	return n, nil
}

func (f *fakeLedger) CountInFlightForClientOnDate(_ context.Context, clientID uuid.UUID, date Date) (int, error) {
	n := 0
	for _, a := range f.appointments {
		if a.ClientID == clientID && a.Date == date && a.Status.InFlight() {
			n++
		}
	}
	return n, nil
}

func (f *fakeLedger) CountInFlightForClientInDepartment(_ context.Context, clientID, departmentID uuid.UUID) (int, error) {
	n := 0
	for _, a := range f.appointments {
		if a.ClientID == clientID && a.DepartmentID == departmentID && a.Status.InFlight() {
			n++
		}
	}
	return n, nil
}

func (f *fakeLedger) HistoryForClient(_ context.Context, clientID uuid.UUID, _ time.Time) ([]HistoryRow, error) {
	return f.history[clientID], nil
}

func (f *fakeLedger) FindOverdue(_ context.Context, before Date) ([]Appointment, error) {
	var out []Appointment
	for _, a := range f.appointments {
		if a.Date.Before(before) && (a.Status == StatusBooked || a.Status == StatusConfirmed) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeLedger) InsertPenalty(_ context.Context, p ClientPenalty) (*ClientPenalty, error) {
	if f.insertPenaltyErr != nil {
		return nil, f.insertPenaltyErr
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	f.penalties = append(f.penalties, p)
	return &p, nil
}

func (f *fakeLedger) ListPenaltiesForClient(_ context.Context, clientID uuid.UUID) ([]ClientPenalty, error) {
	var out []ClientPenalty
	for _, p := range f.penalties {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeLedger) CountPenaltiesOfTypeSince(_ context.Context, clientID uuid.UUID, t PenaltyType, since Date) (int, error) {
	n := 0
	for _, p := range f.penalties {
		if p.ClientID == clientID && p.PenaltyType == t && !p.PenaltyDate.Before(since) {
			n++
		}
	}
	return n, nil
}
