// Package schedule turns department configuration and existing bookings into
// a day-by-day, slot-by-slot availability view.
package schedule

import (
	"github.com/google/uuid"

	"github.com/careslot/clinic-booking/internal/booking"
)

type Slot struct {
	SlotNumber    int             `json:"slot_number"`
	Available     bool            `json:"available"`
	AppointmentID *uuid.UUID      `json:"appointment_id,omitempty"`
	ClientID      *uuid.UUID      `json:"client_id,omitempty"`
	Status        *booking.Status `json:"status,omitempty"`
	NonWorkingDay bool            `json:"is_non_working_day,omitempty"`
}

type DaySchedule struct {
	Date            string `json:"date"`
	Weekday         string `json:"weekday"`
	IsWorkingDay    bool   `json:"is_working_day"`
	HasAvailability bool   `json:"has_availability"`
	Slots           []Slot `json:"slots"`
}

// BuildSchedule is pure and deterministic: the same department, bookings and
// range always produce the same view. Occupied slots expose the real client
// identifier; masking for privacy is the caller's concern.
//
// All date math is calendar-local (year/month/day); no instant comparisons
// that could shift a day across time zones.
func BuildSchedule(dept booking.Department, bookings []booking.Appointment, start booking.Date, days int) []DaySchedule {
	occupied := make(map[occupancyKey]*booking.Appointment, len(bookings))
	for i := range bookings {
		b := &bookings[i]
		if !b.Status.SlotOccupying() {
			continue
		}
		occupied[occupancyKey{b.Date, b.SlotNumber}] = b
	}

	result := make([]DaySchedule, 0, days)
	for i := 0; i < days; i++ {
		date := start.AddDays(i)
		weekday := date.Weekday()
		working := dept.IsActive && dept.WorksOn(weekday)

		day := DaySchedule{
			Date:         date.String(),
			Weekday:      weekday,
			IsWorkingDay: working,
			Slots:        make([]Slot, 0, dept.SlotsPerDay),
		}

		for n := 1; n <= dept.SlotsPerDay; n++ {
			slot := Slot{SlotNumber: n}
			if !working {
				slot.NonWorkingDay = true
				day.Slots = append(day.Slots, slot)
				continue
			}
			if b, ok := occupied[occupancyKey{date, n}]; ok {
				slot.AppointmentID = &b.ID
				slot.ClientID = &b.ClientID
				status := b.Status
				slot.Status = &status
			} else {
				slot.Available = true
				day.HasAvailability = true
			}
			day.Slots = append(day.Slots, slot)
		}

		result = append(result, day)
	}
	return result
}

type occupancyKey struct {
	date booking.Date
	slot int
}
