package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/careslot/clinic-booking/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")
	_ = godotenv.Load()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedDepartments(context.Background(), pool); err != nil {
		log.Fatalf("seed departments: %v", err)
	}
	if err := seedClients(context.Background(), pool, 500); err != nil {
		log.Fatalf("seed clients: %v", err)
	}
	if err := seedSettings(context.Background(), pool); err != nil {
		log.Fatalf("seed settings: %v", err)
	}

	log.Println("seed complete")
}

func seedDepartments(ctx context.Context, pool *pgxpool.Pool) error {
	type dept struct {
		name  string
		slots int
		days  []string
	}

	weekdays := []string{"monday", "tuesday", "wednesday", "thursday", "friday"}
	departments := []dept{
		{"Dermatology", 12, weekdays},
		{"Cardiology", 8, weekdays},
		{"General Practice", 20, append(weekdays, "saturday")},
		{"Orthopedics", 10, weekdays},
		{"Endocrinology", 6, weekdays},
		{"Neurology", 8, weekdays},
		{"Pediatrics", 16, append(weekdays, "saturday")},
		{"Psychiatry", 6, weekdays},
		{"Ophthalmology", 10, weekdays},
		{"ENT", 12, weekdays},
	}

	log.Printf("seeding %d departments", len(departments))
	for _, d := range departments {
		_, err := pool.Exec(ctx, `
			INSERT INTO departments (id, name, slots_per_day, working_days, working_hours_start, working_hours_end, is_active)
			VALUES ($1, $2, $3, $4, '09:00', '17:00', true)
		`, uuid.New(), d.name, d.slots, d.days)
		if err != nil {
			return err
		}
	}
	return nil
}

func seedClients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d clients", count)
	for i := 0; i < count; i++ {
		_, err := pool.Exec(ctx, `
			INSERT INTO clients (id, name, phone)
			VALUES ($1, $2, $3)
		`, uuid.New(), gofakeit.Name(), gofakeit.Phone())
		if err != nil {
			return err
		}
	}
	return nil
}

func seedSettings(ctx context.Context, pool *pgxpool.Pool) error {
	defaults := map[string]string{
		"booking.min_advance_hours":           "2",
		"booking.max_future_days":             "30",
		"booking.same_day_enabled":            "true",
		"booking.same_day_cutoff_hour":        "12",
		"booking.max_pending_appointments":    "2",
		"booking.max_daily_appointments":      "1",
		"booking.max_same_department_pending": "1",
	}

	log.Printf("seeding %d settings", len(defaults))
	for k, v := range defaults {
		_, err := pool.Exec(ctx, `
			INSERT INTO system_settings (key, value)
			VALUES ($1, $2)
			ON CONFLICT (key) DO NOTHING
		`, k, v)
		if err != nil {
			return err
		}
	}
	return nil
}
