package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// Development helper. Wipes all plant data and recreates the admin account
// so manual terminal testing can start from a clean warehouse.
func main() {
	fmt.Println("This will DELETE all lots, bales, checklists, shipments and users.")
	fmt.Print("Type 'yes' to confirm: ")

	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" {
		fmt.Println("Reset cancelled.")
		return
	}

	godotenv.Load()

	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "postgres")
	name := getEnv("DB_NAME", "textile_db")

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, password, host, port, name)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("begin: %v", err)
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"action_logs",
		"shipments",
		"modification_requests",
		"checklist_items",
		"checklists",
		"bales",
		"lots",
		"users",
	}
	for _, table := range tables {
		if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)); err != nil {
			log.Fatalf("truncate %s: %v", table, err)
		}
		fmt.Printf("  cleared %s\n", table)
	}

	// Password: admin123
	_, err = tx.Exec(ctx, `
		INSERT INTO users (name, email, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW())`,
		"Administrator",
		"admin@textile.local",
		"$2a$10$N9qo8uLOickgx2ZMRZoMye7U4hWJQbFlLwt7xW.hQOKvH8QhPVN8S",
		"admin",
	)
	if err != nil {
		log.Fatalf("create admin: %v", err)
	}
	fmt.Println("  created admin user (admin@textile.local / admin123)")

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("commit: %v", err)
	}
	fmt.Println("Done.")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
