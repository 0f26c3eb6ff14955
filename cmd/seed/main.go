package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/kalenso/kalenso/config"
	"github.com/kalenso/kalenso/internal/domain/rbac"
	"github.com/kalenso/kalenso/pkg/helpers"
)

// Seeds the role and permission catalog from the compiled-in registry.
// Safe to run repeatedly; every statement is an upsert.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Permissions
	permIDs := make(map[string]int64, len(rbac.AllPermissions()))
	for _, name := range rbac.AllPermissions() {
		var id int64
		err := db.QueryRow(`
			INSERT INTO permissions (name, resource, action)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE SET resource = EXCLUDED.resource, action = EXCLUDED.action
			RETURNING id
		`, name, rbac.Resource(name), rbac.Action(name)).Scan(&id)
		if err != nil {
			log.Fatalf("failed to upsert permission %s: %v", name, err)
		}
		permIDs[name] = id
	}
	fmt.Printf("permissions ensured: %d\n", len(permIDs))

	// Roles
	roleIDs := make(map[string]int64, len(rbac.AllRoles()))
	for _, name := range rbac.AllRoles() {
		var id int64
		err := db.QueryRow(`
			INSERT INTO roles (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, name).Scan(&id)
		if err != nil {
			log.Fatalf("failed to upsert role %s: %v", name, err)
		}
		roleIDs[name] = id
	}
	fmt.Printf("roles ensured: %v\n", rbac.AllRoles())

	// Grants: admin gets everything, guest gets the read-only subset
	grant := func(role string, perms []string) {
		for _, p := range perms {
			if _, err := db.Exec(`
				INSERT INTO role_permissions (role_id, permission_id)
				VALUES ($1, $2)
				ON CONFLICT (role_id, permission_id) DO NOTHING
			`, roleIDs[role], permIDs[p]); err != nil {
				log.Fatalf("failed to grant %s to %s: %v", p, role, err)
			}
		}
	}
	grant(rbac.RoleAdmin, rbac.AllPermissions())
	grant(rbac.RoleGuest, rbac.GuestPermissions())
	fmt.Println("grants ensured")

	// Optional bootstrap admin account
	email := os.Getenv("SEED_ADMIN_EMAIL")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	var uid int64
	err = db.QueryRow(`
		INSERT INTO users (email, password_hash, email_verified)
		VALUES ($1, $2, true)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id
	`, email, hash).Scan(&uid)
	if err != nil {
		log.Fatalf("failed to seed admin user: %v", err)
	}
	if _, err := db.Exec(`
		INSERT INTO user_roles (user_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role_id) DO NOTHING
	`, uid, roleIDs[rbac.RoleAdmin]); err != nil {
		log.Fatalf("failed to assign admin role: %v", err)
	}
	fmt.Printf("seeded admin user: id=%d email=%s\n", uid, email)
}
