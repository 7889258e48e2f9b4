package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/frahmantamala/hotel-billing/internal/auth"
	"github.com/frahmantamala/hotel-billing/internal/core/datamodel/reservation"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with staff accounts, permissions, clients and reservations for development and testing.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := initGorm(sqlDB, true)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"audit_entries", "payments", "reservations", "clients", "user_permissions", "permissions", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		hash, err := auth.HashPassword("password", cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		// the first user doubles as the default audit user
		staff := []struct {
			Email       string
			Name        string
			Role        string
			Permissions []string
		}{
			{"system@hotel.local", "System", "system", nil},
			{"admin@hotel.local", "Hotel Admin", "management", []string{auth.PermissionAdmin}},
			{"frontdesk@hotel.local", "Front Desk", "reception", []string{auth.PermissionManagePayments}},
			{"accounting@hotel.local", "Accounting", "finance", []string{auth.PermissionManagePayments, auth.PermissionRefundPayments, auth.PermissionViewReports}},
		}

		permissions := []struct {
			Name string
			Desc string
		}{
			{auth.PermissionAdmin, "full administrator"},
			{auth.PermissionManagePayments, "Can record and update payments"},
			{auth.PermissionRefundPayments, "Can refund payments"},
			{auth.PermissionViewReports, "Can view financial reports"},
		}

		for _, p := range permissions {
			if err := db.Exec("INSERT INTO permissions (name, description, created_at) VALUES (?, ?, now()) ON CONFLICT (name) DO NOTHING", p.Name, p.Desc).Error; err != nil {
				log.Fatalf("failed to insert permission %s: %v", p.Name, err)
			}
		}

		for _, s := range staff {
			if err := db.Exec("INSERT INTO users (email, name, role, password_hash, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, true, now(), now()) ON CONFLICT (email) DO NOTHING",
				s.Email, s.Name, s.Role, hash).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", s.Email, err)
			}

			var userID int64
			if err := db.Raw("SELECT id FROM users WHERE email = ?", s.Email).Row().Scan(&userID); err != nil {
				log.Fatalf("failed to lookup user id %s: %v", s.Email, err)
			}

			for _, permName := range s.Permissions {
				if err := grantPermission(db, userID, permName); err != nil {
					log.Fatalf("failed to grant permission %s to %s: %v", permName, s.Email, err)
				}
			}
			fmt.Printf("Seeded user %s with permissions %v\n", s.Email, s.Permissions)
		}

		clients := []reservation.Client{
			{Name: "Alice Martin", Email: "alice@example.com", Phone: "+33 6 12 34 56 78"},
			{Name: "Bruno Petit", Email: "bruno@example.com", Phone: "+33 6 98 76 54 32"},
			{Name: "Chloe Durand", Phone: "+33 6 11 22 33 44"},
		}

		checkIn := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 7)
		for i := range clients {
			c := &clients[i]
			if err := db.Where("name = ?", c.Name).FirstOrCreate(c).Error; err != nil {
				log.Fatalf("failed to seed client %s: %v", c.Name, err)
			}

			res := reservation.Reservation{
				ClientID:      c.ID,
				RoomNumber:    fmt.Sprintf("%d", 101+i),
				CheckIn:       checkIn,
				CheckOut:      checkIn.AddDate(0, 0, 3),
				TotalPrice:    decimal.NewFromInt(int64(300 * (i + 1))),
				PaymentStatus: reservation.PaymentStatusPending,
			}
			if err := db.Where("client_id = ? AND room_number = ?", res.ClientID, res.RoomNumber).FirstOrCreate(&res).Error; err != nil {
				log.Fatalf("failed to seed reservation for %s: %v", c.Name, err)
			}
			fmt.Printf("Seeded reservation #%d for %s (total %s)\n", res.ID, c.Name, res.TotalPrice.StringFixed(2))
		}

		fmt.Println("Seeding complete")
	},
}

func grantPermission(db *gorm.DB, userID int64, permName string) error {
	var pid int64
	if err := db.Raw("SELECT id FROM permissions WHERE name = ?", permName).Row().Scan(&pid); err != nil {
		return fmt.Errorf("permission not found: %w", err)
	}

	var exists int
	if err := db.Raw("SELECT 1 FROM user_permissions WHERE user_id = ? AND permission_id = ?", userID, pid).Row().Scan(&exists); err == nil {
		return nil
	}

	return db.Exec("INSERT INTO user_permissions (user_id, permission_id, granted_by, created_at) VALUES (?, ?, NULL, now())", userID, pid).Error
}
