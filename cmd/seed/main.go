package main

import (
	"log"
	"os"

	"school-inventory/internal/config"
	"school-inventory/internal/database"
	"school-inventory/internal/model"
	"school-inventory/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type seedUser struct {
	username   string
	role       model.Role
	department string
}

var departments = []string{"Science", "Mathematics", "Languages", "Arts"}

var users = []seedUser{
	{"admin", model.RoleAdmin, ""},
	{"storekeeper", model.RoleStockManager, ""},
	{"science.head", model.RoleDepartmentHead, "Science"},
	{"math.head", model.RoleDepartmentHead, "Mathematics"},
	{"science.staff", model.RoleStaff, "Science"},
	{"math.staff", model.RoleStaff, "Mathematics"},
	{"arts.staff", model.RoleStaff, "Arts"},
	{"auditor", model.RoleViewer, ""},
}

var items = []struct {
	name     string
	quantity int
	unitCost string
}{
	{"A4 Paper (ream)", 200, "4.50"},
	{"Whiteboard Marker", 150, "1.20"},
	{"Chalk Box", 80, "2.00"},
	{"Scientific Calculator", 30, "18.90"},
	{"Beaker 250ml", 60, "3.75"},
	{"Watercolor Set", 40, "12.00"},
	{"Stapler", 25, "6.40"},
}

// Seeds departments, users and items. Existing rows are matched by name and left untouched.
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	cfg.Database.AutoMigrate = true

	zlog, err := logger.New(logger.Config{Level: cfg.Logger.Level, Format: "console"})
	if err != nil {
		log.Fatalf("Logger setup failed: %v", err)
	}
	defer zlog.Sync()

	db, err := database.NewConnection(cfg.Database, zlog)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}

	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "changeme123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		zlog.Fatal("failed to hash seed password", zap.Error(err))
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		deptIDs := make(map[string]model.Department, len(departments))
		for _, name := range departments {
			d := model.Department{Name: name}
			if err := tx.Where(model.Department{Name: name}).FirstOrCreate(&d).Error; err != nil {
				return err
			}
			deptIDs[name] = d
		}

		for _, su := range users {
			u := model.User{
				Username:     su.username,
				Email:        su.username + "@school.local",
				PasswordHash: string(hash),
				Role:         su.role,
			}
			if d, ok := deptIDs[su.department]; ok {
				id := d.ID
				u.DepartmentID = &id
			}
			if err := tx.Where(model.User{Username: su.username}).FirstOrCreate(&u).Error; err != nil {
				return err
			}
		}

		for _, it := range items {
			item := model.Item{
				Name:     it.name,
				Quantity: it.quantity,
				UnitCost: decimal.RequireFromString(it.unitCost),
			}
			if err := tx.Where(model.Item{Name: it.name}).FirstOrCreate(&item).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		zlog.Fatal("seeding failed", zap.Error(err))
	}

	zlog.Info("seed complete",
		zap.Int("departments", len(departments)),
		zap.Int("users", len(users)),
		zap.Int("items", len(items)),
	)
}
