package main

import (
	"log"
	"os"
	"strings"

	"geostick/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true). Any permission errors will be logged and ignored.
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	// Ensure the roles master table exists first and seed it so users FK can be applied safely.
	if shouldMigrate {
		if err := db.AutoMigrate(&models.Role{}); err != nil {
			log.Printf("migration warning (roles): %v", err)
		}
	}
	seedRoles()

	// Now migrate the rest (users will get FK to roles)
	if shouldMigrate {
		// Migrate models individually so a failure on one doesn't block others
		if err := db.AutoMigrate(&models.User{}); err != nil {
			log.Printf("migration warning (users): %v", err)
		}
		if err := db.AutoMigrate(&models.Profile{}); err != nil {
			log.Printf("migration warning (profiles): %v", err)
		}
		if err := db.AutoMigrate(&models.RefreshToken{}); err != nil {
			log.Printf("migration warning (refresh_tokens): %v", err)
		}
		if err := db.AutoMigrate(&models.Community{}); err != nil {
			log.Printf("migration warning (communities): %v", err)
		}
		if err := db.AutoMigrate(&models.Membership{}); err != nil {
			log.Printf("migration warning (memberships): %v", err)
		}
		if err := db.AutoMigrate(&models.Sticker{}); err != nil {
			log.Printf("migration warning (stickers): %v", err)
		}
	}

	// Ensure stickers -> communities FK exists (in case the table predates the constraint)
	if shouldMigrate {
		if err := ensureStickerCommunityFK(); err != nil {
			log.Printf("warning: ensuring stickers->communities FK failed: %v", err)
		}
	}
	seedDB()
}

// ensureStickerCommunityFK adds the FK constraint from stickers.community_id
// to communities.id if it is missing, so orphan records are rejected at the
// database level (the create endpoint relies on this for its 400 path).
func ensureStickerCommunityFK() error {
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_stickers_community_id ON stickers(community_id)`).Error; err != nil {
		return err
	}
	type cnt struct{ N int }
	var c cnt
	fkCheckSQL := `SELECT count(*) AS n
		FROM pg_constraint ct
		JOIN pg_class rel ON rel.oid = ct.conrelid
		WHERE rel.relname = 'stickers' AND ct.contype = 'f'
		  AND pg_get_constraintdef(ct.oid) ILIKE '%community_id%' AND pg_get_constraintdef(ct.oid) ILIKE '%communities%'`
	if err := db.Raw(fkCheckSQL).Scan(&c).Error; err != nil {
		return err
	}
	if c.N == 0 {
		if err := db.Exec(`ALTER TABLE stickers
			ADD CONSTRAINT fk_stickers_communities
			FOREIGN KEY (community_id) REFERENCES communities(id)
			ON UPDATE CASCADE ON DELETE CASCADE`).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedRoles() {
	roles := []models.Role{{Name: "administrator", Description: "full access"}, {Name: "user", Description: "regular user"}}
	for _, r := range roles {
		var cnt int64
		db.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			db.Create(&r)
		}
	}
}

func seedDB() {
	seedRoles()

	// Check if admin user exists
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		// find administrator role id
		var role models.Role
		if err := db.Where("name = ?", "administrator").First(&role).Error; err != nil {
			log.Printf("failed to find administrator role: %v", err)
		}
		rid := role.ID
		admin := models.User{
			Username: "admin",
			AuthID:   uuid.NewString(),
			RoleID:   &rid,
		}
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		admin.HashedPassword = hashedPassword
		db.Create(&admin)
		log.Println("Seeded admin user: username=admin, password=admin123")
	}
	// Ensure admin has a one-to-one profile
	var admin models.User
	if err := db.Where("username = ?", "admin").First(&admin).Error; err != nil {
		log.Printf("failed to find admin user after seeding: %v", err)
		return
	}
	var pcount int64
	db.Model(&models.Profile{}).Where("user_id = ?", admin.ID).Count(&pcount)
	if pcount == 0 {
		profile := models.Profile{UserID: admin.ID, IsAdmin: true}
		if err := db.Create(&profile).Error; err != nil {
			log.Printf("failed to create profile for admin: %v", err)
		} else {
			log.Println("Seeded admin profile for user id:", admin.ID)
		}
	}
	// Ensure local object storage directory exists
	ensureStorageBase()
}

// ensureStorageBase creates the base directory for locally stored objects.
func ensureStorageBase() {
	base := storageBaseDir()
	if err := os.MkdirAll(base, 0755); err != nil {
		log.Printf("failed to create storage base dir %s: %v", base, err)
	}
}

// storageBaseDir returns the base directory for local object storage (configurable via STORAGE_BASE env)
func storageBaseDir() string {
	if v := os.Getenv("STORAGE_BASE"); v != "" {
		return v
	}
	return "storage"
}
