package database

import (
	"fmt"
	"log"

	config "github.com/anjiri1684/community_board/configs"
	"github.com/anjiri1684/community_board/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	err := DB.AutoMigrate(
		&models.Member{},
		&models.Memo{},
		&models.Point{},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

func SeedAdmin() {
	adminID := config.Config("ADMIN_MEMBER_ID")
	adminPassword := config.Config("ADMIN_PASSWORD")
	if adminID == "" || adminPassword == "" {
		log.Println("Admin seed skipped: ADMIN_MEMBER_ID or ADMIN_PASSWORD not set.")
		return
	}

	var count int64
	err := DB.Model(&models.Member{}).Where("member_id = ?", adminID).Count(&count).Error
	if err != nil {
		log.Fatalf("🔥 Failed to check for admin member: %v", err)
		return
	}

	if count > 0 {
		log.Println("Admin member already exists.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("🔥 Failed to hash admin password: %v", err)
		return
	}

	admin := models.Member{
		MemberID: adminID,
		Nickname: config.ConfigDefault("ADMIN_NICKNAME", adminID),
		Password: string(hashedPassword),
		Role:     "admin",
		Open:     true,
	}

	if err := DB.Create(&admin).Error; err != nil {
		log.Fatalf("🔥 Failed to seed admin member: %v", err)
		return
	}

	log.Println("✅ Admin member seeded successfully")
}
