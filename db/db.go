package db

import (
	"fmt"
	"log"

	"github.com/filmcrewhq/filmcrew/config"
	"github.com/filmcrewhq/filmcrew/models"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormDB struct {
	DB *gorm.DB
}

func GetDB(c *config.Config) *GormDB {
	gormDB := &GormDB{}
	gormDB.Init(c)
	return gormDB
}

func (g *GormDB) Init(c *config.Config) {
	g.DB = getPostgresDB(c)

	if err := migrate(g.DB); err != nil {
		log.Fatalf("unable to run migrations: %v", err)
	}
}

func getPostgresDB(c *config.Config) *gorm.DB {
	log.Printf("Connecting to postgres: %s@%s:%d/%s", c.PostgresUser, c.PostgresHost, c.PostgresPort, c.PostgresDB)
	postgresDSN := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d TimeZone=UTC",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort)

	gormConfig := &gorm.Config{}
	if c.Env != "prod" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		DSN: postgresDSN,
	}), gormConfig)
	if err != nil {
		log.Fatal(err)
	}

	return gormDB
}

func SeedRoles(db *gorm.DB) error {
	roles := []models.Role{
		{ID: uuid.New(), Name: models.RoleAdmin},
		{ID: uuid.New(), Name: models.RoleUser},
	}

	for _, role := range roles {
		if err := db.FirstOrCreate(&role, models.Role{Name: role.Name}).Error; err != nil {
			return err
		}
	}

	return nil
}

func SeedDepartments(db *gorm.DB) error {
	for _, name := range models.DefaultDepartments {
		dept := models.Department{ID: uuid.New(), Name: name}
		if err := db.FirstOrCreate(&dept, models.Department{Name: name}).Error; err != nil {
			return err
		}
	}
	return nil
}

func migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Blacklist{},
		&models.MagicLinkToken{},
		&models.Notification{},
		&models.Role{},
		&models.Department{},
		&models.Connection{},
		&models.ProductionCompany{},
		&models.CompanyMember{},
		&models.CompanyInvitation{},
		&models.Production{},
		&models.JobPost{},
		&models.JobApplication{},
		&models.Conversation{},
		&models.ConversationParticipant{},
		&models.Message{},
	)
	if err != nil {
		return fmt.Errorf("migrations error: %v", err)
	}

	// Partial unique indexes AutoMigrate cannot express: one pending
	// invitation per (company, email), one live connection per pair.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_company_invitations_pending
		ON company_invitations (company_id, email)
		WHERE status = 'pending' AND deleted_at IS NULL`).Error; err != nil {
		return fmt.Errorf("migrations error: %v", err)
	}
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_connections_pair_live
		ON connections (pair_key)
		WHERE status IN ('pending', 'accepted') AND deleted_at IS NULL`).Error; err != nil {
		return fmt.Errorf("migrations error: %v", err)
	}

	if err := SeedRoles(db); err != nil {
		return fmt.Errorf("seeding roles error: %v", err)
	}

	if err := SeedDepartments(db); err != nil {
		return fmt.Errorf("seeding departments error: %v", err)
	}

	return nil
}
