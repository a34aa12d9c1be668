package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"attendance-backend/models"

	"github.com/glebarez/sqlite"
	mysqldriver "github.com/go-sql-driver/mysql"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	port := u.Port()
	if port == "" {
		port = "3306"
	}

	cfg := baseMySQLConfig()
	cfg.User = u.User.Username()
	cfg.Passwd, _ = u.User.Password()
	cfg.Addr = net.JoinHostPort(u.Hostname(), port)
	cfg.DBName = dbName
	for key, values := range u.Query() {
		if len(values) > 0 {
			cfg.Params[key] = values[0]
		}
	}
	return cfg.FormatDSN(), nil
}

func baseMySQLConfig() *mysqldriver.Config {
	cfg := mysqldriver.NewConfig()
	cfg.Net = "tcp"
	cfg.ParseTime = true
	cfg.Loc = time.Local
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg
}

func resolveMySQLDSN(c *Config) (string, error) {
	raw := strings.TrimSpace(c.DatabaseURL)
	if raw != "" {
		if strings.HasPrefix(raw, "mysql://") {
			return mysqlDSNFromURL(raw)
		}
		return raw, nil
	}

	cfg := baseMySQLConfig()
	cfg.User = c.DBUser
	cfg.Passwd = c.DBPass
	cfg.Addr = net.JoinHostPort(c.DBHost, c.DBPort)
	cfg.DBName = c.DBName
	return cfg.FormatDSN(), nil
}

func resolvePostgresDSN(c *Config) string {
	if raw := strings.TrimSpace(c.DatabaseURL); raw != "" {
		return raw
	}
	port := c.DBPort
	if port == "" || port == "3306" {
		port = "5432"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPass, c.DBName, port)
}

// SQLiteDSN enables foreign keys so attendance logs cascade with their record.
func SQLiteDSN(path string) string {
	if path == "" {
		path = "attendance.db"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)"
}

func dialectorFor(c *Config) (gorm.Dialector, error) {
	switch c.DBDriver {
	case "", "mysql":
		dsn, err := resolveMySQLDSN(c)
		if err != nil {
			return nil, err
		}
		return mysql.Open(dsn), nil
	case "postgres", "postgresql":
		return postgres.Open(resolvePostgresDSN(c)), nil
	case "sqlite":
		return sqlite.Open(SQLiteDSN(c.DBName)), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
}

// AutoMigrate creates tables parent first so the cascade constraints resolve.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.QRCode{},
		&models.AttendanceRecord{},
		&models.AttendanceLog{},
	)
}

func ConnectDatabase(c *Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(c)
	if err != nil {
		return nil, err
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newLogger, TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	if err := SeedDatabase(db, c.SeedAdminUsername, c.SeedAdminPassword); err != nil {
		log.Printf("warning: failed to seed database: %v", err)
	}
	return db, nil
}

// SeedDatabase creates the first administrator when none exists. Without a
// configured password nothing is created.
func SeedDatabase(db *gorm.DB, username, password string) error {
	var adminCount int64
	if err := db.Model(&models.User{}).Where("user_type = ?", models.UserTypeAdmin).Count(&adminCount).Error; err != nil {
		return err
	}
	if adminCount > 0 {
		return nil
	}
	if strings.TrimSpace(password) == "" {
		log.Println("info: no admin user exists and SEED_ADMIN_PASSWORD is empty; skipping admin seed")
		return nil
	}
	if strings.TrimSpace(username) == "" {
		return errors.New("seed admin username is empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash default admin password: %w", err)
	}

	admin := models.User{
		Username:  username,
		FirstName: "Admin",
		UserType:  models.UserTypeAdmin,
		Password:  string(hash),
		IsActive:  true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create default admin: %w", err)
	}
	log.Println("Default admin seeded")
	return nil
}
