package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port    string
	GinMode string

	DBDriver    string // mysql | postgres | sqlite
	DatabaseURL string
	DBUser      string
	DBPass      string
	DBHost      string
	DBPort      string
	DBName      string

	JWTSecret string
	JWTTTL    time.Duration

	QRTTL time.Duration

	FaceServiceURL     string
	FaceServiceKey     string
	FaceServiceTimeout time.Duration
	FaceTolerance      float64

	UploadDir   string
	CORSOrigins []string

	WorkStart string // HH:MM:SS
	LateGrace time.Duration

	// Location decides which calendar day a check-in belongs to.
	Location *time.Location

	SeedAdminUsername string
	SeedAdminPassword string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASS", "")
	v.SetDefault("DB_HOST", "127.0.0.1")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_NAME", "attendance_db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("QR_TTL", "24h")
	v.SetDefault("FACE_SERVICE_URL", "")
	v.SetDefault("FACE_SERVICE_KEY", "")
	v.SetDefault("FACE_SERVICE_TIMEOUT", "5s")
	v.SetDefault("FACE_TOLERANCE", 0.6)
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("CORS_ORIGINS", "")
	v.SetDefault("WORK_START", "09:00:00")
	v.SetDefault("LATE_GRACE", "5m")
	v.SetDefault("APP_TIMEZONE", "")
	v.SetDefault("SEED_ADMIN_USERNAME", "admin")
	v.SetDefault("SEED_ADMIN_PASSWORD", "")
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env not found or couldn't load it; continuing with environment variables")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	databaseURL := strings.TrimSpace(v.GetString("MYSQL_URL"))
	if databaseURL == "" {
		databaseURL = strings.TrimSpace(v.GetString("DATABASE_URL"))
	}

	return &Config{
		Port:               strings.TrimSpace(v.GetString("PORT")),
		GinMode:            strings.TrimSpace(v.GetString("GIN_MODE")),
		DBDriver:           strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
		DatabaseURL:        databaseURL,
		DBUser:             v.GetString("DB_USER"),
		DBPass:             v.GetString("DB_PASS"),
		DBHost:             v.GetString("DB_HOST"),
		DBPort:             v.GetString("DB_PORT"),
		DBName:             v.GetString("DB_NAME"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTTTL:             v.GetDuration("JWT_TTL"),
		QRTTL:              v.GetDuration("QR_TTL"),
		FaceServiceURL:     strings.TrimSpace(v.GetString("FACE_SERVICE_URL")),
		FaceServiceKey:     v.GetString("FACE_SERVICE_KEY"),
		FaceServiceTimeout: v.GetDuration("FACE_SERVICE_TIMEOUT"),
		FaceTolerance:      v.GetFloat64("FACE_TOLERANCE"),
		UploadDir:          v.GetString("UPLOAD_DIR"),
		CORSOrigins:        parseCorsOrigins(v.GetString("CORS_ORIGINS")),
		WorkStart:          v.GetString("WORK_START"),
		LateGrace:          v.GetDuration("LATE_GRACE"),
		Location:           loadLocation(v.GetString("APP_TIMEZONE")),
		SeedAdminUsername:  v.GetString("SEED_ADMIN_USERNAME"),
		SeedAdminPassword:  v.GetString("SEED_ADMIN_PASSWORD"),
	}
}

// loadLocation falls back to the host zone when the name is empty or unknown.
func loadLocation(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("⚠️  unknown APP_TIMEZONE %q, using the host time zone: %v", name, err)
		return time.Local
	}
	return loc
}

func parseCorsOrigins(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
