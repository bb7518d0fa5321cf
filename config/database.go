package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var (
	db *gorm.DB
)

func GetDB() *gorm.DB {
	return db
}

func init() {
	// Load env from .env
	godotenv.Load()
	// Do NOT open the database in init(); main() decides when storage comes up
	// so the HTTP port can start listening first.
}

// ConnectDatabase opens the SQLite store and sets the global DB.
// Call this from main() (or a test) before touching models.
func ConnectDatabase() error {
	dbPath := strings.TrimSpace(os.Getenv("DB_PATH"))
	if dbPath == "" {
		dbPath = "data/quick_commerce.db"
	}

	var err error
	db, err = gorm.Open(sqlite.Open(dbPath), initConfig())
	if err != nil {
		return err
	}

	// SQLite serializes writers; keep a single writer connection so action-log
	// id assignment stays strictly increasing and writes never collide.
	if sqlDB, derr := db.DB(); derr == nil && sqlDB != nil {
		sqlDB.SetMaxOpenConns(intFromEnv("DB_MAX_OPEN_CONNS", 1))
		sqlDB.SetMaxIdleConns(intFromEnv("DB_MAX_IDLE_CONNS", 1))
		sqlDB.SetConnMaxLifetime(time.Duration(intFromEnv("DB_CONN_MAX_LIFETIME_SECONDS", 300)) * time.Second)
	}

	if pluginErr := db.Use(otelgorm.NewPlugin()); pluginErr != nil {
		log.Printf("db connected but failed to install otelgorm plugin: %v", pluginErr)
	}
	return nil
}

// ConnectDatabaseWithRetry keeps trying until the store opens.
// Mirrors the startup contract: the HTTP server is already listening and
// returns 503 for app endpoints until this succeeds.
func ConnectDatabaseWithRetry() {
	var attempt int
	for {
		attempt++
		err := ConnectDatabase()
		if err == nil {
			log.Printf("connected to database (attempt=%d)", attempt)
			return
		}

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		log.Printf("failed to connect database (attempt=%d): %v; retrying in %s", attempt, err, sleep)
		time.Sleep(sleep)
	}
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// InitConfig Initialize Config
func initConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         initLog(),
		NamingStrategy: initNamingStrategy(),
	}
}

// InitLog Connection Log Configuration
func initLog() logger.Interface {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			Colorful:      false,
			LogLevel:      logger.Error,
			SlowThreshold: time.Second,
		},
	)
	return newLogger
}

// InitNamingStrategy Init NamingStrategy
func initNamingStrategy() *schema.NamingStrategy {
	return &schema.NamingStrategy{
		SingularTable: false,
		TablePrefix:   "",
	}
}
