package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds database connection settings
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// Database wraps the GORM handle and the underlying sql.DB it was
// opened on. The raw connection is kept for pool tuning and health
// pings; everything else goes through GORM.
type Database struct {
	db   *gorm.DB
	conn *sql.DB
}

// Connect opens the database via lib/pq, tunes the pool and hands the
// connection to GORM.
func Connect(cfg Config) (*Database, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName,
	)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Modest pool: one writer (the poller) plus query API readers.
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)
	conn.SetConnMaxIdleTime(2 * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	log.Println("✅ Database connection established")

	return &Database{db: db, conn: conn}, nil
}

// DB returns the underlying GORM instance for repositories.
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	return d.conn.Ping()
}

// Close closes the database connection
func (d *Database) Close() error {
	if d.conn != nil {
		log.Println("📡 Closing database connection...")
		return d.conn.Close()
	}
	return nil
}
