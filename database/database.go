package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ai-visibility-service/config"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"
)

// Database wraps the MySQL connection used for submission throttling
// records and the report email log.
type Database struct {
	db *sql.DB
}

// NewDatabase opens the MySQL connection and verifies it with a bounded
// exponential backoff.
func NewDatabase(cfg *config.Config) (*Database, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var waitInterval = 1 * time.Second
	var pingErr error
	for attempt := 0; attempt < 5; attempt++ {
		if pingErr = db.Ping(); pingErr == nil {
			break
		}
		log.Warnf("Database connection failed, retrying in %v: %v", waitInterval, pingErr)
		time.Sleep(waitInterval)
		waitInterval *= 2
	}
	if pingErr != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", pingErr)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Database{db: db}, nil
}

// NewFromDB wraps an existing connection; used by tests with sqlmock.
func NewFromDB(db *sql.DB) *Database {
	return &Database{db: db}
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// CreateTables creates the submissions and report_emails tables if they
// don't exist.
func (d *Database) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS submissions (
			id BIGINT NOT NULL AUTO_INCREMENT,
			ip VARCHAR(45) NOT NULL,
			file_hash CHAR(64) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			INDEX idx_submissions_ip_created (ip, created_at)
		)`,
		`CREATE TABLE IF NOT EXISTS report_emails (
			id BIGINT NOT NULL AUTO_INCREMENT,
			email VARCHAR(255) NOT NULL,
			ip VARCHAR(45) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			INDEX idx_report_emails_email (email)
		)`,
	}

	for _, query := range queries {
		if _, err := d.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	log.Info("submissions and report_emails tables created/verified")
	return nil
}

// LastSubmission returns the most recent submission for a client IP.
// The third return value is false when the client has never submitted.
func (d *Database) LastSubmission(ctx context.Context, ip string) (string, time.Time, bool, error) {
	query := `
	SELECT file_hash, created_at
	FROM submissions
	WHERE ip = ?
	ORDER BY created_at DESC
	LIMIT 1`

	var (
		hash      string
		createdAt time.Time
	)
	err := d.db.QueryRowContext(ctx, query, ip).Scan(&hash, &createdAt)
	if err == sql.ErrNoRows {
		return "", time.Time{}, false, nil
	}
	if err != nil {
		return "", time.Time{}, false, fmt.Errorf("failed to query last submission for %s: %w", ip, err)
	}

	return hash, createdAt, true, nil
}

// SaveSubmission records an admitted upload for future throttling decisions.
func (d *Database) SaveSubmission(ctx context.Context, ip, fileHash string) error {
	query := `INSERT INTO submissions (ip, file_hash) VALUES (?, ?)`

	if _, err := d.db.ExecContext(ctx, query, ip, fileHash); err != nil {
		return fmt.Errorf("failed to save submission for %s: %w", ip, err)
	}
	return nil
}

// SaveEmail records the submitter email after a report has been delivered.
func (d *Database) SaveEmail(ctx context.Context, email, ip string) error {
	query := `INSERT INTO report_emails (email, ip) VALUES (?, ?)`

	if _, err := d.db.ExecContext(ctx, query, email, ip); err != nil {
		return fmt.Errorf("failed to save email %s: %w", email, err)
	}
	return nil
}
