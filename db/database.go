package db

import (
	"database/sql"
	"fmt"

	"soundbay/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
)

// Connect opens the relational store selected by cfg.DBDriver and verifies
// the connection. The returned handle is constructed once at startup and
// threaded through every component.
func Connect(cfg *config.Config) (*sql.DB, error) {
	var (
		conn *sql.DB
		err  error
	)

	switch cfg.DBDriver {
	case "sqlite":
		conn, err = sql.Open("sqlite3", cfg.SQLitePath)
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
		conn, err = sql.Open("mysql", dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.DBDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return conn, nil
}

// InitDB initializes the database schema, creating tables if they don't
// exist. Safe to run on every startup.
//
// songs.user_id and ratings.user_id/song_id deliberately carry no foreign
// key constraint: dangling references are tolerated, and adding one would
// make rating an unknown song start failing.
func InitDB(conn *sql.DB, driver string) error {
	for _, stmt := range schemaFor(driver) {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

func schemaFor(driver string) []string {
	if driver == "mysql" {
		return []string{
			`CREATE TABLE IF NOT EXISTS users (
				id INT AUTO_INCREMENT PRIMARY KEY,
				username VARCHAR(100) NOT NULL UNIQUE,
				password VARCHAR(255) NOT NULL,
				bio TEXT,
				avatar VARCHAR(255) NOT NULL DEFAULT ''
			);`,
			`CREATE TABLE IF NOT EXISTS songs (
				id INT AUTO_INCREMENT PRIMARY KEY,
				title VARCHAR(255) NOT NULL,
				filename VARCHAR(255) NOT NULL,
				cover VARCHAR(255) NOT NULL,
				user_id INT
			);`,
			`CREATE TABLE IF NOT EXISTS ratings (
				id INT AUTO_INCREMENT PRIMARY KEY,
				user_id INT,
				song_id INT,
				rating INT,
				comment TEXT
			);`,
		}
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			bio TEXT DEFAULT '',
			avatar TEXT DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS songs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			filename TEXT NOT NULL,
			cover TEXT NOT NULL,
			user_id INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS ratings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER,
			song_id INTEGER,
			rating INTEGER,
			comment TEXT
		);`,
	}
}
