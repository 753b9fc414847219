// Package database owns the MySQL connection and the startup schema
// migration.
package database

import (
	"context"
	"database/sql"
	"net"
	"net/url"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection with a ping.
// parseTime=true makes DATE and TIMESTAMP columns scan as time.Time;
// loc=UTC keeps every timestamp consistent across instances.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	dsn := user
	if pass != "" {
		dsn += ":" + pass
	}
	dsn += "@tcp(" + net.JoinHostPort(host, port) + ")/" + name +
		"?charset=utf8mb4&parseTime=true&loc=" + url.QueryEscape("UTC")

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool sizing for a single-node API in front of one MySQL instance.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
