package store

import (
	"context"
	"database/sql"
	"log"

	_ "github.com/lib/pq" // Postgres driver
	"github.com/redis/go-redis/v9"
)

// DB is the process-wide connection pool, set once by InitDB (or by tests).
var DB *sql.DB

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'user',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS tasks (
    id SERIAL PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT,
    status TEXT NOT NULL DEFAULT 'todo',
    priority TEXT NOT NULL DEFAULT 'medium',
    due_date TIMESTAMPTZ,
    user_id INTEGER NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ,
    FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
);`

// InitDB opens the Postgres pool and bootstraps the schema. An unreachable
// database is fatal; a failed CREATE TABLE is only logged, so the process
// still serves when the tables already exist but the role lacks DDL rights.
func InitDB(dbSource string) *sql.DB {
	db, err := sql.Open("postgres", dbSource)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to the database: %v", err)
	}

	if err = db.Ping(); err != nil {
		log.Fatalf("FATAL: Could not ping the database: %v", err)
	}

	if _, err = db.Exec(schemaSQL); err != nil {
		log.Printf("WARN: Could not create tables: %v", err)
	} else {
		log.Println("Database connection successful and tables created.")
	}

	DB = db
	return db
}

// InitRedis connects the cache client. An empty address disables caching;
// a configured address that cannot be reached is fatal.
func InitRedis(redisAddr string) *redis.Client {
	if redisAddr == "" {
		log.Println("REDIS_ADDR not set, task caching disabled")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("FATAL: Could not connect to Redis: %v for %s", err, redisAddr)
	}
	log.Println("Redis connection successful.")

	return rdb
}
