package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotConnected is returned by pool helpers before Connect succeeds.
var ErrNotConnected = errors.New("database not connected")

const (
	applicationName   = "grocery-service"
	healthCheckPeriod = time.Minute
	pingTimeout       = 2 * time.Second
)

var (
	shared    atomic.Pointer[pgxpool.Pool]
	connectMu sync.Mutex
)

// PoolOptions sizes the connection pool. Zero values keep pgx defaults.
type PoolOptions struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// apply copies the options onto a parsed pool config. MinConns is capped at
// MaxConns.
func (o PoolOptions) apply(cfg *pgxpool.Config) {
	if o.MaxConns > 0 {
		cfg.MaxConns = int32(o.MaxConns)
	}
	if o.MinConns > 0 {
		cfg.MinConns = int32(min(o.MinConns, int(cfg.MaxConns)))
	}
	if o.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = o.MaxConnLifetime
	}
	if o.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = o.MaxConnIdleTime
	}
	cfg.HealthCheckPeriod = healthCheckPeriod
	cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
}

// Connect opens the process-wide pool and verifies it with a ping. It is a
// no-op when a pool is already open.
func Connect(ctx context.Context, connString string, opts PoolOptions) error {
	connectMu.Lock()
	defer connectMu.Unlock()

	if shared.Load() != nil {
		return nil
	}

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return fmt.Errorf("failed to parse database url: %w", err)
	}
	opts.apply(cfg)

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return fmt.Errorf("failed to reach database: %w", err)
	}

	shared.Store(p)
	return nil
}

// Close shuts the pool down. Connect may be called again afterwards.
func Close() {
	connectMu.Lock()
	defer connectMu.Unlock()

	if p := shared.Swap(nil); p != nil {
		p.Close()
	}
}

// Pool returns the open pool or nil.
func Pool() *pgxpool.Pool {
	return shared.Load()
}

// PoolHealth is a point-in-time view of the pool.
type PoolHealth struct {
	TotalConns    int32
	IdleConns     int32
	AcquiredConns int32
	MaxConns      int32
}

// Health pings the database with a short timeout and reports pool usage.
func Health(ctx context.Context) (PoolHealth, error) {
	p := shared.Load()
	if p == nil {
		return PoolHealth{}, ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return PoolHealth{}, fmt.Errorf("ping: %w", err)
	}

	stat := p.Stat()
	return PoolHealth{
		TotalConns:    stat.TotalConns(),
		IdleConns:     stat.IdleConns(),
		AcquiredConns: stat.AcquiredConns(),
		MaxConns:      stat.MaxConns(),
	}, nil
}
