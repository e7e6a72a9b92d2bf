package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/glbter/distributed-systems/portfolio-analytics/entities"
)

// ErrStore marks connectivity and query failures of the position store.
var ErrStore = errors.New("position store")

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DB is a pooled handle that knows the placeholder style of its driver.
type DB struct {
	*sql.DB
	driver string
}

func New(db *sql.DB, driver string) *DB {
	return &DB{DB: db, driver: driver}
}

// Open picks the driver from the DSN scheme: sqlite:// or file: for SQLite,
// anything else for PostgreSQL.
func Open(dsn string, pool PoolConfig) (*DB, error) {
	driver, source := DriverPostgres, dsn
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		driver, source = DriverSQLite, strings.TrimPrefix(dsn, "sqlite://")
	case strings.HasPrefix(dsn, "file:"):
		driver = DriverSQLite
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	return New(db, driver), nil
}

// rebind rewrites $N placeholders into SQLite's ?N form.
func (db *DB) rebind(query string) string {
	if db.driver != DriverSQLite {
		return query
	}
	return strings.ReplaceAll(query, "$", "?")
}

func (db *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.QueryContext(ctx, db.rebind(query), args...)
}

type PositionRepo struct {
	db     *DB
	logger *zap.Logger
}

func NewPositionRepo(db *DB, logger *zap.Logger) PositionRepo {
	return PositionRepo{
		db:     db,
		logger: logger.With(zap.String("caller", "PositionRepo")),
	}
}

const lotColumns = `id, "userId", ticker, quantity, "buyPrice", "buyDate", "sellPrice", "sellDate"`

func (r PositionRepo) LotsForUser(ctx context.Context, userID int64) ([]entities.Lot, error) {
	start := time.Now()
	lots, err := r.queryLots(ctx, `SELECT `+lotColumns+` FROM "Position" WHERE "userId" = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("lots for user %d: %w", userID, err)
	}
	r.logger.Debug("finish lots query",
		zap.Int64("userId", userID), zap.Int("count", len(lots)), zap.Duration("duration", time.Since(start)))

	return lots, nil
}

// ListLots returns the user's open or closed lots, most recently bought first.
func (r PositionRepo) ListLots(ctx context.Context, userID int64, status entities.LotStatus) ([]entities.Lot, error) {
	filter := `"sellDate" IS NULL`
	if status == entities.LotStatusClosed {
		filter = `"sellDate" IS NOT NULL`
	}

	query := `SELECT ` + lotColumns + ` FROM "Position" WHERE "userId" = $1 AND ` + filter + ` ORDER BY "buyDate" DESC`
	lots, err := r.queryLots(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s lots for user %d: %w", status, userID, err)
	}

	return lots, nil
}

// OpenTickersByUser returns the distinct tickers of every user's open lots.
func (r PositionRepo) OpenTickersByUser(ctx context.Context) (map[int64][]string, error) {
	rows, err := r.db.query(ctx,
		`SELECT DISTINCT "userId", ticker FROM "Position" WHERE "sellDate" IS NULL ORDER BY "userId", ticker`)
	if err != nil {
		return nil, fmt.Errorf("%w: open tickers: %w", ErrStore, err)
	}
	defer rows.Close()

	byUser := make(map[int64][]string)
	for rows.Next() {
		var (
			userID int64
			ticker string
		)
		if err := rows.Scan(&userID, &ticker); err != nil {
			return nil, fmt.Errorf("%w: scan open ticker: %w", ErrStore, err)
		}
		byUser[userID] = append(byUser[userID], ticker)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate open tickers: %w", ErrStore, err)
	}

	return byUser, nil
}

func (r PositionRepo) queryLots(ctx context.Context, query string, args ...any) ([]entities.Lot, error) {
	rows, err := r.db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", ErrStore, err)
	}
	defer rows.Close()

	lots := make([]entities.Lot, 0)
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate: %w", ErrStore, err)
	}

	return lots, nil
}

func scanLot(rows *sql.Rows) (entities.Lot, error) {
	var (
		lot       entities.Lot
		sellPrice sql.NullFloat64
		sellDate  sql.NullTime
	)
	if err := rows.Scan(
		&lot.ID,
		&lot.UserID,
		&lot.Ticker,
		&lot.Quantity,
		&lot.BuyPrice,
		&lot.BuyDate,
		&sellPrice,
		&sellDate,
	); err != nil {
		return entities.Lot{}, fmt.Errorf("%w: scan: %w", ErrStore, err)
	}

	var (
		price *float64
		date  *time.Time
	)
	if sellPrice.Valid {
		price = &sellPrice.Float64
	}
	if sellDate.Valid {
		date = &sellDate.Time
	}

	sale, err := entities.NewSale(price, date)
	if err != nil {
		return entities.Lot{}, fmt.Errorf("%w: lot %d: %w", ErrStore, lot.ID, err)
	}
	lot.Sale = sale

	return lot, nil
}
