package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morpheusmaps/backend/internal/domain"
)

// schema is applied at startup; every statement is idempotent
const schema = `
	CREATE TABLE IF NOT EXISTS analysis_logs (
		id           TEXT PRIMARY KEY,
		origin       TEXT NOT NULL,
		destination  TEXT NOT NULL,
		safe_route   BOOLEAN NOT NULL,
		average_risk DOUBLE PRECISION NOT NULL,
		candidates   INTEGER NOT NULL,
		is_fallback  BOOLEAN NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS user_reports (
		seq         BIGSERIAL PRIMARY KEY,
		id          TEXT UNIQUE NOT NULL,
		lat         DOUBLE PRECISION NOT NULL,
		lng         DOUBLE PRECISION NOT NULL,
		risk_level  TEXT NOT NULL,
		description TEXT NOT NULL,
		report_type TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS user_reports_lat_lng ON user_reports (lat, lng);
	CREATE TABLE IF NOT EXISTS emergency_logs (
		seq        BIGSERIAL PRIMARY KEY,
		id         TEXT UNIQUE NOT NULL,
		action     TEXT NOT NULL,
		lat        DOUBLE PRECISION,
		lng        DOUBLE PRECISION,
		message    TEXT NOT NULL DEFAULT '',
		data       JSONB,
		session_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
`

// PostgresRepository implements domain.DataRepository
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates the tables when they do not exist
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: failed to apply schema: %w", err)
	}
	return nil
}

// SaveAnalysisLog persists the outcome of a route analysis
func (r *PostgresRepository) SaveAnalysisLog(ctx context.Context, entry domain.AnalysisLog) error {
	query := `
		INSERT INTO analysis_logs (
			id, origin, destination, safe_route, average_risk,
			candidates, is_fallback, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		entry.ID, entry.Origin, entry.Destination, entry.SafeRoute, entry.AverageRisk,
		entry.Candidates, entry.IsFallback, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save analysis log: %w", err)
	}

	return nil
}

// SaveReport persists a user report
func (r *PostgresRepository) SaveReport(ctx context.Context, report domain.UserReport) error {
	query := `
		INSERT INTO user_reports (
			id, lat, lng, risk_level, description, report_type, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		report.ID, report.Location.Lat, report.Location.Lng, report.RiskLevel,
		report.Description, report.ReportType, report.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save report: %w", err)
	}

	return nil
}

// ListReports returns reports in submission order
func (r *PostgresRepository) ListReports(ctx context.Context, limit, offset int) ([]domain.UserReport, error) {
	query := `
		SELECT id, lat, lng, risk_level, description, report_type, created_at
		FROM user_reports
		ORDER BY seq
		LIMIT $1 OFFSET $2
	`

	return r.queryReports(ctx, query, limit, offset)
}

// ReportsWithin returns reports inside the bounding box
func (r *PostgresRepository) ReportsWithin(ctx context.Context, min, max domain.Coordinate) ([]domain.UserReport, error) {
	query := `
		SELECT id, lat, lng, risk_level, description, report_type, created_at
		FROM user_reports
		WHERE lat BETWEEN $1 AND $2 AND lng BETWEEN $3 AND $4
	`

	return r.queryReports(ctx, query, min.Lat, max.Lat, min.Lng, max.Lng)
}

func (r *PostgresRepository) queryReports(ctx context.Context, query string, args ...interface{}) ([]domain.UserReport, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query reports: %w", err)
	}
	defer rows.Close()

	results := []domain.UserReport{}
	for rows.Next() {
		var rep domain.UserReport
		err := rows.Scan(
			&rep.ID, &rep.Location.Lat, &rep.Location.Lng, &rep.RiskLevel,
			&rep.Description, &rep.ReportType, &rep.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan report row: %w", err)
		}
		results = append(results, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read reports: %w", err)
	}

	return results, nil
}

// AppendEmergencyLog inserts the entry and trims the table to the newest
// capacity rows in one transaction
func (r *PostgresRepository) AppendEmergencyLog(ctx context.Context, entry domain.EmergencyLog, capacity int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Nullable coordinate columns
	var lat, lng interface{}
	if entry.Location != nil {
		lat, lng = entry.Location.Lat, entry.Location.Lng
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO emergency_logs (
			id, action, lat, lng, message, data, session_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		entry.ID, entry.Action, lat, lng, entry.Message, entry.Data, entry.SessionID, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save emergency log: %w", err)
	}

	if capacity > 0 {
		_, err = tx.Exec(ctx, `
			DELETE FROM emergency_logs
			WHERE seq NOT IN (SELECT seq FROM emergency_logs ORDER BY seq DESC LIMIT $1)
		`, capacity)
		if err != nil {
			return fmt.Errorf("postgres: failed to trim emergency logs: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: failed to commit emergency log: %w", err)
	}
	return nil
}

// ListEmergencyLogs returns the retained entries oldest first
func (r *PostgresRepository) ListEmergencyLogs(ctx context.Context) ([]domain.EmergencyLog, error) {
	query := `
		SELECT id, action, lat, lng, message, data, session_id, created_at
		FROM emergency_logs
		ORDER BY seq
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query emergency logs: %w", err)
	}
	defer rows.Close()

	results := []domain.EmergencyLog{}
	for rows.Next() {
		var (
			e        domain.EmergencyLog
			lat, lng *float64
		)
		if err := rows.Scan(&e.ID, &e.Action, &lat, &lng, &e.Message, &e.Data, &e.SessionID, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan emergency log row: %w", err)
		}
		if lat != nil && lng != nil {
			e.Location = &domain.Coordinate{Lat: *lat, Lng: *lng}
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read emergency logs: %w", err)
	}

	return results, nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}
