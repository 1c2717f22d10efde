package history

import "fmt"

const currentSchemaVersion = 1

// Migrate brings the schema up to date.
func (db *DB) Migrate() error {
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version := 0
	row := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		version = 0
	}

	if version < 1 {
		if err := db.migrateV1(); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}
	return nil
}

func (db *DB) migrateV1() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS rides (
			id                    INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id            TEXT NOT NULL,
			source                TEXT NOT NULL,
			loaded_at             TEXT NOT NULL,
			data_points           INTEGER NOT NULL,
			distance_m            REAL NOT NULL,
			duration_s            REAL NOT NULL,
			avg_speed_mps         REAL NOT NULL,
			avg_power             REAL NOT NULL,
			avg_heart_rate        REAL NOT NULL,
			training_stress_score REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rides_loaded_at ON rides(loaded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_rides_session ON rides(session_id)`,
		`DELETE FROM schema_version`,
		fmt.Sprintf(`INSERT INTO schema_version (version) VALUES (%d)`, currentSchemaVersion),
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
