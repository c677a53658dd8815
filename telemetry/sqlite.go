package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// schemaV1 stores runs, their step series and optional per-agent rows.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    seed INTEGER NOT NULL,
    started_at TEXT NOT NULL,
    config TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS steps (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    step INTEGER NOT NULL,
    habitability REAL NOT NULL,
    population INTEGER NOT NULL,
    gestating INTEGER NOT NULL,
    avg_fitness REAL NOT NULL,
    fitness_std REAL NOT NULL,
    fitness_p10 REAL NOT NULL,
    fitness_p50 REAL NOT NULL,
    fitness_p90 REAL NOT NULL,
    avg_fitness_none REAL NOT NULL,
    avg_fitness_choosy REAL NOT NULL,
    energy_mean REAL NOT NULL,
    carrier_none INTEGER NOT NULL,
    carrier_choosy INTEGER NOT NULL,
    giver_none INTEGER NOT NULL,
    giver_choosy INTEGER NOT NULL,
    births_carrier_none INTEGER NOT NULL,
    births_carrier_choosy INTEGER NOT NULL,
    births_giver_none INTEGER NOT NULL,
    births_giver_choosy INTEGER NOT NULL,
    deaths_carrier_none INTEGER NOT NULL,
    deaths_carrier_choosy INTEGER NOT NULL,
    deaths_giver_none INTEGER NOT NULL,
    deaths_giver_choosy INTEGER NOT NULL,
    mutations INTEGER NOT NULL,
    mean_lifespan REAL NOT NULL,
    max_children INTEGER NOT NULL,
    PRIMARY KEY (run_id, step)
);

CREATE TABLE IF NOT EXISTS agents (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    step INTEGER NOT NULL,
    agent_id INTEGER NOT NULL,
    role TEXT NOT NULL,
    strategy TEXT NOT NULL,
    x INTEGER NOT NULL,
    y INTEGER NOT NULL,
    energy REAL NOT NULL,
    fitness REAL NOT NULL,
    lifetime INTEGER NOT NULL,
    adult INTEGER NOT NULL,
    carrying INTEGER NOT NULL,
    PRIMARY KEY (run_id, step, agent_id)
);
`

const stepColumns = `run_id, step, habitability, population, gestating,
    avg_fitness, fitness_std, fitness_p10, fitness_p50, fitness_p90,
    avg_fitness_none, avg_fitness_choosy, energy_mean,
    carrier_none, carrier_choosy, giver_none, giver_choosy,
    births_carrier_none, births_carrier_choosy, births_giver_none, births_giver_choosy,
    deaths_carrier_none, deaths_carrier_choosy, deaths_giver_none, deaths_giver_choosy,
    mutations, mean_lifespan, max_children`

// InitSchema creates the tables if they do not exist.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// RunInfo describes one stored run.
type RunInfo struct {
	ID        string
	Seed      uint64
	StartedAt time.Time
	Config    string
}

// SQLiteSink stores a run in a SQLite database. It implements Sink.
type SQLiteSink struct {
	db    *sql.DB
	ctx   context.Context
	runID string
}

// OpenSQLite opens (or creates) the database at path and registers a run.
// configYAML is stored alongside the run for reproduction.
func OpenSQLite(ctx context.Context, path, runID string, seed uint64, configYAML []byte) (*SQLiteSink, error) {
	db, err := OpenDB(ctx, path)
	if err != nil {
		return nil, err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO runs (id, seed, started_at, config) VALUES (?, ?, ?, ?)`,
		runID, int64(seed), time.Now().UTC().Format(time.RFC3339), string(configYAML))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("registering run: %w", err)
	}

	return &SQLiteSink{db: db, ctx: ctx, runID: runID}, nil
}

// OpenDB opens the database at path and ensures the schema exists.
func OpenDB(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// RunID returns the identifier of the run being written.
func (s *SQLiteSink) RunID() string {
	return s.runID
}

// WriteStep inserts one step row.
func (s *SQLiteSink) WriteStep(st StepStats) error {
	_, err := s.db.ExecContext(s.ctx,
		`INSERT INTO steps (`+stepColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID, st.Step, st.Habitability, st.Population, st.Gestating,
		st.AvgFitness, st.FitnessStd, st.FitnessP10, st.FitnessP50, st.FitnessP90,
		st.AvgFitnessNone, st.AvgFitnessChoosy, st.EnergyMean,
		st.CarrierNone, st.CarrierChoosy, st.GiverNone, st.GiverChoosy,
		st.BirthsCarrierNone, st.BirthsCarrierChoosy, st.BirthsGiverNone, st.BirthsGiverChoosy,
		st.DeathsCarrierNone, st.DeathsCarrierChoosy, st.DeathsGiverNone, st.DeathsGiverChoosy,
		st.Mutations, st.MeanLifespan, st.MaxChildren,
	)
	if err != nil {
		return fmt.Errorf("inserting step %d: %w", st.Step, err)
	}
	return nil
}

// WriteAgents inserts per-agent rows in one transaction.
func (s *SQLiteSink) WriteAgents(rows []AgentRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(s.ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning agent batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(s.ctx, `
		INSERT INTO agents (run_id, step, agent_id, role, strategy, x, y, energy, fitness, lifetime, adult, carrying)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing agent insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(s.ctx, s.runID, r.Step, r.ID, r.Role, r.Strategy, r.X, r.Y,
			r.Energy, r.Fitness, r.Lifetime, r.Adult, r.Carrying); err != nil {
			return fmt.Errorf("inserting agent %d at step %d: %w", r.ID, r.Step, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing agent batch: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// ListRuns returns every stored run, oldest first.
func ListRuns(ctx context.Context, db *sql.DB) ([]RunInfo, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, seed, started_at, config FROM runs ORDER BY started_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var (
			info    RunInfo
			seed    int64
			started string
		)
		if err := rows.Scan(&info.ID, &seed, &started, &info.Config); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		info.Seed = uint64(seed)
		info.StartedAt, _ = time.Parse(time.RFC3339, started)
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// LoadSteps returns the step series of a stored run in step order.
func LoadSteps(ctx context.Context, db *sql.DB, runID string) ([]StepStats, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+stepColumns+` FROM steps WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying steps: %w", err)
	}
	defer rows.Close()

	var steps []StepStats
	for rows.Next() {
		var (
			st  StepStats
			run string
		)
		err := rows.Scan(&run, &st.Step, &st.Habitability, &st.Population, &st.Gestating,
			&st.AvgFitness, &st.FitnessStd, &st.FitnessP10, &st.FitnessP50, &st.FitnessP90,
			&st.AvgFitnessNone, &st.AvgFitnessChoosy, &st.EnergyMean,
			&st.CarrierNone, &st.CarrierChoosy, &st.GiverNone, &st.GiverChoosy,
			&st.BirthsCarrierNone, &st.BirthsCarrierChoosy, &st.BirthsGiverNone, &st.BirthsGiverChoosy,
			&st.DeathsCarrierNone, &st.DeathsCarrierChoosy, &st.DeathsGiverNone, &st.DeathsGiverChoosy,
			&st.Mutations, &st.MeanLifespan, &st.MaxChildren)
		if err != nil {
			return nil, fmt.Errorf("scanning step: %w", err)
		}
		steps = append(steps, st)
	}
	return steps, rows.Err()
}
