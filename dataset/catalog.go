package dataset

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS capture_runs (
	run_id TEXT PRIMARY KEY,
	started_unix INTEGER NOT NULL,
	finished_unix INTEGER,
	data_dir TEXT NOT NULL,
	samples INTEGER NOT NULL,
	image_size INTEGER NOT NULL,
	field_of_view REAL NOT NULL,
	focal REAL NOT NULL,
	camera_distance REAL NOT NULL,
	objects_captured INTEGER,
	error TEXT
);
CREATE TABLE IF NOT EXISTS capture_objects (
	run_id TEXT NOT NULL REFERENCES capture_runs(run_id),
	position INTEGER NOT NULL,
	object_id TEXT NOT NULL,
	status TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	samples INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (run_id, position)
);
`

// A Catalog keeps a SQLite record of capture runs and the
// outcome of every object in them, including skip reasons.
type Catalog struct {
	db    *sql.DB
	runID string
}

// OpenCatalog opens or creates a catalog database.
func OpenCatalog(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(catalogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create catalog schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// BeginRun starts a new run and returns its identifier.
// Subsequent records are attached to this run.
func (c *Catalog) BeginRun(cfg *Config, focal float64) (string, error) {
	runID := uuid.NewString()
	_, err := c.db.Exec(`INSERT INTO capture_runs (run_id, started_unix, data_dir, samples,
		image_size, field_of_view, focal, camera_distance) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, time.Now().Unix(), cfg.DataDir, cfg.Samples, cfg.ImageSize, cfg.FieldOfView,
		focal, cfg.CameraDistance)
	if err != nil {
		return "", err
	}
	c.runID = runID
	return runID, nil
}

// RecordObject stores the outcome of an object in the
// current run.
func (c *Catalog) RecordObject(rec *ObjectRecord) error {
	if c.runID == "" {
		return errors.New("catalog: no run in progress")
	}
	_, err := c.db.Exec(`INSERT INTO capture_objects (run_id, position, object_id, status,
		reason, samples) VALUES (?, ?, ?, ?, ?, ?)`,
		c.runID, rec.Position, rec.ID, rec.Status, rec.Reason, rec.Samples)
	return err
}

// FinishRun marks the current run as complete.
func (c *Catalog) FinishRun(captured int) error {
	if c.runID == "" {
		return errors.New("catalog: no run in progress")
	}
	_, err := c.db.Exec(`UPDATE capture_runs SET finished_unix = ?, objects_captured = ?
		WHERE run_id = ?`, time.Now().Unix(), captured, c.runID)
	if err != nil {
		return err
	}
	c.runID = ""
	return nil
}

// FailRun marks the current run as finished with an error.
func (c *Catalog) FailRun(runErr error) error {
	if c.runID == "" {
		return errors.New("catalog: no run in progress")
	}
	_, err := c.db.Exec(`UPDATE capture_runs SET finished_unix = ?, error = ? WHERE run_id = ?`,
		time.Now().Unix(), runErr.Error(), c.runID)
	if err != nil {
		return err
	}
	c.runID = ""
	return nil
}

// RunError gets the error a run failed with, or an empty
// string if it has not failed.
func (c *Catalog) RunError(runID string) (string, error) {
	var msg sql.NullString
	err := c.db.QueryRow(`SELECT error FROM capture_runs WHERE run_id = ?`, runID).Scan(&msg)
	if err != nil {
		return "", err
	}
	return msg.String, nil
}

// Objects lists the recorded outcomes of a run, in corpus
// order.
func (c *Catalog) Objects(runID string) ([]*ObjectRecord, error) {
	rows, err := c.db.Query(`SELECT position, object_id, status, reason, samples
		FROM capture_objects WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*ObjectRecord
	for rows.Next() {
		rec := &ObjectRecord{}
		if err := rows.Scan(&rec.Position, &rec.ID, &rec.Status, &rec.Reason, &rec.Samples); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// Finished reports whether a run was completed.
func (c *Catalog) Finished(runID string) (bool, error) {
	var finished sql.NullInt64
	err := c.db.QueryRow(`SELECT finished_unix FROM capture_runs WHERE run_id = ?`,
		runID).Scan(&finished)
	if err != nil {
		return false, err
	}
	return finished.Valid, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}
