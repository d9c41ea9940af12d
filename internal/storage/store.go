// Package storage persists thermomagnetic analysis results to SQLite:
// sessions, per-cycle corrected curves, and Curie temperature estimates.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/geomagtools/thermomag/internal/curve"
	"github.com/geomagtools/thermomag/internal/magsus"
)

// Store handles database operations. Write and read connections are opened
// lazily; the schema is initialised on first write.
type Store struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// New creates a store backed by the SQLite database at dbPath. The file is
// created on first write.
func New(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *Store) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *Store) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// CreateSession records a new analysis session and returns its ID. The
// optional config may be a string, []byte, or any JSON-serializable value.
func (s *Store) CreateSession(ctx context.Context, sampleName string, realVol, nomVol, oom float64, config any) (sessionID int64, err error) {
	var configData sql.NullString

	switch v := config.(type) {
	case nil:
	case string:
		configData.Valid = true
		configData.String = v

	case []byte:
		configData.Valid = true
		configData.String = string(v)

	default:
		var p []byte
		if p, err = json.Marshal(config); err != nil {
			err = fmt.Errorf("marshaling config: %w", err)
			return
		}

		configData.Valid = true
		configData.String = string(p)
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, sampleName, realVol, nomVol, oom, configData)
	if err != nil {
		err = fmt.Errorf("inserting session: %w", err)
		return
	}

	sessionID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting session ID: %w", err)
	}
	return
}

// Session retrieves one stored session by ID.
func (s *Store) Session(ctx context.Context, id int64) (session *Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	var sess Session
	var config sql.NullString
	if err = stmt.QueryRowContext(ctx, id).Scan(&sess.ID, &sess.CreatedAt, &sess.SampleName,
		&sess.RealVolume, &sess.NominalVolume, &sess.OrderOfMagnitude, &config); err != nil {
		err = fmt.Errorf("scanning session: %w", err)
		return
	}
	if config.Valid {
		sess.Config = &config.String
	}

	return &sess, nil
}

// Sessions returns all stored sessions, oldest first.
func (s *Store) Sessions(ctx context.Context) (sessions []*Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		err = fmt.Errorf("querying sessions: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var sess Session
		var config sql.NullString
		if err = rows.Scan(&sess.ID, &sess.CreatedAt, &sess.SampleName,
			&sess.RealVolume, &sess.NominalVolume, &sess.OrderOfMagnitude, &config); err != nil {
			err = fmt.Errorf("scanning session: %w", err)
			return
		}
		if config.Valid {
			sess.Config = &config.String
		}
		sessions = append(sessions, &sess)
	}
	return sessions, rows.Err()
}

// StoreCycle saves a measurement cycle's corrected curves under a session.
// Both curves are inserted in a single transaction, heating then cooling,
// in stored (increasing temperature) order.
func (s *Store) StoreCycle(ctx context.Context, sessionID int64, cycle *magsus.MeasurementCycle) (cycleID int64, err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return 0, fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	var alteration sql.NullFloat64
	if ai := cycle.AlterationIndex(); !math.IsNaN(ai) {
		alteration.Valid = true
		alteration.Float64 = ai
	}

	result, err := tx.ExecContext(ctx, insertCycleSQL, sessionID, cycle.TargetTemp, alteration)
	if err != nil {
		return 0, fmt.Errorf("inserting cycle: %w", err)
	}
	if cycleID, err = result.LastInsertId(); err != nil {
		return 0, fmt.Errorf("getting cycle ID: %w", err)
	}

	phases := []struct {
		name string
		c    curve.Curve
	}{
		{"heating", cycle.Heating},
		{"cooling", cycle.Cooling},
	}
	for _, p := range phases {
		if err = insertPoints(ctx, tx, cycleID, p.name, p.c); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return cycleID, nil
}

func insertPoints(ctx context.Context, tx *sql.Tx, cycleID int64, phase string, c curve.Curve) error {
	if c.Len() == 0 {
		return nil
	}

	values := make([]interface{}, 0, c.Len()*5)

	var sb strings.Builder
	sb.WriteString(insertPointSQL)

	for i := range c.Temps {
		values = append(values, cycleID, phase, i, c.Temps[i], c.Values[i])

		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?)")
	}

	if _, err := tx.ExecContext(ctx, sb.String(), values...); err != nil {
		return fmt.Errorf("batch inserting %s points: %w", phase, err)
	}
	return nil
}

// StoreEstimate records one Curie temperature estimate for a stored cycle.
func (s *Store) StoreEstimate(ctx context.Context, cycleID int64, method string, curieTemp float64, rSquared *float64, minTemp, maxTemp float64) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	var rsq sql.NullFloat64
	if rSquared != nil {
		rsq.Valid = true
		rsq.Float64 = *rSquared
	}

	stmt, err := db.PrepareContext(ctx, insertEstimateSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	if _, err = stmt.ExecContext(ctx, cycleID, method, curieTemp, rsq, minTemp, maxTemp); err != nil {
		return fmt.Errorf("inserting estimate: %w", err)
	}
	return nil
}

// Estimates returns all Curie estimates stored under a session, ordered by
// target temperature then method.
func (s *Store) Estimates(ctx context.Context, sessionID int64) (estimates []*Estimate, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectEstimatesSQL, sessionID)
	if err != nil {
		err = fmt.Errorf("querying estimates: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var est Estimate
		var rsq sql.NullFloat64
		if err = rows.Scan(&est.ID, &est.CycleID, &est.TargetTemp, &est.Method,
			&est.CurieTemp, &rsq, &est.MinTemp, &est.MaxTemp); err != nil {
			err = fmt.Errorf("scanning estimate: %w", err)
			return
		}
		if rsq.Valid {
			est.RSquared = &rsq.Float64
		}
		estimates = append(estimates, &est)
	}
	return estimates, rows.Err()
}

// CyclePoints returns one stored curve of a cycle, in stored order. The
// phase is "heating" or "cooling".
func (s *Store) CyclePoints(ctx context.Context, cycleID int64, phase string) (c curve.Curve, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectCyclePointsSQL, cycleID, phase)
	if err != nil {
		err = fmt.Errorf("querying points: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var temp, ms float64
		if err = rows.Scan(&temp, &ms); err != nil {
			err = fmt.Errorf("scanning point: %w", err)
			return
		}
		c.Temps = append(c.Temps, temp)
		c.Values = append(c.Values, ms)
	}
	return c, rows.Err()
}

// Close releases all database connections. It is safe to call more than
// once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		switch {
		case writeErr != nil && readErr != nil:
			s.closeErr = errors.Join(writeErr, readErr)
		case writeErr != nil:
			s.closeErr = writeErr
		case readErr != nil:
			s.closeErr = readErr
		}
	})

	return s.closeErr
}
