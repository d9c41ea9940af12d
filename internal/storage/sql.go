package storage

const initSchemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    sample_name        TEXT     NOT NULL,
    real_volume        REAL     NOT NULL,
    nominal_volume     REAL     NOT NULL,
    order_of_magnitude REAL     NOT NULL,
    config             TEXT
);

CREATE TABLE IF NOT EXISTS cycles (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id       INTEGER NOT NULL REFERENCES sessions (id),
    target_temp      INTEGER NOT NULL,
    alteration_index REAL
);

CREATE TABLE IF NOT EXISTS points (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    cycle_id       INTEGER NOT NULL REFERENCES cycles (id),
    phase          TEXT    NOT NULL CHECK (phase IN ('heating', 'cooling')),
    seq            INTEGER NOT NULL,
    temperature    REAL    NOT NULL,
    susceptibility REAL    NOT NULL
);

CREATE TABLE IF NOT EXISTS estimates (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    cycle_id   INTEGER NOT NULL REFERENCES cycles (id),
    method     TEXT    NOT NULL,
    curie_temp REAL    NOT NULL,
    r_squared  REAL,
    min_temp   REAL    NOT NULL,
    max_temp   REAL    NOT NULL
);`

const initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_cycles_session ON cycles (session_id);
CREATE INDEX IF NOT EXISTS idx_points_cycle ON points (cycle_id, phase, seq);
CREATE INDEX IF NOT EXISTS idx_estimates_cycle ON estimates (cycle_id);`

const (
	insertSessionSQL = `
INSERT INTO sessions (sample_name,
                      real_volume,
                      nominal_volume,
                      order_of_magnitude,
                      config)
VALUES (?, ?, ?, ?, ?)`

	selectSessionSQL = `
SELECT id,
       created_at,
       sample_name,
       real_volume,
       nominal_volume,
       order_of_magnitude,
       config
FROM sessions
WHERE id = ?`

	selectSessionsSQL = `
SELECT id,
       created_at,
       sample_name,
       real_volume,
       nominal_volume,
       order_of_magnitude,
       config
FROM sessions
ORDER BY created_at`

	insertCycleSQL = `
INSERT INTO cycles (session_id,
                    target_temp,
                    alteration_index)
VALUES (?, ?, ?)`

	insertPointSQL = `
INSERT INTO points (cycle_id,
                    phase,
                    seq,
                    temperature,
                    susceptibility)
VALUES `

	insertEstimateSQL = `
INSERT INTO estimates (cycle_id,
                       method,
                       curie_temp,
                       r_squared,
                       min_temp,
                       max_temp)
VALUES (?, ?, ?, ?, ?, ?)`

	selectEstimatesSQL = `
SELECT e.id,
       e.cycle_id,
       c.target_temp,
       e.method,
       e.curie_temp,
       e.r_squared,
       e.min_temp,
       e.max_temp
FROM estimates e
         JOIN cycles c ON c.id = e.cycle_id
WHERE c.session_id = ?
ORDER BY c.target_temp, e.method`

	selectCyclePointsSQL = `
SELECT temperature,
       susceptibility
FROM points
WHERE cycle_id = ?
  AND phase = ?
ORDER BY seq`
)
