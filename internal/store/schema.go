package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL,
    parse_errors         INTEGER NOT NULL DEFAULT 0,
    parsed_at            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trips (
    file_path            TEXT NOT NULL REFERENCES file_tracker(file_path) ON DELETE CASCADE,
    seq                  INTEGER NOT NULL,
    trip_id              TEXT NOT NULL,
    name                 TEXT,
    destination          TEXT,
    start_date           TEXT,
    end_date             TEXT,
    budget_total         REAL,
    budget_per_day       REAL,
    PRIMARY KEY (file_path, seq)
);

CREATE TABLE IF NOT EXISTS expenses (
    file_path            TEXT NOT NULL REFERENCES file_tracker(file_path) ON DELETE CASCADE,
    seq                  INTEGER NOT NULL,
    expense_id           TEXT,
    amount               REAL NOT NULL,
    occurred_at          TEXT,
    description          TEXT,
    category             TEXT,
    trip_id              TEXT,
    PRIMARY KEY (file_path, seq)
);

CREATE TABLE IF NOT EXISTS budgets (
    file_path            TEXT NOT NULL REFERENCES file_tracker(file_path) ON DELETE CASCADE,
    seq                  INTEGER NOT NULL,
    trip_id              TEXT NOT NULL,
    total_budget         REAL,
    days_remaining       INTEGER,
    days_total           INTEGER,
    PRIMARY KEY (file_path, seq)
);

CREATE TABLE IF NOT EXISTS deleted_trips (
    file_path            TEXT NOT NULL REFERENCES file_tracker(file_path) ON DELETE CASCADE,
    seq                  INTEGER NOT NULL,
    trip_id              TEXT NOT NULL,
    PRIMARY KEY (file_path, seq)
);

CREATE TABLE IF NOT EXISTS last_good_trips (
    seq                  INTEGER PRIMARY KEY,
    trip_id              TEXT NOT NULL,
    name                 TEXT,
    destination          TEXT,
    start_date           TEXT,
    end_date             TEXT,
    budget_total         REAL,
    budget_per_day       REAL,
    saved_at             TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_expenses_trip ON expenses(trip_id);
`
