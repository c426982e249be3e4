package sqlite

// Schema mirrors the postgres credit schema with SQLite types.
// Flags are JSON arrays; times are RFC 3339 text.
const Schema = `
CREATE TABLE IF NOT EXISTS statements (
	company_id   TEXT    NOT NULL,
	company_name TEXT    NOT NULL DEFAULT '',
	fiscal_year  INTEGER NOT NULL,
	quarter      INTEGER NOT NULL DEFAULT 0,
	items        TEXT    NOT NULL,
	reported_at  TEXT,
	PRIMARY KEY (company_id, fiscal_year, quarter)
);

CREATE TABLE IF NOT EXISTS disclosures (
	receipt_no  TEXT PRIMARY KEY,
	company_id  TEXT    NOT NULL,
	report_name TEXT    NOT NULL,
	filed_at    TEXT    NOT NULL,
	filed_year  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_disclosures_year ON disclosures(filed_year);

CREATE TABLE IF NOT EXISTS company_attributes (
	company_id                TEXT PRIMARY KEY,
	graph_id                  TEXT NOT NULL DEFAULT '',
	disclosure_corrections    REAL,
	auditor_changes           REAL,
	largest_shareholder_stake REAL
);

CREATE TABLE IF NOT EXISTS graph_edges (
	src_graph_id TEXT NOT NULL,
	dst_graph_id TEXT NOT NULL,
	edge_type    TEXT NOT NULL,
	PRIMARY KEY (src_graph_id, dst_graph_id, edge_type)
);
CREATE INDEX IF NOT EXISTS idx_graph_edges_dst ON graph_edges(dst_graph_id);

CREATE TABLE IF NOT EXISTS ratio_records (
	company_id            TEXT    NOT NULL,
	fiscal_year           INTEGER NOT NULL,
	quarter               INTEGER NOT NULL DEFAULT 0,
	ratios                TEXT    NOT NULL,
	category_scores       TEXT    NOT NULL,
	health_score          REAL,
	health_grade          TEXT    NOT NULL DEFAULT '',
	risk_level            TEXT    NOT NULL DEFAULT '',
	completeness          REAL    NOT NULL,
	growth_data_available INTEGER NOT NULL,
	computed_at           TEXT    NOT NULL,
	PRIMARY KEY (company_id, fiscal_year, quarter)
);

CREATE TABLE IF NOT EXISTS composite_scores (
	company_id              TEXT    NOT NULL,
	fiscal_year             INTEGER NOT NULL,
	company_name            TEXT    NOT NULL DEFAULT '',
	cei                     REAL,
	cgi                     REAL,
	rii                     REAL,
	mai                     REAL,
	composite_score         REAL,
	grade                   TEXT    NOT NULL DEFAULT '',
	scenario_name           TEXT    NOT NULL,
	scenario_version        INTEGER NOT NULL,
	investment_gap          REAL,
	idle_cash_ratio         REAL,
	reinvestment_rate       REAL,
	prior_reinvestment_rate REAL,
	shareholder_return      REAL,
	red_flags               TEXT    NOT NULL DEFAULT '[]',
	yellow_flags            TEXT    NOT NULL DEFAULT '[]',
	verdict                 TEXT    NOT NULL DEFAULT '',
	recommendation          TEXT    NOT NULL DEFAULT '',
	watch_trigger           TEXT    NOT NULL DEFAULT '',
	network_risk_score      REAL    NOT NULL DEFAULT 0,
	network_risk_level      TEXT    NOT NULL DEFAULT '',
	completeness            REAL    NOT NULL,
	computed_at             TEXT    NOT NULL,
	PRIMARY KEY (company_id, fiscal_year)
);

CREATE TABLE IF NOT EXISTS composite_score_backups (
	backup_id    TEXT    NOT NULL,
	company_id   TEXT    NOT NULL,
	fiscal_year  INTEGER NOT NULL,
	payload      TEXT    NOT NULL,
	backed_up_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (backup_id, company_id, fiscal_year)
);

CREATE TABLE IF NOT EXISTS failure_labels (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	company_id   TEXT NOT NULL,
	failure_type TEXT NOT NULL,
	evidence     TEXT NOT NULL,
	confidence   REAL NOT NULL CHECK (confidence BETWEEN 0 AND 1),
	label_date   TEXT NOT NULL,
	source       TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	UNIQUE (company_id, failure_type, label_date, evidence)
);

CREATE TABLE IF NOT EXISTS scenario_fingerprints (
	name          TEXT    NOT NULL,
	version       INTEGER NOT NULL,
	hash          TEXT    NOT NULL,
	referenced_at TEXT,
	created_at    TEXT    NOT NULL,
	PRIMARY KEY (name, version)
);
`
