// Package relational implements the sqlite-backed storage backend
// from spec.md §4.3: a schema with foreign keys and indices enforcing
// referential integrity at the database level, grounded on
// theRebelliousNerd-codenerd's internal/northstar/store.go DSN and
// initSchema conventions.
package relational

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/unet-io/unet/pkg/errcode"
)

// execer is satisfied by both *sql.DB and *sql.Tx, letting every CRUD
// method route through whichever one is active without branching.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the relational backend. It implements pkg/storage.Store.
//
// Only one transaction runs at a time: BeginTransaction holds txMu
// until Commit or Rollback, so CRUD methods called during a
// transaction route to currentTx instead of db.
type Store struct {
	db     *sql.DB
	dbPath string

	txMu      sync.Mutex
	currentTx *sql.Tx
}

// conn returns the executor CRUD methods should use: the active
// transaction if one has been started on this store, otherwise db.
func (s *Store) conn() execer {
	if s.currentTx != nil {
		return s.currentTx
	}
	return s.db
}

// Open creates or opens the sqlite database at path, enabling WAL mode
// and foreign key enforcement, and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errcode.ConnectionError{Message: "cannot create database directory: " + err.Error()}
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, errcode.ConnectionError{Message: "failed to open database: " + err.Error()}
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Name() string { return "relational" }

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errcode.ConnectionError{Message: "database unreachable: " + err.Error()}
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// initSchema creates every table and index the backend needs,
// including the configuration-change and template tables this backend
// alone carries (spec.md's domain-stack expansion), with ON DELETE
// CASCADE enforced here rather than in the tabular backend.
func (s *Store) initSchema() error {
	schema := `
	PRAGMA foreign_keys = ON;

	CREATE TABLE IF NOT EXISTS locations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		location_type TEXT NOT NULL,
		parent_id TEXT REFERENCES locations(id) ON DELETE RESTRICT,
		path TEXT NOT NULL,
		description TEXT,
		address TEXT,
		custom_data_json TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_locations_parent ON locations(parent_id);
	CREATE INDEX IF NOT EXISTS idx_locations_path ON locations(path);

	CREATE TABLE IF NOT EXISTS nodes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		domain TEXT NOT NULL,
		vendor TEXT NOT NULL,
		model TEXT,
		role TEXT NOT NULL,
		lifecycle TEXT NOT NULL,
		management_ip TEXT,
		location_id TEXT REFERENCES locations(id) ON DELETE SET NULL,
		platform TEXT,
		version TEXT,
		serial TEXT,
		asset_tag TEXT,
		purchase_date DATETIME,
		warranty_expiry DATETIME,
		custom_data_json TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes(name);
	CREATE INDEX IF NOT EXISTS idx_nodes_location ON nodes(location_id);

	CREATE TABLE IF NOT EXISTS links (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		source_node_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		node_a_interface TEXT NOT NULL,
		dest_node_id TEXT REFERENCES nodes(id) ON DELETE CASCADE,
		node_z_interface TEXT,
		description TEXT,
		bandwidth_bps INTEGER,
		link_type TEXT,
		is_internet_circuit INTEGER NOT NULL DEFAULT 0,
		custom_data_json TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_links_source ON links(source_node_id);
	CREATE INDEX IF NOT EXISTS idx_links_dest ON links(dest_node_id);

	CREATE TABLE IF NOT EXISTS node_status (
		node_id TEXT PRIMARY KEY REFERENCES nodes(id) ON DELETE CASCADE,
		reachable INTEGER NOT NULL DEFAULT 0,
		last_checked DATETIME
	);

	CREATE TABLE IF NOT EXISTS system_info (
		node_id TEXT PRIMARY KEY REFERENCES nodes(id) ON DELETE CASCADE,
		sys_descr TEXT,
		sys_up_time INTEGER,
		sys_contact TEXT,
		sys_name TEXT,
		sys_location TEXT,
		collected_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS interface_metrics (
		node_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		if_index INTEGER NOT NULL,
		if_in_octets INTEGER,
		if_out_octets INTEGER,
		if_in_errors INTEGER,
		if_out_errors INTEGER,
		if_speed INTEGER,
		collected_at DATETIME NOT NULL,
		PRIMARY KEY (node_id, if_index)
	);

	CREATE TABLE IF NOT EXISTS policy_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		node_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		rule_id TEXT NOT NULL,
		satisfied INTEGER NOT NULL,
		error_message TEXT,
		action_success INTEGER,
		action_message TEXT,
		rollback_json TEXT,
		recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_policy_results_node ON policy_results(node_id);
	CREATE INDEX IF NOT EXISTS idx_policy_results_rule ON policy_results(rule_id);

	CREATE TABLE IF NOT EXISTS configuration_changes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		change_type TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		description TEXT,
		old_value TEXT,
		new_value TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_config_changes_entity ON configuration_changes(entity_type, entity_id);

	CREATE TABLE IF NOT EXISTS change_audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		change_id INTEGER NOT NULL REFERENCES configuration_changes(id) ON DELETE CASCADE,
		actor TEXT,
		recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS change_approval_workflow (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		change_id INTEGER NOT NULL REFERENCES configuration_changes(id) ON DELETE CASCADE,
		status TEXT NOT NULL DEFAULT 'pending',
		approved_by TEXT,
		decided_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS change_rollback_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		change_id INTEGER NOT NULL REFERENCES configuration_changes(id) ON DELETE CASCADE,
		snapshot_json TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS template (
		path TEXT PRIMARY KEY,
		description TEXT
	);

	CREATE TABLE IF NOT EXISTS template_version (
		template_path TEXT NOT NULL REFERENCES template(path) ON DELETE CASCADE,
		version INTEGER NOT NULL,
		content TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (template_path, version)
	);

	CREATE TABLE IF NOT EXISTS template_assignment (
		node_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		template_path TEXT NOT NULL REFERENCES template(path) ON DELETE CASCADE,
		assigned_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (node_id, template_path)
	);

	CREATE TABLE IF NOT EXISTS template_usage (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		template_path TEXT NOT NULL,
		node_id TEXT NOT NULL,
		operation TEXT NOT NULL,
		status TEXT NOT NULL,
		error_message TEXT,
		recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_template_usage_node ON template_usage(node_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return errcode.ConnectionError{Message: fmt.Sprintf("failed to initialize schema: %v", err)}
	}
	return nil
}
