package sqlite

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"storyweave/internal/domain"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes writers and keeps :memory: databases alive
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS graphs (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		direction TEXT NOT NULL DEFAULT 'TD',
		source TEXT NOT NULL,
		layout JSON,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS style_classes (
		id TEXT PRIMARY KEY,
		graph_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		raw_definition TEXT NOT NULL,
		UNIQUE (graph_id, name),
		FOREIGN KEY (graph_id) REFERENCES graphs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS clusters (
		id TEXT PRIMARY KEY,
		graph_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		mermaid_id TEXT NOT NULL,
		title TEXT,
		style_ref TEXT,
		UNIQUE (graph_id, mermaid_id),
		FOREIGN KEY (graph_id) REFERENCES graphs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS nodes (
		id TEXT PRIMARY KEY,
		graph_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		mermaid_id TEXT NOT NULL,
		title TEXT,
		text_content TEXT NOT NULL DEFAULT '',
		style_ref TEXT,
		cluster_id TEXT,
		UNIQUE (graph_id, mermaid_id),
		FOREIGN KEY (graph_id) REFERENCES graphs(id) ON DELETE CASCADE,
		FOREIGN KEY (cluster_id) REFERENCES clusters(id) ON DELETE SET NULL
	);

	CREATE TABLE IF NOT EXISTS edges (
		id TEXT PRIMARY KEY,
		graph_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		source_node_id TEXT NOT NULL,
		target_node_id TEXT NOT NULL,
		label TEXT,
		kind TEXT NOT NULL DEFAULT 'VISIBLE',
		FOREIGN KEY (graph_id) REFERENCES graphs(id) ON DELETE CASCADE,
		FOREIGN KEY (source_node_id) REFERENCES nodes(id) ON DELETE CASCADE,
		FOREIGN KEY (target_node_id) REFERENCES nodes(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_graph ON nodes(graph_id, position);
	CREATE INDEX IF NOT EXISTS idx_edges_graph ON edges(graph_id, position);
	CREATE INDEX IF NOT EXISTS idx_clusters_graph ON clusters(graph_id, position);
	CREATE INDEX IF NOT EXISTS idx_style_classes_graph ON style_classes(graph_id, position);
	`

	if _, err := r.db.Exec(schema); err != nil {
		return err
	}

	// Columns added after the first schema
	if err := r.addColumnIfNotExists("edges", "color", "TEXT"); err != nil {
		return err
	}
	return r.addColumnIfNotExists("nodes", "cluster_position", "INTEGER")
}

// addColumnIfNotExists adds a column unless the table already has it
func (r *Repository) addColumnIfNotExists(table, column, definition string) error {
	rows, err := r.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("failed to scan column info: %w", err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	if _, err := r.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)); err != nil {
		return fmt.Errorf("failed to add %s.%s: %w", table, column, err)
	}
	return nil
}

// GetGraph loads a graph and all of its children
func (r *Repository) GetGraph(ctx context.Context, id string) (*domain.Graph, error) {
	var row graphRow
	err := r.db.QueryRowContext(ctx, `SELECT `+graphColumns+` FROM graphs WHERE id = ?`, id).Scan(row.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: domain.KindGraph, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query graph: %w", err)
	}

	g, err := row.toDomain()
	if err != nil {
		return nil, err
	}

	if err := r.loadStyleClasses(ctx, g); err != nil {
		return nil, err
	}
	if err := r.loadClusters(ctx, g); err != nil {
		return nil, err
	}
	if err := r.loadNodes(ctx, g); err != nil {
		return nil, err
	}
	if err := r.loadEdges(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (r *Repository) loadStyleClasses(ctx context.Context, g *domain.Graph) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+styleClassColumns+` FROM style_classes
		WHERE graph_id = ? ORDER BY position
	`, g.ID)
	if err != nil {
		return fmt.Errorf("failed to query style classes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		sc := &domain.StyleClass{}
		if err := rows.Scan(&sc.ID, &sc.GraphID, &sc.Name, &sc.RawDefinition); err != nil {
			return fmt.Errorf("failed to scan style class: %w", err)
		}
		g.StyleClasses = append(g.StyleClasses, sc)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating style classes: %w", err)
	}
	return nil
}

func (r *Repository) loadClusters(ctx context.Context, g *domain.Graph) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+clusterColumns+` FROM clusters
		WHERE graph_id = ? ORDER BY position
	`, g.ID)
	if err != nil {
		return fmt.Errorf("failed to query clusters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var title, styleRef sql.NullString
		c := &domain.Cluster{NodeIDs: make([]string, 0)}
		if err := rows.Scan(&c.ID, &c.GraphID, &c.MermaidID, &title, &styleRef); err != nil {
			return fmt.Errorf("failed to scan cluster: %w", err)
		}
		c.Title = nullToString(title)
		c.StyleRef = nullToString(styleRef)
		g.Clusters = append(g.Clusters, c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating clusters: %w", err)
	}
	return nil
}

// loadNodes reads nodes in insertion order and rebuilds cluster membership
// in membership order
func (r *Repository) loadNodes(ctx context.Context, g *domain.Graph) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+nodeColumns+` FROM nodes
		WHERE graph_id = ? ORDER BY position
	`, g.ID)
	if err != nil {
		return fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	type membership struct {
		nodeID   string
		position int64
	}
	members := make(map[string][]membership)

	for rows.Next() {
		var row nodeRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return fmt.Errorf("failed to scan node: %w", err)
		}
		n := row.toDomain()
		g.Nodes = append(g.Nodes, n)
		if n.ClusterID != "" {
			members[n.ClusterID] = append(members[n.ClusterID], membership{nodeID: n.ID, position: row.ClusterPosition.Int64})
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating nodes: %w", err)
	}

	for _, c := range g.Clusters {
		list := members[c.ID]
		slices.SortStableFunc(list, func(a, b membership) int { return cmp.Compare(a.position, b.position) })
		ordered := make([]string, len(list))
		for i, m := range list {
			ordered[i] = m.nodeID
		}
		c.NodeIDs = ordered
	}
	return nil
}

func (r *Repository) loadEdges(ctx context.Context, g *domain.Graph) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+edgeColumns+` FROM edges
		WHERE graph_id = ? ORDER BY position
	`, g.ID)
	if err != nil {
		return fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row edgeRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return fmt.Errorf("failed to scan edge: %w", err)
		}
		g.Edges = append(g.Edges, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating edges: %w", err)
	}
	return nil
}

// ListGraphs returns summaries of every graph, most recently updated first
func (r *Repository) ListGraphs(ctx context.Context) ([]domain.GraphSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g.id, g.title, g.direction, g.updated_at,
			(SELECT COUNT(*) FROM nodes n WHERE n.graph_id = g.id),
			(SELECT COUNT(*) FROM edges e WHERE e.graph_id = g.id)
		FROM graphs g
		ORDER BY g.updated_at DESC, g.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query graphs: %w", err)
	}
	defer rows.Close()

	summaries := make([]domain.GraphSummary, 0)
	for rows.Next() {
		var (
			s         domain.GraphSummary
			direction string
			updatedAt string
		)
		if err := rows.Scan(&s.ID, &s.Title, &direction, &updatedAt, &s.NodeCount, &s.EdgeCount); err != nil {
			return nil, fmt.Errorf("failed to scan graph summary: %w", err)
		}
		s.Direction = domain.Direction(direction)
		if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating graphs: %w", err)
	}
	return summaries, nil
}

// SaveGraph writes g and replaces all of its children in one transaction
func (r *Repository) SaveGraph(ctx context.Context, g *domain.Graph) error {
	if err := g.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	args, err := graphInsertArgs(g)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO graphs (`+graphColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			direction = excluded.direction,
			source = excluded.source,
			layout = excluded.layout,
			updated_at = excluded.updated_at
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to upsert graph: %w", err)
	}

	// Children are replaced wholesale; edges go first so node deletes do
	// not cascade into rows we are about to rewrite anyway
	for _, table := range []string{"edges", "nodes", "clusters", "style_classes"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE graph_id = ?`, g.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i, sc := range g.StyleClasses {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO style_classes (`+styleClassColumns+`, position)
			VALUES (?, ?, ?, ?, ?)
		`, sc.ID, sc.GraphID, sc.Name, sc.RawDefinition, i)
		if err != nil {
			return fmt.Errorf("failed to insert style class %s: %w", sc.Name, err)
		}
	}

	memberPos := make(map[string]int)
	for i, c := range g.Clusters {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO clusters (`+clusterColumns+`, position)
			VALUES (?, ?, ?, ?, ?, ?)
		`, clusterInsertArgs(c, i)...)
		if err != nil {
			return fmt.Errorf("failed to insert cluster %s: %w", c.MermaidID, err)
		}
		for j, id := range c.NodeIDs {
			memberPos[id] = j
		}
	}

	for i, n := range g.Nodes {
		clusterPos := sql.NullInt64{}
		if n.ClusterID != "" {
			clusterPos = sql.NullInt64{Int64: int64(memberPos[n.ID]), Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO nodes (`+nodeColumns+`, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, nodeInsertArgs(n, i, clusterPos)...)
		if err != nil {
			return fmt.Errorf("failed to insert node %s: %w", n.MermaidID, err)
		}
	}

	for i, e := range g.Edges {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO edges (`+edgeColumns+`, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, edgeInsertArgs(e, i)...)
		if err != nil {
			return fmt.Errorf("failed to insert edge %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteGraph removes a graph; children go with it through ON DELETE CASCADE
func (r *Repository) DeleteGraph(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM graphs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete graph: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete graph: %w", err)
	}
	if n == 0 {
		return &domain.NotFoundError{Kind: domain.KindGraph, ID: id}
	}
	return nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
