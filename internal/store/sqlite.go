package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pbaille/portfolio/internal/catalog"
	"github.com/pbaille/portfolio/internal/domain"
)

//go:embed schema.sql
var schema string

// Store keeps a catalog in sqlite. It implements catalog.Source.
type Store struct {
	db *sql.DB
}

// ImportRecord describes one catalog import
type ImportRecord struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Projects   int       `json:"projects"`
	Services   int       `json:"services"`
	ImportedAt time.Time `json:"imported_at"`
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Import replaces the stored catalog with cat in a single transaction
func (s *Store) Import(ctx context.Context, cat *catalog.Catalog, source string) (*ImportRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{
		"project_tags", "project_images", "projects",
		"service_technologies", "service_images", "services",
	} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return nil, fmt.Errorf("clear %s: %w", table, err)
		}
	}

	projects := cat.Projects()
	for i, p := range projects {
		if err := insertProject(ctx, tx, i, p); err != nil {
			return nil, err
		}
	}

	services := cat.Services()
	for i, svc := range services {
		if err := insertService(ctx, tx, i, svc); err != nil {
			return nil, err
		}
	}

	rec := &ImportRecord{
		ID:         uuid.New().String(),
		Source:     source,
		Projects:   len(projects),
		Services:   len(services),
		ImportedAt: time.Now().UTC(),
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO imports (id, source, projects, services, imported_at) VALUES (?, ?, ?, ?, ?)",
		rec.ID, rec.Source, rec.Projects, rec.Services, rec.ImportedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("record import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}
	return rec, nil
}

func insertProject(ctx context.Context, tx *sql.Tx, pos int, p domain.Project) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO projects (slug, position, name, description, type, responsiveness, featured, external_url, created_at, last_mod)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.Slug, pos, p.Name, p.Description, p.Type, p.Responsiveness, p.Featured, p.ExternalURL, p.CreatedAt, p.LastMod)
	if err != nil {
		return fmt.Errorf("insert project %s: %w", p.Slug, err)
	}

	for i, tag := range p.Tags {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO project_tags (project_slug, position, tag) VALUES (?, ?, ?)",
			p.Slug, i, tag,
		); err != nil {
			return fmt.Errorf("insert tag %s/%s: %w", p.Slug, tag, err)
		}
	}

	for i, url := range p.Images {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO project_images (project_slug, position, url) VALUES (?, ?, ?)",
			p.Slug, i, url,
		); err != nil {
			return fmt.Errorf("insert image %s/%d: %w", p.Slug, i, err)
		}
	}
	return nil
}

func insertService(ctx context.Context, tx *sql.Tx, pos int, svc domain.Service) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO services (slug, position, name, description, created_at, last_mod)
		VALUES (?, ?, ?, ?, ?, ?)
	`, svc.Slug, pos, svc.Name, svc.Description, svc.CreatedAt, svc.LastMod)
	if err != nil {
		return fmt.Errorf("insert service %s: %w", svc.Slug, err)
	}

	for i, tech := range svc.Technologies {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO service_technologies (service_slug, position, technology) VALUES (?, ?, ?)",
			svc.Slug, i, tech,
		); err != nil {
			return fmt.Errorf("insert technology %s/%s: %w", svc.Slug, tech, err)
		}
	}

	for i, url := range svc.Images {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO service_images (service_slug, position, url) VALUES (?, ?, ?)",
			svc.Slug, i, url,
		); err != nil {
			return fmt.Errorf("insert service image %s/%d: %w", svc.Slug, i, err)
		}
	}
	return nil
}

// Load reads the stored catalog. Database errors are reported as
// catalog.ErrSourceUnavailable.
func (s *Store) Load(ctx context.Context) (*catalog.Catalog, error) {
	projects, err := s.listProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalog.ErrSourceUnavailable, err)
	}
	services, err := s.listServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalog.ErrSourceUnavailable, err)
	}
	return catalog.New(projects, services)
}

func (s *Store) listProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT slug, name, description, type, responsiveness, featured, external_url, created_at, last_mod
		FROM projects ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		var resp sql.NullString
		if err := rows.Scan(&p.Slug, &p.Name, &p.Description, &p.Type, &resp, &p.Featured, &p.ExternalURL, &p.CreatedAt, &p.LastMod); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		if resp.Valid {
			p.Responsiveness = &resp.String
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	tags, err := s.orderedValues(ctx, "SELECT project_slug, tag FROM project_tags ORDER BY project_slug, position")
	if err != nil {
		return nil, fmt.Errorf("list project tags: %w", err)
	}
	images, err := s.orderedValues(ctx, "SELECT project_slug, url FROM project_images ORDER BY project_slug, position")
	if err != nil {
		return nil, fmt.Errorf("list project images: %w", err)
	}

	for i := range projects {
		projects[i].Tags = tags[projects[i].Slug]
		projects[i].Images = images[projects[i].Slug]
	}
	return projects, nil
}

func (s *Store) listServices(ctx context.Context) ([]domain.Service, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT slug, name, description, created_at, last_mod FROM services ORDER BY position",
	)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var services []domain.Service
	for rows.Next() {
		var svc domain.Service
		if err := rows.Scan(&svc.Slug, &svc.Name, &svc.Description, &svc.CreatedAt, &svc.LastMod); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}

	techs, err := s.orderedValues(ctx, "SELECT service_slug, technology FROM service_technologies ORDER BY service_slug, position")
	if err != nil {
		return nil, fmt.Errorf("list service technologies: %w", err)
	}
	images, err := s.orderedValues(ctx, "SELECT service_slug, url FROM service_images ORDER BY service_slug, position")
	if err != nil {
		return nil, fmt.Errorf("list service images: %w", err)
	}

	for i := range services {
		services[i].Technologies = techs[services[i].Slug]
		services[i].Images = images[services[i].Slug]
	}
	return services, nil
}

// orderedValues groups (key, value) rows by key, keeping row order
func (s *Store) orderedValues(ctx context.Context, query string) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = append(out[key], value)
	}
	return out, rows.Err()
}

// ListImports returns past imports, newest first
func (s *Store) ListImports(ctx context.Context, limit int) ([]ImportRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, source, projects, services, imported_at FROM imports ORDER BY imported_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer rows.Close()

	var records []ImportRecord
	for rows.Next() {
		var r ImportRecord
		if err := rows.Scan(&r.ID, &r.Source, &r.Projects, &r.Services, &r.ImportedAt); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
