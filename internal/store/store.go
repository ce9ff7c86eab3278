package store

import (
	"database/sql"
	"errors"
	"log"
	"sync"

	"github.com/uniplaces/carbon"
)

// Store is the mysql-backed record of render jobs.
type Store struct {
	db *sql.DB
}

// New creates a new Store instance
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetDB returns the underlying sql.DB instance
func (store *Store) GetDB() *sql.DB {
	return store.db
}

// Job statuses.
const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// RenderJob is one asynchronous render request.
//
// Schema:
//
//	CREATE TABLE render_jobs (
//	    id BIGINT AUTO_INCREMENT PRIMARY KEY,
//	    slug VARCHAR(32) NOT NULL UNIQUE,
//	    title TEXT NOT NULL,
//	    status VARCHAR(16) NOT NULL,
//	    request_key VARCHAR(255) NOT NULL,
//	    artifact_key VARCHAR(255) NULL,
//	    detail TEXT NULL,
//	    created_at DATETIME NOT NULL,
//	    updated_at DATETIME NOT NULL
//	);
type RenderJob struct {
	ID          int64   `json:"id"`
	Slug        string  `json:"slug"`
	Title       string  `json:"title"`
	Status      string  `json:"status"`
	RequestKey  string  `json:"request_key"`
	ArtifactKey *string `json:"artifact_key,omitempty"`
	Detail      *string `json:"detail,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// CreateRenderJob inserts a pending job row and returns it.
func (store *Store) CreateRenderJob(slug, title, requestKey string) (RenderJob, error) {
	if slug == "" || title == "" || requestKey == "" {
		return RenderJob{}, errors.New("missing required fields")
	}

	now := carbon.Now().DateTimeString()
	_, err := store.db.Exec(
		"INSERT INTO render_jobs (slug, title, status, request_key, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		slug, title, StatusPending, requestKey, now, now)
	if err != nil {
		return RenderJob{}, err
	}

	return store.FindRenderJobBySlug(slug)
}

// FindRenderJobBySlug returns the job for a slug. sql.ErrNoRows passes through
// so callers can distinguish a missing job.
func (store *Store) FindRenderJobBySlug(slug string) (RenderJob, error) {
	var job RenderJob
	err := store.db.QueryRow(
		"SELECT id, slug, title, status, request_key, artifact_key, detail, created_at, updated_at FROM render_jobs WHERE slug = ?",
		slug).Scan(
		&job.ID,
		&job.Slug,
		&job.Title,
		&job.Status,
		&job.RequestKey,
		&job.ArtifactKey,
		&job.Detail,
		&job.CreatedAt,
		&job.UpdatedAt)
	if err != nil {
		return RenderJob{}, err
	}
	return job, nil
}

// MarkRenderJobDone records the artifact location for a finished job.
func (store *Store) MarkRenderJobDone(slug, artifactKey string) error {
	_, err := store.db.Exec(
		"UPDATE render_jobs SET status = ?, artifact_key = ?, detail = NULL, updated_at = ? WHERE slug = ?",
		StatusDone, artifactKey, carbon.Now().DateTimeString(), slug)
	return err
}

// MarkRenderJobFailed records a terminal failure with its reason.
func (store *Store) MarkRenderJobFailed(slug, detail string) error {
	_, err := store.db.Exec(
		"UPDATE render_jobs SET status = ?, detail = ?, updated_at = ? WHERE slug = ?",
		StatusFailed, detail, carbon.Now().DateTimeString(), slug)
	return err
}

// CheckHealth pings the database and updates the shared health flag.
func (store *Store) CheckHealth(healthStatus *bool, healthMutex *sync.Mutex) {
	err := store.db.Ping()
	if err != nil {
		log.Println("Error pinging database:", err)
	}

	healthMutex.Lock()
	*healthStatus = err == nil
	healthMutex.Unlock()
}
