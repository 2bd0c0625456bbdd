// ABOUTME: SQLite persistence for saved addresses, job/skill tags and hashtags
// ABOUTME: Saves are insert-or-replace; hashtag usage is bumped with a single UPDATE

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SaveAddress inserts or replaces an address. A missing ID is generated and
// LastModified is set to now.
func (s *SQLiteStore) SaveAddress(ctx context.Context, addr *CommunalAddress) error {
	if err := addr.Validate(); err != nil {
		return err
	}
	if addr.ID == "" {
		addr.ID = uuid.New().String()
	}
	addr.LastModified = time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO communal_addresses (id, address_line, locality, postal_code, country, last_modified)
		VALUES (?, ?, ?, ?, ?, ?)
	`, addr.ID, addr.AddressLine, addr.Locality, addr.PostalCode, addr.Country, toMillis(addr.LastModified))
	if err != nil {
		return fmt.Errorf("saving address: %w", err)
	}
	return nil
}

// ListAddresses returns all saved addresses, most recently modified first.
func (s *SQLiteStore) ListAddresses(ctx context.Context) ([]*CommunalAddress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, address_line, locality, postal_code, country, last_modified
		FROM communal_addresses
		ORDER BY last_modified DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying addresses: %w", err)
	}
	defer rows.Close()

	var out []*CommunalAddress
	for rows.Next() {
		var a CommunalAddress
		var modified int64
		if err := rows.Scan(&a.ID, &a.AddressLine, &a.Locality, &a.PostalCode, &a.Country, &modified); err != nil {
			return nil, fmt.Errorf("scanning address: %w", err)
		}
		a.LastModified = fromMillis(modified)
		out = append(out, &a)
	}
	return out, rows.Err()
}

// DeleteAddress removes an address. Returns ErrNotFound if it does not exist.
func (s *SQLiteStore) DeleteAddress(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "communal_addresses", id)
}

// ClearAddresses removes every saved address.
func (s *SQLiteStore) ClearAddresses(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM communal_addresses`); err != nil {
		return fmt.Errorf("clearing addresses: %w", err)
	}
	return nil
}

// SaveJobSkill inserts or replaces a job/skill. CreatedAt is kept if set.
func (s *SQLiteStore) SaveJobSkill(ctx context.Context, js *JobSkill) error {
	if err := js.Validate(); err != nil {
		return err
	}
	js.Type, _ = ParseSkillType(string(js.Type))
	if js.ID == "" {
		js.ID = uuid.New().String()
	}
	now := time.Now()
	if js.CreatedAt.IsZero() {
		js.CreatedAt = now
	}
	js.LastModified = now

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO jobs_skills (id, title, type, description, created_at, last_modified)
		VALUES (?, ?, ?, ?, ?, ?)
	`, js.ID, js.Title, string(js.Type), js.Description, toMillis(js.CreatedAt), toMillis(js.LastModified))
	if err != nil {
		return fmt.Errorf("saving job/skill: %w", err)
	}
	return nil
}

const jobSkillColumns = `id, title, type, description, created_at, last_modified`

// ListJobSkills returns every job and skill, most recently modified first.
func (s *SQLiteStore) ListJobSkills(ctx context.Context) ([]*JobSkill, error) {
	return s.queryJobSkills(ctx, `SELECT `+jobSkillColumns+` FROM jobs_skills ORDER BY last_modified DESC`)
}

// ListJobSkillsByType returns jobs or skills ordered by title.
func (s *SQLiteStore) ListJobSkillsByType(ctx context.Context, t SkillType) ([]*JobSkill, error) {
	return s.queryJobSkills(ctx, `SELECT `+jobSkillColumns+` FROM jobs_skills WHERE type = ? ORDER BY title ASC`, string(t))
}

// SearchJobSkills returns entries whose title contains query.
func (s *SQLiteStore) SearchJobSkills(ctx context.Context, query string) ([]*JobSkill, error) {
	return s.queryJobSkills(ctx,
		`SELECT `+jobSkillColumns+` FROM jobs_skills WHERE title LIKE ? ESCAPE '\' ORDER BY title ASC`,
		likePattern(query))
}

// DeleteJobSkill removes a job/skill. Returns ErrNotFound if it does not exist.
func (s *SQLiteStore) DeleteJobSkill(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "jobs_skills", id)
}

func (s *SQLiteStore) queryJobSkills(ctx context.Context, query string, args ...any) ([]*JobSkill, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying jobs/skills: %w", err)
	}
	defer rows.Close()

	var out []*JobSkill
	for rows.Next() {
		var js JobSkill
		var typ string
		var created, modified int64
		if err := rows.Scan(&js.ID, &js.Title, &typ, &js.Description, &created, &modified); err != nil {
			return nil, fmt.Errorf("scanning job/skill: %w", err)
		}
		js.Type = SkillType(typ)
		js.CreatedAt = fromMillis(created)
		js.LastModified = fromMillis(modified)
		out = append(out, &js)
	}
	return out, rows.Err()
}

// SaveHashtag inserts or replaces a hashtag. The leading '#' is stripped.
func (s *SQLiteStore) SaveHashtag(ctx context.Context, h *Hashtag) error {
	if err := h.Validate(); err != nil {
		return err
	}
	h.Tag = strings.TrimSpace(strings.TrimPrefix(h.Tag, "#"))
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	now := time.Now()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = now
	}
	if h.LastUsed.IsZero() {
		h.LastUsed = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO hashtags (id, tag, usage_count, created_at, last_used)
		VALUES (?, ?, ?, ?, ?)
	`, h.ID, h.Tag, h.UsageCount, toMillis(h.CreatedAt), toMillis(h.LastUsed))
	if err != nil {
		return fmt.Errorf("saving hashtag: %w", err)
	}
	return nil
}

const hashtagColumns = `id, tag, usage_count, created_at, last_used`

// TrendingHashtags returns hashtags by usage count, then recency.
func (s *SQLiteStore) TrendingHashtags(ctx context.Context) ([]*Hashtag, error) {
	return s.queryHashtags(ctx, `SELECT `+hashtagColumns+` FROM hashtags ORDER BY usage_count DESC, last_used DESC`)
}

// SearchHashtags returns hashtags whose tag contains query.
func (s *SQLiteStore) SearchHashtags(ctx context.Context, query string) ([]*Hashtag, error) {
	return s.queryHashtags(ctx,
		`SELECT `+hashtagColumns+` FROM hashtags WHERE tag LIKE ? ESCAPE '\' ORDER BY usage_count DESC, last_used DESC`,
		likePattern(strings.TrimPrefix(query, "#")))
}

// DeleteHashtag removes a hashtag. Returns ErrNotFound if it does not exist.
func (s *SQLiteStore) DeleteHashtag(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "hashtags", id)
}

// IncrementHashtagUsage bumps the usage count by one and sets last_used to
// at in a single statement. Returns ErrNotFound for an unknown ID.
func (s *SQLiteStore) IncrementHashtagUsage(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE hashtags SET usage_count = usage_count + 1, last_used = ? WHERE id = ?
	`, toMillis(at), id)
	if err != nil {
		return fmt.Errorf("incrementing hashtag usage: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) queryHashtags(ctx context.Context, query string, args ...any) ([]*Hashtag, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying hashtags: %w", err)
	}
	defer rows.Close()

	var out []*Hashtag
	for rows.Next() {
		var h Hashtag
		var created, used int64
		if err := rows.Scan(&h.ID, &h.Tag, &h.UsageCount, &created, &used); err != nil {
			return nil, fmt.Errorf("scanning hashtag: %w", err)
		}
		h.CreatedAt = fromMillis(created)
		h.LastUsed = fromMillis(used)
		out = append(out, &h)
	}
	return out, rows.Err()
}

// deleteByID deletes one row from table. table is always a constant from
// this file.
func (s *SQLiteStore) deleteByID(ctx context.Context, table, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", table, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// likePattern wraps query for a substring LIKE match, escaping wildcards.
func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(query) + "%"
}
