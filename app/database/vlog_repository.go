package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// VlogRepo handles database operations for vlog entries
type VlogRepo struct {
	db *DB
}

func NewVlogRepository(db *DB) *VlogRepo {
	return &VlogRepo{db: db}
}

func (r *VlogRepo) InsertVlog(ctx context.Context, vlog Vlog) (int64, error) {
	if err := ValidateVlog(vlog); err != nil {
		return 0, err
	}
	vlog.Timestamp = canonicalTimestamp(vlog.Timestamp)

	if err := r.db.Initialize(ctx); err != nil {
		return 0, writeErr("insert_vlog", err)
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO vlogs (timestamp, video_uri, latitude, longitude)
		VALUES (?, ?, ?, ?)
	`, vlog.Timestamp, vlog.VideoURI, nullFloat(vlog.Latitude), nullFloat(vlog.Longitude))
	if err != nil {
		return 0, writeErr("insert_vlog", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, writeErr("insert_vlog", err)
	}

	slog.Debug("Vlog inserted", "id", id, "video_uri", vlog.VideoURI)
	return id, nil
}

func (r *VlogRepo) GetVlog(ctx context.Context, id int64) (*Vlog, error) {
	vlogs, err := r.query(ctx, "get_vlog", `
		SELECT id, timestamp, video_uri, latitude, longitude
		FROM vlogs
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	if len(vlogs) == 0 {
		return nil, fmt.Errorf("vlog %d: %w", id, ErrNotFound)
	}
	return &vlogs[0], nil
}

func (r *VlogRepo) GetAllVlogs(ctx context.Context) ([]Vlog, error) {
	return r.query(ctx, "get_all_vlogs", `
		SELECT id, timestamp, video_uri, latitude, longitude
		FROM vlogs
		ORDER BY timestamp DESC, id DESC
	`)
}

// GetVlogsByRange returns vlogs with start <= timestamp <= end, bounds
// normalised like stored values.
func (r *VlogRepo) GetVlogsByRange(ctx context.Context, start, end string) ([]Vlog, error) {
	return r.query(ctx, "get_vlogs_by_range", `
		SELECT id, timestamp, video_uri, latitude, longitude
		FROM vlogs
		WHERE timestamp BETWEEN ? AND ?
		ORDER BY timestamp DESC, id DESC
	`, canonicalTimestamp(start), canonicalTimestamp(end))
}

// VlogTimestampRange returns the earliest and latest vlog timestamps, both
// empty when there are no vlogs.
func (r *VlogRepo) VlogTimestampRange(ctx context.Context) (string, string, error) {
	return r.db.timestampRange(ctx, "vlog_timestamp_range", "SELECT MIN(timestamp), MAX(timestamp) FROM vlogs")
}

func (r *VlogRepo) CountVlogs(ctx context.Context) (int, error) {
	return r.count(ctx, "count_vlogs", "SELECT COUNT(*) FROM vlogs")
}

func (r *VlogRepo) CountVlogsByRange(ctx context.Context, start, end string) (int, error) {
	return r.count(ctx, "count_vlogs_by_range",
		"SELECT COUNT(*) FROM vlogs WHERE timestamp BETWEEN ? AND ?", canonicalTimestamp(start), canonicalTimestamp(end))
}

// DeleteVlog removes the row only. The referenced video file stays on disk.
func (r *VlogRepo) DeleteVlog(ctx context.Context, id int64) error {
	if err := r.db.Initialize(ctx); err != nil {
		return writeErr("delete_vlog", err)
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM vlogs WHERE id = ?", id)
	if err != nil {
		return writeErr("delete_vlog", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return writeErr("delete_vlog", err)
	}
	if affected == 0 {
		return fmt.Errorf("vlog %d: %w", id, ErrNotFound)
	}

	slog.Info("Vlog deleted", "id", id)
	return nil
}

func (r *VlogRepo) query(ctx context.Context, op, query string, args ...any) ([]Vlog, error) {
	if err := r.db.Initialize(ctx); err != nil {
		return nil, readErr(op, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, readErr(op, err)
	}
	defer rows.Close()

	vlogs := []Vlog{}
	for rows.Next() {
		var v Vlog
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&v.ID, &v.Timestamp, &v.VideoURI, &lat, &lon); err != nil {
			return nil, readErr(op, fmt.Errorf("failed to scan vlog row: %w", err))
		}
		v.Latitude = floatPtr(lat)
		v.Longitude = floatPtr(lon)
		vlogs = append(vlogs, v)
	}

	if err := rows.Err(); err != nil {
		return nil, readErr(op, fmt.Errorf("error iterating vlog rows: %w", err))
	}

	return vlogs, nil
}

func (r *VlogRepo) count(ctx context.Context, op, query string, args ...any) (int, error) {
	if err := r.db.Initialize(ctx); err != nil {
		return 0, readErr(op, err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, readErr(op, err)
	}
	return count, nil
}
