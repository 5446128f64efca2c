package export

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emogo/emogo/app/database"
	"github.com/emogo/emogo/app/journal"
)

type Exporter struct {
	surveys   database.SurveyRepository
	vlogs     database.VlogRepository
	exportDir string
	mediaDir  string
	sharer    Sharer
	now       func() time.Time
}

func NewExporter(surveys database.SurveyRepository, vlogs database.VlogRepository, exportDir string, sharer Sharer) *Exporter {
	if sharer == nil {
		sharer = NoopSharer{}
	}
	return &Exporter{
		surveys:   surveys,
		vlogs:     vlogs,
		exportDir: exportDir,
		sharer:    sharer,
		now:       time.Now,
	}
}

func (e *Exporter) WithClock(now func() time.Time) *Exporter {
	e.now = now
	return e
}

// WithMediaDir restricts bundled videos to files inside dir.
func (e *Exporter) WithMediaDir(dir string) *Exporter {
	e.mediaDir = dir
	return e
}

func (e *Exporter) Document(ctx context.Context) (*Document, error) {
	surveys, err := e.surveys.GetAllSurveys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load surveys: %w", err)
	}
	vlogs, err := e.vlogs.GetAllVlogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load vlogs: %w", err)
	}

	if surveys == nil {
		surveys = []database.Survey{}
	}
	if vlogs == nil {
		vlogs = []database.Vlog{}
	}

	return &Document{
		ExportDate:   database.FormatTimestamp(e.now()),
		TotalSurveys: len(surveys),
		TotalVlogs:   len(vlogs),
		Surveys:      surveys,
		Vlogs:        vlogs,
	}, nil
}

func (e *Exporter) JSON(ctx context.Context, w io.Writer) error {
	doc, err := e.Document(ctx)
	if err != nil {
		return err
	}
	return writeJSON(w, doc)
}

func (e *Exporter) CSV(ctx context.Context, w io.Writer) error {
	surveys, err := e.surveys.GetAllSurveys(ctx)
	if err != nil {
		return fmt.Errorf("failed to load surveys: %w", err)
	}
	vlogs, err := e.vlogs.GetAllVlogs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load vlogs: %w", err)
	}
	return writeCSV(w, surveys, vlogs)
}

// WriteJSONFile writes the JSON dump into the export directory and returns its path.
func (e *Exporter) WriteJSONFile(ctx context.Context) (string, error) {
	return e.writeFile(JSONFileName, func(w io.Writer) error { return e.JSON(ctx, w) })
}

func (e *Exporter) WriteCSVFile(ctx context.Context) (string, error) {
	return e.writeFile(CSVFileName, func(w io.Writer) error { return e.CSV(ctx, w) })
}

// Bundle recreates the bundle directory with data.json and a copy of every
// referenced video. A video that cannot be copied is logged and skipped.
// Videos sharing a basename overwrite each other.
func (e *Exporter) Bundle(ctx context.Context) (*BundleResult, error) {
	doc, err := e.Document(ctx)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(e.exportDir, BundleDirName)
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("failed to remove previous bundle: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create bundle directory: %w", err)
	}

	result := &BundleResult{
		Dir:      dir,
		DataFile: filepath.Join(dir, BundleDataFile),
		Videos:   []string{},
		Skipped:  []SkippedVideo{},
	}

	if err := writeFileAtomically(result.DataFile, func(w io.Writer) error { return writeJSON(w, doc) }); err != nil {
		return nil, fmt.Errorf("failed to write bundle data: %w", err)
	}

	for _, vlog := range doc.Vlogs {
		dest := filepath.Join(dir, videoFileName(vlog))
		if err := e.copyVideo(vlog.VideoURI, dest); err != nil {
			slog.Error("Failed to copy vlog video", "vlog_id", vlog.ID, "video_uri", vlog.VideoURI, "error", err)
			result.Skipped = append(result.Skipped, SkippedVideo{VlogID: vlog.ID, VideoURI: vlog.VideoURI, Error: err.Error()})
			continue
		}
		result.Videos = append(result.Videos, dest)
	}

	slog.Info("Bundle export completed",
		"dir", dir,
		"surveys", doc.TotalSurveys,
		"vlogs", doc.TotalVlogs,
		"videos", len(result.Videos),
		"skipped", len(result.Skipped))

	return result, nil
}

// Archive zips a bundle directory next to it and records the archive path.
func (e *Exporter) Archive(ctx context.Context, bundle *BundleResult) (string, error) {
	path := filepath.Join(e.exportDir, ArchiveName)

	err := writeFileAtomically(path, func(w io.Writer) error {
		zw := zip.NewWriter(w)
		entries, err := os.ReadDir(bundle.Dir)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			if entry.IsDir() {
				continue
			}
			if err := addZipEntry(zw, filepath.Join(bundle.Dir, entry.Name()), BundleDirName+"/"+entry.Name()); err != nil {
				return err
			}
		}
		return zw.Close()
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive bundle: %w", err)
	}

	bundle.Archive = path
	return path, nil
}

// Share passes the artifact to the sharer. When no share surface exists the
// artifact location is returned for display instead.
func (e *Exporter) Share(ctx context.Context, path, mimeType string) (ShareResult, error) {
	err := e.sharer.Share(ctx, path, mimeType)
	switch {
	case err == nil:
		slog.Info("Export shared", "path", path)
		return ShareResult{Path: path, Shared: true}, nil
	case errors.Is(err, ErrShareUnavailable):
		slog.Info("Share unavailable, export left in place", "path", path)
		return ShareResult{Path: path, Shared: false, Location: path}, nil
	default:
		return ShareResult{Path: path}, err
	}
}

func (e *Exporter) writeFile(name string, write func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(e.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(e.exportDir, name)
	if err := writeFileAtomically(path, write); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return path, nil
}

func writeJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func videoFileName(vlog database.Vlog) string {
	name := filepath.Base(strings.TrimPrefix(vlog.VideoURI, "file://"))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return fmt.Sprintf("vlog_%d.mp4", vlog.ID)
	}
	return name
}

func (e *Exporter) copyVideo(videoURI, dest string) error {
	src := videoURI
	if e.mediaDir != "" {
		path, err := journal.ResolveVideoPath(e.mediaDir, videoURI)
		if err != nil {
			return err
		}
		src = path
	}
	return copyFile(src, dest)
}

func copyFile(src, dest string) error {
	in, err := os.Open(strings.TrimPrefix(src, "file://"))
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}

func addZipEntry(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

func writeFileAtomically(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
