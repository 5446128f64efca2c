package export

import (
	"github.com/emogo/emogo/app/database"
)

const (
	JSONFileName   = "emogo_export.json"
	CSVFileName    = "emogo_export.csv"
	BundleDirName  = "emogo_export"
	BundleDataFile = "data.json"
	ArchiveName    = "emogo_export.zip"
)

// Document is the JSON export shape.
type Document struct {
	ExportDate   string            `json:"export_date"`
	TotalSurveys int               `json:"total_surveys"`
	TotalVlogs   int               `json:"total_vlogs"`
	Surveys      []database.Survey `json:"surveys"`
	Vlogs        []database.Vlog   `json:"vlogs"`
}

type SkippedVideo struct {
	VlogID   int64  `json:"vlog_id"`
	VideoURI string `json:"video_uri"`
	Error    string `json:"error"`
}

type BundleResult struct {
	Dir      string         `json:"dir"`
	DataFile string         `json:"data_file"`
	Videos   []string       `json:"videos"`
	Skipped  []SkippedVideo `json:"skipped"`
	Archive  string         `json:"archive,omitempty"`
}

type ShareResult struct {
	Path     string `json:"path"`
	Shared   bool   `json:"shared"`
	Location string `json:"location,omitempty"` // set when no share surface is available
}
