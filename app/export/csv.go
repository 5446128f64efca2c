package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/emogo/emogo/app/database"
	"github.com/emogo/emogo/app/journal"
)

var csvHeader = []string{
	"Type", "Timestamp", "Date", "Time", "Sentiment_Score", "Sentiment_Label",
	"Video_URI", "Latitude", "Longitude", "Has_Location",
}

func writeCSV(w io.Writer, surveys []database.Survey, vlogs []database.Vlog) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, s := range surveys {
		date, clock := splitTimestamp(s.Timestamp)
		rec := []string{
			"Survey", s.Timestamp, date, clock,
			strconv.Itoa(s.SentimentScore), journal.SentimentLabel(s.SentimentScore),
			"",
			formatCoord(s.Latitude), formatCoord(s.Longitude), hasLocation(s.Latitude, s.Longitude),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	for _, v := range vlogs {
		date, clock := splitTimestamp(v.Timestamp)
		rec := []string{
			"Vlog", v.Timestamp, date, clock,
			"", "",
			v.VideoURI,
			formatCoord(v.Latitude), formatCoord(v.Longitude), hasLocation(v.Latitude, v.Longitude),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// splitTimestamp renders the local date and time of an ISO-8601 timestamp.
func splitTimestamp(ts string) (string, string) {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return "", ""
	}
	local := t.In(time.Local)
	return local.Format("2006-01-02"), local.Format("15:04:05")
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func hasLocation(lat, lon *float64) string {
	if lat != nil && lon != nil {
		return "Yes"
	}
	return "No"
}
