package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"mime"
	"path/filepath"
	"time"

	"github.com/emogo/emogo/app/cfg"
	"github.com/emogo/emogo/app/database"
	"github.com/emogo/emogo/app/journal"
)

const DefaultMaxItems = 50

type Generator struct {
	maxItems int
}

func NewGenerator(maxItems int) *Generator {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Generator{maxItems: maxItems}
}

// Run renders surveys and vlogs as one RSS 2.0 channel, newest first. Both
// slices are expected in the store's descending timestamp order.
func (g *Generator) Run(surveys []database.Survey, vlogs []database.Vlog) (string, error) {
	var buf bytes.Buffer

	baseURL := g.baseURL()

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", "EmoGo Journal", 4)
	g.writeElement(&buf, "link", baseURL, 4)
	g.writeElement(&buf, "description", "Mood check-ins and video logs", 4)
	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(baseURL+"/feed.xml")))

	lastBuildDate := time.Now().In(time.Local)
	if latest := newestTimestamp(surveys, vlogs); latest != nil {
		lastBuildDate = *latest
	}
	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("EmoGo/%s", cfg.Get().Version), 4)

	i, j, written := 0, 0, 0
	for written < g.maxItems && (i < len(surveys) || j < len(vlogs)) {
		// Timestamps share one fixed-width layout, so string order is time order.
		if j >= len(vlogs) || (i < len(surveys) && surveys[i].Timestamp >= vlogs[j].Timestamp) {
			g.writeSurvey(&buf, surveys[i])
			i++
		} else {
			g.writeVlog(&buf, vlogs[j], baseURL)
			j++
		}
		written++
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeSurvey(buf *bytes.Buffer, survey database.Survey) {
	buf.WriteString("    <item>\n")
	g.writeGUID(buf, fmt.Sprintf("survey-%d", survey.ID))

	label := journal.SentimentLabel(survey.SentimentScore)
	g.writeElement(buf, "title", fmt.Sprintf("Feeling %s (%d/5)", label, survey.SentimentScore), 6)
	g.writeElement(buf, "description", describe("Check-in", survey.Latitude, survey.Longitude), 6)
	g.writeElement(buf, "category", "survey", 6)
	g.writePubDate(buf, survey.Timestamp)

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeVlog(buf *bytes.Buffer, vlog database.Vlog, baseURL string) {
	buf.WriteString("    <item>\n")
	g.writeGUID(buf, fmt.Sprintf("vlog-%d", vlog.ID))

	videoURL := fmt.Sprintf("%s/api/vlogs/%d/video", baseURL, vlog.ID)
	g.writeElement(buf, "title", "Video log", 6)
	g.writeElement(buf, "link", videoURL, 6)
	g.writeElement(buf, "description", describe("Video log", vlog.Latitude, vlog.Longitude), 6)
	g.writeElement(buf, "category", "vlog", 6)
	g.writePubDate(buf, vlog.Timestamp)

	// RSS 2.0 requires url, length and type; the size is not tracked.
	buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"%s\" />\n",
		html.EscapeString(videoURL),
		html.EscapeString(videoMimeType(vlog.VideoURI))))

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeGUID(buf *bytes.Buffer, guid string) {
	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte(guid))
	buf.WriteString("</guid>\n")
}

func (g *Generator) writePubDate(buf *bytes.Buffer, timestamp string) {
	if t, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
		g.writeElement(buf, "pubDate", t.In(time.Local).Format(time.RFC1123Z), 6)
	}
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) baseURL() string {
	c := cfg.Get()
	if c.BaseUrl != "" {
		return c.BaseUrl
	}
	return fmt.Sprintf("http://localhost:%s", c.Port)
}

func describe(kind string, lat, lon *float64) string {
	if lat == nil || lon == nil {
		return kind
	}
	return fmt.Sprintf("%s at %.5f, %.5f", kind, *lat, *lon)
}

func newestTimestamp(surveys []database.Survey, vlogs []database.Vlog) *time.Time {
	var latest string
	if len(surveys) > 0 {
		latest = surveys[0].Timestamp
	}
	if len(vlogs) > 0 && vlogs[0].Timestamp > latest {
		latest = vlogs[0].Timestamp
	}
	if latest == "" {
		return nil
	}

	t, err := time.Parse(time.RFC3339Nano, latest)
	if err != nil {
		return nil
	}
	t = t.In(time.Local)
	return &t
}

func videoMimeType(videoURI string) string {
	if mimeType := mime.TypeByExtension(filepath.Ext(videoURI)); mimeType != "" {
		return mimeType
	}
	return "video/mp4"
}
