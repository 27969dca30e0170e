// Package export parses a vendor social-metrics export into normalized
// content items. The adapter is pure: it only reads the supplied bytes.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"postpilot/models"
)

// Result is the adapter output. A fatal container problem fills Errors and
// leaves Items empty; row-level malformation only ever adds a warning.
type Result struct {
	Profile  *models.ProfileSummary
	Items    []models.ContentItem
	Errors   []string
	Warnings []string
}

// Failed reports whether ingestion must be treated as failed.
func (r *Result) Failed() bool {
	return len(r.Errors) > 0
}

// jsonExport mirrors the vendor account-media JSON export.
type jsonExport struct {
	Account *struct {
		Username   string `json:"username"`
		FullName   string `json:"full_name"`
		Biography  string `json:"biography"`
		Followers  int64  `json:"followers"`
		Following  int64  `json:"following"`
		MediaCount int64  `json:"media_count"`
	} `json:"account"`
	Media []json.RawMessage `json:"media"`
}

type jsonMediaRow struct {
	ID            string `json:"id"`
	MediaType     string `json:"media_type"`
	Caption       string `json:"caption"`
	LikeCount     *int64 `json:"like_count"`
	CommentsCount *int64 `json:"comments_count"`
	ShareCount    int64  `json:"share_count"`
	ViewCount     int64  `json:"view_count"`
	Timestamp     string `json:"timestamp"`
}

var hashtagRe = regexp.MustCompile(`#[\p{L}\p{N}_]+`)

// Parse normalizes a vendor export file. The container is detected
// structurally: a leading '{' means the JSON export, otherwise the CSV row
// export is assumed.
func Parse(data []byte) *Result {
	trimmed := bytes.TrimLeftFunc(data, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\uFEFF'
	})
	if len(trimmed) == 0 {
		return &Result{Errors: []string{"export file is empty"}}
	}
	if trimmed[0] == '{' {
		return parseJSON(trimmed)
	}
	return parseCSV(trimmed)
}

func parseJSON(data []byte) *Result {
	var doc jsonExport
	if err := json.Unmarshal(data, &doc); err != nil {
		return &Result{Errors: []string{fmt.Sprintf("unrecognized export file: %v", err)}}
	}
	if doc.Media == nil {
		return &Result{Errors: []string{"unrecognized export schema: missing media list"}}
	}

	res := &Result{}
	if doc.Account != nil {
		res.Profile = &models.ProfileSummary{
			Username:  doc.Account.Username,
			FullName:  doc.Account.FullName,
			Biography: doc.Account.Biography,
			Followers: doc.Account.Followers,
			Following: doc.Account.Following,
			PostCount: doc.Account.MediaCount,
		}
	}

	for i, raw := range doc.Media {
		var row jsonMediaRow
		if err := json.Unmarshal(raw, &row); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("media row %d: malformed record, skipped", i+1))
			continue
		}
		item, err := normalizeRow(row, i+1)
		if err != nil {
			res.Warnings = append(res.Warnings, err.Error())
			continue
		}
		res.Items = append(res.Items, *item)
	}
	return res
}

func parseCSV(data []byte) *Result {
	rd := csv.NewReader(bytes.NewReader(data))
	rd.FieldsPerRecord = -1

	header, err := rd.Read()
	if err != nil {
		return &Result{Errors: []string{fmt.Sprintf("unrecognized export file: %v", err)}}
	}
	idx := map[string]int{}
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"id", "media_type", "caption"} {
		if _, ok := idx[required]; !ok {
			return &Result{Errors: []string{fmt.Sprintf("unrecognized export schema: missing %q column", required)}}
		}
	}

	field := func(rec []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	res := &Result{}
	line := 1
	for {
		rec, err := rd.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("media row %d: malformed record, skipped", line-1))
			continue
		}
		row := jsonMediaRow{
			ID:        field(rec, "id"),
			MediaType: field(rec, "media_type"),
			Caption:   field(rec, "caption"),
			Timestamp: field(rec, "timestamp"),
		}
		ok := true
		if v := field(rec, "likes"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				res.Warnings = append(res.Warnings, fmt.Sprintf("media row %d: invalid likes %q, skipped", line-1, v))
				ok = false
			} else {
				row.LikeCount = &n
			}
		}
		if v := field(rec, "comments"); ok && v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				res.Warnings = append(res.Warnings, fmt.Sprintf("media row %d: invalid comments %q, skipped", line-1, v))
				ok = false
			} else {
				row.CommentsCount = &n
			}
		}
		if !ok {
			continue
		}
		item, err := normalizeRow(row, line-1)
		if err != nil {
			res.Warnings = append(res.Warnings, err.Error())
			continue
		}
		res.Items = append(res.Items, *item)
	}
	return res
}

// normalizeRow converts one export row into a ContentItem. Any row-level
// problem is returned as an error so the caller can record a warning and
// skip the row.
func normalizeRow(row jsonMediaRow, n int) (*models.ContentItem, error) {
	if row.ID == "" {
		return nil, fmt.Errorf("media row %d: missing media id, skipped", n)
	}
	kind, err := normalizeKind(row.MediaType)
	if err != nil {
		return nil, fmt.Errorf("media row %d: %v, skipped", n, err)
	}

	item := &models.ContentItem{
		ItemID: row.ID,
		Kind:   kind,
		Text:   row.Caption,
		Tags:   extractHashtags(row.Caption),
	}
	if row.LikeCount != nil {
		item.Metrics.Likes = *row.LikeCount
	}
	if row.CommentsCount != nil {
		item.Metrics.Comments = *row.CommentsCount
	}
	item.Metrics.Shares = row.ShareCount
	item.Metrics.Views = row.ViewCount

	if row.Timestamp != "" {
		ts, err := parseTimestamp(row.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("media row %d: invalid timestamp %q, skipped", n, row.Timestamp)
		}
		item.PostedAt = ts
	}
	return item, nil
}

func normalizeKind(mediaType string) (models.ContentKind, error) {
	switch strings.ToUpper(strings.TrimSpace(mediaType)) {
	case "IMAGE":
		return models.KindImage, nil
	case "CAROUSEL_ALBUM", "CAROUSEL":
		return models.KindCarousel, nil
	case "VIDEO", "REELS":
		return models.KindVideo, nil
	case "":
		return "", fmt.Errorf("missing media type")
	default:
		return "", fmt.Errorf("unknown media type %q", mediaType)
	}
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-0700", "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format")
}

func extractHashtags(caption string) []string {
	raw := hashtagRe.FindAllString(caption, -1)
	seen := map[string]bool{}
	var tags []string
	for _, t := range raw {
		t = strings.ToLower(t)
		if !seen[t] {
			seen[t] = true
			tags = append(tags, t)
		}
	}
	return tags
}
