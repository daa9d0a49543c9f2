package service

import (
	"context"
	"encoding/base64"
	"html"
	"regexp"
	"strings"

	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/delta"
)

const (
	ExportText = "txt"
	ExportHTML = "html"
)

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ExportDocument renders a document with a bibliography of its citations.
func (d *DocumentService) ExportDocument(ctx context.Context, owner, id string, req *v1.ExportRequest) (*v1.ExportResponse, error) {
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		format = ExportText
	}
	if format != ExportText && format != ExportHTML {
		return nil, ErrUnsupportedExportFormat
	}

	doc, err := d.getDocument(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	content, _, err := documentContent(doc)
	if err != nil {
		return nil, err
	}

	bibliography, err := d.bibliography(ctx, owner, doc.Citations())
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(doc.Title)
	if title == "" {
		title = DefaultTitle
	}

	var file, mediaType string
	switch format {
	case ExportHTML:
		file, mediaType = exportHTML(title, content, bibliography), "text/html; charset=utf-8"
	default:
		file, mediaType = exportText(title, content, bibliography), "text/plain; charset=utf-8"
	}

	base := strings.Trim(unsafeFilename.ReplaceAllString(title, "-"), "-")
	if base == "" {
		base = "document"
	}

	return &v1.ExportResponse{
		Format:      format,
		Title:       title,
		Filename:    base + "." + format,
		MediaType:   mediaType,
		FileContent: base64.StdEncoding.EncodeToString([]byte(file)),
	}, nil
}

// bibliography returns the full text of the attached citations in
// attachment order, falling back to the url.
func (d *DocumentService) bibliography(ctx context.Context, owner string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := d.store.ListCitationsFromIDs(ctx, owner, ids)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]string, len(rows))
	for _, row := range rows {
		entry := strings.TrimSpace(row.FullText)
		if entry == "" {
			entry = row.URL
		}
		entries[row.ID] = entry
	}

	var bibliography []string
	for _, id := range ids {
		if entry := entries[id]; entry != "" {
			bibliography = append(bibliography, entry)
		}
	}
	return bibliography, nil
}

func exportText(title string, content delta.Delta, bibliography []string) string {
	sections := []string{title, "", strings.TrimSpace(delta.PlainText(content))}
	if len(bibliography) > 0 {
		sections = append(sections, "", "Bibliography")
		for _, entry := range bibliography {
			sections = append(sections, "- "+entry)
		}
	}
	return strings.Join(sections, "\n")
}

func exportHTML(title string, content delta.Delta, bibliography []string) string {
	var b strings.Builder
	escaped := html.EscapeString(title)
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>")
	b.WriteString(escaped)
	b.WriteString("</title></head><body><h1>")
	b.WriteString(escaped)
	b.WriteString("</h1>")
	b.WriteString(delta.HTML(content))
	if len(bibliography) > 0 {
		b.WriteString("<h2>Bibliography</h2><ul>")
		for _, entry := range bibliography {
			b.WriteString("<li>" + html.EscapeString(entry) + "</li>")
		}
		b.WriteString("</ul>")
	}
	b.WriteString("</body></html>")
	return b.String()
}
