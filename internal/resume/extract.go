// Package resume extracts plain text from uploaded resume documents.
// Extraction failures are anomalies, not fatal errors: the pipeline simply
// proceeds without resume signals.
package resume

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// ExtractText converts a resume document to plain text. The format is chosen
// by file extension: .pdf, .docx, and anything else is treated as plain text.
func ExtractText(filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty resume document")
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extractPDFText(data)
	case ".docx":
		return extractDocxText(data)
	default:
		return string(data), nil
	}
}

func extractPDFText(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var sb strings.Builder
	numPages := pdfReader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, _ := page.GetPlainText(nil)
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer func() { _ = doc.Close() }()

	return stripDocxTags(doc.Editable().GetContent()), nil
}

var docxTagPattern = regexp.MustCompile(`<[^>]+>`)

// stripDocxTags removes the WordprocessingML markup GetContent leaves in.
func stripDocxTags(content string) string {
	return docxTagPattern.ReplaceAllString(content, " ")
}

// ProjectsSection returns the text under a "Projects" heading, if the resume
// has one. Used to mine project-reference signals.
func ProjectsSection(text string) string {
	lines := strings.Split(text, "\n")
	var collected []string
	inSection := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if isHeading(trimmed) {
			inSection = strings.Contains(lower, "project")
			continue
		}
		if inSection && trimmed != "" {
			collected = append(collected, trimmed)
		}
	}
	return strings.Join(collected, "\n")
}

// isHeading guesses whether a resume line is a section heading: short and
// without sentence punctuation.
func isHeading(line string) bool {
	if line == "" || len(line) > 40 {
		return false
	}
	if strings.ContainsAny(line, ".;,") {
		return false
	}
	words := strings.Fields(line)
	return len(words) <= 4
}
