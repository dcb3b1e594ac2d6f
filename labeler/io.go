package labeler

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// IssueParseOptions allows callers to choose which CSV columns map to issue fields.
// Columns are given by header name or as a 1-based "#N" position.
type IssueParseOptions struct {
	IDColumn          string
	TitleColumn       string
	DescriptionColumn string
}

// LabelParseOptions selects the label name and prototype text columns.
type LabelParseOptions struct {
	Column     string
	TextColumn string
}

// ParseIssueFile reads issues from a CSV/TSV file, or from a plain text file
// holding one title per line.
func ParseIssueFile(path string, opts IssueParseOptions) ([]Issue, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseDelimitedIssues(path, ',', opts)
	case ".tsv":
		return parseDelimitedIssues(path, '\t', opts)
	default:
		return parsePlainTextIssues(path)
	}
}

// ParseLabelFile reads label definitions using the default column detection.
func ParseLabelFile(path string) ([]Label, error) {
	return ParseLabelFileWithOptions(path, LabelParseOptions{})
}

// ParseLabelFileWithOptions reads label definitions from a CSV/TSV file, or
// from a plain text file with names separated by newlines, commas or semicolons.
func ParseLabelFileWithOptions(path string, opts LabelParseOptions) ([]Label, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".tsv" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read label file: %w", err)
		}
		labels := ParseLabels(string(data))
		if len(labels) == 0 {
			return nil, fmt.Errorf("no labels found in %s", path)
		}
		return labels, nil
	}
	comma := ','
	if ext == ".tsv" {
		comma = '\t'
	}
	rows, err := readDelimited(path, comma)
	if err != nil {
		return nil, err
	}
	header := cleanRow(rows[0])
	labelCol, err := pickColumn(header, opts.Column, getColumnCandidates().Label)
	if err != nil {
		return nil, err
	}
	textCol, err := pickColumn(header, opts.TextColumn, getColumnCandidates().LabelText)
	if err != nil {
		return nil, err
	}
	if textCol.Index == labelCol.Index {
		textCol = columnResult{Index: -1}
	}
	start := 0
	if labelCol.FromHeader || textCol.FromHeader {
		start = 1
	}
	if labelCol.Index < 0 {
		if start == 0 && len(header) > 0 {
			labelCol.Index = 0
		} else {
			return nil, errors.New("no usable label column found")
		}
	}
	labels := make([]Label, 0, len(rows)-start)
	seen := make(map[string]struct{})
	for _, row := range rows[start:] {
		name := cellAt(row, labelCol.Index)
		if name == "" {
			continue
		}
		key := strings.ToLower(NormalizeText(name))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		labels = append(labels, Label{Name: name, Text: cellAt(row, textCol.Index)})
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("no labels found in %s", path)
	}
	return labels, nil
}

// ParseLabels splits label names by newline, comma or semicolon.
func ParseLabels(data string) []Label {
	data = strings.ReplaceAll(data, "\r\n", "\n")
	tokens := strings.FieldsFunc(data, func(r rune) bool {
		return r == '\n' || r == ',' || r == ';'
	})
	out := make([]Label, 0, len(tokens))
	seen := make(map[string]struct{})
	for _, token := range tokens {
		token = cleanCell(token)
		if token == "" {
			continue
		}
		key := strings.ToLower(NormalizeText(token))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, Label{Name: token})
	}
	return out
}

func parsePlainTextIssues(path string) ([]Issue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open text file: %w", err)
	}
	defer f.Close()
	var out []Issue
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		title := cleanCell(scanner.Text())
		if title == "" {
			continue
		}
		out = append(out, Issue{ID: strconv.Itoa(line), Title: title})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan text file: %w", err)
	}
	return out, nil
}

func parseDelimitedIssues(path string, comma rune, opts IssueParseOptions) ([]Issue, error) {
	rows, err := readDelimited(path, comma)
	if err != nil {
		return nil, err
	}
	header := cleanRow(rows[0])
	candidates := getColumnCandidates()
	idCol, err := pickColumn(header, opts.IDColumn, candidates.ID)
	if err != nil {
		return nil, err
	}
	titleCol, err := pickColumn(header, opts.TitleColumn, candidates.Title)
	if err != nil {
		return nil, err
	}
	descCol, err := pickColumn(header, opts.DescriptionColumn, candidates.Description)
	if err != nil {
		return nil, err
	}
	skipHeader := idCol.FromHeader || titleCol.FromHeader || descCol.FromHeader
	if !skipHeader && titleCol.Index < 0 && len(header) > 0 {
		titleCol.Index = 0
		if descCol.Index < 0 && len(header) > 1 {
			descCol.Index = 1
		}
	}
	start := 0
	if skipHeader {
		start = 1
	}
	issues := make([]Issue, 0, len(rows)-start)
	for i, row := range rows[start:] {
		issue := Issue{
			ID:          cellAt(row, idCol.Index),
			Title:       cellAt(row, titleCol.Index),
			Description: cellAt(row, descCol.Index),
		}
		if issue.ID == "" && issue.Title == "" && issue.Description == "" {
			continue
		}
		if issue.ID == "" {
			issue.ID = strconv.Itoa(i + 1)
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

func readDelimited(path string, comma rune) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty file %s", filepath.Base(path))
	}
	return rows, nil
}

func cleanRow(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = cleanCell(cell)
	}
	return out
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return cleanCell(row[idx])
}

func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "\ufeff")
	return v
}

func findColumn(header []string, candidates []string) int {
	for i, col := range header {
		for _, cand := range candidates {
			if strings.EqualFold(col, cand) {
				return i
			}
		}
	}
	return -1
}

type columnResult struct {
	Index      int
	FromHeader bool
}

func pickColumn(header []string, explicit string, candidates []string) (columnResult, error) {
	res := columnResult{Index: -1}
	if strings.TrimSpace(explicit) != "" {
		idx, fromHeader, err := matchExplicitColumn(header, explicit)
		if err != nil {
			return res, err
		}
		res.Index = idx
		res.FromHeader = fromHeader
		return res, nil
	}
	idx := findColumn(header, candidates)
	if idx >= 0 {
		res.Index = idx
		res.FromHeader = true
	}
	return res, nil
}

func matchExplicitColumn(header []string, explicit string) (int, bool, error) {
	trimmed := strings.TrimSpace(explicit)
	for i, col := range header {
		if strings.EqualFold(col, trimmed) {
			return i, true, nil
		}
	}
	if strings.HasPrefix(trimmed, "#") {
		idx, err := parseColumnIndex(trimmed)
		if err != nil {
			return -1, false, err
		}
		if idx >= len(header) {
			return -1, false, fmt.Errorf("column index %s is out of range", trimmed)
		}
		return idx, false, nil
	}
	return -1, false, fmt.Errorf("column %q not found", explicit)
}

func parseColumnIndex(token string) (int, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(token, "#"))
	if trimmed == "" {
		return -1, fmt.Errorf("invalid column index %q", token)
	}
	idx, err := strconv.Atoi(trimmed)
	if err != nil {
		return -1, fmt.Errorf("invalid column index %q", token)
	}
	if idx <= 0 {
		return -1, fmt.Errorf("column indices are 1-based: %q", token)
	}
	return idx - 1, nil
}
