package bronze

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadRawRecords reads every *.jsonl then *.json file under baseDir/entity,
// in sorted path order, and returns the decoded objects. JSONL files hold one
// object per non-empty line; JSON files hold either one object or an array of
// objects. A missing entity directory yields no records.
func LoadRawRecords(baseDir, entity string) ([]map[string]any, error) {
	entityDir := filepath.Join(baseDir, entity)
	if _, err := os.Stat(entityDir); os.IsNotExist(err) {
		return nil, nil
	}

	var jsonlPaths, jsonPaths []string
	err := filepath.WalkDir(entityDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch {
		case strings.HasSuffix(path, ".jsonl"):
			jsonlPaths = append(jsonlPaths, path)
		case strings.HasSuffix(path, ".json"):
			jsonPaths = append(jsonPaths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bronze: walk %s: %w", entityDir, err)
	}
	sort.Strings(jsonlPaths)
	sort.Strings(jsonPaths)

	var records []map[string]any
	for _, path := range jsonlPaths {
		rows, err := readJSONL(path)
		if err != nil {
			return nil, err
		}
		records = append(records, rows...)
	}
	for _, path := range jsonPaths {
		rows, err := readJSON(path)
		if err != nil {
			return nil, err
		}
		records = append(records, rows...)
	}
	return records, nil
}

func readJSONL(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bronze: open %s: %w", path, err)
	}
	defer f.Close()

	var records []map[string]any
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record map[string]any
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("bronze: %s:%d must be a JSON object: %w", path, lineNo, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("bronze: read %s: %w", path, err)
	}
	return records, nil
}

func readJSON(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bronze: read %s: %w", path, err)
	}

	var asList []map[string]any
	if err := json.Unmarshal(data, &asList); err == nil {
		return asList, nil
	}
	var asObject map[string]any
	if err := json.Unmarshal(data, &asObject); err == nil {
		return []map[string]any{asObject}, nil
	}
	return nil, fmt.Errorf("bronze: unsupported JSON payload in %s", path)
}
