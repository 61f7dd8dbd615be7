package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoDays is returned for documents without a "days" mapping.
var ErrNoDays = errors.New("schedule file has no 'days' mapping")

// ScheduleFile is a decoded schedule document:
//
//	{"days": {"周一": [{"title": "...", "start": "09:00", "end": "10:00"}]}, "free_text": "..."}
//
// Entries are kept loosely typed so one malformed entry does not fail the
// whole file; Convert validates them one by one.
type ScheduleFile struct {
	Days     map[string]any
	FreeText string
}

// LoadScheduleFile reads a .json, .yaml or .yml schedule document.
func LoadScheduleFile(path string) (*ScheduleFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schedule file: %w", err)
	}

	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing schedule YAML: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parsing schedule JSON: %w", err)
		}
	}

	return decodeDocument(doc)
}

func decodeDocument(doc any) (*ScheduleFile, error) {
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, ErrNoDays
	}
	days, ok := root["days"].(map[string]any)
	if !ok {
		return nil, ErrNoDays
	}

	sf := &ScheduleFile{Days: days}
	// "notes" is an older name for the free text.
	for _, key := range []string{"free_text", "notes"} {
		if s, ok := root[key].(string); ok && strings.TrimSpace(s) != "" {
			sf.FreeText = s
			break
		}
	}
	return sf, nil
}
