// Package storage persists merge sessions in SQLite and exports decision
// logs as JSONL.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/matsen/refmerge/internal/conflict"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// DecisionEntry is one line of an exported decision log.
type DecisionEntry struct {
	Position int `json:"position"`
	conflict.Decision
}

// ReadDecisions reads an exported decision log.
func ReadDecisions(path string) ([]DecisionEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening decisions file: %w", err)
	}
	defer f.Close()

	var entries []DecisionEntry
	scanner := bufio.NewScanner(f)
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var e DecisionEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		entries = append(entries, e)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading decisions file: %w", err)
	}
	return entries, nil
}

// WriteDecisions writes decisions one per line, replacing existing content.
func WriteDecisions(path string, decisions []conflict.Decision) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating decisions file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i, d := range decisions {
		data, err := json.Marshal(DecisionEntry{Position: i, Decision: d})
		if err != nil {
			return fmt.Errorf("encoding decision %d: %w", i, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("writing decision %d: %w", i, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing decisions file: %w", err)
	}
	return nil
}
