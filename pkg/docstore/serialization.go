package docstore

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Serialization helpers for converting between Go structs and Redis hashes
//
// Redis stores data as string-to-string maps (hashes). Complex fields like the
// task buckets and the done array are JSON-encoded into single hash fields.

// TaskDocumentToHash converts a TaskDocument to Redis hash format.
// Both buckets are JSON-encoded.
func TaskDocumentToHash(d *TaskDocument) (map[string]interface{}, error) {
	signalJSON, err := json.Marshal(d.Signal)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal signal bucket: %w", err)
	}

	noiseJSON, err := json.Marshal(d.Noise)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal noise bucket: %w", err)
	}

	return map[string]interface{}{
		"signal": string(signalJSON),
		"noise":  string(noiseJSON),
	}, nil
}

// HashToTaskDocument converts a Redis hash back to a TaskDocument.
// Missing or empty bucket fields decode to empty slices, never nil.
func HashToTaskDocument(hash map[string]string) (*TaskDocument, error) {
	doc := EmptyTaskDocument()

	if signalJSON := hash["signal"]; signalJSON != "" {
		if err := json.Unmarshal([]byte(signalJSON), &doc.Signal); err != nil {
			return nil, fmt.Errorf("failed to unmarshal signal bucket: %w", err)
		}
	}
	if noiseJSON := hash["noise"]; noiseJSON != "" {
		if err := json.Unmarshal([]byte(noiseJSON), &doc.Noise); err != nil {
			return nil, fmt.Errorf("failed to unmarshal noise bucket: %w", err)
		}
	}

	// Keep empty slices instead of nil for consistency
	if doc.Signal == nil {
		doc.Signal = []Task{}
	}
	if doc.Noise == nil {
		doc.Noise = []Task{}
	}

	return doc, nil
}

// TimetableStateToHash converts a TimetableState to Redis hash format.
// The done array is JSON-encoded; compact is stored as "true"/"false".
func TimetableStateToHash(s *TimetableState) (map[string]interface{}, error) {
	doneJSON, err := json.Marshal(s.Done)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal done array: %w", err)
	}

	return map[string]interface{}{
		"done":    string(doneJSON),
		"compact": strconv.FormatBool(s.Compact),
	}, nil
}

// HashToTimetableState converts a Redis hash back to a TimetableState.
func HashToTimetableState(hash map[string]string) (*TimetableState, error) {
	state := &TimetableState{Done: []bool{}}

	if doneJSON := hash["done"]; doneJSON != "" {
		if err := json.Unmarshal([]byte(doneJSON), &state.Done); err != nil {
			return nil, fmt.Errorf("failed to unmarshal done array: %w", err)
		}
	}
	if state.Done == nil {
		state.Done = []bool{}
	}

	if compactStr := hash["compact"]; compactStr != "" {
		compact, err := strconv.ParseBool(compactStr)
		if err != nil {
			return nil, fmt.Errorf("invalid compact field: %w", err)
		}
		state.Compact = compact
	}

	return state, nil
}

// GratitudeEntryToHash converts a GratitudeEntry to Redis hash format.
// All fields are flat strings.
func GratitudeEntryToHash(e *GratitudeEntry) map[string]interface{} {
	return map[string]interface{}{
		"id":        e.ID,
		"text":      e.Text,
		"date":      e.Date,
		"timestamp": e.Timestamp,
		"prompt":    e.Prompt,
	}
}

// HashToGratitudeEntry converts a Redis hash back to a GratitudeEntry.
func HashToGratitudeEntry(hash map[string]string) *GratitudeEntry {
	return &GratitudeEntry{
		ID:        hash["id"],
		Text:      hash["text"],
		Date:      hash["date"],
		Timestamp: hash["timestamp"],
		Prompt:    hash["prompt"],
	}
}
