// Package catalog reads and writes the JSON file used to seed the
// activity registry.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mergington-activities/internal/activities"
	"mergington-activities/internal/common/validation"
)

func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// LoadValidated reads a catalog and checks it against JSONSchema and
// the registry rules before returning it.
func LoadValidated(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	result, err := validation.ValidateDocument(JSONSchema, data)
	if err != nil {
		return nil, err
	}
	if err := result.Err(); err != nil {
		return nil, err
	}

	cat, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := Validate(cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func Parse(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return &cat, nil
}

// New returns an empty catalog stamped with the current time.
func New() *Catalog {
	return &Catalog{
		Version:     "1.0.0",
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
		Activities:  []Activity{},
	}
}

// Save writes the catalog as indented JSON, creating parent directories.
func Save(cat *Catalog, path string) error {
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}

// Validate checks the rules the registry relies on.
func Validate(cat *Catalog) error {
	if len(cat.Activities) == 0 {
		return fmt.Errorf("catalog contains no activities")
	}

	names := make(map[string]bool, len(cat.Activities))
	for _, a := range cat.Activities {
		if a.Name == "" {
			return fmt.Errorf("activity missing required field: name")
		}
		if names[a.Name] {
			return fmt.Errorf("duplicate activity name: %s", a.Name)
		}
		names[a.Name] = true

		if a.Description == "" {
			return fmt.Errorf("activity %s missing required field: description", a.Name)
		}
		if a.Schedule == "" {
			return fmt.Errorf("activity %s missing required field: schedule", a.Name)
		}
		if a.MaxParticipants <= 0 {
			return fmt.Errorf("activity %s must have positive maxParticipants", a.Name)
		}

		seen := make(map[string]bool, len(a.Participants))
		for _, p := range a.Participants {
			if seen[p] {
				return fmt.Errorf("activity %s lists %s more than once", a.Name, p)
			}
			seen[p] = true
		}
		if len(a.Participants) > a.MaxParticipants {
			return fmt.Errorf("activity %s has %d participants, over its capacity of %d",
				a.Name, len(a.Participants), a.MaxParticipants)
		}
	}
	return nil
}

// Find returns the index of the named activity, or -1.
func (c *Catalog) Find(name string) int {
	for i := range c.Activities {
		if c.Activities[i].Name == name {
			return i
		}
	}
	return -1
}

// ToActivities converts catalog entries into registry seed records.
func (c *Catalog) ToActivities() []activities.Activity {
	out := make([]activities.Activity, 0, len(c.Activities))
	for _, a := range c.Activities {
		participants := make([]string, len(a.Participants))
		copy(participants, a.Participants)
		out = append(out, activities.Activity{
			Name:            a.Name,
			Description:     a.Description,
			Schedule:        a.Schedule,
			MaxParticipants: a.MaxParticipants,
			Participants:    participants,
		})
	}
	return out
}

// FromActivities builds a catalog from registry records.
func FromActivities(in []activities.Activity) *Catalog {
	cat := New()
	for _, a := range in {
		cat.Activities = append(cat.Activities, Activity{
			Name:            a.Name,
			Description:     a.Description,
			Schedule:        a.Schedule,
			MaxParticipants: a.MaxParticipants,
			Participants:    append([]string{}, a.Participants...),
		})
	}
	return cat
}
