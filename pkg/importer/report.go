package importer

import (
	"fmt"
	"strings"
)

// Entity labels used in reports. Phase order.
var entityOrder = []string{
	"theme",
	"conflict_arc",
	"location",
	"organization",
	"character",
	"object",
	"series",
	"season",
	"episode",
	"event",
	"participation",
	"object_involvement",
	"location_involvement",
	"organization_involvement",
	"connection",
}

// RecordError describes one skipped record. Record-level problems never
// fail a run; they are collected here instead.
type RecordError struct {
	Entity string `json:"entity"`
	UUID   string `json:"curation_uuid"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

// EntityStats counts upsert outcomes for one entity type.
type EntityStats struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Report is the outcome of one import run.
type Report struct {
	RunID    string                  `json:"run_id"`
	DryRun   bool                    `json:"dry_run"`
	Stats    map[string]*EntityStats `json:"stats"`
	Errors   []RecordError           `json:"errors"`
	Warnings []string                `json:"warnings"`
}

func newReport(runID string, dryRun bool) *Report {
	stats := make(map[string]*EntityStats, len(entityOrder))
	for _, entity := range entityOrder {
		stats[entity] = &EntityStats{}
	}
	return &Report{
		RunID:    runID,
		DryRun:   dryRun,
		Stats:    stats,
		Errors:   make([]RecordError, 0),
		Warnings: make([]string, 0),
	}
}

func (r *Report) upserted(entity string, created bool) {
	if created {
		r.Stats[entity].Created++
	} else {
		r.Stats[entity].Updated++
	}
}

func (r *Report) skip(entity string, uuid string, field string, reason string) {
	r.Stats[entity].Skipped++
	r.Errors = append(r.Errors, RecordError{
		Entity: entity,
		UUID:   uuid,
		Field:  field,
		Reason: reason,
	})
}

func (r *Report) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors reports whether any record was skipped.
func (r *Report) HasErrors() bool {
	return len(r.Errors) > 0
}

// TotalCreated sums created counts across all entity types.
func (r *Report) TotalCreated() int {
	total := 0
	for _, s := range r.Stats {
		total += s.Created
	}
	return total
}

// Summary renders the report as human-readable text for the CLI.
func (r *Report) Summary() string {
	var b strings.Builder

	header := "import run %s\n"
	if r.DryRun {
		header = "import run %s (dry run, rolled back)\n"
	}
	fmt.Fprintf(&b, header, r.RunID)

	for _, entity := range entityOrder {
		s := r.Stats[entity]
		if s.Created == 0 && s.Updated == 0 && s.Skipped == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %-24s created=%d updated=%d skipped=%d\n",
			entity, s.Created, s.Updated, s.Skipped)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "record errors (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			if e.Field != "" {
				fmt.Fprintf(&b, "  %s %s [%s]: %s\n", e.Entity, e.UUID, e.Field, e.Reason)
			} else {
				fmt.Fprintf(&b, "  %s %s: %s\n", e.Entity, e.UUID, e.Reason)
			}
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(&b, "warnings (%d):\n", len(r.Warnings))
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "  %s\n", w)
		}
	}

	return b.String()
}
