package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"testing"
)

func (f *testFixture) exportService() ExportService {
	return NewExportService(f.db, f.log, f.activityRepo, f.updateRepo, f.goalRepo, ":memory:")
}

func TestActivitiesCSVIncludesUpdateColumns(t *testing.T) {
	f := newFixture(t)
	actSvc := f.activityService()
	expSvc := f.exportService()
	ctx := context.Background()

	a, err := actSvc.Create(ctx, CreateActivityInput{Description: "exported"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := actSvc.AppendUpdate(ctx, a.ID, "first", nil); err != nil {
		t.Fatalf("append: %v", err)
	}

	payload, err := expSvc.ActivitiesCSV(ctx)
	if err != nil {
		t.Fatalf("csv: %v", err)
	}

	rows, err := csv.NewReader(bytes.NewReader(payload)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header plus 1 row, got %d", len(rows))
	}
	header := rows[0]
	if header[len(header)-2] != "update_count" || header[len(header)-1] != "last_update" {
		t.Fatalf("unexpected header tail %v", header[len(header)-2:])
	}
	row := rows[1]
	if row[len(row)-2] != "1" {
		t.Fatalf("expected update_count 1, got %q", row[len(row)-2])
	}
	if row[len(row)-1] == "" {
		t.Fatal("expected last_update to be populated")
	}
}

func TestExportAllManifestMatchesRowCounts(t *testing.T) {
	f := newFixture(t)
	actSvc := f.activityService()
	goalSvc := f.goalService()
	expSvc := f.exportService()
	ctx := context.Background()

	a, err := actSvc.Create(ctx, CreateActivityInput{Description: "in export"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := actSvc.AppendUpdate(ctx, a.ID, "note one", nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := actSvc.AppendUpdate(ctx, a.ID, "note two", nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := goalSvc.Add(ctx, "weekly goal", nil); err != nil {
		t.Fatalf("goal add: %v", err)
	}

	payload, err := expSvc.ExportAll(ctx)
	if err != nil {
		t.Fatalf("export all: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}

	names := map[string]bool{}
	var manifestRaw []byte
	for _, zf := range zr.File {
		names[zf.Name] = true
		if zf.Name == "manifest.json" {
			rc, err := zf.Open()
			if err != nil {
				t.Fatalf("open manifest: %v", err)
			}
			manifestRaw, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				t.Fatalf("read manifest: %v", err)
			}
		}
	}

	for _, want := range []string{
		"manifest.json",
		"activities.csv", "updates.csv", "goals.csv",
		"activities.json", "updates.json", "goals.json",
	} {
		if !names[want] {
			t.Fatalf("zip missing %s (have %v)", want, names)
		}
	}

	var manifest struct {
		Counts map[string]int `json:"counts"`
	}
	if err := json.Unmarshal(manifestRaw, &manifest); err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	if manifest.Counts["activities"] != 1 ||
		manifest.Counts["updates"] != 2 ||
		manifest.Counts["goals"] != 1 {
		t.Fatalf("unexpected manifest counts %+v", manifest.Counts)
	}
}
