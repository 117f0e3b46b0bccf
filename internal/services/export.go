package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	activityrepo "github.com/yungbote/activity-tracker-backend/internal/data/repos/activity"
	goalrepo "github.com/yungbote/activity-tracker-backend/internal/data/repos/goal"
	updaterepo "github.com/yungbote/activity-tracker-backend/internal/data/repos/update"
	"github.com/yungbote/activity-tracker-backend/internal/domain/tracker"
	"github.com/yungbote/activity-tracker-backend/internal/platform/logger"
)

const dateLayout = "2006-01-02"

type ExportService interface {
	ActivitiesCSV(ctx context.Context) ([]byte, error)
	ExportAll(ctx context.Context) ([]byte, error)
}

type exportService struct {
	db           *gorm.DB
	log          *logger.Logger
	activityRepo activityrepo.ActivityRepo
	updateRepo   updaterepo.UpdateRepo
	goalRepo     goalrepo.GoalRepo
	dbPath       string
	now          func() time.Time
}

func NewExportService(
	db *gorm.DB,
	baseLog *logger.Logger,
	activityRepo activityrepo.ActivityRepo,
	updateRepo updaterepo.UpdateRepo,
	goalRepo goalrepo.GoalRepo,
	dbPath string,
) ExportService {
	serviceLog := baseLog.With("service", "ExportService")
	return &exportService{
		db:           db,
		log:          serviceLog,
		activityRepo: activityRepo,
		updateRepo:   updateRepo,
		goalRepo:     goalRepo,
		dbPath:       dbPath,
		now:          time.Now,
	}
}

// ActivitiesCSV renders every activity as one CSV row, joined with its update
// count and most recent update date.
func (es *exportService) ActivitiesCSV(ctx context.Context) ([]byte, error) {
	activities, err := es.activityRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	counts, err := es.updateRepo.CountPerActivity(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("count updates: %w", err)
	}
	latest, err := es.updateRepo.LatestPerActivity(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("latest updates: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{
		"id", "description", "source", "start_date", "end_date",
		"blocking_points", "status", "observations", "priority", "tags",
		"update_count", "last_update",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, a := range activities {
		endDate := ""
		if a.EndDate != nil {
			endDate = a.EndDate.Format(dateLayout)
		}
		lastUpdate := ""
		if at, ok := latest[a.ID]; ok {
			lastUpdate = at.UTC().Format(dateLayout)
		}
		row := []string{
			a.ID.String(), a.Description, a.Source,
			a.StartDate.Format(dateLayout), endDate,
			a.BlockingPoints, a.Status, a.Observations, a.Priority, a.Tags,
			strconv.FormatInt(counts[a.ID], 10), lastUpdate,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type exportManifest struct {
	ExportedAt time.Time        `json:"exported_at"`
	Counts     map[string]int   `json:"counts"`
	Files      []string         `json:"files"`
	Version    string           `json:"version,omitempty"`
}

// ExportAll bundles the raw database file (when file-backed), a CSV and JSON
// dump per table, and a manifest into one ZIP.
func (es *exportService) ExportAll(ctx context.Context) ([]byte, error) {
	var (
		activities []*tracker.Activity
		updates    []*tracker.Update
		goals      []*tracker.Goal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		activities, err = es.activityRepo.List(gctx, nil)
		return err
	})
	g.Go(func() error {
		var err error
		updates, err = es.updateRepo.ListAll(gctx, nil)
		return err
	})
	g.Go(func() error {
		var err error
		goals, err = es.goalRepo.ListAll(gctx, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collect export tables: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	manifest := exportManifest{
		ExportedAt: es.now().UTC(),
		Counts: map[string]int{
			"activities": len(activities),
			"updates":    len(updates),
			"goals":      len(goals),
		},
	}

	addFile := func(name string, payload []byte) error {
		f, err := zw.Create(name)
		if err != nil {
			return err
		}
		if _, err := f.Write(payload); err != nil {
			return err
		}
		manifest.Files = append(manifest.Files, name)
		return nil
	}

	if es.dbPath != "" && es.dbPath != ":memory:" {
		raw, err := os.ReadFile(es.dbPath)
		if err != nil {
			es.log.Warn("Skipping raw database in export", "error", err)
		} else if err := addFile(filepath.Base(es.dbPath), raw); err != nil {
			return nil, err
		}
	}

	activitiesCSV, err := es.ActivitiesCSV(ctx)
	if err != nil {
		return nil, err
	}
	if err := addFile("activities.csv", activitiesCSV); err != nil {
		return nil, err
	}
	updatesCSV, err := updatesToCSV(updates)
	if err != nil {
		return nil, err
	}
	if err := addFile("updates.csv", updatesCSV); err != nil {
		return nil, err
	}
	goalsCSV, err := goalsToCSV(goals)
	if err != nil {
		return nil, err
	}
	if err := addFile("goals.csv", goalsCSV); err != nil {
		return nil, err
	}

	for name, v := range map[string]any{
		"activities.json": activities,
		"updates.json":    updates,
		"goals.json":      goals,
	} {
		payload, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		if err := addFile(name, payload); err != nil {
			return nil, err
		}
	}

	manifestPayload, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	f, err := zw.Create("manifest.json")
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(manifestPayload); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}

	es.log.Info("Export bundle built",
		"activities", len(activities), "updates", len(updates), "goals", len(goals))
	return buf.Bytes(), nil
}

func updatesToCSV(updates []*tracker.Update) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "activity_id", "text", "bp_snapshot", "created_at"}); err != nil {
		return nil, err
	}
	for _, u := range updates {
		row := []string{
			u.ID.String(), u.ActivityID.String(), u.Text, u.BPSnapshot,
			u.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func goalsToCSV(goals []*tracker.Goal) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "text", "week_of", "completed"}); err != nil {
		return nil, err
	}
	for _, g := range goals {
		row := []string{
			g.ID.String(), g.Text, g.WeekOf.Format(dateLayout),
			strconv.FormatBool(g.Completed),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
