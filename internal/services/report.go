package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"gorm.io/gorm"

	activityrepo "github.com/yungbote/activity-tracker-backend/internal/data/repos/activity"
	updaterepo "github.com/yungbote/activity-tracker-backend/internal/data/repos/update"
	"github.com/yungbote/activity-tracker-backend/internal/domain/tracker"
	"github.com/yungbote/activity-tracker-backend/internal/platform/apierr"
	"github.com/yungbote/activity-tracker-backend/internal/platform/logger"
)

type ReportQuery struct {
	From time.Time
	To   time.Time
}

type ReportActivity struct {
	Activity *tracker.Activity `json:"activity"`
	Updates  []*tracker.Update `json:"updates"`
}

type ReportView struct {
	From        time.Time        `json:"from"`
	To          time.Time        `json:"to"`
	Started     []ReportActivity `json:"started"`
	Closed      []ReportActivity `json:"closed"`
	UpdateCount int              `json:"update_count"`
	GeneratedAt time.Time        `json:"generated_at"`
}

type ReportService interface {
	Build(ctx context.Context, q ReportQuery) (*ReportView, error)
	RenderPDF(ctx context.Context, q ReportQuery) ([]byte, error)
}

type reportService struct {
	db           *gorm.DB
	log          *logger.Logger
	activityRepo activityrepo.ActivityRepo
	updateRepo   updaterepo.UpdateRepo
	now          func() time.Time
}

func NewReportService(
	db *gorm.DB,
	baseLog *logger.Logger,
	activityRepo activityrepo.ActivityRepo,
	updateRepo updaterepo.UpdateRepo,
) ReportService {
	serviceLog := baseLog.With("service", "ReportService")
	return &reportService{
		db:           db,
		log:          serviceLog,
		activityRepo: activityRepo,
		updateRepo:   updateRepo,
		now:          time.Now,
	}
}

func (rs *reportService) Build(ctx context.Context, q ReportQuery) (*ReportView, error) {
	if q.From.IsZero() || q.To.IsZero() {
		return nil, apierr.Validation("report_range_required", "report requires from and to dates")
	}
	if q.To.Before(q.From) {
		return nil, apierr.Validation("report_range_inverted", "report end date precedes start date")
	}
	// Inclusive end date.
	rangeEnd := tracker.DayStart(q.To).AddDate(0, 0, 1)
	rangeStart := tracker.DayStart(q.From)

	activities, err := rs.activityRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	updates, err := rs.updateRepo.ListSince(ctx, nil, rangeStart)
	if err != nil {
		return nil, fmt.Errorf("list updates: %w", err)
	}

	updatesByActivity := map[string][]*tracker.Update{}
	updateCount := 0
	for _, u := range updates {
		if !u.CreatedAt.Before(rangeEnd) {
			continue
		}
		updatesByActivity[u.ActivityID.String()] = append(updatesByActivity[u.ActivityID.String()], u)
		updateCount++
	}

	view := &ReportView{
		From:        rangeStart,
		To:          tracker.DayStart(q.To),
		UpdateCount: updateCount,
		GeneratedAt: rs.now().UTC(),
	}
	for _, a := range activities {
		entry := ReportActivity{Activity: a, Updates: updatesByActivity[a.ID.String()]}
		start := tracker.DayStart(a.StartDate)
		if !start.Before(rangeStart) && start.Before(rangeEnd) {
			view.Started = append(view.Started, entry)
		}
		if a.Status == tracker.StatusClosed && a.EndDate != nil {
			end := tracker.DayStart(*a.EndDate)
			if !end.Before(rangeStart) && end.Before(rangeEnd) {
				view.Closed = append(view.Closed, entry)
			}
		}
	}
	return view, nil
}

func (rs *reportService) RenderPDF(ctx context.Context, q ReportQuery) ([]byte, error) {
	view, err := rs.Build(ctx, q)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Activity Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Activity Report")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 8, fmt.Sprintf("%s to %s, generated %s",
		view.From.Format(dateLayout), view.To.Format(dateLayout),
		view.GeneratedAt.Format("2006-01-02 15:04 MST")))
	pdf.Ln(12)

	writeSection := func(title string, entries []ReportActivity) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, fmt.Sprintf("%s (%d)", title, len(entries)))
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
		if len(entries) == 0 {
			pdf.Cell(0, 6, "none")
			pdf.Ln(8)
			return
		}
		for _, e := range entries {
			a := e.Activity
			endDate := "-"
			if a.EndDate != nil {
				endDate = a.EndDate.Format(dateLayout)
			}
			pdf.MultiCell(0, 6, fmt.Sprintf("[%s] %s (start %s, end %s)",
				a.Priority, a.Description, a.StartDate.Format(dateLayout), endDate), "", "L", false)
			for _, u := range e.Updates {
				pdf.MultiCell(0, 5, fmt.Sprintf("    %s  %s",
					u.CreatedAt.UTC().Format(dateLayout), u.Text), "", "L", false)
			}
			pdf.Ln(2)
		}
		pdf.Ln(4)
	}

	writeSection("Started in range", view.Started)
	writeSection("Closed in range", view.Closed)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 8, fmt.Sprintf("Updates logged in range: %d", view.UpdateCount))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		rs.log.Error("PDF render failed", "error", err)
		return nil, apierr.Internal("pdf_render_failed", err)
	}
	return buf.Bytes(), nil
}
