package schedule

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/benvon/slotfinder/internal/availability"
	"github.com/benvon/slotfinder/internal/models"
	"github.com/benvon/slotfinder/internal/telemetry"
)

// TaskStore is the read side of the task provider
type TaskStore interface {
	// ListTasks returns active tasks; an empty projectID means all projects
	ListTasks(ctx context.Context, projectID string) ([]models.TaskRecord, error)
	// LoadDirectory returns a directory the caller may mutate
	LoadDirectory(ctx context.Context) (*models.Directory, error)
}

// Options are the defaults applied to requests that leave fields empty
type Options struct {
	Timezone       string
	WorkdayStart   string
	WorkdayEnd     string
	MinSlotMinutes int
}

// DefaultOptions returns UTC and the standard work window
func DefaultOptions() Options {
	return Options{
		Timezone:       "UTC",
		WorkdayStart:   availability.DefaultWorkdayStart,
		WorkdayEnd:     availability.DefaultWorkdayEnd,
		MinSlotMinutes: availability.DefaultMinSlotMinutes,
	}
}

// Service runs task queries and free-slot searches against a TaskStore
type Service struct {
	store  TaskStore
	opts   Options
	logger *zap.Logger
}

// NewService creates a schedule service
func NewService(store TaskStore, opts Options, logger *zap.Logger) *Service {
	defaults := DefaultOptions()
	if opts.Timezone == "" {
		opts.Timezone = defaults.Timezone
	}
	if opts.WorkdayStart == "" {
		opts.WorkdayStart = defaults.WorkdayStart
	}
	if opts.WorkdayEnd == "" {
		opts.WorkdayEnd = defaults.WorkdayEnd
	}
	if opts.MinSlotMinutes <= 0 {
		opts.MinSlotMinutes = defaults.MinSlotMinutes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, opts: opts, logger: logger}
}

// Query returns tasks matching the request, ordered instant first, then
// date-only, then undated, and enriched with directory names.
func (s *Service) Query(ctx context.Context, req QueryRequest) (_ *QueryResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "schedule.Query",
		attribute.Int("project_count", len(req.ProjectNames)),
		attribute.Int("label_count", len(req.LabelFilters)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	tzName, loc, err := s.location(req.Timezone)
	if err != nil {
		return nil, err
	}
	if req.DateFrom != nil && req.DateTo != nil && req.DateTo.Before(*req.DateFrom) {
		return nil, availability.ErrInvalidDateRange
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		return nil, fmt.Errorf("%w: limit must be at most %d", ErrInvalidRequest, MaxQueryLimit)
	}

	dir, err := s.store.LoadDirectory(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTaskStoreUnavailable, err)
	}
	projectIDs, err := resolveProjects(dir, req.ProjectNames)
	if err != nil {
		return nil, err
	}

	records, err := s.fetchTasks(ctx, projectIDs)
	if err != nil {
		return nil, err
	}

	occs, stats := availability.NormalizeAll(records, loc)
	s.logMalformed(stats)

	selected := availability.Filter(occs, availability.FilterOptions{
		ProjectIDs:        projectIDs,
		Labels:            req.LabelFilters,
		From:              req.DateFrom,
		To:                req.DateTo,
		IncludeWithoutDue: req.IncludeWithoutDue,
		IncludeCompleted:  req.IncludeCompleted,
		Limit:             limit,
		Location:          loc,
	})
	availability.Sort(selected, loc)

	tasks := make([]TaskSummary, 0, len(selected))
	for _, occ := range selected {
		tasks = append(tasks, summarize(occ, dir, loc))
	}

	s.logger.Info("tasks_queried",
		zap.Int("fetched", len(records)),
		zap.Int("returned", len(tasks)),
		zap.Int("malformed_due", stats.Malformed),
		zap.String("timezone", tzName),
	)

	return &QueryResult{
		Tasks:        tasks,
		Count:        len(tasks),
		MalformedDue: stats.Malformed,
		Timezone:     tzName,
	}, nil
}

// FreeSlots computes free slots for every day in the request range. All
// inputs are validated before the task store is contacted.
func (s *Service) FreeSlots(ctx context.Context, req FreeSlotsRequest) (_ *FreeSlotsResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "schedule.FreeSlots",
		attribute.String("date_from", req.DateFrom.String()),
		attribute.String("date_to", req.DateTo.String()),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if req.DateFrom.IsZero() || req.DateTo.IsZero() {
		return nil, fmt.Errorf("%w: date_from and date_to are required", ErrInvalidRequest)
	}
	if req.DateTo.Before(req.DateFrom) {
		return nil, availability.ErrInvalidDateRange
	}
	if req.DateTo.After(req.DateFrom.AddDays(MaxFreeSlotsDays - 1)) {
		return nil, fmt.Errorf("%w: date range must span at most %d days", ErrInvalidRequest, MaxFreeSlotsDays)
	}
	if req.WorkdayStart == "" {
		req.WorkdayStart = s.opts.WorkdayStart
	}
	if req.WorkdayEnd == "" {
		req.WorkdayEnd = s.opts.WorkdayEnd
	}
	hours, err := availability.NewWorkHours(req.WorkdayStart, req.WorkdayEnd)
	if err != nil {
		return nil, err
	}
	if req.MinSlotMinutes < 0 {
		return nil, fmt.Errorf("%w: min_slot_minutes must not be negative", ErrInvalidRequest)
	}
	if req.MinSlotMinutes == 0 {
		req.MinSlotMinutes = s.opts.MinSlotMinutes
	}
	tzName, loc, err := s.location(req.Timezone)
	if err != nil {
		return nil, err
	}

	var projectIDs []string
	if len(req.ProjectNames) > 0 {
		dir, err := s.store.LoadDirectory(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTaskStoreUnavailable, err)
		}
		if projectIDs, err = resolveProjects(dir, req.ProjectNames); err != nil {
			return nil, err
		}
	}

	records, err := s.fetchTasks(ctx, projectIDs)
	if err != nil {
		return nil, err
	}

	occs, stats := availability.NormalizeAll(records, loc)
	s.logMalformed(stats)

	from := req.DateFrom.Midnight(loc)
	to := req.DateTo.AddDays(1).Midnight(loc).Add(-time.Nanosecond)
	busyOccs := availability.Filter(occs, availability.FilterOptions{
		ProjectIDs: projectIDs,
		Labels:     req.LabelFilters,
		From:       &from,
		To:         &to,
		Location:   loc,
	})
	busy := availability.BuildIntervals(busyOccs)
	slots := availability.ScanDays(busy, req.DateFrom, req.DateTo, hours, req.MinSlotMinutes, loc)
	if slots == nil {
		slots = []models.FreeSlot{}
	}

	s.logger.Info("free_slots_computed",
		zap.String("date_from", req.DateFrom.String()),
		zap.String("date_to", req.DateTo.String()),
		zap.Int("busy_count", len(busy)),
		zap.Int("slot_count", len(slots)),
		zap.String("timezone", tzName),
	)

	return &FreeSlotsResult{
		Slots:          slots,
		BusyCount:      len(busy),
		MalformedDue:   stats.Malformed,
		DateFrom:       req.DateFrom,
		DateTo:         req.DateTo,
		WorkdayStart:   hours.Start.String(),
		WorkdayEnd:     hours.End.String(),
		MinSlotMinutes: req.MinSlotMinutes,
		Timezone:       tzName,
	}, nil
}

// Location resolves a zone name, falling back to the service default
func (s *Service) Location(name string) (*time.Location, error) {
	_, loc, err := s.location(name)
	return loc, err
}

func (s *Service) location(name string) (string, *time.Location, error) {
	if name == "" {
		name = s.opts.Timezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	return name, loc, nil
}

// fetchTasks lists tasks for each project concurrently. The first failure
// cancels the remaining calls. Results keep the order of projectIDs.
func (s *Service) fetchTasks(ctx context.Context, projectIDs []string) ([]models.TaskRecord, error) {
	if len(projectIDs) == 0 {
		records, err := s.store.ListTasks(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTaskStoreUnavailable, err)
		}
		return records, nil
	}

	perProject := make([][]models.TaskRecord, len(projectIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range projectIDs {
		g.Go(func() error {
			records, err := s.store.ListTasks(gctx, id)
			if err != nil {
				return fmt.Errorf("project %s: %w", id, err)
			}
			perProject[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTaskStoreUnavailable, err)
	}

	var records []models.TaskRecord
	for _, batch := range perProject {
		records = append(records, batch...)
	}
	return records, nil
}

func (s *Service) logMalformed(stats availability.NormalizeStats) {
	if stats.Malformed == 0 {
		return
	}
	s.logger.Debug("malformed_due_values",
		zap.Int("count", stats.Malformed),
		zap.Strings("task_ids", stats.MalformedIDs),
	)
}

// resolveProjects maps names to ids, dropping repeats
func resolveProjects(dir *models.Directory, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(names))
	ids := make([]string, 0, len(names))
	for _, name := range names {
		id, ok := dir.ProjectID(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProject, name)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func summarize(occ models.Occurrence, dir *models.Directory, loc *time.Location) TaskSummary {
	sum := TaskSummary{
		ID:              occ.ID,
		Content:         occ.Raw.Content,
		Description:     occ.Raw.Description,
		ProjectID:       occ.ProjectID,
		SectionID:       occ.SectionID,
		Labels:          occ.Labels.Sorted(),
		Priority:        occ.Raw.Priority,
		DurationMinutes: occ.DurationMinutes,
		IsCompleted:     occ.Raw.IsCompleted,
		URL:             occ.Raw.URL,
	}
	if name, ok := dir.ProjectName(occ.ProjectID); ok {
		sum.ProjectName = name
	}
	if occ.SectionID != "" {
		if name, ok := dir.SectionName(occ.ProjectID, occ.SectionID); ok {
			sum.SectionName = name
		}
	}

	switch occ.Timing.Kind {
	case models.TimingInstant:
		at := occ.Timing.Instant.In(loc)
		sum.Due = &DueSummary{Kind: occ.Timing.Kind.String(), Datetime: &at}
	case models.TimingDate:
		d := occ.Timing.Date
		sum.Due = &DueSummary{Kind: occ.Timing.Kind.String(), Date: &d}
	}
	return sum
}
