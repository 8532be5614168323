package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/slotfinder/internal/models"
	"github.com/benvon/slotfinder/internal/services/schedule"
)

// DryRunTaskID is reported for tasks a dry run would have created
const DryRunTaskID = "dry-run"

// Store is the read/write surface the importer needs from the task provider
type Store interface {
	schedule.TaskStore
	CreateProject(ctx context.Context, name string) (*models.Project, error)
	CreateSection(ctx context.Context, projectID, name string) (*models.Section, error)
	CreateLabel(ctx context.Context, name string) (*models.Label, error)
	CreateTask(ctx context.Context, draft models.TaskDraft) (*models.TaskRecord, error)
	DeleteTask(ctx context.Context, taskID string) error
}

// Invalidator is implemented by stores that cache the directory
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Service imports schedule items as tasks
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates an importer
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Import creates one task per item. Per-item failures are collected in the
// result; only failing to read the directory or to prepare the replace
// project aborts the batch.
func (s *Service) Import(ctx context.Context, req models.ImportRequest) (*models.ImportResult, error) {
	opts := resolveOptions(req.Options)
	result := &models.ImportResult{
		Created:  []models.CreatedTask{},
		Errors:   []models.ItemError{},
		Failures: []models.OperationFailure{},
	}

	dir, err := s.store.LoadDirectory(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load directory: %w", schedule.ErrTaskStoreUnavailable, err)
	}

	replaceName := ""
	if opts.Mode == models.ImportModeReplaceProject && opts.ReplaceProjectName != nil {
		replaceName = strings.TrimSpace(*opts.ReplaceProjectName)
	}
	if replaceName != "" {
		projectID, err := s.ensureProject(ctx, dir, replaceName, opts.DryRun)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to prepare project for replace: %w", schedule.ErrTaskStoreUnavailable, err)
		}
		if !opts.DryRun && projectID != "" {
			if err := s.clearProject(ctx, projectID, result); err != nil {
				return nil, fmt.Errorf("%w: failed to clear project: %w", schedule.ErrTaskStoreUnavailable, err)
			}
		}
	}

	for idx, item := range req.Items {
		created, err := s.importItem(ctx, idx, item, opts, replaceName, dir, result)
		if err != nil {
			result.Errors = append(result.Errors, models.ItemError{Index: idx, Message: err.Error()})
			continue
		}
		result.Created = append(result.Created, *created)
	}

	if !opts.DryRun {
		s.invalidate(ctx)
	}

	s.logger.Info("schedule_imported",
		zap.String("mode", string(opts.Mode)),
		zap.Bool("dry_run", opts.DryRun),
		zap.Int("items", len(req.Items)),
		zap.Int("created", len(result.Created)),
		zap.Int("errors", len(result.Errors)),
		zap.Int("failures", len(result.Failures)),
	)

	return result, nil
}

func (s *Service) importItem(
	ctx context.Context,
	idx int,
	item models.ScheduleItem,
	opts models.ImportOptions,
	replaceName string,
	dir *models.Directory,
	result *models.ImportResult,
) (*models.CreatedTask, error) {
	projectName := deref(item.ProjectName)
	if projectName == "" {
		projectName = deref(opts.DefaultProjectName)
	}
	if replaceName != "" {
		projectName = replaceName
	}

	projectID := ""
	if projectName != "" {
		id, err := s.ensureProject(ctx, dir, projectName, opts.DryRun)
		if err != nil {
			return nil, fmt.Errorf("todoist error: project %q: %w", projectName, err)
		}
		projectID = id
	}

	labels := mergeLabels(opts.DefaultLabels, item.Labels)
	for _, name := range labels {
		if err := s.ensureLabel(ctx, dir, name, opts.DryRun); err != nil {
			return nil, fmt.Errorf("todoist error: label %q: %w", name, err)
		}
	}

	draft, err := buildDraft(item, opts)
	if err != nil {
		return nil, err
	}
	draft.ProjectID = projectID
	draft.Labels = labels

	if name := strings.TrimSpace(deref(item.SectionName)); name != "" && projectID != "" {
		sectionID, err := s.ensureSection(ctx, dir, projectID, name, opts.DryRun)
		if err != nil {
			result.Failures = append(result.Failures, models.OperationFailure{
				Operation: "create_section",
				Target:    name,
				Message:   err.Error(),
			})
		}
		draft.SectionID = sectionID
	}

	created := &models.CreatedTask{Index: idx, Content: draft.Content, DryRun: opts.DryRun}
	if projectID != "" {
		created.ProjectID = &projectID
	}

	if opts.DryRun {
		created.TaskID = DryRunTaskID
		return created, nil
	}

	task, err := s.store.CreateTask(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("todoist error: %w", err)
	}
	created.TaskID = task.ID
	created.Content = task.Content
	if task.ProjectID != "" {
		pid := task.ProjectID
		created.ProjectID = &pid
	}
	return created, nil
}

// ensureProject returns the id for name, creating the project unless this
// is a dry run. A dry run reports "" for a project that does not exist yet.
func (s *Service) ensureProject(ctx context.Context, dir *models.Directory, name string, dryRun bool) (string, error) {
	if id, ok := dir.ProjectID(name); ok {
		return id, nil
	}
	if dryRun {
		return "", nil
	}
	project, err := s.store.CreateProject(ctx, name)
	if err != nil {
		return "", err
	}
	dir.AddProject(*project)
	s.logger.Info("project_created", zap.String("project_id", project.ID), zap.String("name", project.Name))
	return project.ID, nil
}

func (s *Service) ensureLabel(ctx context.Context, dir *models.Directory, name string, dryRun bool) error {
	if _, ok := dir.LabelID(name); ok || dryRun {
		return nil
	}
	label, err := s.store.CreateLabel(ctx, name)
	if err != nil {
		return err
	}
	dir.AddLabel(*label)
	return nil
}

func (s *Service) ensureSection(ctx context.Context, dir *models.Directory, projectID, name string, dryRun bool) (string, error) {
	if id, ok := dir.SectionID(projectID, name); ok {
		return id, nil
	}
	if dryRun {
		return "", nil
	}
	section, err := s.store.CreateSection(ctx, projectID, name)
	if err != nil {
		return "", err
	}
	dir.AddSection(*section)
	return section.ID, nil
}

// clearProject deletes every active task in the project. A failed delete is
// recorded and does not stop the others.
func (s *Service) clearProject(ctx context.Context, projectID string, result *models.ImportResult) error {
	tasks, err := s.store.ListTasks(ctx, projectID)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		if err := s.store.DeleteTask(ctx, task.ID); err != nil {
			s.logger.Warn("task_delete_failed", zap.String("task_id", task.ID), zap.Error(err))
			result.Failures = append(result.Failures, models.OperationFailure{
				Operation: "delete_task",
				Target:    task.ID,
				Message:   err.Error(),
			})
		}
	}
	s.logger.Info("project_cleared", zap.String("project_id", projectID), zap.Int("tasks", len(tasks)))
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	inv, ok := s.store.(Invalidator)
	if !ok {
		return
	}
	if err := inv.Invalidate(ctx); err != nil {
		s.logger.Warn("directory_cache_invalidate_failed", zap.Error(err))
	}
}

// resolveOptions fills unset options with their defaults
func resolveOptions(in *models.ImportOptions) models.ImportOptions {
	if in == nil {
		return models.DefaultImportOptions()
	}
	opts := *in
	if opts.Mode == "" {
		opts.Mode = models.ImportModeCreate
	}
	if opts.DefaultTimezone == "" {
		opts.DefaultTimezone = models.DefaultImportTimezone
	}
	return opts
}

// buildDraft maps an item onto a task payload, leaving project, section and
// labels to the caller
func buildDraft(item models.ScheduleItem, opts models.ImportOptions) (models.TaskDraft, error) {
	draft := models.TaskDraft{
		Content:  deref(opts.TitlePrefix) + item.Title + deref(opts.TitleSuffix),
		Priority: firstPositive(item.Priority, opts.DefaultPriority, 1),
	}

	var start, end *time.Time
	if item.StartDatetime != nil || item.EndDatetime != nil {
		tz := deref(item.Timezone)
		if tz == "" {
			tz = opts.DefaultTimezone
		}
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return models.TaskDraft{}, fmt.Errorf("invalid timezone %q: %w", tz, err)
		}
		start = resolveTime(item.StartDatetime, loc)
		end = resolveTime(item.EndDatetime, loc)
	}

	var desc []string
	if d := deref(item.Description); d != "" {
		desc = append(desc, d)
	}
	if start != nil || end != nil {
		block := "Time block: "
		if item.StartDatetime != nil {
			block += formatBlockTime(item.StartDatetime, start)
		}
		if item.EndDatetime != nil {
			block += " ~ " + formatBlockTime(item.EndDatetime, end)
		}
		desc = append(desc, block)
	}
	draft.Description = strings.Join(desc, "\n")

	switch {
	case deref(item.DueString) != "":
		draft.DueString = *item.DueString
	case start != nil:
		draft.DueDatetime = start.Format(time.RFC3339)
	}

	minutes := 0
	if item.DurationMinutes != nil && *item.DurationMinutes > 0 {
		minutes = *item.DurationMinutes
	} else if start != nil && end != nil && end.After(*start) {
		minutes = int(end.Sub(*start) / time.Minute)
	}
	if minutes > 0 {
		draft.Duration = minutes
		draft.DurationUnit = models.DurationUnitMinute
	}

	return draft, nil
}

// resolveTime returns the instant expressed in loc
func resolveTime(l *models.LocalDateTime, loc *time.Location) *time.Time {
	if l == nil {
		return nil
	}
	t := l.In(loc).In(loc)
	return &t
}

// formatBlockTime keeps a given offset as written and shows offset-less
// times in the zone they were read in
func formatBlockTime(l *models.LocalDateTime, resolved *time.Time) string {
	if l.HasOffset {
		return l.Time.Format(time.RFC3339)
	}
	return resolved.Format(time.RFC3339)
}

// mergeLabels concatenates defaults and item labels, keeping first occurrences
func mergeLabels(defaults, labels []string) []string {
	seen := make(map[string]struct{}, len(defaults)+len(labels))
	var out []string
	for _, group := range [][]string{defaults, labels} {
		for _, name := range group {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
