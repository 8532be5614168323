package importer

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/benvon/slotfinder/internal/models"
	"github.com/benvon/slotfinder/internal/services/schedule"
)

type mockStore struct {
	dir       *models.Directory
	tasks     map[string][]models.TaskRecord
	drafts    []models.TaskDraft
	deleted   []string
	projects  []string
	labels    []string
	sections  []string
	nextID    int
	invalided int

	loadErr          error
	listErr          error
	createTaskFunc   func(draft models.TaskDraft) error
	createSectionErr error
	deleteErrFor     map[string]error
}

var (
	_ Store       = (*mockStore)(nil)
	_ Invalidator = (*mockStore)(nil)
)

func newMockStore() *mockStore {
	return &mockStore{
		dir: models.NewDirectory(
			[]models.Project{{ID: "p-school", Name: "School"}},
			[]models.Section{{ID: "s-week1", ProjectID: "p-school", Name: "Week 1"}},
			[]models.Label{{ID: "l-class", Name: "class"}},
		),
		tasks: map[string][]models.TaskRecord{},
	}
}

func (m *mockStore) id(prefix string) string {
	m.nextID++
	return prefix + "-" + strconv.Itoa(m.nextID)
}

func (m *mockStore) ListTasks(_ context.Context, projectID string) ([]models.TaskRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.tasks[projectID], nil
}

func (m *mockStore) LoadDirectory(context.Context) (*models.Directory, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.dir.Clone(), nil
}

func (m *mockStore) CreateProject(_ context.Context, name string) (*models.Project, error) {
	m.projects = append(m.projects, name)
	return &models.Project{ID: m.id("p"), Name: name}, nil
}

func (m *mockStore) CreateSection(_ context.Context, projectID, name string) (*models.Section, error) {
	if m.createSectionErr != nil {
		return nil, m.createSectionErr
	}
	m.sections = append(m.sections, name)
	return &models.Section{ID: m.id("s"), ProjectID: projectID, Name: name}, nil
}

func (m *mockStore) CreateLabel(_ context.Context, name string) (*models.Label, error) {
	m.labels = append(m.labels, name)
	return &models.Label{ID: m.id("l"), Name: name}, nil
}

func (m *mockStore) CreateTask(_ context.Context, draft models.TaskDraft) (*models.TaskRecord, error) {
	if m.createTaskFunc != nil {
		if err := m.createTaskFunc(draft); err != nil {
			return nil, err
		}
	}
	m.drafts = append(m.drafts, draft)
	return &models.TaskRecord{ID: m.id("t"), ProjectID: draft.ProjectID, Content: draft.Content}, nil
}

func (m *mockStore) DeleteTask(_ context.Context, taskID string) error {
	if err := m.deleteErrFor[taskID]; err != nil {
		return err
	}
	m.deleted = append(m.deleted, taskID)
	return nil
}

func (m *mockStore) Invalidate(context.Context) error {
	m.invalided++
	return nil
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestImport_CreateMode(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	svc := NewService(store, nil)

	start := time.Date(2025, 11, 18, 1, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	res, err := svc.Import(context.Background(), models.ImportRequest{
		Items: []models.ScheduleItem{
			{
				Title:         "Maths",
				Description:   strPtr("Room 4"),
				ProjectName:   strPtr("School"),
				SectionName:   strPtr("Week 1"),
				Labels:        []string{"class", "maths"},
				StartDatetime: &models.LocalDateTime{Time: start, HasOffset: true},
				EndDatetime:   &models.LocalDateTime{Time: end, HasOffset: true},
			},
			{
				Title:     "Gym",
				DueString: strPtr("every evening"),
				Priority:  3,
			},
		},
		Options: &models.ImportOptions{
			DefaultProjectName: strPtr("Personal"),
			DefaultLabels:      []string{"imported", "class"},
			TitlePrefix:        strPtr("[S] "),
		},
	})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if len(res.Created) != 2 || len(res.Errors) != 0 || len(res.Failures) != 0 {
		t.Fatalf("Unexpected result %+v", res)
	}

	maths := store.drafts[0]
	if maths.Content != "[S] Maths" {
		t.Errorf("Expected prefixed title, got %q", maths.Content)
	}
	if maths.ProjectID != "p-school" || maths.SectionID != "s-week1" {
		t.Errorf("Expected existing project and section, got %q %q", maths.ProjectID, maths.SectionID)
	}
	if strings.Join(maths.Labels, ",") != "imported,class,maths" {
		t.Errorf("Expected merged labels, got %v", maths.Labels)
	}
	if maths.DueDatetime != "2025-11-18T09:00:00+08:00" {
		t.Errorf("Expected due in default Singapore zone, got %q", maths.DueDatetime)
	}
	if maths.Duration != 90 || maths.DurationUnit != "minute" {
		t.Errorf("Expected derived 90 minute duration, got %d %q", maths.Duration, maths.DurationUnit)
	}
	if !strings.Contains(maths.Description, "Room 4\nTime block: 2025-11-18T01:00:00Z ~ 2025-11-18T02:30:00Z") {
		t.Errorf("Unexpected description %q", maths.Description)
	}
	if maths.Priority != 1 {
		t.Errorf("Expected default priority 1, got %d", maths.Priority)
	}

	gym := store.drafts[1]
	if gym.DueString != "every evening" || gym.DueDatetime != "" {
		t.Errorf("Expected due string to win, got %+v", gym)
	}
	if gym.Priority != 3 {
		t.Errorf("Expected item priority 3, got %d", gym.Priority)
	}

	if strings.Join(store.projects, ",") != "Personal" {
		t.Errorf("Expected only Personal to be created, got %v", store.projects)
	}
	if strings.Join(store.labels, ",") != "imported,maths" {
		t.Errorf("Expected missing labels to be created once, got %v", store.labels)
	}
	if store.invalided != 1 {
		t.Errorf("Expected cache invalidation, got %d", store.invalided)
	}
}

func TestImport_OffsetLessTimesUseItemZone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		wantDue   string
		wantBlock string
	}{
		{
			name:      "item timezone",
			raw:       `{"items":[{"title":"A2-1 Further Math","start_datetime":"2025-11-18T09:00:00","end_datetime":"2025-11-18T10:30:00","timezone":"Europe/London"}]}`,
			wantDue:   "2025-11-18T09:00:00Z",
			wantBlock: "Time block: 2025-11-18T09:00:00Z ~ 2025-11-18T10:30:00Z",
		},
		{
			name:      "default timezone",
			raw:       `{"items":[{"title":"A2-1 Further Math","start_datetime":"2025-11-18T09:00:00","end_datetime":"2025-11-18T10:30:00"}]}`,
			wantDue:   "2025-11-18T09:00:00+08:00",
			wantBlock: "Time block: 2025-11-18T09:00:00+08:00 ~ 2025-11-18T10:30:00+08:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var req models.ImportRequest
			if err := json.Unmarshal([]byte(tt.raw), &req); err != nil {
				t.Fatalf("Failed to decode request: %v", err)
			}

			store := newMockStore()
			res, err := NewService(store, nil).Import(context.Background(), req)
			if err != nil {
				t.Fatalf("Import returned error: %v", err)
			}
			if len(res.Created) != 1 || len(res.Errors) != 0 {
				t.Fatalf("Unexpected result %+v", res)
			}

			draft := store.drafts[0]
			if draft.DueDatetime != tt.wantDue {
				t.Errorf("Expected due %q, got %q", tt.wantDue, draft.DueDatetime)
			}
			if draft.Description != tt.wantBlock {
				t.Errorf("Expected description %q, got %q", tt.wantBlock, draft.Description)
			}
			if draft.Duration != 90 {
				t.Errorf("Expected 90 minute duration, got %d", draft.Duration)
			}
		})
	}
}

func TestImport_DryRunWritesNothing(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	store.tasks["p-school"] = []models.TaskRecord{{ID: "old"}}
	svc := NewService(store, nil)

	res, err := svc.Import(context.Background(), models.ImportRequest{
		Items: []models.ScheduleItem{
			{Title: "Maths", Labels: []string{"new-label"}, SectionName: strPtr("Week 9")},
			{Title: "Art", ProjectName: strPtr("Elsewhere")},
		},
		Options: &models.ImportOptions{
			Mode:               models.ImportModeReplaceProject,
			ReplaceProjectName: strPtr("School"),
			DryRun:             true,
		},
	})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if len(res.Created) != 2 {
		t.Fatalf("Expected 2 simulated tasks, got %+v", res)
	}
	for _, c := range res.Created {
		if c.TaskID != DryRunTaskID || !c.DryRun {
			t.Errorf("Expected dry-run marker, got %+v", c)
		}
		if c.ProjectID == nil || *c.ProjectID != "p-school" {
			t.Errorf("Expected replace project to be forced, got %v", c.ProjectID)
		}
	}
	if len(store.drafts)+len(store.deleted)+len(store.projects)+len(store.labels)+len(store.sections) != 0 {
		t.Errorf("Expected no writes during dry run")
	}
	if store.invalided != 0 {
		t.Errorf("Expected no invalidation during dry run")
	}
}

func TestImport_ReplaceProjectClearsAndRecordsFailures(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	store.tasks["p-school"] = []models.TaskRecord{{ID: "old-1"}, {ID: "old-2"}, {ID: "old-3"}}
	store.deleteErrFor = map[string]error{"old-2": errors.New("forbidden")}
	svc := NewService(store, nil)

	res, err := svc.Import(context.Background(), models.ImportRequest{
		Items: []models.ScheduleItem{{Title: "Maths", ProjectName: strPtr("Ignored")}},
		Options: &models.ImportOptions{
			Mode:               models.ImportModeReplaceProject,
			ReplaceProjectName: strPtr("School"),
		},
	})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if strings.Join(store.deleted, ",") != "old-1,old-3" {
		t.Errorf("Expected remaining deletes to proceed, got %v", store.deleted)
	}
	if len(res.Failures) != 1 || res.Failures[0].Operation != "delete_task" || res.Failures[0].Target != "old-2" {
		t.Errorf("Expected one delete failure, got %+v", res.Failures)
	}
	if !res.Partial() {
		t.Error("Expected result to be partial")
	}
	if store.drafts[0].ProjectID != "p-school" {
		t.Errorf("Expected task in replace project, got %q", store.drafts[0].ProjectID)
	}
}

func TestImport_SectionFailureStillCreatesTask(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	store.createSectionErr = errors.New("boom")
	svc := NewService(store, nil)

	res, err := svc.Import(context.Background(), models.ImportRequest{
		Items: []models.ScheduleItem{{Title: "Maths", ProjectName: strPtr("School"), SectionName: strPtr("Week 2")}},
	})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if len(res.Created) != 1 || store.drafts[0].SectionID != "" {
		t.Errorf("Expected task without section, got %+v", store.drafts)
	}
	if len(res.Failures) != 1 || res.Failures[0].Operation != "create_section" {
		t.Errorf("Expected section failure, got %+v", res.Failures)
	}
}

func TestImport_ItemErrorsDoNotAbortBatch(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	store.createTaskFunc = func(draft models.TaskDraft) error {
		if draft.Content == "bad" {
			return errors.New("400 bad request")
		}
		return nil
	}
	svc := NewService(store, nil)

	res, err := svc.Import(context.Background(), models.ImportRequest{
		Items: []models.ScheduleItem{{Title: "good"}, {Title: "bad"}, {Title: "also good", DurationMinutes: intPtr(30)}},
	})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if len(res.Created) != 2 || len(res.Errors) != 1 || res.Errors[0].Index != 1 {
		t.Errorf("Expected item 1 to fail alone, got %+v", res)
	}
	if !strings.HasPrefix(res.Errors[0].Message, "todoist error") {
		t.Errorf("Unexpected message %q", res.Errors[0].Message)
	}
	if store.drafts[1].Duration != 30 {
		t.Errorf("Expected explicit duration, got %d", store.drafts[1].Duration)
	}
}

func TestImport_AbortsWhenStoreUnavailable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(*mockStore)
		opts  *models.ImportOptions
	}{
		{
			name:  "directory load fails",
			setup: func(m *mockStore) { m.loadErr = errors.New("down") },
		},
		{
			name:  "replace clear listing fails",
			setup: func(m *mockStore) { m.listErr = errors.New("down") },
			opts: &models.ImportOptions{
				Mode:               models.ImportModeReplaceProject,
				ReplaceProjectName: strPtr("School"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := newMockStore()
			tt.setup(store)
			svc := NewService(store, nil)
			_, err := svc.Import(context.Background(), models.ImportRequest{
				Items:   []models.ScheduleItem{{Title: "x"}},
				Options: tt.opts,
			})
			if !errors.Is(err, schedule.ErrTaskStoreUnavailable) {
				t.Errorf("Expected ErrTaskStoreUnavailable, got %v", err)
			}
			if len(store.drafts) != 0 {
				t.Errorf("Expected no tasks created")
			}
		})
	}
}

func TestMergeLabels(t *testing.T) {
	t.Parallel()

	got := mergeLabels([]string{"a", " b ", ""}, []string{"b", "c", "a"})
	if strings.Join(got, ",") != "a,b,c" {
		t.Errorf("Expected a,b,c got %v", got)
	}
}
