package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/core"

	"sitebook/importer"
)

// ScheduleImport is a parsed schedule plus the user's overrides.
type ScheduleImport struct {
	ProjectID  string
	SourceFile string
	Parsed     importer.ScheduleParseResult
	// PhaseNames renames phases by prefix before they are stored.
	PhaseNames map[string]string
	// StartDate and EndDate override the dates derived from the tasks.
	StartDate string
	EndDate   string
}

// Validate checks the request before anything is deleted.
func (in ScheduleImport) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ProjectID, validation.Required),
		validation.Field(&in.StartDate, validation.Date(importer.DateLayout)),
		validation.Field(&in.EndDate, validation.Date(importer.DateLayout)),
	)
}

// ScheduleImportResult summarises a committed schedule import.
type ScheduleImportResult struct {
	ScheduleID    string
	Phases        int
	Tasks         int
	StartDate     string
	EndDate       string
	RemovedPhases int
	RemovedTasks  int
}

// projectLocks serializes schedule imports per project so a delete/insert
// pair never interleaves with another import of the same project.
var projectLocks sync.Map

func lockProject(projectID string) func() {
	v, _ := projectLocks.LoadOrStore(projectID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// CommitScheduleImport replaces the project's phases and tasks with the
// parsed schedule. The previous set is deleted first and the new one is
// inserted in the same transaction: a re-import never merges.
func CommitScheduleImport(app core.App, in ScheduleImport, today time.Time) (*ScheduleImportResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Parsed.TaskCount() == 0 {
		return nil, importer.ErrEmptyTable
	}

	unlock := lockProject(in.ProjectID)
	defer unlock()

	result := &ScheduleImportResult{}
	err := app.RunInTransaction(func(txApp core.App) error {
		if _, err := txApp.FindRecordById("projects", in.ProjectID); err != nil {
			return ErrProjectNotFound
		}

		schedule, err := projectSchedule(txApp, in.ProjectID)
		if err != nil {
			return err
		}
		if !schedule.IsNew() {
			result.RemovedPhases, result.RemovedTasks, err = clearSchedule(txApp, schedule.Id)
			if err != nil {
				return err
			}
		}

		start := firstNonEmpty(in.StartDate, in.Parsed.StartDate, today.Format(importer.DateLayout))
		end := firstNonEmpty(in.EndDate, in.Parsed.EndDate)
		schedule.Set("start_date", start)
		schedule.Set("end_date", end)
		schedule.Set("source_file", in.SourceFile)
		if err := txApp.Save(schedule); err != nil {
			return fmt.Errorf("save schedule: %w", err)
		}
		result.ScheduleID = schedule.Id
		result.StartDate = start
		result.EndDate = end

		phaseCol, err := txApp.FindCollectionByNameOrId("phases")
		if err != nil {
			return fmt.Errorf("phases collection not found: %w", err)
		}
		taskCol, err := txApp.FindCollectionByNameOrId("tasks")
		if err != nil {
			return fmt.Errorf("tasks collection not found: %w", err)
		}

		for i, p := range in.Parsed.Phases {
			name := p.Name
			if override := strings.TrimSpace(in.PhaseNames[p.Prefix]); override != "" {
				name = override
			}

			phase := core.NewRecord(phaseCol)
			phase.Set("schedule", schedule.Id)
			phase.Set("prefix", p.Prefix)
			phase.Set("name", name)
			phase.Set("start_date", p.StartDate)
			phase.Set("end_date", p.EndDate)
			phase.Set("status", "not_started")
			phase.Set("progress_percent", 0)
			phase.Set("sort_order", i)
			if err := txApp.Save(phase); err != nil {
				return fmt.Errorf("save phase %q: %w", p.Prefix, err)
			}
			result.Phases++

			for j, task := range p.Tasks {
				rec := core.NewRecord(taskCol)
				rec.Set("phase", phase.Id)
				rec.Set("code", task.Code)
				rec.Set("description", task.Code+": "+task.Name)
				rec.Set("start_date", task.StartDate)
				rec.Set("due_date", task.EndDate)
				rec.Set("status", "pending")
				rec.Set("sort_order", j)
				if err := txApp.Save(rec); err != nil {
					return fmt.Errorf("save task %q: %w", task.Code, err)
				}
				result.Tasks++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	app.Logger().Info("schedule import committed",
		"project", in.ProjectID,
		"schedule", result.ScheduleID,
		"phases", result.Phases,
		"tasks", result.Tasks,
		"replaced_tasks", result.RemovedTasks,
		"skipped", in.Parsed.Skipped,
	)
	return result, nil
}

// projectSchedule returns the project's schedule or a new unsaved record.
func projectSchedule(app core.App, projectID string) (*core.Record, error) {
	existing, err := app.FindRecordsByFilter(
		"schedules",
		"project = {:project}",
		"created",
		1,
		0,
		map[string]any{"project": projectID},
	)
	if err != nil {
		return nil, fmt.Errorf("query schedule: %w", err)
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	col, err := app.FindCollectionByNameOrId("schedules")
	if err != nil {
		return nil, fmt.Errorf("schedules collection not found: %w", err)
	}
	rec := core.NewRecord(col)
	rec.Set("project", projectID)
	return rec, nil
}

// clearSchedule deletes every task and phase of a schedule. Tasks are removed
// explicitly rather than relying on the cascade so the counts are reported.
func clearSchedule(app core.App, scheduleID string) (int, int, error) {
	phases, err := app.FindRecordsByFilter("phases", "schedule = {:schedule}", "", 0, 0,
		map[string]any{"schedule": scheduleID})
	if err != nil {
		return 0, 0, fmt.Errorf("query phases: %w", err)
	}

	tasksRemoved := 0
	for _, phase := range phases {
		tasks, err := app.FindRecordsByFilter("tasks", "phase = {:phase}", "", 0, 0,
			map[string]any{"phase": phase.Id})
		if err != nil {
			return 0, 0, fmt.Errorf("query tasks: %w", err)
		}
		for _, task := range tasks {
			if err := app.Delete(task); err != nil {
				return 0, 0, fmt.Errorf("delete task %s: %w", task.Id, err)
			}
			tasksRemoved++
		}
		if err := app.Delete(phase); err != nil {
			return 0, 0, fmt.Errorf("delete phase %s: %w", phase.Id, err)
		}
	}
	return len(phases), tasksRemoved, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
