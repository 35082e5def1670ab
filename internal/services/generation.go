package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/contractoros/contractoros-backend/internal/apierr"
	"github.com/contractoros/contractoros-backend/internal/logger"
	"github.com/contractoros/contractoros-backend/internal/repos"
	"github.com/contractoros/contractoros-backend/internal/types"
)

const briefSystemPrompt = `You are an assistant for a construction management platform.
Read the provided project document and draft a project brief as a single JSON object with these keys:
name (string), description (string), address (string or null), start_date (YYYY-MM-DD or null),
end_date (YYYY-MM-DD or null), budget_estimate (number or null), budget_currency (string),
assumptions (list of strings), confidence (number between 0 and 1), additional_notes (string or null).
Respond with the JSON object only.`

const tasksSystemPrompt = `You are an assistant for a construction management platform.
Read the provided project document and propose a construction schedule as a single JSON object:
{"tasks": [{"task_name": string, "start_date": "YYYY-MM-DD" or null, "end_date": "YYYY-MM-DD" or null, "status": string}]}.
Propose at most %d tasks. Respond with the JSON object only.`

// GenerationService turns document text into structured project artifacts
// via the chat backend plus the structured extraction pass.
type GenerationService interface {
	GenerateBrief(ctx context.Context, documentText string) (*types.GeneratedProjectDetails, error)
	GenerateTasks(ctx context.Context, documentText string, projectContext string, maxTasks int) ([]types.GeneratedScheduleTask, error)

	SaveBrief(ctx context.Context, brief *types.GeneratedProjectDetails) (*types.Project, error)
	SaveTasks(ctx context.Context, projectID int64, tasks []types.GeneratedScheduleTask) ([]*types.Schedule, error)
}

type generationService struct {
	log       *logger.Logger
	models    *ModelProvider
	projects  repos.ProjectRepo
	schedules repos.ScheduleRepo
}

func NewGenerationService(log *logger.Logger, models *ModelProvider, projectRepo repos.ProjectRepo, scheduleRepo repos.ScheduleRepo) GenerationService {
	return &generationService{
		log:       log.With("service", "GenerationService"),
		models:    models,
		projects:  projectRepo,
		schedules: scheduleRepo,
	}
}

func (s *generationService) GenerateBrief(ctx context.Context, documentText string) (*types.GeneratedProjectDetails, error) {
	documentText = strings.TrimSpace(documentText)
	if documentText == "" {
		return nil, apierr.InvalidInput("document text is required")
	}
	client, err := s.models.Client()
	if err != nil {
		return nil, err
	}

	resp, err := client.Chat(ctx, []ModelMessage{
		{Role: RoleSystem, Content: briefSystemPrompt},
		{Role: RoleUser, Content: "Project document:\n\n" + documentText},
	}, nil)
	if err != nil {
		return nil, apierr.ServiceUnavailable("brief generation call failed: %v", err)
	}

	obj, err := ExtractJSONObject(resp.Content)
	if err != nil {
		return nil, err
	}
	return normalizeBrief(obj)
}

func normalizeBrief(obj map[string]any) (*types.GeneratedProjectDetails, error) {
	name := stringField(obj, "name")
	if name == "" {
		return nil, apierr.ParseError("generated brief is missing a project name")
	}

	brief := &types.GeneratedProjectDetails{
		Name:            name,
		Description:     stringField(obj, "description"),
		Address:         stringPtrField(obj, "address"),
		StartDate:       normalizeDate(obj["start_date"]),
		EndDate:         normalizeDate(obj["end_date"]),
		BudgetEstimate:  normalizeNumber(obj["budget_estimate"]),
		BudgetCurrency:  stringField(obj, "budget_currency"),
		Assumptions:     normalizeStringList(obj["assumptions"]),
		Confidence:      normalizeNumber(obj["confidence"]),
		AdditionalNotes: stringPtrField(obj, "additional_notes"),
	}
	if brief.BudgetCurrency == "" {
		brief.BudgetCurrency = "USD"
	}
	brief.StartDate, brief.EndDate = dropInvertedDates(brief.StartDate, brief.EndDate)
	return brief, nil
}

func (s *generationService) GenerateTasks(ctx context.Context, documentText string, projectContext string, maxTasks int) ([]types.GeneratedScheduleTask, error) {
	documentText = strings.TrimSpace(documentText)
	if documentText == "" {
		return nil, apierr.InvalidInput("document text is required")
	}
	if maxTasks <= 0 {
		maxTasks = 10
	}
	client, err := s.models.Client()
	if err != nil {
		return nil, err
	}

	user := "Project document:\n\n" + documentText
	if pc := strings.TrimSpace(projectContext); pc != "" {
		user = "Project context:\n" + pc + "\n\n" + user
	}
	resp, err := client.Chat(ctx, []ModelMessage{
		{Role: RoleSystem, Content: fmt.Sprintf(tasksSystemPrompt, maxTasks)},
		{Role: RoleUser, Content: user},
	}, nil)
	if err != nil {
		return nil, apierr.ServiceUnavailable("task generation call failed: %v", err)
	}

	obj, err := ExtractJSONObject(resp.Content)
	if err != nil {
		return nil, err
	}
	return normalizeTasks(obj, maxTasks), nil
}

func normalizeTasks(obj map[string]any, maxTasks int) []types.GeneratedScheduleTask {
	raw, _ := obj["tasks"].([]any)
	tasks := make([]types.GeneratedScheduleTask, 0, len(raw))
	for _, e := range raw {
		item, ok := e.(map[string]any)
		if !ok {
			continue
		}
		name := stringField(item, "task_name")
		if name == "" {
			continue
		}
		task := types.GeneratedScheduleTask{
			TaskName:  name,
			StartDate: normalizeDate(item["start_date"]),
			EndDate:   normalizeDate(item["end_date"]),
			Status:    stringField(item, "status"),
		}
		if task.Status == "" {
			task.Status = "pending"
		}
		task.StartDate, task.EndDate = dropInvertedDates(task.StartDate, task.EndDate)
		tasks = append(tasks, task)
		if len(tasks) == maxTasks {
			break
		}
	}
	return tasks
}

// dropInvertedDates nulls both dates when the end precedes the start. This
// is a normalization policy, not an error: the model proposed an impossible
// range and neither endpoint is trustworthy. Lexicographic comparison is
// correct for YYYY-MM-DD.
func dropInvertedDates(start, end *string) (*string, *string) {
	if start != nil && end != nil && *end < *start {
		return nil, nil
	}
	return start, end
}

func (s *generationService) SaveBrief(ctx context.Context, brief *types.GeneratedProjectDetails) (*types.Project, error) {
	if brief == nil || brief.Name == "" {
		return nil, apierr.InvalidInput("brief with a name is required")
	}
	project := &types.Project{
		Name:      brief.Name,
		Status:    "active",
		StartDate: brief.StartDate,
		EndDate:   brief.EndDate,
		Budget:    brief.BudgetEstimate,
	}
	if brief.Description != "" {
		desc := brief.Description
		project.Description = &desc
	}
	created, err := s.projects.Create(ctx, nil, project)
	if err != nil {
		return nil, apierr.StorageError("save generated brief: %v", err)
	}
	return created, nil
}

func (s *generationService) SaveTasks(ctx context.Context, projectID int64, tasks []types.GeneratedScheduleTask) ([]*types.Schedule, error) {
	if projectID <= 0 {
		return nil, apierr.InvalidInput("project_id is required to save tasks")
	}
	rows := make([]*types.Schedule, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, &types.Schedule{
			ProjectID: projectID,
			TaskName:  t.TaskName,
			StartDate: t.StartDate,
			EndDate:   t.EndDate,
			Status:    t.Status,
		})
	}
	created, err := s.schedules.CreateBatch(ctx, nil, rows)
	if err != nil {
		return nil, apierr.StorageError("save generated tasks: %v", err)
	}
	return created, nil
}
