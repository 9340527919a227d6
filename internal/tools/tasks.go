package tools

import (
	"context"
	"encoding/json"

	"github.com/ai-scheduler/agent-gateway/internal/model"
	"github.com/ai-scheduler/agent-gateway/internal/provider"
)

func taskDescriptors(p *provider.Client) []Descriptor {
	return []Descriptor{
		{
			Name:        "get_task_lists",
			Description: "Get a list of all task lists for the authenticated user",
			Schema:      json.RawMessage(`{"type":"object","properties":{}}`),
			Execute: func(ctx context.Context, args json.RawMessage, auth model.AuthContext) (string, error) {
				if !auth.HasToken() {
					return "", errMissingCredential()
				}
				out, err := p.ListTaskLists(ctx, auth.AccessToken)
				if err != nil {
					return "", classify(err)
				}
				return out, nil
			},
		},
		{
			Name:        "get_tasks",
			Description: "Get tasks from a specific task list",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"taskListId": {"type": "string", "description": "Task list ID to fetch tasks from"}
				},
				"required": ["taskListId"]
			}`),
			Execute: func(ctx context.Context, args json.RawMessage, auth model.AuthContext) (string, error) {
				if !auth.HasToken() {
					return "", errMissingCredential()
				}
				var in struct {
					TaskListID string `json:"taskListId"`
				}
				if err := decodeArgs(args, &in); err != nil {
					return "", err
				}
				if in.TaskListID == "" {
					return "", errInvalidArgument("taskListId is required")
				}
				out, err := p.ListTasks(ctx, auth.AccessToken, in.TaskListID)
				if err != nil {
					return "", classify(err)
				}
				return out, nil
			},
		},
		{
			Name:        "create_task",
			Description: "Create a new task in a specific task list",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"taskListId": {"type": "string", "description": "Task list ID where to create the task"},
					"title": {"type": "string", "description": "Task title"},
					"notes": {"type": "string", "description": "Task notes/description"},
					"dueDate": {"type": "string", "description": "Due date in RFC 3339 format (e.g., '2023-12-25T10:00:00Z')"}
				},
				"required": ["taskListId", "title"]
			}`),
			Execute: func(ctx context.Context, args json.RawMessage, auth model.AuthContext) (string, error) {
				if !auth.HasToken() {
					return "", errMissingCredential()
				}
				var in struct {
					TaskListID string `json:"taskListId"`
					Title      string `json:"title"`
					Notes      string `json:"notes"`
					DueDate    string `json:"dueDate"`
				}
				if err := decodeArgs(args, &in); err != nil {
					return "", err
				}
				if in.TaskListID == "" {
					return "", errInvalidArgument("taskListId is required")
				}
				if in.Title == "" {
					return "", errInvalidArgument("title is required")
				}
				task := map[string]any{"title": in.Title}
				if in.Notes != "" {
					task["notes"] = in.Notes
				}
				if in.DueDate != "" {
					if _, err := parseISOTime(in.DueDate); err != nil {
						return "", errInvalidArgument("dueDate is not a valid ISO date: %q", in.DueDate)
					}
					task["due"] = in.DueDate
				}

				// no idempotency key: a retried call creates a duplicate
				out, err := p.CreateTask(ctx, auth.AccessToken, in.TaskListID, task)
				if err != nil {
					return "", classify(err)
				}
				return out, nil
			},
		},
	}
}
