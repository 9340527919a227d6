package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/ai-scheduler/agent-gateway/internal/model"
	"github.com/ai-scheduler/agent-gateway/internal/schedule"
)

// PromptBuilder assembles the system prompt from the snapshot and the
// enrichment results. The prompt is rebuilt per request so the model always
// sees the current clock and the client's latest snapshot.
type PromptBuilder struct {
	snapshot model.CalendarSnapshot
	now      func() time.Time
}

// NewPromptBuilder creates a builder over the given snapshot.
func NewPromptBuilder(snapshot model.CalendarSnapshot) *PromptBuilder {
	return &PromptBuilder{snapshot: snapshot, now: time.Now}
}

// BuildSystemPrompt joins the base instructions, snapshot counts, upcoming
// events, pending tasks, enrichment context, and the command cheat sheet.
func (b *PromptBuilder) BuildSystemPrompt(intent IntentAnalysis, suggestions []string, insights string) string {
	return strings.Join([]string{
		b.basePrompt(),
		b.snapshotPrompt(),
		b.upcomingEventsPrompt(),
		b.pendingTasksPrompt(),
		b.dynamicContextPrompt(intent, suggestions, insights),
		availableCommandsPrompt,
	}, "\n\n")
}

func (b *PromptBuilder) basePrompt() string {
	return fmt.Sprintf(`You are an advanced AI assistant for an AI-Scheduler application. You help users organize, manage, and get information about their calendar events and tasks.

Your capabilities include:
- Analyzing and providing insights about events and schedules
- Helping users find free time slots
- Summarizing upcoming events and tasks
- Suggesting optimal scheduling
- Providing time management advice
- Answering questions about specific events or tasks

Current date and time: %s`, b.now().UTC().Format(time.RFC3339))
}

func (b *PromptBuilder) snapshotPrompt() string {
	return fmt.Sprintf(`CALENDAR CONTEXT:
- Total calendars: %d
- Total events: %d
- Total tasks: %d`,
		len(b.snapshot.Calendars), len(b.snapshot.Events), len(b.snapshot.Tasks))
}

func (b *PromptBuilder) upcomingEventsPrompt() string {
	var sb strings.Builder
	sb.WriteString("UPCOMING EVENTS (Next 24 hours):")

	events := schedule.EventsWithinHours(b.snapshot.Events, 24, b.now())
	if len(events) == 0 {
		sb.WriteString("\nNo events scheduled for the next 24 hours.")
		return sb.String()
	}

	for _, e := range events {
		when := e.Start.DateTime
		if when == "" {
			when = e.Start.Date
		}
		fmt.Fprintf(&sb, "\n- %s (%s)", e.Summary, when)
		if e.Location != "" {
			fmt.Fprintf(&sb, " at %s", e.Location)
		}
	}
	return sb.String()
}

func (b *PromptBuilder) pendingTasksPrompt() string {
	var pending []model.Task
	for _, t := range b.snapshot.Tasks {
		if t.Status == model.TaskStatusNeedsAction {
			pending = append(pending, t)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "PENDING TASKS (%d total):", len(pending))

	if len(pending) == 0 {
		sb.WriteString("\nNo pending tasks.")
		return sb.String()
	}

	shown := pending
	if len(shown) > 10 {
		shown = shown[:10]
	}
	for _, t := range shown {
		fmt.Fprintf(&sb, "\n- %s", t.Title)
		if t.Due != "" {
			fmt.Fprintf(&sb, " (due: %s)", t.Due)
		}
	}
	if len(pending) > 10 {
		fmt.Fprintf(&sb, "\n... and %d more tasks", len(pending)-10)
	}
	return sb.String()
}

func (b *PromptBuilder) dynamicContextPrompt(intent IntentAnalysis, suggestions []string, insights string) string {
	smartInsights := "No immediate insights available."
	if len(suggestions) > 0 {
		smartInsights = strings.Join(suggestions, "\n")
	}
	if insights == "" {
		insights = "No priority alerts at this time."
	}

	return fmt.Sprintf(`Respond in Spanish and be helpful, concise, and actionable in your responses.

USER INTENT ANALYSIS:
- Detected intent: %s
- Context: %s
- Suggestions: %s

SMART INSIGHTS:
%s

PRIORITY ALERTS:
%s`, intent.Intent, intent.ContextualInfo, strings.Join(intent.Suggestions, ", "), smartInsights, insights)
}

const availableCommandsPrompt = `AVAILABLE COMMANDS:
You can help users execute specific commands:
- /agenda or /hoy - Show today's schedule
- /tiempo-libre - Find free time slots
- /tareas - Show tasks summary
- /carga - Analyze workload
- /próximos - Show upcoming events
- /semana - Show weekly overview

When users ask for these types of information, suggest they can use these commands or provide the information directly.`
