package agent

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ai-scheduler/agent-gateway/internal/model"
	"github.com/ai-scheduler/agent-gateway/internal/schedule"
)

// IntentAnalysis is the result of classifying one user message against the
// snapshot. ContextualInfo is injected into the system prompt so the model
// sees the numbers it would otherwise have to call tools for.
type IntentAnalysis struct {
	Intent         string   `json:"intent"`
	ContextualInfo string   `json:"contextualInfo"`
	Suggestions    []string `json:"suggestions"`
}

var (
	createPattern       = regexp.MustCompile(`\b(create|add|new|make|schedule)\b`)
	availabilityPattern = regexp.MustCompile(`\b(free|available|busy|slot|time)\b`)
	tasksPattern        = regexp.MustCompile(`\b(task|todo|deadline|complete|finish|pending)\b`)
	schedulePattern     = regexp.MustCompile(`\b(schedule|appointment|meeting|event|calendar|when|time)\b`)
	summaryPattern      = regexp.MustCompile(`\b(summary|overview|today|tomorrow|week|upcoming)\b`)
)

// Enricher derives contextual hints from the client-supplied snapshot. It is
// pure over the snapshot; the clock is injectable for tests.
type Enricher struct {
	snapshot model.CalendarSnapshot
	now      func() time.Time
}

// NewEnricher creates an enricher over the given snapshot.
func NewEnricher(snapshot model.CalendarSnapshot) *Enricher {
	return &Enricher{snapshot: snapshot, now: time.Now}
}

// AnalyzeIntent classifies the user message into one of six intents. The
// first matching pattern wins: creation beats availability beats tasks beats
// schedule beats summary, with "general" as the fallback.
func (e *Enricher) AnalyzeIntent(userMessage string) IntentAnalysis {
	message := strings.ToLower(userMessage)

	switch {
	case createPattern.MatchString(message):
		return IntentAnalysis{
			Intent:         "create",
			ContextualInfo: e.creationContext(),
			Suggestions:    []string{"¿Te ayudo a crear un nuevo evento o tarea?"},
		}
	case availabilityPattern.MatchString(message):
		return IntentAnalysis{
			Intent:         "availability",
			ContextualInfo: e.availabilityContext(),
			Suggestions:    []string{"Puedo ayudarte a encontrar horarios libres"},
		}
	case tasksPattern.MatchString(message):
		return IntentAnalysis{
			Intent:         "tasks",
			ContextualInfo: e.tasksContext(),
			Suggestions:    []string{"¿Quieres ver el resumen de tus tareas?"},
		}
	case schedulePattern.MatchString(message):
		return IntentAnalysis{
			Intent:         "schedule",
			ContextualInfo: e.scheduleContext(),
			Suggestions:    []string{"¿Te muestro tu agenda?"},
		}
	case summaryPattern.MatchString(message):
		return IntentAnalysis{
			Intent:         "summary",
			ContextualInfo: e.summaryContext(),
			Suggestions:    []string{"Te puedo dar un resumen de tu día o semana"},
		}
	default:
		return IntentAnalysis{Intent: "general", Suggestions: []string{}}
	}
}

func (e *Enricher) creationContext() string {
	freeSlots := schedule.FindFreeSlots(e.snapshot.Events, e.now(), 60)
	return fmt.Sprintf("Horarios libres disponibles hoy: %d slots encontrados", len(freeSlots))
}

func (e *Enricher) availabilityContext() string {
	today := e.now()
	freeSlots := schedule.FindFreeSlots(e.snapshot.Events, today, 60)
	workload := schedule.AnalyzeWorkload(e.snapshot.Events, e.snapshot.Tasks, today)
	return fmt.Sprintf("Disponibilidad hoy: %d horarios libres. Carga de trabajo: %s",
		len(freeSlots), workload.Level)
}

func (e *Enricher) tasksContext() string {
	now := e.now()
	summary := schedule.SummarizeTasks(e.snapshot.Tasks, now)
	upcoming := schedule.UpcomingDeadlines(e.snapshot.Tasks, 7, now)
	return fmt.Sprintf("Tareas pendientes: %d, Completadas: %d, Próximos vencimientos: %d",
		len(summary.Pending), len(summary.Completed), len(upcoming))
}

func (e *Enricher) scheduleContext() string {
	now := e.now()
	todayEvents := schedule.DateEvents(e.snapshot.Events, now)
	tomorrowEvents := schedule.DateEvents(e.snapshot.Events, now.AddDate(0, 0, 1))
	return fmt.Sprintf("Eventos hoy: %d, Eventos mañana: %d", len(todayEvents), len(tomorrowEvents))
}

func (e *Enricher) summaryContext() string {
	workload := schedule.AnalyzeWorkload(e.snapshot.Events, e.snapshot.Tasks, e.now())
	return fmt.Sprintf("Resumen del día: %d eventos, %d tareas pendientes, %.1f horas ocupadas",
		workload.EventsCount, workload.PendingTasks, workload.BusyHours)
}

// SmartSuggestions surfaces proactive hints: imminent events, overdue tasks,
// deadlines within three days, and free time today.
func (e *Enricher) SmartSuggestions() []string {
	var suggestions []string
	now := e.now()

	if next := schedule.EventsWithinHours(e.snapshot.Events, 2, now); len(next) > 0 {
		suggestions = append(suggestions,
			fmt.Sprintf("Tienes %d evento(s) en las próximas 2 horas", len(next)))
	}

	if summary := schedule.SummarizeTasks(e.snapshot.Tasks, now); len(summary.Overdue) > 0 {
		suggestions = append(suggestions,
			fmt.Sprintf("Tienes %d tarea(s) vencida(s) que requieren atención", len(summary.Overdue)))
	}

	if deadlines := schedule.UpcomingDeadlines(e.snapshot.Tasks, 3, now); len(deadlines) > 0 {
		suggestions = append(suggestions,
			fmt.Sprintf("%d tarea(s) vencen en los próximos 3 días", len(deadlines)))
	}

	if freeSlots := schedule.FindFreeSlots(e.snapshot.Events, now, 60); len(freeSlots) > 0 {
		suggestions = append(suggestions,
			fmt.Sprintf("Tienes %d horario(s) libre(s) disponible(s) hoy", len(freeSlots)))
	}

	return suggestions
}

// PriorityInsights flags heavy workload and overlapping events for today.
// Returns an empty string when neither applies.
func (e *Enricher) PriorityInsights() string {
	var insights []string
	now := e.now()

	workload := schedule.AnalyzeWorkload(e.snapshot.Events, e.snapshot.Tasks, now)
	if workload.Level == schedule.WorkloadHeavy {
		insights = append(insights, "Tu carga de trabajo es alta hoy. Considera reprogramar tareas no urgentes.")
	}

	todayEvents := schedule.DateEvents(e.snapshot.Events, now)
	if conflicts := schedule.CountConflicts(todayEvents); conflicts > 0 {
		insights = append(insights, fmt.Sprintf("Detecté %d posible(s) conflicto(s) en tu agenda.", conflicts))
	}

	return strings.Join(insights, " ")
}
