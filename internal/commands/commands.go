// Package commands implements the slash-command shortcut interpreter. It
// computes deterministic summaries directly over the client-supplied
// snapshot and never touches the agent loop or the tool registry.
package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ai-scheduler/agent-gateway/internal/model"
	"github.com/ai-scheduler/agent-gateway/internal/schedule"
)

// CommandResult is the outcome of one command execution.
type CommandResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Interpreter executes slash commands over one calendar snapshot.
type Interpreter struct {
	snapshot model.CalendarSnapshot
	now      func() time.Time
}

// NewInterpreter creates an interpreter over the given snapshot.
func NewInterpreter(snapshot model.CalendarSnapshot) *Interpreter {
	return &Interpreter{snapshot: snapshot, now: time.Now}
}

// Parse splits a slash-prefixed input into command and parameter text.
// Returns false when the input is not a command and must fall through to
// the agent loop.
func Parse(input string) (command, params string, ok bool) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "/") || len(trimmed) < 2 {
		return "", "", false
	}
	body := trimmed[1:]
	if fields := strings.SplitN(body, " ", 2); len(fields) == 2 {
		return fields[0], strings.TrimSpace(fields[1]), true
	}
	return body, "", true
}

// Execute runs a command by name, case-insensitive, accepting English and
// Spanish aliases. Unrecognized commands return success:false with the list
// of valid names.
func (i *Interpreter) Execute(command, params string) CommandResult {
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "agenda", "today", "hoy":
		return i.TodaySchedule()
	case "tiempo-libre", "free-time", "horarios":
		return i.FreeTime(parseNumber(params, 60), parseDate(params, i.now()))
	case "tareas", "tasks":
		return i.TasksOverview()
	case "carga", "workload":
		return i.WorkloadForDate(parseDate(params, i.now()))
	case "próximos", "proximos", "upcoming":
		return i.UpcomingEvents(parseNumber(params, 24))
	case "semana", "week":
		return i.WeeklyOverview()
	default:
		return CommandResult{
			Success: false,
			Message: fmt.Sprintf("Comando %q no reconocido. Comandos disponibles: agenda, tiempo-libre, tareas, carga, próximos, semana", command),
			Data:    nil,
		}
	}
}

// TodaySchedule lists today's events in start order.
func (i *Interpreter) TodaySchedule() CommandResult {
	today := i.now()
	events := schedule.SortByStart(schedule.DateEvents(i.snapshot.Events, today))

	if len(events) == 0 {
		return CommandResult{
			Success: true,
			Message: "No tienes eventos programados para hoy. ¡Perfecto para ponerte al día con tareas pendientes!",
			Data:    map[string]any{"events": []model.Event{}},
		}
	}

	lines := make([]string, 0, len(events))
	for _, e := range events {
		startTime := "Todo el día"
		if e.Start.DateTime != "" {
			if t, ok := e.Start.Time(); ok {
				startTime = t.Format("15:04")
			}
		}
		line := fmt.Sprintf("• %s - %s", startTime, e.Summary)
		if e.Location != "" {
			line += fmt.Sprintf(" (%s)", e.Location)
		}
		lines = append(lines, line)
	}

	return CommandResult{
		Success: true,
		Message: "📅 **Tu agenda de hoy:**\n\n" + strings.Join(lines, "\n"),
		Data:    map[string]any{"events": events},
	}
}

// FreeTime reports gaps of at least durationMinutes on the target date.
func (i *Interpreter) FreeTime(durationMinutes int, date time.Time) CommandResult {
	slots := schedule.FindFreeSlots(i.snapshot.Events, date, durationMinutes)

	if len(slots) == 0 {
		return CommandResult{
			Success: true,
			Message: fmt.Sprintf("⏰ No encontré horarios libres de %d minutos para %s. ¿Te ayudo a buscar en otro día?",
				durationMinutes, formatDateES(date)),
			Data: map[string]any{"freeSlots": []schedule.TimeSlot{}},
		}
	}

	lines := make([]string, 0, len(slots))
	for _, slot := range slots {
		lines = append(lines, fmt.Sprintf("• %s - %s (%d min disponibles)",
			slot.Start.Format("15:04"), slot.End.Format("15:04"), slot.Minutes()))
	}

	return CommandResult{
		Success: true,
		Message: "🕒 **Horarios libres disponibles:**\n\n" + strings.Join(lines, "\n"),
		Data:    map[string]any{"freeSlots": slots},
	}
}

// TasksOverview summarizes pending/completed/overdue counts plus deadlines
// in the next seven days.
func (i *Interpreter) TasksOverview() CommandResult {
	now := i.now()
	summary := schedule.SummarizeTasks(i.snapshot.Tasks, now)
	upcoming := schedule.UpcomingDeadlines(i.snapshot.Tasks, 7, now)

	var b strings.Builder
	b.WriteString("📋 **Resumen de tareas:**\n\n")
	fmt.Fprintf(&b, "• Pendientes: %d\n", len(summary.Pending))
	fmt.Fprintf(&b, "• Completadas: %d\n", len(summary.Completed))
	fmt.Fprintf(&b, "• Vencidas: %d\n", len(summary.Overdue))

	if len(upcoming) > 0 {
		b.WriteString("\n⚠️ **Próximos vencimientos (7 días):**\n")
		shown := upcoming
		if len(shown) > 5 {
			shown = shown[:5]
		}
		for idx, t := range shown {
			dueDate := "Sin fecha"
			if due, ok := t.DueTime(); ok {
				dueDate = formatDateES(due)
			}
			fmt.Fprintf(&b, "• %s - %s", t.Title, dueDate)
			if idx < len(shown)-1 {
				b.WriteString("\n")
			}
		}
		if len(upcoming) > 5 {
			fmt.Fprintf(&b, "\n... y %d tareas más", len(upcoming)-5)
		}
	}

	return CommandResult{
		Success: true,
		Message: b.String(),
		Data:    map[string]any{"summary": summary, "upcoming": upcoming},
	}
}

// WorkloadForDate classifies the load of the target date.
func (i *Interpreter) WorkloadForDate(date time.Time) CommandResult {
	workload := schedule.AnalyzeWorkload(i.snapshot.Events, i.snapshot.Tasks, date)

	levelEmoji, levelDescription := "✅", "ligera"
	switch workload.Level {
	case schedule.WorkloadModerate:
		levelEmoji, levelDescription = "⚠️", "moderada"
	case schedule.WorkloadHeavy:
		levelEmoji, levelDescription = "🔴", "alta"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s **Análisis de carga de trabajo para %s:**\n\n", levelEmoji, formatDateES(date))
	fmt.Fprintf(&b, "• Nivel de carga: %s\n", levelDescription)
	fmt.Fprintf(&b, "• Eventos programados: %d\n", workload.EventsCount)
	fmt.Fprintf(&b, "• Horas ocupadas: %.1f\n", workload.BusyHours)
	fmt.Fprintf(&b, "• Tareas pendientes: %d\n", workload.PendingTasks)
	fmt.Fprintf(&b, "• Espacios libres: %d", len(workload.FreeSlots))

	if workload.Level == schedule.WorkloadHeavy {
		b.WriteString("\n\n💡 **Recomendación:** Considera reprogramar tareas no urgentes o delegar si es posible.")
	}

	return CommandResult{
		Success: true,
		Message: b.String(),
		Data:    map[string]any{"workload": workload},
	}
}

// UpcomingEvents lists events within the next N hours.
func (i *Interpreter) UpcomingEvents(hours int) CommandResult {
	now := i.now()
	events := schedule.SortByStart(schedule.EventsWithinHours(i.snapshot.Events, hours, now))

	if len(events) == 0 {
		return CommandResult{
			Success: true,
			Message: fmt.Sprintf("📅 No tienes eventos programados en las próximas %d horas. ¡Tiempo perfecto para trabajar en tus tareas!", hours),
			Data:    map[string]any{"events": []model.Event{}},
		}
	}

	lines := make([]string, 0, len(events))
	for _, e := range events {
		var when string
		if e.Start.DateTime != "" {
			if t, ok := e.Start.Time(); ok {
				when = fmt.Sprintf("%d %s, %s", t.Day(), monthShortES(t.Month()), t.Format("15:04"))
			}
		} else if t, ok := e.Start.Time(); ok {
			when = fmt.Sprintf("%d %s", t.Day(), monthShortES(t.Month()))
		}
		lines = append(lines, fmt.Sprintf("• %s - %s", when, e.Summary))
	}

	return CommandResult{
		Success: true,
		Message: fmt.Sprintf("⏰ **Próximos eventos (%dh):**\n\n%s", hours, strings.Join(lines, "\n")),
		Data:    map[string]any{"events": events},
	}
}

// WeeklyOverview reports per-day event counts and busy hours for the
// current week, starting Sunday.
func (i *Interpreter) WeeklyOverview() CommandResult {
	now := i.now()
	weekStart := schedule.StartOfDay(now.AddDate(0, 0, -int(now.Weekday())))
	weekEnd := schedule.EndOfDay(weekStart.AddDate(0, 0, 6))

	var b strings.Builder
	b.WriteString("📊 **Resumen semanal:**\n\n")

	for d := 0; d < 7; d++ {
		day := weekStart.AddDate(0, 0, d)
		events := schedule.DateEvents(i.snapshot.Events, day)
		workload := schedule.AnalyzeWorkload(i.snapshot.Events, i.snapshot.Tasks, day)

		dayEmoji := "✅"
		switch workload.Level {
		case schedule.WorkloadModerate:
			dayEmoji = "⚠️"
		case schedule.WorkloadHeavy:
			dayEmoji = "🔴"
		}

		fmt.Fprintf(&b, "%s **%s %d %s**: %d eventos, %.1fh ocupadas\n",
			dayEmoji, weekdayShortES(day.Weekday()), day.Day(), monthShortES(day.Month()),
			len(events), workload.BusyHours)
	}

	return CommandResult{
		Success: true,
		Message: b.String(),
		Data:    map[string]any{"weekStart": weekStart, "weekEnd": weekEnd},
	}
}

// parseNumber extracts a positive integer from the parameter text.
func parseNumber(params string, fallback int) int {
	for _, field := range strings.Fields(params) {
		if n, err := strconv.Atoi(field); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// parseDate extracts a YYYY-MM-DD date from the parameter text.
func parseDate(params string, fallback time.Time) time.Time {
	for _, field := range strings.Fields(params) {
		if t, err := time.ParseInLocation("2006-01-02", field, fallback.Location()); err == nil {
			return t
		}
	}
	return fallback
}

func formatDateES(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year())
}

func weekdayShortES(d time.Weekday) string {
	switch d {
	case time.Sunday:
		return "dom"
	case time.Monday:
		return "lun"
	case time.Tuesday:
		return "mar"
	case time.Wednesday:
		return "mié"
	case time.Thursday:
		return "jue"
	case time.Friday:
		return "vie"
	default:
		return "sáb"
	}
}

func monthShortES(m time.Month) string {
	switch m {
	case time.January:
		return "ene"
	case time.February:
		return "feb"
	case time.March:
		return "mar"
	case time.April:
		return "abr"
	case time.May:
		return "may"
	case time.June:
		return "jun"
	case time.July:
		return "jul"
	case time.August:
		return "ago"
	case time.September:
		return "sept"
	case time.October:
		return "oct"
	case time.November:
		return "nov"
	default:
		return "dic"
	}
}
