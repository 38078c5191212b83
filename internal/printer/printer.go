// Package printer renders colored CLI output.
package printer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"wasteportal/pkg/domain"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Success prints a message in green with a checkmark prefix.
func Success(w io.Writer, format string, a ...any) {
	green.Fprintf(w, "✓ %s", fmt.Sprintf(format, a...))
}

// Warning prints a message in yellow with a warning prefix.
func Warning(w io.Writer, format string, a ...any) {
	yellow.Fprintf(w, "! %s", fmt.Sprintf(format, a...))
}

// Step prints a progress message in cyan.
func Step(w io.Writer, format string, a ...any) {
	cyan.Fprintf(w, "→ %s", fmt.Sprintf(format, a...))
}

// Error prints a titled error with suggestions to stderr and returns an
// error carrying only the title, for cobra to exit with.
func Error(title, explanation string, suggestions []string) error {
	return errorTo(os.Stderr, title, explanation, suggestions)
}

func errorTo(w io.Writer, title, explanation string, suggestions []string) error {
	red.Fprintf(w, "%s\n\n", title)
	if explanation != "" {
		fmt.Fprintf(w, "%s\n", explanation)
	}
	switch len(suggestions) {
	case 0:
	case 1:
		fmt.Fprintf(w, "\n%s\n", suggestions[0])
	default:
		fmt.Fprintf(w, "\nEither:\n")
		for i, s := range suggestions {
			fmt.Fprintf(w, "  %d. %s\n", i+1, s)
		}
	}
	return fmt.Errorf("%s", title)
}

// StatusLabel colors a report status.
func StatusLabel(s domain.ReportStatus) string {
	switch s {
	case domain.ReportVerified:
		return green.Sprint(string(s))
	case domain.ReportPending:
		return yellow.Sprint(string(s))
	}
	return string(s)
}

// Reports prints reports as a table and returns the number of rows.
func Reports(w io.Writer, reports []domain.Report) int {
	fmt.Fprintf(w, "%-5s %-9s %-16s %-20s %s\n", "ID", "STATUS", "CATEGORY", "REPORTER", "TITLE")
	for _, r := range reports {
		// pad before coloring so escape codes do not shift columns
		status := fmt.Sprintf("%-9s", r.Status)
		status = strings.Replace(status, string(r.Status), StatusLabel(r.Status), 1)
		fmt.Fprintf(w, "%-5d %s %-16s %-20s %s\n", r.ID, status, r.Category, truncate(r.UserName, 20), r.Title)
	}
	return len(reports)
}

// Schedules prints pickup slots as a table.
func Schedules(w io.Writer, schedules []domain.Schedule) int {
	fmt.Fprintf(w, "%-22s %-8s %-6s %-10s %s\n", "WILAYAH", "HARI", "JAM", "JENIS", "STATUS")
	for _, s := range schedules {
		fmt.Fprintf(w, "%-22s %-8s %-6s %-10s %s\n", s.Region, s.Day, s.Time, s.Type, s.Status)
	}
	return len(schedules)
}

// Users prints user accounts as a table.
func Users(w io.Writer, users []domain.User) int {
	fmt.Fprintf(w, "%-4s %-10s %-5s %-20s %s\n", "ID", "USERNAME", "ROLE", "NAME", "WILAYAH")
	for _, u := range users {
		region := u.Region
		if region == "" {
			region = "-"
		}
		fmt.Fprintf(w, "%-4d %-10s %-5s %-20s %s\n", u.ID, u.Username, u.Role, truncate(u.Name, 20), region)
	}
	return len(users)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
