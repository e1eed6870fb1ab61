package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/sky-flux/recall"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)

	gradeStyles = map[recall.Grade]lipgloss.Style{
		recall.Again: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		recall.Hard:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		recall.Good:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		recall.Easy:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	}
)

func renderTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
}

func renderTitle(w io.Writer, s string) {
	fmt.Fprintln(w, titleStyle.Render(s))
}

func renderGrade(g recall.Grade) string {
	if st, ok := gradeStyles[g]; ok {
		return st.Render(g.String())
	}
	return "-"
}

func formatDate(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
