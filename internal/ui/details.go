package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderDetails renders the panel of the selected station
func (m Model) renderDetails(width int) string {
	st, ok := m.session.Selected()
	if !ok {
		return mutedStyle.Render("Select a station to see details here.")
	}

	name, ok := st.Name()
	if !ok {
		name = "Unnamed station"
	}

	var sections []string
	sections = append(sections, titleStyle.Render(name))
	if basin := st.Basin(); basin != "" {
		sections = append(sections, mutedStyle.Render(basin+" basin"))
	}
	sections = append(sections, "", m.renderTabs(), "")

	cat := m.session.ActiveCategory()
	var rows []string
	for _, key := range cat.Keys() {
		v, carried := st.Get(key)
		if !carried {
			continue
		}
		value := mutedStyle.Render("N/A")
		if v.Present() {
			value = valueStyle.Render(v.String())
		}
		rows = append(rows, labelStyle.Render(string(key)+":")+" "+value)
	}
	if len(rows) == 0 {
		rows = append(rows, mutedStyle.Render("No data for this category"))
	}
	sections = append(sections, strings.Join(rows, "\n"), "")

	sections = append(sections, buttonStyle.Render(m.session.ExportLabel()))
	if url, ok := m.session.ReportURL(m.opts.ReportBaseURL); ok {
		sections = append(sections, mutedStyle.Render("Report: ")+linkStyle.Render(url))
	}

	return sectionBoxStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// renderTabs renders the category tabs, highlighting the active one
func (m Model) renderTabs() string {
	active := m.session.ActiveTab()
	tabs := m.session.Tabs()
	rendered := make([]string, len(tabs))
	for i, c := range tabs {
		if i == active {
			rendered[i] = activeTabStyle.Render(c.Label)
		} else {
			rendered[i] = tabStyle.Render(c.Label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
