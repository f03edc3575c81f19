package main

import "github.com/charmbracelet/lipgloss"

var (
	keyword   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Render
	paragraph = lipgloss.NewStyle().Width(78).Padding(0, 0, 0, 2).Render

	heading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EE6FF8")).Render
	faint   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}).Render
	label   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Width(10).Render
)
