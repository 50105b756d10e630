// Package ui renders traversal reports and git activity for the console.
//
// ReportRenderer turns reports into text, JSON or YAML on stdout, colouring
// labels when the output is a terminal. ConsoleCommandEventLogger turns git
// subprocess events into short diagnostic lines for the console log format.
package ui
