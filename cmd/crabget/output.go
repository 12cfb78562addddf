package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/itchyny/gojq"
)

var (
	okStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#98FB98"))

	redirectStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB"))

	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))

	headerNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

func statusStyle(status int32) lipgloss.Style {
	switch {
	case status >= 400:
		return failStyle
	case status >= 300:
		return redirectStyle
	default:
		return okStyle
	}
}

// printHead writes the status line and headers. Styles render as plain text
// when color is off.
func printHead(w io.Writer, res *result, color bool) {
	render := func(s lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return s.Render(text)
	}
	fmt.Fprintf(w, "%s %s\n", res.version, render(statusStyle(res.status), fmt.Sprint(res.status)))
	if res.url != "" {
		fmt.Fprintln(w, render(dimStyle, res.url))
	}
	for _, h := range res.headers {
		fmt.Fprintf(w, "%s: %s\n", render(headerNameStyle, h.name), h.value)
	}
	fmt.Fprintln(w)
}

// filterJSON runs a jq filter over a JSON body and writes each result on its
// own line.
func filterJSON(w io.Writer, body []byte, filter string) error {
	query, err := gojq.Parse(filter)
	if err != nil {
		return fmt.Errorf("parse jq filter: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return fmt.Errorf("compile jq filter: %w", err)
	}

	var input any
	if err := json.Unmarshal(body, &input); err != nil {
		return fmt.Errorf("response body is not JSON: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	iter := code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, ok := v.(error); ok {
			return fmt.Errorf("jq: %w", err)
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
}
