// Package printer renders CLI output: tables, JSON, YAML and status lines.
package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/reflow/truncate"
	"sigs.k8s.io/yaml"

	"github.com/appstore-dev/appstore/pkg/models"
)

type OutputType string

const (
	OutputTypeTable OutputType = "table"
	OutputTypeJSON  OutputType = "json"
	OutputTypeYAML  OutputType = "yaml"
)

// ParseOutputType validates an -o flag value.
func ParseOutputType(s string) (OutputType, error) {
	switch OutputType(s) {
	case "", OutputTypeTable:
		return OutputTypeTable, nil
	case OutputTypeJSON, OutputTypeYAML:
		return OutputType(s), nil
	}
	return "", fmt.Errorf("unsupported output format %q (table, json, yaml)", s)
}

// Printer writes structured output in one format.
type Printer struct {
	out        io.Writer
	outputType OutputType
	verbose    bool
}

func New(outputType OutputType, verbose bool) *Printer {
	return &Printer{out: os.Stdout, outputType: outputType, verbose: verbose}
}

// WithWriter redirects the printer's output.
func (p *Printer) WithWriter(w io.Writer) *Printer {
	p.out = w
	return p
}

// Print writes v as JSON or YAML according to the printer's output type.
func (p *Printer) Print(v any) error {
	if p.outputType == OutputTypeYAML {
		return p.PrintYAML(v)
	}
	return p.PrintJSON(v)
}

func (p *Printer) PrintJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.out, string(data))
	return err
}

func (p *Printer) PrintYAML(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = p.out.Write(data)
	return err
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// TablePrinter collects rows and renders them as a bordered table.
type TablePrinter struct {
	out     io.Writer
	headers []string
	rows    [][]string
}

func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{out: w}
}

func (t *TablePrinter) SetHeaders(headers ...string) {
	t.headers = headers
}

func (t *TablePrinter) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *TablePrinter) Render() error {
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(t.headers...).
		Rows(t.rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(t.out, tbl.Render())
	return err
}

// TruncateString shortens s to at most maxLen printable cells, ending in "...".
func TruncateString(s string, maxLen int) string {
	if maxLen <= 3 || lipgloss.Width(s) <= maxLen {
		return s
	}
	return truncate.StringWithTail(s, uint(maxLen), "...")
}

// StatusGlyph is the colored marker shown beside a deployment's health.
func StatusGlyph(status models.HealthStatus) string {
	switch status {
	case models.HealthHealthy:
		return successStyle.Render(status.Glyph())
	case models.HealthUnhealthy:
		return errorStyle.Render(status.Glyph())
	case models.HealthNoTarget:
		return warnStyle.Render(status.Glyph())
	default:
		return status.Glyph()
	}
}

func PrintInfo(msg string) {
	fmt.Println(infoStyle.Render("ℹ " + msg))
}

func PrintSuccess(msg string) {
	fmt.Println(successStyle.Render("✓ " + msg))
}

func PrintWarning(msg string) {
	fmt.Fprintln(os.Stderr, warnStyle.Render("! "+msg))
}

func PrintError(msg string) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("✗ "+msg))
}
