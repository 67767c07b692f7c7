// Package tui is the interactive application browser.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/appstore-dev/appstore/internal/client"
	"github.com/appstore-dev/appstore/internal/registry/catalog"
	"github.com/appstore-dev/appstore/internal/utils"
	"github.com/appstore-dev/appstore/pkg/models"
	"github.com/appstore-dev/appstore/pkg/printer"
)

const (
	defaultPollInterval = 300 * time.Millisecond
	requestTimeout      = 30 * time.Second
)

// Source is the subset of the API client the browser uses.
type Source interface {
	ListApplications(ctx context.Context, opts client.ListOptions) (*models.ApplicationList, error)
	StartHealthCheck(ctx context.Context, id string) (*models.HealthCheckJob, error)
	GetHealthCheck(ctx context.Context, jobID string) (*models.HealthCheckJob, error)
	CancelHealthCheck(ctx context.Context, jobID string) (*models.HealthCheckJob, error)
}

type browserStep int

const (
	stepList browserStep = iota
	stepDetail
)

type appItem struct {
	app models.Application
}

func (i appItem) Title() string { return models.OrNA(i.app.Name) }
func (i appItem) Description() string {
	return fmt.Sprintf("%s · %s", models.OrNA(i.app.AppType), models.OrNA(i.app.AppVersion))
}
func (i appItem) FilterValue() string {
	return strings.Join([]string{models.OrNA(i.app.Name), models.OrNA(i.app.AppType), i.app.ID}, " ")
}

type appsLoadedMsg struct {
	apps []models.Application
	err  error
}

// Health check messages carry the generation of the detail view that started
// them. Messages from an older generation are dropped.
type healthStartedMsg struct {
	gen int
	job *models.HealthCheckJob
	err error
}

type healthPolledMsg struct {
	gen int
	job *models.HealthCheckJob
	err error
}

type pollDueMsg struct{ gen int }

type cancelDoneMsg struct{}

// Browser lists applications and shows the deployment health of the selected
// one. Health is computed server side by an asynchronous health check that
// the browser polls until it resolves.
type Browser struct {
	src          Source
	width        int
	height       int
	pollInterval time.Duration

	step    browserStep
	sortKey catalog.SortKey
	order   catalog.Order
	apps    list.Model
	spinner spinner.Model
	loading bool

	gen      int
	selected models.Application
	jobID    string
	detail   *models.ApplicationDetail
	errMsg   string
}

// NewBrowser creates a browser over src.
func NewBrowser(src Source) *Browser {
	apps := list.New([]list.Item{}, list.NewDefaultDelegate(), 80, 20)
	apps.Title = "Applications"
	apps.SetShowStatusBar(true)
	apps.SetFilteringEnabled(true)
	apps.Styles.Title = lipgloss.NewStyle().Bold(true)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Browser{
		src:          src,
		pollInterval: defaultPollInterval,
		step:         stepList,
		sortKey:      catalog.SortByName,
		order:        catalog.Ascending,
		apps:         apps,
		spinner:      sp,
		loading:      true,
	}
}

func (b *Browser) Init() tea.Cmd {
	return tea.Batch(b.spinner.Tick, b.loadApplications())
}

func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		b.width, b.height = m.Width, m.Height
		b.apps.SetSize(m.Width, max(5, m.Height-3))
		return b, nil

	case spinner.TickMsg:
		if !b.busy() {
			return b, nil
		}
		var cmd tea.Cmd
		b.spinner, cmd = b.spinner.Update(m)
		return b, cmd

	case appsLoadedMsg:
		b.loading = false
		if m.err != nil {
			b.errMsg = fmt.Sprintf("Failed to load applications: %v", m.err)
			return b, nil
		}
		b.errMsg = ""
		items := make([]list.Item, len(m.apps))
		for i, app := range m.apps {
			items[i] = appItem{app: app}
		}
		return b, b.apps.SetItems(items)

	case healthStartedMsg:
		if m.gen != b.gen {
			if m.job != nil {
				return b, b.cancelHealth(m.job.ID)
			}
			return b, nil
		}
		if m.err != nil {
			b.errMsg = fmt.Sprintf("Failed to load deployments: %v", m.err)
			return b, nil
		}
		return b, b.applyJob(m.job)

	case pollDueMsg:
		if m.gen != b.gen || b.jobID == "" {
			return b, nil
		}
		return b, b.pollHealth(m.gen, b.jobID)

	case healthPolledMsg:
		if m.gen != b.gen {
			return b, nil
		}
		if m.err != nil {
			b.jobID = ""
			b.errMsg = fmt.Sprintf("Health check failed: %v", m.err)
			return b, nil
		}
		return b, b.applyJob(m.job)

	case cancelDoneMsg:
		return b, nil

	case tea.KeyMsg:
		if m.String() == "ctrl+c" {
			return b, b.quit()
		}
		if b.step == stepDetail {
			return b, b.updateDetailKeys(m)
		}
		if b.apps.FilterState() != list.Filtering {
			if cmd, handled := b.updateListKeys(m); handled {
				return b, cmd
			}
		}
	}

	if b.step == stepList {
		var cmd tea.Cmd
		b.apps, cmd = b.apps.Update(msg)
		return b, cmd
	}
	return b, nil
}

func (b *Browser) updateListKeys(m tea.KeyMsg) (tea.Cmd, bool) {
	switch m.String() {
	case "q":
		if b.apps.FilterState() == list.Unfiltered {
			return b.quit(), true
		}
	case "enter":
		if it, ok := b.apps.SelectedItem().(appItem); ok {
			return b.open(it.app), true
		}
		return nil, true
	case "s":
		b.sortKey, b.order = catalog.Toggle(b.sortKey, b.order, nextSortKey(b.sortKey))
		return b.reload(), true
	case "r":
		b.sortKey, b.order = catalog.Toggle(b.sortKey, b.order, b.sortKey)
		return b.reload(), true
	}
	return nil, false
}

func (b *Browser) updateDetailKeys(m tea.KeyMsg) tea.Cmd {
	switch m.String() {
	case "esc", "backspace", "b":
		return b.back()
	case "r":
		cancel := b.abandon()
		return tea.Batch(cancel, b.open(b.selected))
	case "q":
		return b.quit()
	}
	return nil
}

func nextSortKey(current catalog.SortKey) catalog.SortKey {
	for i, k := range catalog.SortKeys {
		if k == current {
			return catalog.SortKeys[(i+1)%len(catalog.SortKeys)]
		}
	}
	return catalog.SortByName
}

func (b *Browser) busy() bool {
	if b.loading {
		return true
	}
	return b.step == stepDetail && b.errMsg == "" && (b.detail == nil || !b.detail.Resolved)
}

func (b *Browser) reload() tea.Cmd {
	b.loading = true
	return tea.Batch(b.spinner.Tick, b.loadApplications())
}

// open starts a new load cycle for app.
func (b *Browser) open(app models.Application) tea.Cmd {
	b.gen++
	b.step = stepDetail
	b.selected = app
	b.detail = nil
	b.errMsg = ""
	return tea.Batch(b.spinner.Tick, b.startHealth(b.gen, app.ID))
}

// abandon invalidates the current load cycle and cancels its health check.
func (b *Browser) abandon() tea.Cmd {
	b.gen++
	var cmd tea.Cmd
	if b.jobID != "" {
		cmd = b.cancelHealth(b.jobID)
		b.jobID = ""
	}
	b.detail = nil
	b.errMsg = ""
	return cmd
}

func (b *Browser) back() tea.Cmd {
	cmd := b.abandon()
	b.step = stepList
	return cmd
}

func (b *Browser) quit() tea.Cmd {
	if cancel := b.abandon(); cancel != nil {
		return tea.Sequence(cancel, tea.Quit)
	}
	return tea.Quit
}

func (b *Browser) applyJob(job *models.HealthCheckJob) tea.Cmd {
	if job == nil {
		return nil
	}
	switch job.Status {
	case models.HealthCheckPending:
		b.jobID = job.ID
		if job.Detail != nil {
			b.detail = job.Detail
		}
		return b.schedulePoll(b.gen)
	case models.HealthCheckCancelled:
		b.jobID = ""
		b.errMsg = "Health check was cancelled"
		return nil
	default:
		b.jobID = ""
		if job.Error != "" {
			b.errMsg = job.Error
			return nil
		}
		b.detail = job.Detail
		return nil
	}
}

func (b *Browser) loadApplications() tea.Cmd {
	opts := client.ListOptions{Sort: string(b.sortKey), Order: string(b.order)}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := b.src.ListApplications(ctx, opts)
		if err != nil {
			return appsLoadedMsg{err: err}
		}
		return appsLoadedMsg{apps: res.Applications}
	}
}

func (b *Browser) startHealth(gen int, appID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		job, err := b.src.StartHealthCheck(ctx, appID)
		return healthStartedMsg{gen: gen, job: job, err: err}
	}
}

func (b *Browser) schedulePoll(gen int) tea.Cmd {
	return tea.Tick(b.pollInterval, func(time.Time) tea.Msg { return pollDueMsg{gen: gen} })
}

func (b *Browser) pollHealth(gen int, jobID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		job, err := b.src.GetHealthCheck(ctx, jobID)
		return healthPolledMsg{gen: gen, job: job, err: err}
	}
}

func (b *Browser) cancelHealth(jobID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, _ = b.src.CancelHealthCheck(ctx, jobID)
		return cancelDoneMsg{}
	}
}

func (b *Browser) View() string {
	if b.step == stepDetail {
		return b.detailView()
	}
	var sb strings.Builder
	if b.loading {
		sb.WriteString(b.spinner.View() + " Loading applications...\n")
	}
	sb.WriteString(b.apps.View())
	sb.WriteString("\n")
	sb.WriteString(mutedStyle().Render(fmt.Sprintf("enter: open • s: sort (%s %s) • r: reverse • /: search • q: quit", b.sortKey, b.order)))
	if b.errMsg != "" {
		sb.WriteString("\n" + errorStyle().Render("Error: "+b.errMsg))
	}
	return sb.String()
}

func (b *Browser) detailView() string {
	app := b.selected
	if b.detail != nil {
		app = b.detail.Application
	}

	var sb strings.Builder
	sb.WriteString(headingStyle().Render(models.OrNA(app.Name)))
	sb.WriteString("\n")
	for _, row := range [][2]string{
		{"ID", app.ID},
		{"Type", models.OrNA(app.AppType)},
		{"Record version", models.OrNA(app.Version)},
		{"App version", models.OrNA(app.AppVersion)},
		{"Bond ID", models.OrNA(app.BondID)},
		{"Repository", utils.RepositoryLink(&app)},
		{"Repository ref", models.OrNA(app.RepositoryRef)},
		{"Owners", orNAList(app.Owners)},
		{"Created", models.OrNA(app.CreateTime)},
		{"Expires", models.OrNA(app.ExpiryTime)},
	} {
		sb.WriteString(labelStyle().Render(row[0]) + row[1] + "\n")
	}

	sb.WriteString("\n" + lipgloss.NewStyle().Bold(true).Render("Deployments") + "\n")
	switch {
	case b.errMsg != "":
		sb.WriteString(errorStyle().Render("Error: "+b.errMsg) + "\n")
	case b.detail == nil:
		sb.WriteString(b.spinner.View() + " Loading deployments...\n")
	case len(b.detail.Deployments) == 0:
		sb.WriteString(mutedStyle().Render("No deployments") + "\n")
	default:
		urlWidth := max(20, b.width-50)
		for _, row := range b.detail.Deployments {
			marker := printer.StatusGlyph(row.Status)
			if !row.Status.Final() {
				marker = b.spinner.View()
			}
			target := truncate.StringWithTail(models.OrNA(row.URL), uint(urlWidth), "...")
			fmt.Fprintf(&sb, "%s %-24s %s  %s\n", marker, truncate.StringWithTail(models.OrNA(row.Name), 24, "..."), target, mutedStyle().Render(row.Status.Label()))
		}
	}

	sb.WriteString("\n" + mutedStyle().Render("esc: back • r: recheck • q: quit"))
	return sb.String()
}

func orNAList(values []string) string {
	if len(values) == 0 {
		return models.NotAvailable
	}
	return strings.Join(values, ", ")
}
