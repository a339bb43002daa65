package tui

import (
	"context"
	"fmt"
	"time"

	"crypto-analyzer/internal/analysis"
	"crypto-analyzer/internal/domain"
	"crypto-analyzer/internal/service"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const refreshEvery = time.Minute

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	bullishStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	bearishStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	neutralStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	faintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Services carries everything the TUI needs from the host process.
type Services struct {
	Markets  *service.MarketService
	Username string
}

type marketsMsg []domain.AssetRecord

type errMsg struct{ err error }

type tickMsg time.Time

// AppModel is the root bubbletea model: an asset table plus a sentiment
// panel for the highlighted row.
type AppModel struct {
	svc       Services
	table     table.Model
	records   []domain.AssetRecord
	sentiment *analysis.SentimentResult
	err       error
	width     int
	height    int
}

func NewAppModel(svc Services) *AppModel {
	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Asset", Width: 18},
		{Title: "Price", Width: 14},
		{Title: "24h", Width: 8},
		{Title: "7d", Width: 8},
		{Title: "30d", Width: 8},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderBottom(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	return &AppModel{svc: svc, table: t}
}

// SetSize is called before the program starts with the PTY dimensions.
func (m *AppModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	if height > 10 {
		m.table.SetHeight(height - 10)
	}
}

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(m.loadMarkets(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *AppModel) loadMarkets() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		page, err := m.svc.Markets.GetMarkets(ctx)
		if err != nil {
			return errMsg{err}
		}
		return marketsMsg(page.Records)
	}
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.loadMarkets()
		}

	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.loadMarkets(), tick())

	case marketsMsg:
		m.records = msg
		m.err = nil
		m.table.SetRows(assetRows(msg))
		m.refreshSentiment()
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	m.refreshSentiment()
	return m, cmd
}

// refreshSentiment recomputes the panel for the highlighted row. The
// computation is pure, so doing it on every cursor move is fine.
func (m *AppModel) refreshSentiment() {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.records) {
		m.sentiment = nil
		return
	}
	result := analysis.ComputeSentiment(m.records[cursor])
	m.sentiment = &result
}

func assetRows(records []domain.AssetRecord) []table.Row {
	rows := make([]table.Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", r.MarketCapRank),
			r.Name,
			fmt.Sprintf("$%.2f", r.CurrentPrice),
			fmt.Sprintf("%+.1f%%", r.PriceChangePct24h),
			fmt.Sprintf("%+.1f%%", r.PriceChangePct7d),
			fmt.Sprintf("%+.1f%%", r.PriceChangePct30d),
		})
	}
	return rows
}

func sentimentStyle(s analysis.Sentiment) lipgloss.Style {
	switch s {
	case analysis.SentimentBullish:
		return bullishStyle
	case analysis.SentimentBearish:
		return bearishStyle
	default:
		return neutralStyle
	}
}

func (m *AppModel) sentimentPanel() string {
	if m.sentiment == nil {
		return panelStyle.Render(faintStyle.Render("select an asset to see its sentiment"))
	}
	s := m.sentiment

	lines := []string{
		sentimentStyle(s.Overall).Render(fmt.Sprintf("Sentiment: %s", s.Overall)),
		fmt.Sprintf("Fear & Greed: %.0f (%s)", s.FearGreed.DisplayValue, s.FearGreed.Status),
		s.MarketTrend,
	}
	if len(s.RiskFactors) > 0 {
		lines = append(lines, faintStyle.Render("Risks:"))
		for _, risk := range s.RiskFactors {
			lines = append(lines, faintStyle.Render("  - "+risk))
		}
	}
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *AppModel) View() string {
	header := titleStyle.Render("crypto-analyzer")
	if m.svc.Username != "" {
		header += faintStyle.Render("  " + m.svc.Username)
	}

	body := m.table.View()
	if m.err != nil {
		body = bearishStyle.Render(fmt.Sprintf("error loading markets: %v", m.err))
	} else if len(m.records) == 0 {
		body = faintStyle.Render("loading markets...")
	}

	footer := faintStyle.Render("↑/↓ navigate  r refresh  q quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		body,
		m.sentimentPanel(),
		footer,
	)
}
