package tui

import (
	"strings"
	"testing"

	"crypto-analyzer/internal/domain"

	tea "github.com/charmbracelet/bubbletea"
)

func testModel() *AppModel {
	m := NewAppModel(Services{Username: "tester"})
	m.SetSize(120, 40)
	return m
}

func TestMarketsMsgPopulatesTableAndSentiment(t *testing.T) {
	m := testModel()

	records := []domain.AssetRecord{
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", CurrentPrice: 65000, MarketCapRank: 1, PriceChangePct24h: 2, PriceChangePct7d: 4, PriceChangePct30d: 12},
		{ID: "ethereum", Symbol: "eth", Name: "Ethereum", CurrentPrice: 3200, MarketCapRank: 2, PriceChangePct24h: -1, PriceChangePct7d: 2, PriceChangePct30d: 6},
	}
	updated, _ := m.Update(marketsMsg(records))
	m = updated.(*AppModel)

	if len(m.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(m.records))
	}
	if m.sentiment == nil {
		t.Fatal("expected sentiment for the highlighted row")
	}
	// (2+4+12)/3 = 6 > 5
	if string(m.sentiment.Overall) != "Bullish" {
		t.Errorf("expected Bullish for the first row, got %q", m.sentiment.Overall)
	}

	view := m.View()
	if !strings.Contains(view, "Bitcoin") || !strings.Contains(view, "Ethereum") {
		t.Errorf("expected asset names in view:\n%s", view)
	}
}

func TestErrMsgShowsError(t *testing.T) {
	m := testModel()

	updated, _ := m.Update(errMsg{errTest})
	m = updated.(*AppModel)

	if !strings.Contains(m.View(), "error loading markets") {
		t.Errorf("expected error in view:\n%s", m.View())
	}
}

func TestQuitKey(t *testing.T) {
	m := testModel()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("expected tea.QuitMsg, got %T", cmd())
	}
}

var errTest = &testError{}

type testError struct{}

func (e *testError) Error() string { return "boom" }
