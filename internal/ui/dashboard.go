// internal/ui/dashboard.go
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rovshanmuradov/bundler-console/internal/arbiter"
	"github.com/rovshanmuradov/bundler-console/internal/events"
	"github.com/rovshanmuradov/bundler-console/internal/reconcile"
	"github.com/rovshanmuradov/bundler-console/internal/view"
	"go.uber.org/zap"
)

// DashboardConfig wires the dashboard to the core.
type DashboardConfig struct {
	Model   *reconcile.Model
	Arbiter *arbiter.Arbiter
	Bus     *events.Bus
	Logger  *zap.Logger
}

// Dashboard is the single-screen bundle monitor. All decisions live in the
// core; this model only projects snapshots and forwards key presses to the
// arbiter.
type Dashboard struct {
	keyMap  KeyMap
	model   *reconcile.Model
	arb     *arbiter.Arbiter
	bus     *events.Bus
	logger  *zap.Logger

	width  int
	height int

	projection  view.Projection
	notice      string
	noticeLevel events.NoticeLevel

	// stopped is set after a successful emergency stop; the dashboard
	// drops back to the idle screen.
	stopped bool

	eventChan chan events.Event
}

// NewDashboard creates the dashboard and subscribes it to the bus.
func NewDashboard(cfg *DashboardConfig) *Dashboard {
	d := &Dashboard{
		keyMap:    DefaultKeyMap(),
		model:     cfg.Model,
		arb:       cfg.Arbiter,
		bus:       cfg.Bus,
		logger:    cfg.Logger.Named("dashboard"),
		eventChan: make(chan events.Event, 32),
	}

	forward := func(_ context.Context, event events.Event) error {
		select {
		case d.eventChan <- event:
		default:
			// Dropping a stale notice beats blocking the bus.
		}
		return nil
	}
	d.bus.SubscribeFunc(events.NoticePosted, forward)
	d.bus.SubscribeFunc(events.ActionSettled, forward)
	d.bus.SubscribeFunc(events.EmergencyStopped, forward)

	return d
}

// Init starts the redraw tick and the bus listener.
func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(
		d.refreshTick(),
		d.waitForEvent(),
		tea.EnterAltScreen,
	)
}

// Update handles messages.
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		return d, nil

	case refreshTickMsg:
		d.projection = view.Project(d.model.Snapshot(), time.Now())
		return d, d.refreshTick()

	case noticeMsg:
		d.applyEvent(msg.event)
		return d, d.waitForEvent()

	case actionDoneMsg:
		d.applyOutcome(msg.outcome)
		return d, nil

	case tea.KeyMsg:
		return d.handleKey(msg)
	}

	return d, nil
}

func (d *Dashboard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, d.keyMap.Quit):
		return d, tea.Quit

	case key.Matches(msg, d.keyMap.Ack):
		d.notice = ""
		return d, nil

	case key.Matches(msg, d.keyMap.FastSell):
		return d, d.actionCmd(d.arb.FastSellAll)

	case key.Matches(msg, d.keyMap.SlowSell):
		return d, d.actionCmd(d.arb.SlowSellAll)

	case key.Matches(msg, d.keyMap.SellTracked):
		return d, d.actionCmd(d.arb.SellAllTracked)

	case key.Matches(msg, d.keyMap.Emergency):
		return d, d.actionCmd(d.arb.EmergencyStop)

	case key.Matches(msg, d.keyMap.Refresh):
		d.projection = view.Project(d.model.Snapshot(), time.Now())
		return d, nil
	}
	return d, nil
}

// actionCmd dispatches one arbiter call off the update loop. The arbiter
// owns exclusion and budgets; concurrent key presses are its problem, not
// ours.
func (d *Dashboard) actionCmd(call func(context.Context) arbiter.Outcome) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{outcome: call(context.Background())}
	}
}

func (d *Dashboard) refreshTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

func (d *Dashboard) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return noticeMsg{event: <-d.eventChan}
	}
}

func (d *Dashboard) applyEvent(event events.Event) {
	switch e := event.(type) {
	case events.NoticePostedEvent:
		d.notice = e.Message
		d.noticeLevel = e.Level
	case events.ActionSettledEvent:
		d.notice = fmt.Sprintf("%s: %s", e.Action, e.Message)
		d.noticeLevel = noticeLevelFor(arbiter.OutcomeKind(e.Outcome))
	case events.EmergencyStoppedEvent:
		d.stopped = true
	}
}

func (d *Dashboard) applyOutcome(outcome arbiter.Outcome) {
	d.notice = fmt.Sprintf("%s: %s", outcome.Action, outcome.Message)
	d.noticeLevel = noticeLevelFor(outcome.Kind)
}

func noticeLevelFor(kind arbiter.OutcomeKind) events.NoticeLevel {
	switch kind {
	case arbiter.OutcomeSuccess:
		return events.NoticeSuccess
	case arbiter.OutcomeFailure:
		return events.NoticeError
	case arbiter.OutcomeRateLimited, arbiter.OutcomeTimedOut, arbiter.OutcomeRejectedLocal:
		return events.NoticeWarning
	default:
		return events.NoticeInfo
	}
}

// View renders the dashboard.
func (d *Dashboard) View() string {
	if d.stopped {
		return panelStyle.Render(
			errorStyle.Render("🚨 Emergency stop activated") + "\n" +
				mutedStyle.Render("System idle. Press q to quit."))
	}

	p := d.projection

	if p.Terminal {
		return panelStyle.Render(
			errorStyle.Render("❌ Operation unavailable") + "\n" +
				valueStyle.Render(p.DetailErr) + "\n" +
				mutedStyle.Render("The operation detail stream failed repeatedly. Press q to quit."))
	}

	if p.OperationID == "" {
		return mutedStyle.Render("Loading bundle operation...")
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Bundle Monitor"))
	b.WriteString("  ")
	b.WriteString(mutedStyle.Render(p.OperationID))
	b.WriteString("\n")
	b.WriteString(d.renderStatusLine(p))
	b.WriteString("\n\n")
	b.WriteString(d.renderPnLPanel(p))
	b.WriteString("\n")

	if p.Waiting {
		b.WriteString(panelStyle.Render(mutedStyle.Render("⏳ Waiting for bundle execution...")))
	} else {
		b.WriteString(d.renderHoldings(p))
	}
	b.WriteString("\n")

	if p.HasMonitoring {
		b.WriteString(d.renderMonitorPanel(p))
		b.WriteString("\n")
	}

	if d.notice != "" {
		b.WriteString(d.renderNotice())
		b.WriteString("\n")
	}

	b.WriteString(d.renderHelp())
	return b.String()
}

func (d *Dashboard) renderStatusLine(p view.Projection) string {
	parts := []string{
		headerStyle.Render("status ") + valueStyle.Render(string(p.Status)),
		headerStyle.Render("token ") + valueStyle.Render(shortAddress(p.TokenAddress)),
		headerStyle.Render("elapsed ") + valueStyle.Render(p.Elapsed.Truncate(time.Second).String()),
		headerStyle.Render("dev wallet ") + valueStyle.Render(fmt.Sprintf("%.4f SOL", p.DevWalletBalance)),
	}
	if busy := d.arb.InFlight(); busy != "" {
		parts = append(parts, busyStyle.Render(fmt.Sprintf("⏳ %s in flight", busy)))
	}
	return strings.Join(parts, mutedStyle.Render("  │  "))
}

func (d *Dashboard) renderPnLPanel(p view.Projection) string {
	pnl := p.PnL
	tag := ""
	if pnl.Estimated {
		tag = warningStyle.Render(" (estimated)")
	}
	line := fmt.Sprintf("invested %.4f SOL   value %.4f SOL   ", pnl.InvestedSol, pnl.CurrentValueSol)
	profit := pnlStyle(pnl.ProfitSol).Render(
		fmt.Sprintf("%+.4f SOL (%+.2f%%)", pnl.ProfitSol, pnl.ProfitPercent))
	return panelStyle.Render(valueStyle.Render(line) + profit + tag)
}

func (d *Dashboard) renderHoldings(p view.Projection) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-3s %-14s %12s %16s %12s %10s", "#", "wallet", "invested", "tokens", "balance", "status")))
	b.WriteString("\n")
	for _, h := range p.Holdings {
		tokens := "pending"
		if !h.Pending {
			tokens = fmt.Sprintf("%.0f", h.TokensReceived)
		}
		row := fmt.Sprintf("%-3d %-14s %12.6f %16s %12.6f %10s",
			h.Index, shortAddress(h.WalletID), h.SolInvested, tokens, h.LiveBalance, h.Status)
		b.WriteString(valueStyle.Render(row))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("total %.0f tokens (estimated @ %d/SOL)", p.TotalTokens, view.EstimatedTokensPerSol)))
	return panelStyle.Render(b.String())
}

func (d *Dashboard) renderMonitorPanel(p view.Projection) string {
	target := "monitoring..."
	if p.TargetReached {
		target = "✅ reached"
	}
	lines := []string{
		headerStyle.Render("price ") + valueStyle.Render(fmt.Sprintf("$%.8f", p.CurrentPrice)) +
			mutedStyle.Render(fmt.Sprintf("  entry $%.8f", p.EntryPrice)),
		headerStyle.Render("trailing stop ") + warningStyle.Render(fmt.Sprintf("$%.8f", p.TrailingStop.CurrentStopPrice)) +
			mutedStyle.Render(fmt.Sprintf("  high $%.8f  trail %.1f%%", p.TrailingStop.HighestPrice, p.TrailingStop.TrailPercent*100)),
		headerStyle.Render("stop loss ") + errorStyle.Render(fmt.Sprintf("$%.8f", p.StopLossPrice)) +
			mutedStyle.Render(fmt.Sprintf("  target %gx %s", p.ProfitTarget, target)),
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (d *Dashboard) renderNotice() string {
	style := infoStyle
	switch d.noticeLevel {
	case events.NoticeSuccess:
		style = successStyle
	case events.NoticeWarning:
		style = warningStyle
	case events.NoticeError:
		style = errorStyle
	}
	return style.Render(d.notice)
}

func (d *Dashboard) renderHelp() string {
	bindings := []key.Binding{
		d.keyMap.FastSell, d.keyMap.SlowSell, d.keyMap.SellTracked,
		d.keyMap.Emergency, d.keyMap.Refresh, d.keyMap.Quit,
	}
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		parts = append(parts, mutedStyle.Render(binding.Help().Key+" "+binding.Help().Desc))
	}
	return strings.Join(parts, mutedStyle.Render(" · "))
}

func shortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:4] + "..." + addr[len(addr)-4:]
}
