// Package tui provides the Bubble Tea practice interface.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/beeckusu/project-music-ear-training-sub002/internal/audio"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/game"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/model"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/stats"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/store"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/timer"
)

const (
	intermissionDelay = 1200 * time.Millisecond
	uiTickInterval    = 250 * time.Millisecond
	historyLimit      = 5
)

type roundTickMsg struct {
	svc *timer.Service
	u   timer.Update
	ok  bool
}

type sessionTickMsg struct {
	svc *timer.Service
	u   timer.Update
	ok  bool
}

type intermissionMsg struct{ seq int }

type uiTickMsg struct{}

type stimulusPlayedMsg struct{ err error }

// inputStyle distinguishes how the active mode receives answers.
type inputStyle int

const (
	inputNoteKey inputStyle = iota // single keypress submits a pitch class
	inputSelect                    // toggle keys, enter submits the set
	inputText                      // free-text chord name, enter submits
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	goodStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	badStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	pausedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	celebrate     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	statRowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#D0D0D0"))
	historyHeader = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Underline(true)
)

// Model implements the Bubble Tea practice UI around an orchestrator.
type Model struct {
	orc    *game.Orchestrator
	store  *store.Store
	player *audio.Player
	meta   game.Metadata

	input inputStyle
	text  textinput.Model

	width  int
	height int

	feedback     string
	feedbackGood bool
	roundSeq     int

	roundRemaining   time.Duration
	sessionRemaining time.Duration
	hasRoundTimer    bool
	hasSessionTimer  bool

	finished bool
	recent   []model.GameSession
	startErr error
}

// NewModel constructs the practice model and starts the session.
// The player may be nil; prompts are then visual only.
func NewModel(orc *game.Orchestrator, st *store.Store, player *audio.Player, meta game.Metadata) *Model {
	m := &Model{
		orc:    orc,
		store:  st,
		player: player,
		meta:   meta,
	}
	switch {
	case meta.StrategyType == game.StrategySingleChord:
		m.input = inputSelect
	case meta.Type == game.ChordTraining:
		m.input = inputText
		ti := textinput.New()
		ti.Placeholder = "e.g. C minor 7"
		ti.CharLimit = 32
		ti.Width = 28
		ti.Focus()
		m.text = ti
	default:
		m.input = inputNoteKey
	}
	m.startErr = orc.Start()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.startErr != nil {
		return tea.Quit
	}
	return tea.Batch(m.roundCmds()...)
}

// roundCmds returns the commands a fresh round needs: timer listeners,
// the UI refresh tick, and stimulus playback.
func (m *Model) roundCmds() []tea.Cmd {
	cmds := []tea.Cmd{m.uiTick(), m.playStimulus()}
	if svc := m.orc.RoundTimer(); svc != nil {
		m.hasRoundTimer = true
		cmds = append(cmds, listenRound(svc))
	} else {
		m.hasRoundTimer = false
	}
	if svc := m.orc.SessionTimer(); svc != nil {
		m.hasSessionTimer = true
		cmds = append(cmds, listenSession(svc))
	}
	return cmds
}

func listenRound(svc *timer.Service) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-svc.Updates()
		return roundTickMsg{svc: svc, u: u, ok: ok}
	}
}

func listenSession(svc *timer.Service) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-svc.Updates()
		return sessionTickMsg{svc: svc, u: u, ok: ok}
	}
}

func (m *Model) uiTick() tea.Cmd {
	return tea.Tick(uiTickInterval, func(time.Time) tea.Msg { return uiTickMsg{} })
}

func (m *Model) playStimulus() tea.Cmd {
	round := m.orc.Round()
	if m.player == nil || round == nil {
		return nil
	}
	stimulus := round.Stimulus
	return func() tea.Msg {
		return stimulusPlayedMsg{err: m.player.PlayStimulus(stimulus)}
	}
}

func (m *Model) scheduleIntermission() tea.Cmd {
	m.roundSeq++
	seq := m.roundSeq
	return tea.Tick(intermissionDelay, func(time.Time) tea.Msg { return intermissionMsg{seq: seq} })
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case uiTickMsg:
		if m.finished {
			return m, nil
		}
		return m, m.uiTick()
	case roundTickMsg:
		return m.handleRoundTick(msg)
	case sessionTickMsg:
		return m.handleSessionTick(msg)
	case intermissionMsg:
		return m.handleIntermission(msg)
	case stimulusPlayedMsg:
		if msg.err != nil {
			logErrf("playback failed: %v\n", msg.err)
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleRoundTick(msg roundTickMsg) (tea.Model, tea.Cmd) {
	if msg.svc != m.orc.RoundTimer() || !msg.ok {
		// Stale listener from a finished round; drop it.
		return m, nil
	}
	m.roundRemaining = msg.u.Remaining
	if msg.u.Timeout {
		res := m.orc.HandleRoundTimeout()
		m.applyResult(res)
		if !m.finished {
			return m, m.scheduleIntermission()
		}
		return m, nil
	}
	return m, listenRound(msg.svc)
}

func (m *Model) handleSessionTick(msg sessionTickMsg) (tea.Model, tea.Cmd) {
	if msg.svc != m.orc.SessionTimer() || !msg.ok {
		return m, nil
	}
	m.sessionRemaining = msg.u.Remaining
	if res := m.orc.HandleSessionTick(msg.u); res != nil {
		m.applyResult(*res)
		return m, nil
	}
	return m, listenSession(msg.svc)
}

func (m *Model) handleIntermission(msg intermissionMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.roundSeq || m.finished {
		return m, nil
	}
	m.orc.NextRound()
	m.feedback = ""
	m.roundRemaining = 0
	cmds := []tea.Cmd{m.playStimulus()}
	if svc := m.orc.RoundTimer(); svc != nil {
		m.hasRoundTimer = true
		cmds = append(cmds, listenRound(svc))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.orc.Shutdown()
		return m, tea.Quit
	case tea.KeyCtrlP:
		m.togglePause()
		return m, nil
	case tea.KeyCtrlR:
		return m, m.playStimulus()
	}

	if m.finished {
		return m.handleFinishedKey(msg)
	}
	if m.orc.State() == game.Paused {
		return m, nil
	}

	switch m.input {
	case inputText:
		return m.handleTextKey(msg)
	case inputSelect:
		return m.handleSelectKey(msg)
	default:
		return m.handleNoteKey(msg)
	}
}

func (m *Model) handleFinishedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.orc.Shutdown()
		return m, tea.Quit
	case "r":
		if err := m.orc.PlayAgain(); err != nil {
			logErrf("replay failed: %v\n", err)
			return m, nil
		}
		m.finished = false
		m.feedback = ""
		m.recent = nil
		m.text.SetValue("")
		return m, tea.Batch(m.roundCmds()...)
	}
	return m, nil
}

func (m *Model) handleTextKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		guess := strings.TrimSpace(m.text.Value())
		m.text.SetValue("")
		res := m.orc.SubmitChordName(guess)
		m.applyResult(res)
		if !m.finished && res.ShouldAdvance {
			return m, m.scheduleIntermission()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.text, cmd = m.text.Update(msg)
	return m, cmd
}

func (m *Model) handleSelectKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		res := m.orc.SubmitSelection()
		m.applyResult(res)
		if !m.finished && res.ShouldAdvance {
			return m, m.scheduleIntermission()
		}
		return m, nil
	}
	if msg.Type != tea.KeyRunes {
		return m, nil
	}
	for _, r := range msg.Runes {
		if n, ok := noteForKey(r, m.baseOctave()); ok {
			m.orc.ToggleNote(n)
		}
	}
	return m, nil
}

func (m *Model) handleNoteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type != tea.KeyRunes || len(msg.Runes) == 0 {
		return m, nil
	}
	n, ok := noteForKey(msg.Runes[0], m.baseOctave())
	if !ok {
		return m, nil
	}
	res := m.orc.SubmitNoteGuess(n.Name)
	m.applyResult(res)
	if !m.finished && res.ShouldAdvance {
		return m, m.scheduleIntermission()
	}
	return m, nil
}

func (m *Model) togglePause() {
	switch m.orc.State() {
	case game.Playing:
		m.orc.Pause()
	case game.Paused:
		m.orc.Resume()
	}
}

func (m *Model) applyResult(res game.Result) {
	if res.Feedback != "" {
		m.feedback = res.Feedback
		m.feedbackGood = strings.HasPrefix(res.Feedback, "Correct")
	}
	if res.GameCompleted && !m.finished {
		m.finished = true
		m.loadRecent()
	}
}

func (m *Model) loadRecent() {
	if m.store == nil {
		return
	}
	ctx := context.Background()
	recent, err := m.store.RecentSessions(ctx, m.meta.ID, historyLimit)
	if err != nil {
		logErrf("failed to load recent sessions: %v\n", err)
		return
	}
	m.recent = recent
}

func (m *Model) baseOctave() int {
	settings := m.orc.Mode().Settings()
	if settings.Filters.OctaveLow > 0 {
		return settings.Filters.OctaveLow
	}
	return 4
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	if m.finished {
		content = m.viewCompleted()
	} else {
		content = m.viewRound()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := footerStyle.Render(m.footerHints())
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) viewRound() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.meta.Title))
	b.WriteString("\n")
	b.WriteString(footerStyle.Render(m.headerLine()))
	b.WriteString("\n\n")

	if m.orc.State() == game.Paused {
		b.WriteString(pausedStyle.Render("Paused. ctrl+p to resume"))
		return b.String()
	}

	round := m.orc.Round()
	switch m.input {
	case inputText:
		b.WriteString(promptStyle.Render("Name the chord you hear"))
		b.WriteString("\n\n")
		b.WriteString(m.text.View())
	case inputSelect:
		if round != nil {
			b.WriteString(promptStyle.Render(fmt.Sprintf("Build: %s", round.Stimulus.Label())))
		}
		b.WriteString("\n\n")
		b.WriteString(m.renderKeys(round))
	default:
		b.WriteString(promptStyle.Render("What note is this?"))
		b.WriteString("\n\n")
		b.WriteString(m.renderKeys(round))
	}

	if m.feedback != "" {
		b.WriteString("\n\n")
		style := badStyle
		if m.feedbackGood {
			style = goodStyle
		}
		b.WriteString(style.Render(m.feedback))
	}
	return b.String()
}

func (m *Model) renderKeys(round *game.RoundContext) string {
	var highlightsView string
	if round != nil {
		highlightsView = renderKeyboard(m.baseOctave(), round.Highlights)
	} else {
		highlightsView = renderKeyboard(m.baseOctave(), nil)
	}
	return highlightsView
}

func (m *Model) headerLine() string {
	segments := []string{}
	if m.hasRoundTimer {
		segments = append(segments, fmt.Sprintf("Round %s", fmtClock(m.roundRemaining)))
	}
	if m.hasSessionTimer {
		segments = append(segments, fmt.Sprintf("Session %s", fmtClock(m.sessionRemaining)))
	} else {
		segments = append(segments, fmt.Sprintf("Elapsed %s", fmtClock(m.orc.Elapsed())))
	}
	mode := m.orc.Mode()
	s := mode.Stats()
	segments = append(segments, fmt.Sprintf("Correct %d/%d", s.CorrectAttempts, s.TotalAttempts))
	if hp, ok := mode.(interface{ Health() int }); ok {
		segments = append(segments, fmt.Sprintf("Health %d", hp.Health()))
	}
	return strings.Join(segments, "  ·  ")
}

func (m *Model) viewCompleted() string {
	mode := m.orc.Mode()
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.meta.Title + ": complete"))
	b.WriteString("\n\n")
	if tier := mode.CelebrationTier(); tier != game.TierNone {
		b.WriteString(celebrate.Render(strings.ToUpper(tier.String())))
		b.WriteString("  ")
	}
	b.WriteString(promptStyle.Render(mode.PerformanceRating()))
	b.WriteString("\n\n")

	rows := make([][]string, 0)
	for _, row := range mode.StatRows() {
		rows = append(rows, []string{row.Label, row.Value})
	}
	lines := stats.FormatTable([]string{"", ""}, rows, map[int]bool{1: true})
	for _, line := range lines[1:] { // drop the empty header line
		b.WriteString(statRowStyle.Render(line))
		b.WriteString("\n")
	}

	if history := mode.HistoryRows(m.recent); len(history) > 0 {
		b.WriteString("\n")
		b.WriteString(historyHeader.Render("Recent sessions"))
		b.WriteString("\n")
		for _, row := range history {
			b.WriteString(footerStyle.Render(fmt.Sprintf("%s  %s", row.When, row.Score)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *Model) footerHints() string {
	if m.finished {
		return "r replay  ·  q quit"
	}
	switch m.input {
	case inputText:
		return "enter submit  ·  ctrl+r replay sound  ·  ctrl+p pause  ·  ctrl+c quit"
	case inputSelect:
		return "a w s e d f t g y h u j keys (shift = upper octave)  ·  enter submit  ·  ctrl+p pause  ·  ctrl+c quit"
	default:
		return "a w s e d f t g y h u j keys  ·  ctrl+r replay sound  ·  ctrl+p pause  ·  ctrl+c quit"
	}
}

func fmtClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	mins := int(d.Minutes())
	secs := d.Seconds() - float64(mins)*60
	if mins > 0 {
		return fmt.Sprintf("%d:%04.1f", mins, secs)
	}
	return fmt.Sprintf("%.1fs", secs)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
