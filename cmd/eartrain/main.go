// Package main provides the CLI entrypoint for eartrain.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/beeckusu/project-music-ear-training-sub002/internal/audio"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/config"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/game"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/model"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/stats"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/statsui"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/store"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/tui"
)

const (
	defaultMode           = "rush"
	defaultTargetNotes    = 10
	defaultTargetChords   = 5
	defaultStartHealth    = 100
	defaultHealthPenalty  = 25
	defaultHealthBonus    = 10
	defaultSessionSecs    = 120.0
	defaultWeakTop        = 5
	defaultWeakFactor     = 2.0
	defaultWeakWindow     = 20
	defaultCurveWindow    = 20
	defaultRoundSecsRush  = 0.0
	defaultQualitiesChord = "major,minor"
)

var (
	practiceMode       string
	practiceRoots      string
	practiceQualities  string
	practiceInversions bool
	practiceOctaveLow  int
	practiceOctaveHigh int
	practiceRoundSecs  float64
	practiceNoAudio    bool
	practiceFocusWeak  bool
	practiceWeakTop    int
	practiceWeakFactor float64
	practiceWeakWindow int

	practiceTargetNotes    int
	practiceTargetChords   int
	practiceTargetStreak   int
	practiceTargetAccuracy float64

	practiceStartHealth   int
	practiceHealthPenalty int
	practiceHealthBonus   int
	practiceHealthDecay   bool
	practiceSessionSecs   float64

	statsMode        string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsChords      string
	statsPlain       bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "eartrain",
		Short:         "TUI musical ear trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceMode, "mode", defaultMode, "training mode (see 'eartrain modes')")
	rootCmd.Flags().StringVar(&practiceRoots, "roots", "", "comma-separated root notes, empty for all")
	rootCmd.Flags().StringVar(&practiceQualities, "qualities", defaultQualitiesChord, "comma-separated chord qualities")
	rootCmd.Flags().BoolVar(&practiceInversions, "inversions", false, "include chord inversions")
	rootCmd.Flags().IntVar(&practiceOctaveLow, "octave-low", 0, "lowest octave (0 = default register)")
	rootCmd.Flags().IntVar(&practiceOctaveHigh, "octave-high", 0, "highest octave (0 = default register)")
	rootCmd.Flags().Float64Var(&practiceRoundSecs, "round-seconds", defaultRoundSecsRush, "per-round response limit, 0 for none")
	rootCmd.Flags().BoolVar(&practiceNoAudio, "no-audio", false, "disable MIDI playback")
	rootCmd.Flags().BoolVar(&practiceFocusWeak, "focus-weak", false, "bias practice toward weak chords")
	rootCmd.Flags().IntVar(&practiceWeakTop, "weak-top", defaultWeakTop, "number of weak chords to focus on")
	rootCmd.Flags().Float64Var(&practiceWeakFactor, "weak-factor", defaultWeakFactor, "weight factor for weak chords")
	rootCmd.Flags().IntVar(&practiceWeakWindow, "weak-window", defaultWeakWindow, "number of recent sessions to compute weak chords")

	rootCmd.Flags().IntVar(&practiceTargetNotes, "target-notes", defaultTargetNotes, "notes to identify (rush, sandbox)")
	rootCmd.Flags().IntVar(&practiceTargetChords, "target-chords", defaultTargetChords, "chords to complete (single-chord, chord-id)")
	rootCmd.Flags().IntVar(&practiceTargetStreak, "target-streak", 0, "streak goal (sandbox, 0 for none)")
	rootCmd.Flags().Float64Var(&practiceTargetAccuracy, "target-accuracy", 0, "accuracy goal in percent (sandbox, 0 for none)")

	rootCmd.Flags().IntVar(&practiceStartHealth, "start-health", defaultStartHealth, "starting health (survival)")
	rootCmd.Flags().IntVar(&practiceHealthPenalty, "health-penalty", defaultHealthPenalty, "health lost per wrong answer (survival)")
	rootCmd.Flags().IntVar(&practiceHealthBonus, "health-bonus", defaultHealthBonus, "health regained per correct answer (survival)")
	rootCmd.Flags().BoolVar(&practiceHealthDecay, "health-decay", false, "drain one health per second (survival)")
	rootCmd.Flags().Float64Var(&practiceSessionSecs, "session-seconds", defaultSessionSecs, "session time budget (survival)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newModesCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "mode", &practiceMode, fileCfg.Practice.Mode)
	applyStringSliceConfig(cmd, "roots", &practiceRoots, fileCfg.Practice.Roots)
	applyStringSliceConfig(cmd, "qualities", &practiceQualities, fileCfg.Practice.Qualities)
	applyBoolConfig(cmd, "inversions", &practiceInversions, fileCfg.Practice.Inversions)
	applyIntConfig(cmd, "octave-low", &practiceOctaveLow, fileCfg.Practice.OctaveLow)
	applyIntConfig(cmd, "octave-high", &practiceOctaveHigh, fileCfg.Practice.OctaveHigh)
	applyFloatConfig(cmd, "round-seconds", &practiceRoundSecs, fileCfg.Practice.RoundSecs)
	applyBoolConfig(cmd, "focus-weak", &practiceFocusWeak, fileCfg.Practice.FocusWeak)
	applyIntConfig(cmd, "weak-top", &practiceWeakTop, fileCfg.Practice.WeakTop)
	applyFloatConfig(cmd, "weak-factor", &practiceWeakFactor, fileCfg.Practice.WeakFactor)
	applyIntConfig(cmd, "weak-window", &practiceWeakWindow, fileCfg.Practice.WeakWindow)

	applyModeConfig(cmd, fileCfg, practiceMode)

	settings := model.SessionSettings{
		Mode:           practiceMode,
		TargetNotes:    practiceTargetNotes,
		TargetChords:   practiceTargetChords,
		TargetAccuracy: practiceTargetAccuracy,
		TargetStreak:   practiceTargetStreak,
		RoundSeconds:   practiceRoundSecs,
		SessionSeconds: practiceSessionSecs,
		StartHealth:    practiceStartHealth,
		HealthPenalty:  practiceHealthPenalty,
		HealthBonus:    practiceHealthBonus,
		HealthDecay:    practiceHealthDecay,
		Filters: model.ChordFilters{
			Roots:      splitCSV(practiceRoots),
			Qualities:  splitCSV(practiceQualities),
			Inversions: practiceInversions,
			OctaveLow:  practiceOctaveLow,
			OctaveHigh: practiceOctaveHigh,
		},
		FocusWeak:  practiceFocusWeak,
		WeakTop:    practiceWeakTop,
		WeakFactor: practiceWeakFactor,
		WeakWindow: practiceWeakWindow,
	}
	if err := validateSettings(settings); err != nil {
		return err
	}
	// A session timer only makes sense for survival; other modes run on
	// their own completion targets.
	if practiceMode != game.ModeSurvival && !cmd.Flags().Changed("session-seconds") {
		settings.SessionSeconds = 0
	}

	storePath := config.DefaultDBPath()
	st, err := store.Open(storePath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	registry, err := game.DefaultRegistry()
	if err != nil {
		return fmt.Errorf("failed to build mode registry: %w", err)
	}

	var player *audio.Player
	if !practiceNoAudio {
		player, err = audio.NewPlayer()
		if err != nil {
			logErrf("audio disabled: %v\n", err)
			player = nil
		} else {
			defer player.Close()
			logErrf("playing through %s\n", player.PortName())
		}
	}

	onComplete := func(session model.GameSession, chords []model.ChordStats) {
		if _, err := st.InsertSession(context.Background(), session, chords); err != nil {
			logErrf("failed to save session: %v\n", err)
		}
	}

	orc := game.New(registry, practiceMode, settings, game.WithOnComplete(onComplete))
	meta, _ := registry.Get(orc.ModeID())

	if settings.FocusWeak {
		aggs, err := st.GetWeakChords(context.Background(), settings.WeakWindow, orc.ModeID())
		if err != nil {
			logErrf("failed to load weak chords: %v\n", err)
		} else {
			weakSet := stats.SelectWeakChords(aggs, settings.WeakTop)
			if len(weakSet) == 0 {
				logErrln("no stats available for weak-chord focus yet; using normal generator")
			} else if wk, ok := orc.Mode().(interface {
				SetWeakChords(map[string]struct{})
			}); ok {
				wk.SetWeakChords(weakSet)
			}
		}
	}

	uiModel := tui.NewModel(orc, st, player, meta)
	program := tea.NewProgram(uiModel, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// applyModeConfig merges the TOML section of the resolved mode.
func applyModeConfig(cmd *cobra.Command, fileCfg config.FileConfig, mode string) {
	switch mode {
	case game.ModeRush:
		applyIntConfig(cmd, "target-notes", &practiceTargetNotes, fileCfg.Rush.TargetNotes)
	case game.ModeSurvival:
		applyIntConfig(cmd, "start-health", &practiceStartHealth, fileCfg.Survival.StartHealth)
		applyIntConfig(cmd, "health-penalty", &practiceHealthPenalty, fileCfg.Survival.HealthPenalty)
		applyIntConfig(cmd, "health-bonus", &practiceHealthBonus, fileCfg.Survival.HealthBonus)
		applyBoolConfig(cmd, "health-decay", &practiceHealthDecay, fileCfg.Survival.HealthDecay)
		applyFloatConfig(cmd, "session-seconds", &practiceSessionSecs, fileCfg.Survival.SessionSecs)
	case game.ModeSandbox:
		applyIntConfig(cmd, "target-notes", &practiceTargetNotes, fileCfg.Sandbox.TargetNotes)
		applyIntConfig(cmd, "target-streak", &practiceTargetStreak, fileCfg.Sandbox.TargetStreak)
		applyFloatConfig(cmd, "target-accuracy", &practiceTargetAccuracy, fileCfg.Sandbox.TargetAccuracy)
	case game.ModeSingleChord:
		applyIntConfig(cmd, "target-chords", &practiceTargetChords, fileCfg.SingleChord.TargetChords)
	case game.ModeChordID:
		applyIntConfig(cmd, "target-chords", &practiceTargetChords, fileCfg.ChordID.TargetChords)
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newModesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List training modes",
		Args:  cobra.NoArgs,
		RunE:  runModesCmd,
	}
}

func runModesCmd(cmd *cobra.Command, _ []string) error {
	registry, err := game.DefaultRegistry()
	if err != nil {
		return fmt.Errorf("failed to build mode registry: %w", err)
	}
	rows := make([][]string, 0)
	for _, md := range registry.All() {
		rows = append(rows, []string{md.ID, string(md.Type), md.Title, md.Description})
	}
	lines := stats.FormatTable([]string{"ID", "Type", "Title", "Description"}, rows, nil)
	for _, line := range lines {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsMode, "mode", "", "mode filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().StringVar(&statsChords, "chords", "", "chord filter for the chord table")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a plain-text report instead of the TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}

	cfg := model.StatsConfig{
		Mode:        statsMode,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
		Chords:      statsChords,
	}

	storePath := config.DefaultDBPath()
	st, err := store.Open(storePath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsPlain {
		return runPlainStats(cmd, st, cfg)
	}

	uiModel := statsui.NewModel(st, cfg)
	program := tea.NewProgram(uiModel, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func runPlainStats(cmd *cobra.Command, st *store.Store, cfg model.StatsConfig) error {
	report, err := stats.BuildReport(context.Background(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report.Sessions); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	if top := stats.TopChordsByFrequency(report.ChordAggsAll, 3); len(top) > 0 {
		if _, err := fmt.Fprintf(out, "Most practiced: %s\n\n", strings.Join(top, ", ")); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	width := stats.PlotWidthFor(stats.TerminalWidth())
	if err := stats.RenderCurves(out, report.Sessions, cfg.CurveWindow, width); err != nil {
		return fmt.Errorf("failed to render curves: %w", err)
	}
	if err := stats.RenderChordTable(out, stats.FilterChords(report.ChordAggsWindow, cfg.Chords)); err != nil {
		return fmt.Errorf("failed to render chord table: %w", err)
	}
	return nil
}

func validateSettings(s model.SessionSettings) error {
	if s.TargetNotes < 0 {
		return fmt.Errorf("--target-notes must be >= 0")
	}
	if s.TargetChords < 0 {
		return fmt.Errorf("--target-chords must be >= 0")
	}
	if s.TargetAccuracy < 0 || s.TargetAccuracy > 100 {
		return fmt.Errorf("--target-accuracy must be between 0 and 100")
	}
	if s.TargetStreak < 0 {
		return fmt.Errorf("--target-streak must be >= 0")
	}
	if s.RoundSeconds < 0 {
		return fmt.Errorf("--round-seconds must be >= 0")
	}
	if s.SessionSeconds < 0 {
		return fmt.Errorf("--session-seconds must be >= 0")
	}
	if s.StartHealth <= 0 {
		return fmt.Errorf("--start-health must be > 0")
	}
	if s.HealthPenalty <= 0 {
		return fmt.Errorf("--health-penalty must be > 0")
	}
	if s.HealthBonus < 0 {
		return fmt.Errorf("--health-bonus must be >= 0")
	}
	if s.Filters.OctaveHigh > 0 && s.Filters.OctaveLow > s.Filters.OctaveHigh {
		return fmt.Errorf("--octave-low must not exceed --octave-high")
	}
	if s.WeakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}
	if s.WeakFactor < 0 {
		return fmt.Errorf("--weak-factor must be >= 0")
	}
	if s.WeakWindow < 0 {
		return fmt.Errorf("--weak-window must be >= 0")
	}
	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyStringSliceConfig(cmd *cobra.Command, name string, target *string, value *[]string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = strings.Join(*value, ",")
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# eartrain configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# mode = %q             # Training mode (see 'eartrain modes')
# roots = ["C", "G"]      # Root notes, empty for all
# qualities = ["major", "minor"]
# inversions = false      # Include chord inversions
# octave-low = 4
# octave-high = 4
# round-seconds = 0.0     # Per-round response limit, 0 for none
# focus-weak = false      # Bias practice toward weak chords
# weak-top = %d           # Number of weak chords to focus on
# weak-factor = %.1f      # Weight factor for weak chords
# weak-window = %d        # Number of recent sessions to compute weak chords

[rush]
# target-notes = %d

[survival]
# start-health = %d
# health-penalty = %d
# health-bonus = %d
# health-decay = false
# session-seconds = %.0f

[sandbox]
# target-notes = 0        # 0 disables the count target
# target-streak = 0
# target-accuracy = 0.0

[single-chord]
# target-chords = %d

[chord-id]
# target-chords = %d
`,
		defaultMode,
		defaultWeakTop,
		defaultWeakFactor,
		defaultWeakWindow,
		defaultTargetNotes,
		defaultStartHealth,
		defaultHealthPenalty,
		defaultHealthBonus,
		defaultSessionSecs,
		defaultTargetChords,
		defaultTargetChords,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
