package guesspresenter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/park285/numguess/internal/domain"
	"github.com/park285/numguess/internal/msgcat"
	"github.com/park285/numguess/internal/round"
	"github.com/park285/numguess/internal/stats"
	"github.com/park285/numguess/internal/util"
	"github.com/park285/numguess/pkg/guessdto"
)

// PrefixProvider exposes the command prefix chat messages should use.
type PrefixProvider interface {
	Prefix() string
}

// Formatter renders DTOs into message text through the catalog.
type Formatter struct {
	cat            *msgcat.Catalog
	prefixProvider PrefixProvider
	// Fold long listings behind a "see more" break for chat clients.
	fold bool
}

type FormatterOption func(*Formatter)

// WithSeeMore folds help and history listings for chat delivery.
func WithSeeMore() FormatterOption {
	return func(f *Formatter) { f.fold = true }
}

func NewFormatter(cat *msgcat.Catalog, provider PrefixProvider, opts ...FormatterOption) *Formatter {
	f := &Formatter{cat: cat, prefixProvider: provider}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Formatter) Prefix() string {
	if f == nil || f.prefixProvider == nil {
		return ""
	}
	return strings.TrimSpace(f.prefixProvider.Prefix())
}

func (f *Formatter) render(key string, data map[string]any) string {
	return f.cat.RenderOr(key, data, key)
}

func (f *Formatter) roundData(s *guessdto.RoundState) map[string]any {
	guesses := make([]string, 0, len(s.Guesses))
	for _, g := range s.Guesses {
		guesses = append(guesses, strconv.Itoa(g))
	}
	return map[string]any{
		"Difficulty":    s.Difficulty,
		"Mode":          s.Mode,
		"ModeTitle":     s.ModeTitle,
		"LowerBound":    s.LowerBound,
		"UpperBound":    s.UpperBound,
		"MaxAttempts":   s.MaxAttempts,
		"AttemptsUsed":  s.AttemptsUsed,
		"AttemptsLeft":  s.AttemptsLeft,
		"MaxHints":      s.MaxHints,
		"HintsUsed":     s.HintsUsed,
		"HintsLeft":     s.HintsLeft,
		"Guesses":       strings.Join(guesses, ", "),
		"Elapsed":       formatElapsed(s.Elapsed),
		"TimeLimit":     formatLimit(s.TimeLimit),
		"Remaining":     formatElapsed(s.Remaining),
		"SurvivalScore": s.SurvivalScore,
		"Target":        s.Target,
	}
}

func (f *Formatter) Start(state *guessdto.RoundState, resumed bool) string {
	if state == nil {
		return f.render("errors.internal", nil)
	}
	if resumed {
		return f.render("round.resumed", f.roundData(state))
	}
	return f.render("round.started", f.roundData(state))
}

// Guess renders the feedback line and, when the guess ended the round,
// the completion block.
func (f *Formatter) Guess(res *guessdto.GuessResult) string {
	if res == nil {
		return ""
	}
	var lines []string
	data := f.roundData(&res.Round)
	data["Value"] = res.Value
	switch res.Outcome {
	case string(round.OutcomeTooLow):
		lines = append(lines, f.render("round.too_low", data))
	case string(round.OutcomeTooHigh):
		lines = append(lines, f.render("round.too_high", data))
	}
	if res.Completion != nil {
		lines = append(lines, f.Completion(&res.Round, res.Completion))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) Completion(state *guessdto.RoundState, c *guessdto.Completion) string {
	if state == nil || c == nil {
		return ""
	}
	data := f.roundData(state)
	data["Score"] = c.Score

	var lines []string
	switch {
	case c.Won:
		lines = append(lines, f.render("round.won", data))
	case c.TimedOut:
		lines = append(lines, f.render("round.timed_out", data))
	case c.Abandoned:
		lines = append(lines, f.render("round.abandoned", data))
	default:
		lines = append(lines, f.render("round.lost", data))
	}
	if state.Mode == string(round.ModeSurvival) && c.RunScore > 0 {
		lines = append(lines, f.render("round.survival_total", map[string]any{"RunScore": c.RunScore}))
	}
	if c.NewHighScore {
		score := c.Score
		if c.RunScore > 0 {
			score = c.RunScore
		}
		lines = append(lines, f.render("round.high_score", map[string]any{"Label": c.Label, "Score": score}))
	}
	for _, a := range c.Achievements {
		lines = append(lines, f.render("round.achievement", map[string]any{"Name": a.Name, "Description": a.Description}))
	}
	if c.SaveFailed {
		lines = append(lines, f.render("round.save_failed", nil))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) Hint(text string) string {
	return f.render("round.hint", map[string]any{"Text": text})
}

func (f *Formatter) Status(state *guessdto.RoundState) string {
	if state == nil {
		return f.Error(&guessdto.DomainError{Code: CodeNoActiveRound}, nil)
	}
	return f.render("round.status", f.roundData(state))
}

func (f *Formatter) Stats(p *guessdto.Profile) string {
	if p == nil {
		return f.render("errors.internal", nil)
	}
	s := p.Stats
	bestTime := ""
	if s.BestTime > 0 {
		bestTime = formatElapsed(s.BestTime)
	}
	lines := []string{f.render("stats.summary", map[string]any{
		"Avatar":          avatarGlyph(p.Avatar),
		"Name":            p.Name,
		"GamesPlayed":     s.GamesPlayed,
		"GamesWon":        s.GamesWon,
		"WinRate":         s.WinRate,
		"Accuracy":        s.Accuracy,
		"CorrectGuesses":  s.CorrectGuesses,
		"TotalGuesses":    s.TotalGuesses,
		"CurrentStreak":   s.CurrentStreak,
		"BestStreak":      s.BestStreak,
		"TotalScore":      s.TotalScore,
		"BestTime":        bestTime,
		"AvgGuessSeconds": s.AvgGuessSeconds,
	})}
	lines = append(lines, "", f.render("stats.high_scores_header", nil))
	if len(s.HighScores) == 0 {
		lines = append(lines, f.render("stats.no_high_scores", nil))
	}
	for _, hs := range s.HighScores {
		lines = append(lines, f.render("stats.high_score_line", map[string]any{"Label": hs.Label, "Score": hs.Score}))
	}
	return strings.Join(lines, "\n")
}

// History renders entries newest first, followed by the summary line.
func (f *Formatter) History(entries []guessdto.HistoryEntry, summary guessdto.HistorySummary) string {
	header := f.render("history.header", nil)
	if len(entries) == 0 {
		return header + "\n" + f.render("history.empty", nil)
	}
	lines := []string{header}
	for _, e := range entries {
		badge := f.render("history.loss_badge", nil)
		if e.Won {
			badge = f.render("history.win_badge", nil)
		}
		lines = append(lines, f.render("history.entry", map[string]any{
			"PlayedAt":     formatShortTime(e.PlayedAt),
			"Badge":        badge,
			"Difficulty":   e.Difficulty,
			"Mode":         e.Mode,
			"Target":       e.Target,
			"AttemptsUsed": e.AttemptsUsed,
			"Elapsed":      formatElapsed(e.Elapsed),
			"Score":        e.Score,
		}))
	}
	lines = append(lines, "", f.render("history.summary", map[string]any{
		"Games":         summary.Games,
		"Wins":          summary.Wins,
		"WinRate":       summary.WinRate,
		"LongestStreak": summary.LongestStreak,
	}))
	return f.foldIf(strings.Join(lines, "\n"), header)
}

// Achievements lists the whole catalog, unlocked entries first.
func (f *Formatter) Achievements(unlocked []guessdto.Achievement) string {
	have := make(map[string]bool, len(unlocked))
	for _, a := range unlocked {
		have[a.ID] = true
	}
	all := stats.Catalog()
	lines := []string{f.render("achievements.header", map[string]any{"Unlocked": len(unlocked), "Total": len(all)})}
	for _, a := range unlocked {
		lines = append(lines, f.render("achievements.unlocked_line", map[string]any{"Name": a.Name, "Description": a.Description}))
	}
	for _, a := range all {
		if have[a.ID] {
			continue
		}
		lines = append(lines, f.render("achievements.locked_line", map[string]any{"Name": a.Name, "Description": a.Description}))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) Presets() string {
	lines := []string{f.render("presets.header", nil)}
	for _, p := range round.ListPresets() {
		lines = append(lines, f.render("presets.line", map[string]any{"Name": p.Name, "Description": p.Description}))
	}
	lines = append(lines, "", f.render("presets.modes_header", nil))
	for _, m := range round.ListModes() {
		lines = append(lines, f.render("presets.mode_line", map[string]any{"Mode": string(m.Mode), "Description": m.Description}))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) Renamed(name string) string {
	return f.render("profile.renamed", map[string]any{"Name": name})
}

func (f *Formatter) AvatarChanged(avatar string) string {
	return f.render("profile.avatar", map[string]any{"Avatar": avatarGlyph(avatar)})
}

func (f *Formatter) Avatars() string {
	return f.render("profile.avatars", map[string]any{"Avatars": domain.Avatars})
}

// Error renders a classified failure. state supplies the bounds for
// out-of-range messages and may be nil.
func (f *Formatter) Error(de *guessdto.DomainError, state *guessdto.RoundState) string {
	if de == nil {
		return ""
	}
	data := map[string]any{"Prefix": f.Prefix()}
	switch de.Code {
	case CodeOutOfRange:
		if state == nil {
			return f.render("errors.not_a_number", data)
		}
		data["LowerBound"] = state.LowerBound
		data["UpperBound"] = state.UpperBound
	case CodeUnknownDifficulty:
		names := make([]string, 0, 3)
		for _, p := range round.ListPresets() {
			names = append(names, p.Name)
		}
		data["Options"] = names
	case CodeUnknownMode:
		modes := make([]string, 0, 4)
		for _, m := range round.ListModes() {
			modes = append(modes, string(m.Mode))
		}
		data["Options"] = modes
	case CodeInvalidAvatar:
		data["Options"] = domain.Avatars
	}
	key := "errors." + de.Code
	if f.cat == nil || !f.cat.Has(key) {
		key = "errors." + CodeInternal
	}
	return f.render(key, data)
}

// Help renders the command list for the chat bot or the terminal.
func (f *Formatter) Help(bot bool) string {
	title := f.render("help.title", nil)
	body := f.render("help.cli", nil)
	if bot {
		body = f.render("help.bot", map[string]any{"Prefix": f.Prefix()})
	}
	return f.foldIf(title+"\n"+body, title)
}

func (f *Formatter) foldIf(text, title string) string {
	if !f.fold {
		return text
	}
	return util.ApplySeeMore(text, title)
}

func avatarGlyph(avatar string) string {
	if avatar == "" || avatar == domain.DefaultAvatar {
		return "👤"
	}
	return avatar
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d/time.Second))
	}
	return fmt.Sprintf("%dm%02ds", int(d/time.Minute), int((d%time.Minute)/time.Second))
}

func formatLimit(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return formatElapsed(d)
}

func formatShortTime(t time.Time) string {
	if t.IsZero() {
		return "--"
	}
	return t.Local().Format("01-02 15:04")
}

func (f *Formatter) ChartCaption(name string, games int) string {
	return f.render("chart.caption", map[string]any{"Name": name, "Games": games})
}

func (f *Formatter) ChartSaved(path string) string {
	return f.render("chart.saved", map[string]any{"Path": path})
}
