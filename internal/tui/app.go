package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/jfmyers9/nowplayer/internal/music"
	"github.com/jfmyers9/nowplayer/internal/player"
	"github.com/rivo/tview"
	"github.com/rs/zerolog"
)

// Page names
const (
	pageMain    = "main"
	pageLibrary = "library"
	pageMessage = "message"
)

const helpText = "space:play/pause  n:next  p:prev  l:library  u:upload  r:refresh  ←/→:scrub  enter:release  q:quit"

// Controller receives the user's intents. *player.Coordinator implements it.
type Controller interface {
	Refresh(ctx context.Context) error
	TogglePlayPause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	OpenLibrary(ctx context.Context) error
	SelectFromLibrary(ctx context.Context, item music.Item) error
	BeginScrub(ctx context.Context) error
	Scrub(ctx context.Context, value float64) error
	EndScrub(ctx context.Context, value float64) error
	RequestUpload() error
}

// Config holds TUI configuration options
type Config struct {
	ScrubStep      float64       // Slider movement per arrow key press
	CommandTimeout time.Duration // Timeout for each dispatched action
	QueueSize      int           // Pending actions before key presses are dropped
}

// DefaultConfig returns the default TUI configuration
func DefaultConfig() Config {
	return Config{
		ScrubStep:      0.05,
		CommandTimeout: 5 * time.Second,
		QueueSize:      32,
	}
}

// action is one user intent waiting for the worker
type action struct {
	name string
	run  func(ctx context.Context, c Controller) error
}

// App is the terminal player. It is the player's UI sink and forwards key
// presses to the Controller on a single worker goroutine.
type App struct {
	app        *tview.Application
	pages      *tview.Pages
	topRow     *tview.Flex
	nowPlaying *tview.TextView
	artwork    *tview.Image
	slider     *tview.TextView
	help       *tview.TextView
	library    *tview.List

	config     Config
	controller Controller
	logger     zerolog.Logger

	actions chan action
	running atomic.Bool
	done    chan struct{}
	once    sync.Once

	// Display state (guarded by mu)
	mu           sync.Mutex
	song         *player.Song
	status       player.Status
	elapsed      string
	value        float64
	scrubbing    bool
	scrubValue   float64
	lastErr      string
	lastBarWidth int
	items        []music.Item
}

// New creates a TUI with the given config. SetController must be called
// before Run.
func New(cfg Config, logger zerolog.Logger) *App {
	if cfg.ScrubStep <= 0 {
		cfg.ScrubStep = DefaultConfig().ScrubStep
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = DefaultConfig().CommandTimeout
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}

	a := &App{
		app:     tview.NewApplication(),
		config:  cfg,
		logger:  logger.With().Str("component", "tui").Logger(),
		actions: make(chan action, cfg.QueueSize),
		done:    make(chan struct{}),
		status:  player.StatusStopped,
		elapsed: "0:00",
	}
	a.setupUI()
	return a
}

// SetController sets where user intents are sent
func (a *App) SetController(c Controller) {
	a.controller = c
}

// setupUI creates the UI layout
func (a *App) setupUI() {
	a.nowPlaying = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	a.nowPlaying.SetBorder(true).
		SetTitle(" Now Playing ").
		SetTitleAlign(tview.AlignLeft)

	a.artwork = tview.NewImage()
	a.artwork.SetBorder(true)

	a.slider = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	a.slider.SetBorder(true)

	a.help = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)

	a.library = tview.NewList().ShowSecondaryText(true)
	a.library.SetBorder(true).
		SetTitle(" Library ").
		SetTitleAlign(tview.AlignLeft)
	a.library.SetDoneFunc(a.hideLibrary)

	// Artwork starts collapsed and is shown once a song has a cover
	a.topRow = tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.artwork, 0, 0, false).
		AddItem(a.nowPlaying, 0, 2, false)

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.topRow, 0, 3, false).
		AddItem(a.slider, 3, 1, false).
		AddItem(a.help, 1, 1, false)

	a.pages = tview.NewPages().
		AddPage(pageMain, layout, true, true)

	a.app.SetInputCapture(a.handleKeyEvent)
	a.app.SetRoot(a.pages, true)

	a.render()
}

// Run starts the worker and the TUI and blocks until the user quits or ctx
// is cancelled
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.start(ctx)
	go func() {
		<-ctx.Done()
		a.Stop()
	}()

	err := a.app.Run()
	a.running.Store(false)
	a.once.Do(func() { close(a.done) })

	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// start marks the app running before the worker can produce its first
// update, so no render ever runs outside the event loop
func (a *App) start(ctx context.Context) {
	a.running.Store(true)
	go a.worker(ctx)
}

// Stop stops the TUI application
func (a *App) Stop() {
	a.app.Stop()
}

// worker runs dispatched actions one at a time, in order
func (a *App) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case act := <-a.actions:
			a.runAction(ctx, act)
		}
	}
}

func (a *App) runAction(ctx context.Context, act action) {
	if a.controller == nil {
		return
	}

	actx, cancel := context.WithTimeout(ctx, a.config.CommandTimeout)
	defer cancel()

	err := act.run(actx, a.controller)

	a.mu.Lock()
	switch {
	case err == nil, errors.Is(err, player.ErrUploadUnsupported):
		a.lastErr = ""
	default:
		a.logger.Warn().Err(err).Str("action", act.name).Msg("Action failed")
		a.lastErr = fmt.Sprintf("%s: %v", act.name, err)
	}
	a.mu.Unlock()

	a.update(a.render)
}

// dispatch queues an action for the worker. Key presses are dropped rather
// than blocking the event loop when the worker falls behind.
func (a *App) dispatch(name string, run func(ctx context.Context, c Controller) error) {
	select {
	case a.actions <- action{name: name, run: run}:
	default:
		a.logger.Warn().Str("action", name).Msg("Action queue full, dropping")
	}
}

// handleKeyEvent processes keyboard input
func (a *App) handleKeyEvent(event *tcell.EventKey) *tcell.EventKey {
	// Overlays handle their own keys
	if name, _ := a.pages.GetFrontPage(); name != pageMain {
		return event
	}

	switch event.Key() {
	case tcell.KeyLeft:
		a.scrubBy(-a.config.ScrubStep)
		return nil
	case tcell.KeyRight:
		a.scrubBy(a.config.ScrubStep)
		return nil
	case tcell.KeyEnter:
		a.releaseScrub()
		return nil
	}

	switch event.Rune() {
	case 'q', 'Q':
		a.Stop()
		return nil
	case ' ':
		a.dispatch("play/pause", func(ctx context.Context, c Controller) error {
			return c.TogglePlayPause(ctx)
		})
		return nil
	case 'n', 'N':
		a.dispatch("next", func(ctx context.Context, c Controller) error {
			return c.Next(ctx)
		})
		return nil
	case 'p', 'P':
		a.dispatch("previous", func(ctx context.Context, c Controller) error {
			return c.Previous(ctx)
		})
		return nil
	case 'l', 'L':
		a.dispatch("library", func(ctx context.Context, c Controller) error {
			return c.OpenLibrary(ctx)
		})
		return nil
	case 'u', 'U':
		a.dispatch("upload", func(ctx context.Context, c Controller) error {
			return c.RequestUpload()
		})
		return nil
	case 'r', 'R':
		a.RequestRefresh()
		return nil
	}
	return event
}

// RequestRefresh queues a re-read of the now playing item. Safe to call from
// any goroutine.
func (a *App) RequestRefresh() {
	a.dispatch("refresh", func(ctx context.Context, c Controller) error {
		return c.Refresh(ctx)
	})
}

// scrubBy moves the slider. The first move of a drag begins the scrub.
func (a *App) scrubBy(delta float64) {
	a.mu.Lock()
	if a.song == nil {
		a.mu.Unlock()
		return
	}
	begin := !a.scrubbing
	if begin {
		a.scrubbing = true
		a.scrubValue = a.value
	}
	a.scrubValue = clampSlider(a.scrubValue+delta, a.song.TotalFraction)
	value := a.scrubValue
	a.mu.Unlock()

	if begin {
		a.dispatch("scrub", func(ctx context.Context, c Controller) error {
			return c.BeginScrub(ctx)
		})
	}
	a.dispatch("scrub", func(ctx context.Context, c Controller) error {
		return c.Scrub(ctx, value)
	})
	// Key handlers run on the UI goroutine
	a.render()
}

// releaseScrub ends a drag at the current slider value
func (a *App) releaseScrub() {
	a.mu.Lock()
	if !a.scrubbing {
		a.mu.Unlock()
		return
	}
	a.scrubbing = false
	value := a.scrubValue
	a.value = value
	a.mu.Unlock()

	a.dispatch("seek", func(ctx context.Context, c Controller) error {
		return c.EndScrub(ctx, value)
	})
}

// clampSlider keeps v on the slider and rounds away float drift from
// repeated steps
func clampSlider(v, max float64) float64 {
	v = math.Round(v*100) / 100
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// update runs fn on the UI goroutine, or directly when the UI is not running
func (a *App) update(fn func()) {
	select {
	case <-a.done:
		return
	default:
	}

	if !a.running.Load() {
		fn()
		return
	}
	a.app.QueueUpdateDraw(fn)
}

// SetStatus shows the play/pause indicator
func (a *App) SetStatus(status player.Status) {
	a.mu.Lock()
	a.status = status
	a.mu.Unlock()
	a.update(a.render)
}

// SetElapsedLabel shows the elapsed time label
func (a *App) SetElapsedLabel(label string) {
	a.mu.Lock()
	a.elapsed = label
	a.mu.Unlock()
	a.update(a.render)
}

// SetSliderValue moves the slider
func (a *App) SetSliderValue(value float64) {
	a.mu.Lock()
	a.value = value
	a.mu.Unlock()
	a.update(a.render)
}

// SetSong shows a new now playing item
func (a *App) SetSong(song player.Song) {
	a.mu.Lock()
	a.song = &song
	a.value = 0
	a.elapsed = "0:00"
	a.scrubbing = false
	a.mu.Unlock()

	a.update(func() {
		if song.Artwork != nil {
			a.artwork.SetImage(song.Artwork)
			a.topRow.ResizeItem(a.artwork, 0, 1)
		} else {
			a.topRow.ResizeItem(a.artwork, 0, 0)
		}
		a.render()
	})
}

// ShowLibrary opens the library picker
func (a *App) ShowLibrary(items []music.Item) {
	a.mu.Lock()
	a.items = items
	a.mu.Unlock()

	a.update(func() {
		a.library.Clear()
		if len(items) == 0 {
			a.library.AddItem("Library is empty", "esc to close", 0, nil)
		}
		for i, item := range items {
			idx := i
			a.library.AddItem(tview.Escape(item.Label()), item.Kind, 0, func() {
				a.selectLibraryItem(idx)
			})
		}
		a.pages.AddPage(pageLibrary, centered(a.library, 70, 20), true, true)
		a.app.SetFocus(a.library)
	})
}

// selectLibraryItem closes the picker and plays the item at idx
func (a *App) selectLibraryItem(idx int) {
	a.mu.Lock()
	if idx < 0 || idx >= len(a.items) {
		a.mu.Unlock()
		return
	}
	item := a.items[idx]
	a.mu.Unlock()

	a.hideLibrary()
	a.dispatch("select", func(ctx context.Context, c Controller) error {
		return c.SelectFromLibrary(ctx, item)
	})
}

func (a *App) hideLibrary() {
	a.pages.RemovePage(pageLibrary)
	a.app.SetFocus(a.pages)
}

// ShowMessage shows a dismissable message box
func (a *App) ShowMessage(title, body string) {
	a.update(func() {
		modal := tview.NewModal().
			SetText(fmt.Sprintf("%s\n\n%s", title, body)).
			AddButtons([]string{"OK"}).
			SetDoneFunc(func(int, string) {
				a.pages.RemovePage(pageMessage)
				a.app.SetFocus(a.pages)
			})
		a.pages.AddPage(pageMessage, modal, true, true)
		a.app.SetFocus(modal)
	})
}

// render redraws the text panels from the display state
func (a *App) render() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nowPlaying.SetText(renderNowPlaying(a.song, a.status))

	_, _, width, _ := a.slider.GetInnerRect()
	barWidth := width - 14 // Account for time labels
	// Only update cached width when GetInnerRect returns a positive value
	if barWidth > 0 {
		a.lastBarWidth = barWidth
	}
	if a.lastBarWidth < 10 {
		a.lastBarWidth = 10
	}

	if a.song == nil {
		a.slider.SetText("")
	} else {
		value := a.value
		if a.scrubbing {
			value = a.scrubValue
		}
		a.slider.SetText(renderSlider(a.elapsed, value, a.song.TotalFraction, a.song.TotalLabel, a.lastBarWidth))
	}

	a.help.SetText(renderHelp(a.lastErr, a.scrubbing))
}

// renderNowPlaying formats the now playing panel
func renderNowPlaying(song *player.Song, status player.Status) string {
	if song == nil {
		return "\n\n[gray]Nothing playing. Press l to pick from the library.[-]"
	}

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("[white::b]%s[-:-:-]\n", tview.Escape(song.Name)))
	sb.WriteString(fmt.Sprintf("[yellow]%s[-]\n", tview.Escape(song.Artist)))
	sb.WriteString(fmt.Sprintf("[gray]%s[-]", tview.Escape(song.Album)))

	stateIcon := "[yellow]⏸[-]" // Pause icon
	if status == player.StatusPlaying {
		stateIcon = "[green]▶[-]" // Play triangle
	}
	sb.WriteString(fmt.Sprintf("\n\n%s", stateIcon))
	return sb.String()
}

// renderSlider formats the slider row: elapsed, bar, total
func renderSlider(elapsed string, value, max float64, total string, width int) string {
	return fmt.Sprintf("%s %s %s", elapsed, buildSliderBar(value, max, width), total)
}

// buildSliderBar creates a text slider filled to value/max
func buildSliderBar(value, max float64, width int) string {
	if max <= 0 || width <= 0 {
		return strings.Repeat("-", max0(width))
	}

	progress := value / max
	if progress > 1 {
		progress = 1
	}
	if progress < 0 {
		progress = 0
	}

	filled := int(progress * float64(width))
	empty := width - filled

	return "[green]" + strings.Repeat("█", filled) + "[-]" +
		"[gray]" + strings.Repeat("░", empty) + "[-]"
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// renderHelp formats the bottom line
func renderHelp(lastErr string, scrubbing bool) string {
	switch {
	case lastErr != "":
		return fmt.Sprintf("[red]%s[-]", tview.Escape(lastErr))
	case scrubbing:
		return "[yellow]scrubbing: ←/→ move  enter:release[-]"
	default:
		return "[gray]" + helpText + "[-]"
	}
}

// centered wraps p in a fixed size box in the middle of the screen
func centered(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}
