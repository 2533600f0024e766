package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/five82/minimetars/internal/backend"
	"github.com/five82/minimetars/internal/profile"
	"github.com/five82/minimetars/internal/settings"
	"github.com/five82/minimetars/internal/state"
	"github.com/five82/minimetars/internal/window"
)

// Options configures the UI.
type Options struct {
	Context     context.Context
	Client      backend.Client
	Store       *state.Store
	Sizer       *window.Sizer
	Terminal    *window.Terminal
	Settings    settings.Settings
	ProfileName string
	Log         *zap.SugaredLogger
	// Output receives rendered frames. It should be the writer Terminal
	// uses so the two never interleave; nil means stdout.
	Output io.Writer
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx         context.Context
	client      backend.Client
	store       *state.Store
	sizer       *window.Sizer
	terminal    *window.Terminal
	profileName string
	log         *zap.SugaredLogger

	// UI state
	keys      keyMap
	help      help.Model
	input     textinput.Model
	theme     Theme
	settings  settings.Settings
	width     int
	selected  int
	showHelp  bool
	status    string
	statusErr bool

	// Data state
	snapshot state.Snapshot
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	sizer := opts.Sizer
	if sizer == nil {
		sizer = window.NewSizer(window.Nop{}, window.Options{})
	}
	name := strings.TrimSpace(opts.ProfileName)
	if name == "" {
		name = "default"
	}

	input := textinput.New()
	input.Prompt = "+ "
	input.Placeholder = "ICAO or FAA id"
	input.CharLimit = 8
	input.Width = state.MaxIDLength + 4
	input.Focus()

	m := Model{
		ctx:         ctx,
		client:      opts.Client,
		store:       opts.Store,
		sizer:       sizer,
		terminal:    opts.Terminal,
		profileName: name,
		log:         log,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		input:       input,
		theme:       GetTheme(opts.Settings.Theme),
		settings:    opts.Settings,
	}
	if m.store != nil {
		m.snapshot = m.store.Snapshot()
		m.input.SetValue(m.snapshot.Input)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.store != nil {
		cmds = append(cmds, waitForChange(m.store.Changes()))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		if m.terminal != nil {
			m.terminal.Observe(msg.Width, msg.Height)
		}
		m.fit()
		return m, nil

	case changeMsg:
		m.refresh()
		return m, waitForChange(m.store.Changes())

	case profileLoadedMsg:
		if msg.err != nil {
			m.setStatus(profileError("load", msg.err), true)
			return m, nil
		}
		n := m.store.Replace(msg.profile.Stations)
		m.selected = 0
		m.setStatus(fmt.Sprintf("loaded %s (%s)", msg.profile.Name, stationCount(n)), false)
		m.log.Infow("profile loaded", "name", msg.profile.Name, "stations", n)
		return m, nil

	case profileSavedMsg:
		if msg.err != nil {
			m.setStatus(profileError("save", msg.err), true)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("saved %s", msg.name), false)
		m.log.Infow("profile saved", "name", msg.name)
		return m, nil

	case settingsSavedMsg:
		if msg.err != nil {
			m.setStatus("settings not saved", true)
			m.log.Warnw("settings save failed", "error", msg.err)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderBody(),
		m.renderFooter(),
	)
}

// renderBody is everything between header and footer; its height drives
// the window size.
func (m Model) renderBody() string {
	body := m.renderBoard()
	if m.showHelp {
		body = lipgloss.JoinVertical(lipgloss.Left, body, m.renderHelp())
	}
	return body
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		m.submit()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.snapshot.Stations)-1 {
			m.selected++
		}
		return m, nil

	case key.Matches(msg, m.keys.Remove):
		if m.store == nil {
			return m, nil
		}
		if err := m.store.RemoveStation(m.selected); err != nil && !errors.Is(err, state.ErrIndexOutOfRange) {
			m.log.Warnw("remove station failed", "index", m.selected, "error", err)
		}
		return m, nil

	case key.Matches(msg, m.keys.LoadProfile):
		return m, loadProfileCmd(m.ctx, m.client)

	case key.Matches(msg, m.keys.SaveProfile):
		p := profile.Profile{Name: m.profileName, Stations: m.snapshot.IDs()}
		return m, saveProfileCmd(m.ctx, m.client, p)

	case key.Matches(msg, m.keys.ToggleAtis):
		m.settings.ShowVatsimAtis = !m.settings.ShowVatsimAtis
		return m.settingsChanged()

	case key.Matches(msg, m.keys.ToggleAltimeter):
		m.settings.ShowAltimeter = !m.settings.ShowAltimeter
		return m.settingsChanged()

	case key.Matches(msg, m.keys.ToggleWind):
		m.settings.ShowWind = !m.settings.ShowWind
		return m.settingsChanged()

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.settings.Theme = m.theme.Name
		return m.settingsChanged()

	case key.Matches(msg, m.keys.Minimize):
		if err := m.sizer.Minimize(); err != nil {
			m.log.Debugw("minimize failed", "error", err)
		}
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.fit()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.store != nil {
		m.store.SetInput(m.input.Value())
	}
	return m, cmd
}

// submit adds the typed station, or toggles the selected row when the
// input is blank.
func (m *Model) submit() {
	if m.store == nil {
		return
	}
	if strings.TrimSpace(m.input.Value()) == "" {
		if len(m.snapshot.Stations) > 0 {
			_ = m.store.Toggle(m.selected)
		}
		return
	}
	m.store.SetInput(m.input.Value())
	if m.store.AddStation() {
		m.input.SetValue("")
	}
}

func (m Model) settingsChanged() (tea.Model, tea.Cmd) {
	m.fit()
	return m, saveSettingsCmd(m.ctx, m.client, m.settings)
}

// refresh pulls a new snapshot and refits the window.
func (m *Model) refresh() {
	if m.store == nil {
		return
	}
	m.snapshot = m.store.Snapshot()
	if n := len(m.snapshot.Stations); m.selected >= n {
		m.selected = max(n-1, 0)
	}
	m.fit()
}

func (m *Model) fit() {
	if err := m.sizer.Fit(lipgloss.Height(m.renderBody())); err != nil {
		m.log.Debugw("window fit failed", "error", err)
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func profileError(action string, err error) string {
	if errors.Is(err, profile.ErrNoProfile) {
		return "no saved profile"
	}
	return fmt.Sprintf("profile %s failed", action)
}

// Messages

type changeMsg struct{}

type profileLoadedMsg struct {
	profile profile.Profile
	err     error
}

type profileSavedMsg struct {
	name string
	err  error
}

type settingsSavedMsg struct {
	err error
}

// Commands

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changeMsg{}
	}
}

func loadProfileCmd(ctx context.Context, client backend.Client) tea.Cmd {
	if client == nil {
		return nil
	}
	return func() tea.Msg {
		p, err := client.LoadProfile(ctx)
		return profileLoadedMsg{profile: p, err: err}
	}
}

func saveProfileCmd(ctx context.Context, client backend.Client, p profile.Profile) tea.Cmd {
	if client == nil {
		return nil
	}
	return func() tea.Msg {
		return profileSavedMsg{name: p.Name, err: client.SaveProfile(ctx, p)}
	}
}

func saveSettingsCmd(ctx context.Context, client backend.Client, s settings.Settings) tea.Cmd {
	if client == nil {
		return nil
	}
	return func() tea.Msg {
		return settingsSavedMsg{err: client.SaveSettings(ctx, s)}
	}
}

// Run starts the Bubble Tea program inline and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	var programOpts []tea.ProgramOption
	if opts.Context != nil {
		programOpts = append(programOpts, tea.WithContext(opts.Context))
	}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}
	p := tea.NewProgram(m, programOpts...)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && opts.Context != nil && opts.Context.Err() != nil {
		return nil
	}
	return err
}
