package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/glimpse"
	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
)

var _ tea.Model = Model{}

const helpText = `Commands:
  /image <path> [question]  attach a PNG or JPEG, optionally asking about it
  /new                      start a new session
  /help                     show this help
  /quit                     exit

Press Enter on an empty line to retry a failed question.`

const noImageHint = "No image attached. Use /image <path> to share one."

// Model is the Bubble Tea model for the glimpse TUI.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model

	ask     AskFunc
	load    LoadFunc
	session *glimpse.Session
	theme   glimpse.Theme
	styles  Styles

	blocks     []MessageBlock
	blockFocus int // index of focused collapsible block (-1 = none)

	// Blocks streamed for the in-flight question. Both are nil between asks.
	activeText     *AssistantTextBlock
	activeThinking *ThinkingBlock

	// streamStart is the block index where the in-flight answer begins.
	streamStart int
	question    string
	// retry holds the last question that failed, resubmitted by Enter on an
	// empty line.
	retry  string
	hinted bool

	running bool
	cancel  context.CancelFunc
	eventCh chan glimpse.Event
	doneCh  chan AskDoneMsg
	err     error
	ready   bool
}

// New creates a new TUI Model. ask relays questions and load reads files
// named by /image.
func New(ask AskFunc, load LoadFunc, session *glimpse.Session, theme glimpse.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about the image, or /image <path>"
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		Input:      ti,
		ask:        ask,
		load:       load,
		session:    session,
		theme:      theme,
		styles:     NewStyles(theme),
		blockFocus: -1,
	}
}

// Running returns whether a question is in flight.
func (m Model) Running() bool { return m.running }

// Err returns the last error, if any.
func (m Model) Err() error { return m.err }

// Session returns the current session. /new replaces it.
func (m Model) Session() *glimpse.Session { return m.session }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.handleWindowSize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamEventMsg:
		m = m.processEvent(msg.Event)
		m.refresh()
		if m.eventCh != nil {
			return m, listenForEvent(m.eventCh, m.doneCh)
		}
		return m, nil

	case AskDoneMsg:
		m = m.finishAsk(msg)
		m.refresh()
		cmd := m.Input.Focus()
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputH := 1
	statusHeight := 1
	borderHeight := 2 // newlines between sections
	vpHeight := msg.Height - inputH - statusHeight - borderHeight

	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m = m.renderSession()
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.refresh()

	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			if m.retry == "" {
				return m, nil
			}
			text = m.retry
		}
		m.Input.SetValue("")
		return m.submit(text)

	case tea.KeyTab:
		if !m.running && m.blockFocus >= 0 {
			block, cmd := m.blocks[m.blockFocus].Update(ToggleMsg{})
			m.blocks[m.blockFocus] = block
			m.Viewport.SetContent(m.renderContent())
			return m, cmd
		}
		return m, nil

	case tea.KeyShiftTab:
		if !m.running {
			m = m.cycleFocusPrev()
			m.Viewport.SetContent(m.renderContent())
		}
		return m, nil
	}

	// Character keys go to the input only; 'j'/'k' would otherwise scroll.
	if !m.running {
		var cmd tea.Cmd
		var cmds []tea.Cmd

		if msg.Type != tea.KeyRunes {
			m.Viewport, cmd = m.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)

		return m, tea.Batch(cmds...)
	}

	return m, nil
}

// submit dispatches a slash command or asks text as a question.
func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	m.err = nil
	if !strings.HasPrefix(text, "/") {
		return m.startAsk(text)
	}

	name, args, _ := strings.Cut(text, " ")
	args = strings.TrimSpace(args)
	switch name {
	case "/quit", "/exit":
		return m, tea.Quit
	case "/help":
		m.blocks = append(m.blocks, NewNoticeBlock(helpText, m.styles))
	case "/new":
		m.session = glimpse.NewSession(newSessionID())
		m.blocks = nil
		m.blockFocus = -1
		m.retry = ""
		m.hinted = false
		m.blocks = append(m.blocks, NewNoticeBlock("Started a new session.", m.styles))
	case "/image":
		return m.attach(args)
	default:
		m.blocks = append(m.blocks, NewNoticeBlock(fmt.Sprintf("Unknown command %s. Type /help for commands.", name), m.styles))
	}
	m.refresh()
	return m, nil
}

// attach loads the image named by the first argument. Any remaining text is
// asked as a question about it.
func (m Model) attach(args string) (tea.Model, tea.Cmd) {
	path, question, _ := strings.Cut(args, " ")
	if path == "" {
		m.blocks = append(m.blocks, NewNoticeBlock("Usage: /image <path> [question]", m.styles))
		m.refresh()
		return m, nil
	}
	img, err := m.load(path)
	if err != nil {
		m.err = err
		m.blocks = append(m.blocks, NewErrorBlock(err, m.styles))
		m.refresh()
		return m, nil
	}
	replaced := m.session.Attach(img)
	m.blocks = append(m.blocks, NewAttachmentBlock(img, replaced, m.styles))
	m.refresh()
	if question = strings.TrimSpace(question); question != "" {
		return m.startAsk(question)
	}
	return m, nil
}

func (m Model) startAsk(question string) (tea.Model, tea.Cmd) {
	m.retry = ""
	m.question = question
	user := NewUserMessageBlock(question, m.styles)
	if last := m.session.LastImage(); last != nil && m.session.PendingImage() == nil {
		user.About(last.Name)
	}
	m.blocks = append(m.blocks, user)
	if !m.hinted && m.session.LastImage() == nil {
		m.hinted = true
		m.blocks = append(m.blocks, NewNoticeBlock(noImageHint, m.styles))
	}
	m.streamStart = len(m.blocks)
	m.refresh()

	m.activeText = nil
	m.activeThinking = nil

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.eventCh = make(chan glimpse.Event, 256)
	m.doneCh = make(chan AskDoneMsg, 1)
	m.running = true

	m.Input.Blur()

	return m, tea.Batch(
		startAsk(m.ask, ctx, m.session, question, m.eventCh, m.doneCh),
		listenForEvent(m.eventCh, m.doneCh),
	)
}

// finishAsk settles the in-flight question. A failure drops the partial
// answer so the transcript only shows what the session recorded.
func (m Model) finishAsk(msg AskDoneMsg) Model {
	if m.cancel != nil {
		m.cancel()
	}
	m.running = false
	m.cancel = nil
	m.eventCh = nil
	m.doneCh = nil

	switch {
	case errors.Is(msg.Err, context.Canceled):
		m.blocks = m.blocks[:m.streamStart]
		m.blocks = append(m.blocks, NewNoticeBlock("Cancelled. Press Enter to ask again.", m.styles))
		m.retry = m.question
	case msg.Err != nil:
		m.err = msg.Err
		m.blocks = m.blocks[:m.streamStart]
		m.blocks = append(m.blocks, NewErrorBlock(msg.Err, m.styles))
		if glimpse.IsRetryable(msg.Err) {
			m.retry = m.question
		}
	case m.activeText == nil:
		b := NewAssistantTextBlock(m.theme)
		b.Append(msg.Turn.Answer)
		m.blocks = append(m.blocks, b)
	}
	m.activeText = nil
	m.activeThinking = nil
	return m.updateBlockFocus()
}

// renderSession creates blocks from the session's existing turns.
func (m Model) renderSession() Model {
	for _, t := range m.session.Turns() {
		if t.Attached && t.Image != nil {
			m.blocks = append(m.blocks, NewAttachmentBlock(*t.Image, false, m.styles))
		}
		user := NewUserMessageBlock(t.Question, m.styles)
		if t.Image != nil && !t.Attached {
			user.About(t.Image.Name)
		}
		m.blocks = append(m.blocks, user)
		b := NewAssistantTextBlock(m.theme)
		b.Append(t.Answer)
		m.blocks = append(m.blocks, b)
	}
	if img := m.session.PendingImage(); img != nil {
		m.blocks = append(m.blocks, NewAttachmentBlock(*img, false, m.styles))
	}
	if m.session.Len() > 0 || m.session.LastImage() != nil {
		m.hinted = true
	}
	return m.updateBlockFocus()
}

func (m *Model) refresh() {
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
}

func (m Model) renderContent() string {
	return joinBlocks(m.blocks, m.Viewport.Width)
}

// processEvent routes a streaming event to the active answer or thinking
// block, creating it on first use.
func (m Model) processEvent(evt glimpse.Event) Model {
	switch e := evt.(type) {
	case glimpse.EventTextDelta:
		if m.activeText == nil {
			m.activeText = NewAssistantTextBlock(m.theme)
			m.blocks = append(m.blocks, m.activeText)
		}
		m.activeText.Append(e.Delta)
	case glimpse.EventThinkingDelta:
		if m.activeThinking == nil {
			m.activeThinking = NewThinkingBlock(m.styles)
			m.blocks = append(m.blocks, m.activeThinking)
			m = m.updateBlockFocus()
		}
		m.activeThinking.Append(e.Delta)
	}
	return m
}

// updateBlockFocus focuses the last Collapsible block, or none.
func (m Model) updateBlockFocus() Model {
	m.blockFocus = -1
	for i := len(m.blocks) - 1; i >= 0; i-- {
		if isCollapsible(m.blocks[i]) {
			m.blockFocus = i
			return m
		}
	}
	return m
}

// cycleFocusPrev moves focus to the previous Collapsible block, wrapping.
func (m Model) cycleFocusPrev() Model {
	start := m.blockFocus - 1
	if start < 0 {
		start = len(m.blocks) - 1
	}
	for i := range len(m.blocks) {
		idx := (start - i + len(m.blocks)) % len(m.blocks)
		if isCollapsible(m.blocks[idx]) {
			m.blockFocus = idx
			return m
		}
	}
	m.blockFocus = -1
	return m
}

func (m Model) statusLine() string {
	var s string
	switch {
	case m.running:
		s = "Looking..."
		if img := m.session.LastImage(); img != nil {
			s = "Looking at " + img.Name + "..."
		}
	case m.err != nil:
		s = fmt.Sprintf("Error: %v", m.err)
	default:
		s = "No image"
		if img := m.session.LastImage(); img != nil {
			s = "Image: " + img.Name
		}
		s += " · Enter to send, /help for commands, Ctrl+C to quit"
	}
	if w := m.Viewport.Width; w > 0 {
		s = runewidth.Truncate(s, w, "…")
	}
	if m.err != nil && !m.running {
		return m.styles.Error.Render(s)
	}
	return m.styles.Muted.Render(s)
}

func newSessionID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// startAsk runs the relay call in a goroutine and signals completion.
func startAsk(ask AskFunc, ctx context.Context, session *glimpse.Session, question string, eventCh chan<- glimpse.Event, doneCh chan<- AskDoneMsg) tea.Cmd {
	return func() tea.Msg {
		turn, err := ask(ctx, session, question, func(e glimpse.Event) {
			select {
			case eventCh <- e:
			case <-ctx.Done():
			}
		})
		close(eventCh)
		doneCh <- AskDoneMsg{Turn: turn, Err: err}
		return nil
	}
}

// listenForEvent waits for the next event from the channel.
// When the channel closes, it returns the AskDoneMsg from doneCh.
func listenForEvent(ch <-chan glimpse.Event, doneCh <-chan AskDoneMsg) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return <-doneCh
		}
		return StreamEventMsg{Event: evt}
	}
}
