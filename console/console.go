// Package console implements a line-oriented chat front end for terminals
// without a full-screen UI, such as pipes, dumb terminals and CI logs.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fwojciec/glimpse"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Asker relays a question about an image. *glimpse.Relay implements it.
type Asker interface {
	Ask(ctx context.Context, s *glimpse.Session, question string, img *glimpse.Image, opts ...glimpse.AskOption) (glimpse.Turn, error)
}

// LineReader yields input lines. *readline.Instance implements it.
type LineReader interface {
	Readline() (string, error)
}

// ErrInterrupt is returned by a LineReader when the user presses Ctrl+C.
// Console treats it as a request to discard the current line.
var ErrInterrupt = errors.New("interrupt")

const helpText = `Commands:
  /image <path> [question]  attach a PNG or JPEG, optionally asking about it
  /retry                    resubmit the last question that failed
  /history                  list this session's questions
  /new                      start a new session
  /help                     show this help
  /quit                     exit
`

// Console reads questions and commands and prints streamed answers.
type Console struct {
	asker   Asker
	load    func(path string) (glimpse.Image, error)
	session *glimpse.Session
	out     io.Writer
	logger  *zap.Logger

	// interruptible scopes one request to Ctrl+C. Readline consumes Ctrl+C
	// between requests, so the signal only arrives while an answer streams.
	interruptible func(ctx context.Context) (context.Context, context.CancelFunc)

	retry  string
	hinted bool
}

// Option configures a Console.
type Option func(*Console)

// WithLogger sets the logger for failed requests. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Console) { c.logger = l }
}

// WithInterrupt replaces the per-request cancellation context. The default
// cancels the running request on os.Interrupt.
func WithInterrupt(fn func(ctx context.Context) (context.Context, context.CancelFunc)) Option {
	return func(c *Console) { c.interruptible = fn }
}

// New creates a Console that asks through asker and reads /image files with
// load.
func New(asker Asker, load func(path string) (glimpse.Image, error), session *glimpse.Session, out io.Writer, opts ...Option) *Console {
	c := &Console{
		asker:         asker,
		load:          load,
		session:       session,
		out:           out,
		logger:        zap.NewNop(),
		interruptible: onInterrupt,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func onInterrupt(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}

// Session returns the current session. /new replaces it.
func (c *Console) Session() *glimpse.Session { return c.session }

// Run reads lines from r until EOF, /quit, or ctx is cancelled.
func (c *Console) Run(ctx context.Context, r LineReader) error {
	fmt.Fprintln(c.out, "Type /help for commands.")
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := r.Readline()
		if errors.Is(err, ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		if c.Exec(ctx, line) {
			return nil
		}
	}
}

// Exec handles one input line. It reports whether the user asked to quit.
func (c *Console) Exec(ctx context.Context, line string) (quit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		c.ask(ctx, line)
		return false
	}

	name, args, _ := strings.Cut(line, " ")
	args = strings.TrimSpace(args)
	switch name {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprint(c.out, helpText)
	case "/new":
		c.session = glimpse.NewSession(uuid.Must(uuid.NewV7()).String())
		c.retry = ""
		c.hinted = false
		fmt.Fprintln(c.out, "Started a new session.")
	case "/history":
		c.history()
	case "/retry":
		if c.retry == "" {
			fmt.Fprintln(c.out, "Nothing to retry.")
			return false
		}
		c.ask(ctx, c.retry)
	case "/image":
		c.attach(ctx, args)
	default:
		fmt.Fprintf(c.out, "Unknown command %s. Type /help for commands.\n", name)
	}
	return false
}

func (c *Console) attach(ctx context.Context, args string) {
	path, question, _ := strings.Cut(args, " ")
	if path == "" {
		fmt.Fprintln(c.out, "Usage: /image <path> [question]")
		return
	}
	img, err := c.load(path)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if c.session.Attach(img) {
		fmt.Fprintf(c.out, "Attached %s (%d bytes), replacing the previous image.\n", img.Name, img.Size())
	} else {
		fmt.Fprintf(c.out, "Attached %s (%d bytes).\n", img.Name, img.Size())
	}
	if question = strings.TrimSpace(question); question != "" {
		c.ask(ctx, question)
	}
}

func (c *Console) ask(ctx context.Context, question string) {
	if !c.hinted && c.session.LastImage() == nil {
		c.hinted = true
		fmt.Fprintln(c.out, "No image attached. Use /image <path> to share one.")
	}

	ctx, cancel := c.interruptible(ctx)
	defer cancel()

	streamed := false
	turn, err := c.asker.Ask(ctx, c.session, question, nil, glimpse.WithEventHandler(func(e glimpse.Event) {
		if d, ok := e.(glimpse.EventTextDelta); ok {
			streamed = true
			fmt.Fprint(c.out, Sanitize(d.Delta))
		}
	}))
	if streamed {
		fmt.Fprintln(c.out)
	}
	if err != nil {
		c.logger.Warn("ask failed",
			zap.String("session", c.session.ID),
			zap.Bool("retryable", glimpse.IsRetryable(err)),
			zap.Error(err),
		)
		switch {
		case errors.Is(err, context.Canceled):
			fmt.Fprintln(c.out, "Cancelled.")
		case glimpse.IsRetryable(err):
			c.retry = question
			fmt.Fprintf(c.out, "Error: %v\nTemporary failure. Type /retry to try again.\n", err)
		default:
			c.retry = ""
			fmt.Fprintf(c.out, "Error: %v\n", err)
		}
		return
	}
	c.retry = ""
	if !streamed {
		fmt.Fprintln(c.out, Sanitize(turn.Answer))
	}
}

func (c *Console) history() {
	turns := c.session.Turns()
	if len(turns) == 0 {
		fmt.Fprintln(c.out, "No questions yet.")
		return
	}
	for i, t := range turns {
		image := "no image"
		if t.Image != nil {
			image = Sanitize(t.Image.Name)
		}
		fmt.Fprintf(c.out, "%d. [%s] %s\n", i+1, image, Sanitize(t.Question))
	}
}
