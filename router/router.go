package router

import (
	"context"
	"sort"
	"sync"

	"github.com/twingatebot/models"
)

// Handler answers one command for a chat. Handlers send their reply themselves
// and return what they sent; a send failure is returned as the error.
type Handler func(ctx context.Context, chatID int64, sender string) (models.Outbound, error)

// Middleware decorates every handler at dispatch time.
type Middleware func(Handler) Handler

// Kind tells which branch of the router handled a message.
type Kind int

const (
	// KindUnhandled: nothing matched and no default handler is set.
	KindUnhandled Kind = iota
	// KindCommand: the text equals a registered command.
	KindCommand
	// KindDefault: the default handler took the message.
	KindDefault
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindDefault:
		return "default"
	default:
		return "unhandled"
	}
}

// Outcome describes a dispatch. Command is empty unless Kind is KindCommand.
type Outcome struct {
	Kind    Kind
	Command string
	Reply   models.Outbound
}

type ctxKey struct{}

// CommandFromContext returns the command a handler was invoked for, or
// "default" inside the default handler.
func CommandFromContext(ctx context.Context) string {
	cmd, _ := ctx.Value(ctxKey{}).(string)
	return cmd
}

// Router maps exact command strings to handlers.
type Router struct {
	mu         sync.RWMutex
	handlers   map[string]Handler
	fallback   Handler
	middleware []Middleware
}

func New() *Router {
	return &Router{handlers: make(map[string]Handler)}
}

// Register binds command to h, replacing any previous binding. The empty
// command is never bound: empty text always goes to the default handler.
func (r *Router) Register(command string, h Handler) {
	if command == "" || h == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[command] = h
}

// SetDefault sets the handler for text that matches no command.
func (r *Router) SetDefault(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = h
}

// Use appends middleware. The first one added is the outermost.
func (r *Router) Use(mw ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, mw...)
}

// Commands lists the registered commands in lexical order.
func (r *Router) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for cmd := range r.handlers {
		out = append(out, cmd)
	}
	sort.Strings(out)
	return out
}

// Dispatch routes msg by exact, case-sensitive comparison of its whole text.
// "/verify please" does not match "/verify". Handler errors are returned as is.
func (r *Router) Dispatch(ctx context.Context, msg models.Message) (Outcome, error) {
	r.mu.RLock()
	h, ok := r.handlers[msg.Text]
	fallback := r.fallback
	mw := r.middleware
	r.mu.RUnlock()

	out := Outcome{Kind: KindCommand, Command: msg.Text}
	if !ok {
		if fallback == nil {
			return Outcome{Kind: KindUnhandled}, nil
		}
		h = fallback
		out = Outcome{Kind: KindDefault}
	}

	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}

	name := out.Command
	if out.Kind == KindDefault {
		name = "default"
	}
	ctx = context.WithValue(ctx, ctxKey{}, name)

	sender := msg.SenderName
	if sender == "" {
		sender = models.DefaultSenderName
	}

	reply, err := h(ctx, msg.ChatID, sender)
	out.Reply = reply
	return out, err
}
