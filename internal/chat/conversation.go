package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrBusy is returned when a reply is still being generated.
	ErrBusy = errors.New("chat: a reply is already in progress")
	// ErrEmptyPrompt is returned for a send with neither text nor attachment.
	ErrEmptyPrompt = errors.New("chat: empty prompt")
	// ErrAborted is returned by Send when Abort cancelled the request.
	ErrAborted = errors.New("chat: request aborted")
)

// Completer produces an assistant reply for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Conversation keeps the message history of one chat window. One request can
// be in flight at a time and Abort cancels it.
type Conversation struct {
	completer Completer
	options   Options

	mu       sync.Mutex
	system   string
	messages []Message
	busy     bool
	seq      uint64
	cancel   context.CancelFunc
}

func NewConversation(completer Completer, options Options) *Conversation {
	return &Conversation{completer: completer, options: options}
}

// SetSystem sets the system prompt sent with later requests.
func (c *Conversation) SetSystem(system string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.system = strings.TrimSpace(system)
}

// Send appends a user turn, asks for a reply and appends it. A failed or
// aborted request leaves the user turn in place and adds no assistant turn.
func (c *Conversation) Send(ctx context.Context, text string, attachment *Attachment) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" && attachment == nil {
		return "", ErrEmptyPrompt
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return "", ErrBusy
	}
	c.messages = append(c.messages, Message{Role: RoleUser, Content: text})
	req := Request{
		Messages:         append([]Message(nil), c.messages...),
		System:           c.system,
		AttachmentInline: attachment,
		Options:          c.options,
	}
	ctx, cancel := context.WithCancel(ctx)
	c.busy = true
	c.seq++
	seq := c.seq
	c.cancel = cancel
	c.mu.Unlock()

	reply, err := c.completer.Complete(ctx, req)
	aborted := ctx.Err() != nil
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq == seq {
		c.busy = false
		c.cancel = nil
	}
	if aborted {
		return "", fmt.Errorf("%w: %w", ErrAborted, context.Cause(ctx))
	}
	if err != nil {
		return "", err
	}
	c.messages = append(c.messages, Message{Role: RoleAssistant, Content: reply})
	return reply, nil
}

// Abort cancels the in-flight request, if any, and clears the busy flag.
func (c *Conversation) Abort() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == nil {
		c.busy = false
		return false
	}
	c.cancel()
	c.cancel = nil
	c.busy = false
	return true
}

// Busy reports whether a request is in flight.
func (c *Conversation) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// Clear drops the history.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}
