// Package chat validates completion requests, translates them for the
// Gemini generateContent API and drives a client-side conversation.
package chat

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	MaxMessages        = 50
	MaxContentChars    = 32000
	MaxSystemChars     = 32000
	MaxAttachmentBytes = 8 << 20

	DefaultModel       = "gemini-2.5-flash"
	DefaultTemperature = 0.2
)

var modelPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// ErrInvalidRequest is wrapped by every validation failure.
var ErrInvalidRequest = errors.New("chat: invalid request")

// Role of a message author.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one turn of the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Attachment is an inline base64 image sent with the last turn.
type Attachment struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Options tune the completion.
type Options struct {
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// Request is the body accepted by the chat proxy.
type Request struct {
	Messages         []Message   `json:"messages"`
	System           string      `json:"system,omitempty"`
	AttachmentInline *Attachment `json:"attachmentInline,omitempty"`
	Options          Options     `json:"options"`
}

// Defaults fill in options the caller left out.
type Defaults struct {
	Model       string
	Temperature float64
}

// Validated is a request that passed validation with defaults applied.
type Validated struct {
	Messages    []Message
	System      string
	Attachment  *Attachment
	Model       string
	Temperature float64
}

// ValidationError lists the offending fields.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return "chat: invalid request: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

// Validate checks bounds on every field and applies defaults.
func (r Request) Validate(defaults Defaults) (Validated, error) {
	fields := map[string]string{}

	switch {
	case len(r.Messages) == 0:
		fields["messages"] = "at least one message required"
	case len(r.Messages) > MaxMessages:
		fields["messages"] = fmt.Sprintf("at most %d messages allowed", MaxMessages)
	}
	for i, m := range r.Messages {
		switch m.Role {
		case RoleUser, RoleAssistant, RoleSystem:
		default:
			fields[fmt.Sprintf("messages[%d].role", i)] = "must be user, assistant or system"
		}
		if utf8.RuneCountInString(m.Content) > MaxContentChars {
			fields[fmt.Sprintf("messages[%d].content", i)] = fmt.Sprintf("longer than %d characters", MaxContentChars)
		}
	}
	if utf8.RuneCountInString(r.System) > MaxSystemChars {
		fields["system"] = fmt.Sprintf("longer than %d characters", MaxSystemChars)
	}

	if a := r.AttachmentInline; a != nil {
		if reason := validateAttachment(a); reason != "" {
			fields["attachmentInline"] = reason
		}
	}
	if n := len(r.Messages); n > 0 && n <= MaxMessages && strings.TrimSpace(r.Messages[n-1].Content) == "" && r.AttachmentInline == nil {
		fields[fmt.Sprintf("messages[%d].content", n-1)] = "last message needs content or an attachment"
	}

	model := strings.TrimSpace(r.Options.Model)
	if model == "" {
		model = defaults.Model
	}
	if model == "" {
		model = DefaultModel
	}
	if !modelPattern.MatchString(model) {
		fields["options.model"] = "invalid model name"
	}

	temperature := defaults.Temperature
	if t := r.Options.Temperature; t != nil {
		if math.IsNaN(*t) || *t < 0 || *t > 2 {
			fields["options.temperature"] = "must be between 0 and 2"
		}
		temperature = *t
	}

	if len(fields) > 0 {
		return Validated{}, &ValidationError{Fields: fields}
	}

	out := Validated{
		Messages:    append([]Message(nil), r.Messages...),
		System:      r.System,
		Model:       model,
		Temperature: temperature,
	}
	if r.AttachmentInline != nil {
		a := *r.AttachmentInline
		out.Attachment = &a
	}
	return out, nil
}

func validateAttachment(a *Attachment) string {
	if !strings.HasPrefix(strings.ToLower(a.MimeType), "image/") {
		return "only image/* attachments are accepted"
	}
	if a.Data == "" {
		return "attachment data missing"
	}
	if base64.StdEncoding.DecodedLen(len(a.Data)) > MaxAttachmentBytes+3 {
		return "attachment larger than 8 MiB"
	}
	decoded, err := base64.StdEncoding.DecodeString(a.Data)
	if err != nil {
		return "attachment data is not valid base64"
	}
	if len(decoded) > MaxAttachmentBytes {
		return "attachment larger than 8 MiB"
	}
	return ""
}
