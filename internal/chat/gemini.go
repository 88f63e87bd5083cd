package chat

import "strings"

// GenerateRequest is the generateContent request body.
type GenerateRequest struct {
	Contents          []Content        `json:"contents"`
	SystemInstruction *Content         `json:"systemInstruction,omitempty"`
	GenerationConfig  GenerationConfig `json:"generationConfig"`
}

type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type GenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

// GenerateResponse holds the parts of the generateContent response we read.
type GenerateResponse struct {
	Candidates []struct {
		Content Content `json:"content"`
	} `json:"candidates"`
}

// Text joins the text parts of the first candidate.
func (r GenerateResponse) Text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// BuildPayload maps a validated request onto Gemini's content model. Earlier
// system messages are dropped, assistant turns become model turns and the
// last message is always sent as the user turn carrying the attachment.
func BuildPayload(v Validated) GenerateRequest {
	contents := make([]Content, 0, len(v.Messages))
	if len(v.Messages) > 1 {
		for _, m := range v.Messages[:len(v.Messages)-1] {
			if m.Role == RoleSystem {
				continue
			}
			role := "user"
			if m.Role == RoleAssistant {
				role = "model"
			}
			contents = append(contents, Content{Role: role, Parts: []Part{{Text: m.Content}}})
		}
	}

	var last []Part
	if n := len(v.Messages); n > 0 && v.Messages[n-1].Content != "" {
		last = append(last, Part{Text: v.Messages[n-1].Content})
	}
	if v.Attachment != nil {
		last = append(last, Part{InlineData: &InlineData{MimeType: v.Attachment.MimeType, Data: v.Attachment.Data}})
	}
	contents = append(contents, Content{Role: "user", Parts: last})

	payload := GenerateRequest{
		Contents:         contents,
		GenerationConfig: GenerationConfig{Temperature: v.Temperature},
	}
	if v.System != "" {
		payload.SystemInstruction = &Content{Role: "user", Parts: []Part{{Text: v.System}}}
	}
	return payload
}
