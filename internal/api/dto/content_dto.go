package dto

// PDFResponse answers the PDF alias resolver.
type PDFResponse struct {
	FileID string `json:"fileId"`
}

// SlidesResponse answers the Slides resolver.
type SlidesResponse struct {
	ID         string `json:"id"`
	Key        string `json:"key"`
	Source     string `json:"source"`
	Mode       string `json:"mode"`
	URL        string `json:"url"`
	EmbedURL   string `json:"embedUrl"`
	PreviewURL string `json:"previewUrl"`
	PresentURL string `json:"presentUrl"`
}

// FormsResponse answers the Forms resolver.
type FormsResponse struct {
	Key         string `json:"key"`
	ID          string `json:"id"`
	URL         string `json:"url"`
	FallbackURL string `json:"fallbackUrl,omitempty"`
}

// VideoResponse answers the YouTube resolver. The id is only sent obfuscated.
type VideoResponse struct {
	OK  bool   `json:"ok"`
	Key string `json:"key"`
	Obf []int  `json:"obf"`
}
