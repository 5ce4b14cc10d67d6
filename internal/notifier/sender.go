// Package notifier emails students about broadcasts and new assignments.
package notifier

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// SendRequest is one email
type SendRequest struct {
	To      []string
	Subject string
	HTML    string
}

// Sender delivers emails through an external provider
type Sender interface {
	SendBatch(ctx context.Context, reqs []SendRequest) (int, error)
}

// Raw HTML in messages is escaped because WithUnsafe is not set
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// RenderMarkdown turns a teacher's message into an HTML email body
func RenderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTMLEscapeString(md)
	}
	return buf.String()
}

// BroadcastEmail builds the email for a class broadcast
func BroadcastEmail(to, class, section, message string) SendRequest {
	return SendRequest{
		To:      []string{to},
		Subject: fmt.Sprintf("New message for class %s-%s", class, section),
		HTML:    RenderMarkdown(message),
	}
}

// AssignmentEmail builds the email for an uploaded assignment
func AssignmentEmail(to, class, section, fileName, url string) SendRequest {
	return SendRequest{
		To:      []string{to},
		Subject: fmt.Sprintf("New assignment for class %s-%s: %s", class, section, fileName),
		HTML: fmt.Sprintf(`<p>A new assignment was uploaded: <a href="%s">%s</a></p>`,
			template.HTMLEscapeString(url), template.HTMLEscapeString(fileName)),
	}
}
