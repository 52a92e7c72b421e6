package web

import (
	"embed"
	"html/template"
	"io"
)

// The widget ships inside the binary, a container restart can never lose it.
//
//go:embed templates
var templateFiles embed.FS

var chatTemplate = template.Must(template.ParseFS(templateFiles, "templates/chat.html"))

// ChatPageData feeds the chat page template.
type ChatPageData struct {
	LastUpdated string
}

func RenderChatPage(w io.Writer, data ChatPageData) error {
	return chatTemplate.ExecuteTemplate(w, "chat.html", data)
}
