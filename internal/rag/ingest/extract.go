package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/RagBot/internal/domain/commonModels"
	"github.com/akolanti/RagBot/pkg/logger_i"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
	"golang.org/x/net/html"
)

var logger = logger_i.NewLogger("Document Ingestion ")

func getDocType(docPath string) commonModels.DocType {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return commonModels.PDF
	case ".docx", ".rtf", ".odt":
		return commonModels.DOCX
	case ".txt", ".md":
		return commonModels.TXT
	case ".html", ".htm":
		return commonModels.HTML
	default:
		return commonModels.ERR
	}
}

// ExtractText pulls the plain text out of a document.
func ExtractText(path string, contentType commonModels.DocType) (string, error) {
	switch contentType {
	case commonModels.PDF:
		return extractPDF(path)
	case commonModels.DOCX, commonModels.TXT:
		return extractWithCat(path)
	case commonModels.HTML:
		return extractHTML(path)
	default:
		return "", fmt.Errorf("unsupported content type: %s", contentType)
	}
}

func extractPDF(path string) (string, error) {
	logger.Debug("extractPDF", "attempting extraction", path)
	f, err := pdf.Open(path)
	if err != nil {

		logger.Error("failed opening of pdf file")
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []string
	numPages := f.NumPage()
	logger.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			// one broken page should not sink the document
			logger.Error("Error parsing page content", "page", i, "Error", err)
			continue
		}
		pages = append(pages, content)
	}
	return strings.Join(pages, "\n\n"), nil
}

// extractWithCat reads .docx, .odt, .rtf and plaintext files and returns
// the content as a string
func extractWithCat(path string) (string, error) {

	text, err := cat.File(path)
	if err != nil {

		logger.Error("Error extracting content from doc")
		return "", fmt.Errorf("failed to extract document: %w", err)
	}
	return text, nil
}

func extractHTML(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return b.String(), nil
}

// protectExtract guards against pdf pages that hang the parser.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(time.Second * 10):
		logger.Error("pageExtract", "timeout")
		return "", errors.New("timeout")
	}
}
