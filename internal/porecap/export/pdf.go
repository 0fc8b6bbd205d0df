package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"regexp"
	"time"

	"github.com/odyssey-erp/porekap/internal/porecap"
	"github.com/odyssey-erp/porekap/web"
)

// PDFClient exposes the subset of the report client used by the exporter.
type PDFClient interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{3,8}$`)

// PDFExporter renders recap documents through html/template and a PDF
// backend.
type PDFExporter struct {
	tpl    *template.Template
	client PDFClient
}

// NewPDFExporter parses the recap template and wires the PDF client.
func NewPDFExporter(client PDFClient) (*PDFExporter, error) {
	if client == nil {
		return nil, fmt.Errorf("porecap export: pdf client required")
	}
	formatter := porecap.NewFormatter()
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return formatter.Date(t)
		},
		"css": func(color string) template.CSS {
			if hexColor.MatchString(color) {
				return template.CSS(color)
			}
			return template.CSS("transparent")
		},
	}
	tpl, err := template.New("po_recap_pdf.html").Funcs(funcMap).ParseFS(web.Templates, "templates/reports/po_recap_pdf.html")
	if err != nil {
		return nil, err
	}
	return &PDFExporter{tpl: tpl, client: client}, nil
}

// RenderHTML executes the template for doc.
func (p *PDFExporter) RenderHTML(doc porecap.Document) (string, error) {
	if p == nil || p.tpl == nil {
		return "", fmt.Errorf("porecap export: pdf exporter not initialised")
	}
	buf := &bytes.Buffer{}
	if err := p.tpl.Execute(buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderRecap converts doc into PDF bytes.
func (p *PDFExporter) RenderRecap(ctx context.Context, doc porecap.Document) ([]byte, error) {
	html, err := p.RenderHTML(doc)
	if err != nil {
		return nil, err
	}
	if p.client == nil {
		return nil, fmt.Errorf("porecap export: pdf client required")
	}
	return p.client.RenderHTML(ctx, html)
}
