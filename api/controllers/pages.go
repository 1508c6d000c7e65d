package controllers

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/angelmondragon/storefront/internal/confirmation"
)

var orderPage = template.Must(template.New("order").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
{{- if .Message}}
<p>{{.Message}}</p>
{{- end}}
{{- with .Result.Order}}
<p>Order #{{.ID}} | Total: Rs. {{.TotalPrice.StringFixed 2}} | Status: {{.Status}}</p>
{{- if .TrackingCode}}
<p>Tracking code: {{.TrackingCode}}</p>
{{- end}}
{{- end}}
{{- if .Result.ReferenceID}}
<p>Reference: {{.Result.ReferenceID}}</p>
{{- end}}
<a href="{{.Link}}">{{.LinkText}}</a>
</body>
</html>
`))

type orderPageData struct {
	Title    string
	Message  string
	Result   confirmation.Result
	Link     string
	LinkText string
}

func renderOrderPage(w http.ResponseWriter, status int, data orderPageData) error {
	var page bytes.Buffer
	if err := orderPage.Execute(&page, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := w.Write(page.Bytes())
	return err
}
