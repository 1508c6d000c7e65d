// Package gateway renders the browser handoff to the external payment page and
// parses the parameters the browser carries back.
package gateway

import (
	"fmt"
	"html/template"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/angelmondragon/storefront/pkg/types"
)

// Handoff is the signed form the browser must POST to the payment gateway.
type Handoff struct {
	URL    string            `json:"gateway_url"`
	Fields map[string]string `json:"fields"`
}

// Field is one hidden input of the handoff form.
type Field struct {
	Name  string
	Value string
}

// NewHandoff validates the gateway URL and copies the payload.
func NewHandoff(rawURL string, payload map[string]string) (*Handoff, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, fmt.Errorf("gateway url is required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || (parsed.Scheme != "https" && parsed.Scheme != "http") || parsed.Host == "" {
		return nil, fmt.Errorf("gateway url %q is not an absolute http(s) url", rawURL)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("gateway payload is required")
	}
	fields := make(map[string]string, len(payload))
	for k, v := range payload {
		fields[k] = v
	}
	return &Handoff{URL: parsed.String(), Fields: fields}, nil
}

// SortedFields returns the hidden inputs ordered by name.
func (h *Handoff) SortedFields() []Field {
	if h == nil {
		return nil
	}
	out := make([]Field, 0, len(h.Fields))
	for name, value := range h.Fields {
		out = append(out, Field{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

var handoffTemplate = template.Must(template.New("handoff").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Redirecting to payment</title></head>
<body onload="document.forms[0].submit()">
<form method="POST" action="{{.URL}}">
{{- range .Fields}}
<input type="hidden" name="{{.Name}}" value="{{.Value}}">
{{- end}}
<noscript><button type="submit">Continue to payment</button></noscript>
</form>
</body>
</html>
`))

// Render writes an auto-submitting HTML form; the browser leaves the storefront on load.
func (h *Handoff) Render(w io.Writer) error {
	if h == nil {
		return fmt.Errorf("handoff is nil")
	}
	return handoffTemplate.Execute(w, struct {
		URL    template.URL
		Fields []Field
	}{
		URL:    template.URL(h.URL),
		Fields: h.SortedFields(),
	})
}

// ReturnParams are the query parameters of the gateway's return redirect.
type ReturnParams struct {
	OrderID     types.ID
	ReferenceID string
	Status      string
}

// ParseReturn reads the return redirect query. Missing values stay empty; the
// confirmation flow decides what is required.
func ParseReturn(query url.Values) ReturnParams {
	return ReturnParams{
		OrderID:     types.ID(strings.TrimSpace(query.Get("order_id"))),
		ReferenceID: strings.TrimSpace(query.Get("reference_id")),
		Status:      strings.TrimSpace(query.Get("status")),
	}
}
