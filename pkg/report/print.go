package report

import (
	"html/template"
	"io"
	"time"
)

var printTemplate = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 24px; color: #111; }
h1 { font-size: 20px; margin-bottom: 4px; }
.meta { color: #666; font-size: 12px; margin-bottom: 16px; }
.summary { display: flex; gap: 24px; margin-bottom: 16px; }
.summary div { font-size: 13px; }
table { border-collapse: collapse; width: 100%; margin-bottom: 24px; font-size: 12px; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
th { background: #f3f3f3; }
td.num { text-align: right; }
@media print { body { margin: 0; } }
</style>
</head>
<body onload="window.print()">
<h1>{{.Title}}</h1>
<div class="meta">Generated {{.Generated.Format "2006-01-02 15:04"}}{{if .Period}} &middot; {{.Period}}{{end}}</div>
{{if .Summary}}<div class="summary">{{range .Summary}}<div><strong>{{.Label}}:</strong> {{.Value}}</div>{{end}}</div>{{end}}
{{range .Tables}}
<h2>{{.Title}}</h2>
<table>
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td{{if .Number}} class="num"{{end}}>{{.String}}</td>{{end}}</tr>
{{else}}<tr><td colspan="{{len .Headers}}">No records</td></tr>
{{end}}</tbody>
</table>
{{end}}
</body>
</html>
`))

// Document is a printable report.
type Document struct {
	Title     string
	Generated time.Time
	Period    string
	Summary   []Summary
	Tables    []Table
}

// WriteHTML renders d as a standalone HTML page that opens the print dialog
// when loaded in a browser.
func WriteHTML(w io.Writer, d Document) error {
	if d.Generated.IsZero() {
		d.Generated = time.Now()
	}
	return printTemplate.Execute(w, d)
}
