package export

import (
	"html/template"
	"io"
)

// Word opens HTML served as application/msword, so the document is a plain page
// with the Office namespaces declared.
var docTemplate = template.Must(template.New("doc").Parse(`<html xmlns:o="urn:schemas-microsoft-com:office:office" xmlns:w="urn:schemas-microsoft-com:office:word" xmlns="http://www.w3.org/TR/REC-html40">
<head><meta charset="utf-8"><title>{{.Title}}</title>
<style>
body { font-family: Calibri, Arial, sans-serif; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #999; padding: 4px 8px; }
th { background: #e6e6e6; }
td.amount { text-align: right; }
</style></head>
<body>
<h1>{{.Title}}</h1>
<p>Exported {{.ExportedAt.Format "02 Jan 2006 15:04 MST"}}, amounts in {{.Currency}}</p>
<table>
<tr><th>Date</th><th>Title</th><th>Category</th><th>Amount</th></tr>
{{range .Rows}}<tr><td>{{.Date}}</td><td>{{.Title}}</td><td>{{.Category}}</td><td class="amount">{{.Amount}}</td></tr>
{{end}}</table>
<h2>Summary</h2>
{{range .Summary}}<p>{{.}}</p>
{{end}}</body>
</html>
`))

func WriteDoc(w io.Writer, doc Document) error {
	return docTemplate.Execute(w, doc)
}
