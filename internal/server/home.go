package server

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/sitequery/mcp-gateway/pkg/capability"
	"github.com/sitequery/mcp-gateway/pkg/protocol"
)

const homeLogPrefix = "server:home"

// homePageTemplate is the HTML for the gateway status page (white bg, black/blue text).
const homePageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>MCP Gateway</title>
  <style>
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; padding: 2rem; line-height: 1.5; }
    a { color: #0066cc; }
    h1, h2 { color: #0066cc; }
    table { border-collapse: collapse; width: 100%; max-width: 700px; margin-top: 0.5rem; }
    th, td { text-align: left; padding: 0.5rem 0.75rem; border: 1px solid #ccc; }
    th { background: #f0f4f8; color: #0066cc; }
    .meta { color: #333; font-size: 0.9rem; margin-top: 1rem; }
    section { margin-bottom: 2rem; }
    code { background: #f5f5f5; padding: 0.1rem 0.3rem; }
  </style>
</head>
<body>
  <h1>MCP Gateway</h1>
  <p class="meta">Schema version {{.SchemaVersion}}. POST questions to <code>/ask</code> or <code>/mcp</code>.</p>

  <section>
    <h2>Functions</h2>
    <table>
      <thead><tr><th>Function</th></tr></thead>
      <tbody>
        {{range .Capabilities.Functions}}<tr><td><code>{{.}}</code></td></tr>{{end}}
      </tbody>
    </table>
  </section>

  <section>
    <h2>Schema types</h2>
    <table>
      <thead><tr><th>Type</th></tr></thead>
      <tbody>
        {{range .Capabilities.SchemaTypes}}<tr><td>{{.}}</td></tr>{{end}}
      </tbody>
    </table>
  </section>

  <section>
    <h2>Streaming</h2>
    <p>Server-sent events: {{if .Capabilities.Streaming}}enabled{{else}}disabled{{end}}.
    Pass <code>"stream": true</code> (or <code>"streaming": true</code> in function_call arguments).</p>
  </section>
</body>
</html>
`

// homeData is the data passed to the home page template.
type homeData struct {
	SchemaVersion string
	Capabilities  protocol.Capabilities
}

// handleHome returns an HTTP handler for the gateway status page.
func handleHome(caps *capability.Registry) http.HandlerFunc {
	tmpl := template.Must(template.New("home").Parse(homePageTemplate))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		data := homeData{
			SchemaVersion: protocol.SchemaVersion,
			Capabilities:  caps.Capabilities(),
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			slog.Error(fmt.Sprintf("%s - home template execute: %v", homeLogPrefix, err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}
