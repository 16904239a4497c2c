package dashboard

import (
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"
)

var page = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head>
<title>sports-ai models</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 4px 10px; }
#events { font-family: monospace; white-space: pre; }
</style>
</head>
<body>
<h1>Model registry</h1>
<table>
<thead><tr><th>Sport</th><th>Active</th><th>Accuracy</th><th>Rows</th><th>Trained</th></tr></thead>
<tbody id="status">
{{range .}}<tr><td>{{.Sport}}</td><td>{{.Active}}</td><td>{{printf "%.3f" .Accuracy}}</td><td>{{.Rows}}</td><td>{{range .Trained}}{{.}} {{end}}</td></tr>
{{end}}</tbody>
</table>
<h2>Events</h2>
<div id="events"></div>
<script>
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.onmessage = (msg) => {
  const f = JSON.parse(msg.data);
  if (f.kind === "status") {
    document.getElementById("status").innerHTML = f.status.map(s =>
      "<tr><td>" + s.sport + "</td><td>" + (s.active || "") + "</td><td>" + s.accuracy.toFixed(3) +
      "</td><td>" + s.rows + "</td><td>" + s.trained.join(" ") + "</td></tr>").join("");
  } else if (f.event) {
    const e = f.event;
    const line = e.timestamp + " " + e.type + " " + e.sport + "/" + e.algorithm + (e.error ? " " + e.error : "");
    const el = document.getElementById("events");
    el.textContent = line + "\n" + el.textContent;
  }
};
</script>
</body>
</html>
`))

// HandlePage renders the live dashboard page.
func (h *Hub) HandlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Execute(w, h.statusFrame().Status); err != nil {
		log.Error().Err(err).Msg("Failed to render dashboard page")
	}
}
