package gateway

import (
	"html/template"
	"net/http"

	"sentinella/pkg/config"
)

var landingTemplate = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html lang="it">
<head>
  <meta charset="utf-8">
  <title>Sentinella</title>
  <style>
    body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; color: #1c2733; }
    code { background: #eef2f5; padding: 0.1rem 0.3rem; border-radius: 3px; }
    li { margin: 0.4rem 0; }
  </style>
</head>
<body>
  <h1>Sentinella</h1>
  <p>Assistente di sicurezza informatica. Tutti gli endpoint accettano e restituiscono JSON.</p>
  <ul>
    {{range .Endpoints}}<li><code>POST {{.Path}}</code> — {{.Description}}</li>
    {{end}}
  </ul>
</body>
</html>
`))

type landingEndpoint struct {
	Path        string
	Description string
}

func (s *Service) handleLanding(w http.ResponseWriter, _ *http.Request) {
	endpoints := []landingEndpoint{
		{Path: "/chat", Description: "analizza un messaggio e segnala il phishing"},
		{Path: "/check-email", Description: "classifica il testo di una email con link"},
		{Path: "/check-password", Description: "valuta la robustezza di una password"},
		{Path: "/analyze-threat", Description: "spiega una minaccia rilevata da un antivirus"},
	}

	if s.cfg.RouteSet() == config.RouteSetFull {
		endpoints = append(endpoints,
			landingEndpoint{Path: "/check-spam", Description: "verifica oggetto e corpo con il servizio antispam"},
			landingEndpoint{Path: "/check-phone-llm", Description: "verifica un numero di telefono e lo spiega"},
			landingEndpoint{Path: "/email-reputation-llm", Description: "verifica la reputazione di un indirizzo email"},
			landingEndpoint{Path: "/full-report", Description: "reputazione + antispam in una sola raccomandazione"},
			landingEndpoint{Path: "/intelx-search", Description: "cerca un indirizzo email nei data leak"},
		)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := landingTemplate.Execute(w, map[string]any{"Endpoints": endpoints}); err != nil {
		s.log.Error("Failed to render landing page", "error", err)
	}
}
