// Package prompt holds the fixed instruction templates sent to the completion
// endpoint. Each template is named data with declared substitution slots so
// rendering can be tested without touching the network.
package prompt

import (
	"fmt"
	"strings"
)

// Template is one versioned instruction template. Text contains one
// {{slot}} marker per declared slot; the expected model output format is part
// of the instruction itself.
type Template struct {
	Name  string
	Slots []string
	Text  string
}

// Render substitutes every declared slot with its value. All slots must be
// provided and no undeclared value is accepted.
func (t Template) Render(values map[string]string) (string, error) {
	if len(values) != len(t.Slots) {
		return "", fmt.Errorf("template %s: got %d values, want %d", t.Name, len(values), len(t.Slots))
	}

	rendered := t.Text
	for _, slot := range t.Slots {
		value, ok := values[slot]
		if !ok {
			return "", fmt.Errorf("template %s: missing slot %q", t.Name, slot)
		}
		rendered = strings.ReplaceAll(rendered, "{{"+slot+"}}", value)
	}

	return rendered, nil
}

// Canned responses returned without (or instead of) a model call.
const (
	// NoLinkVerdict is returned by the email check when the text contains no URL.
	NoLinkVerdict = "Non sembra contenere link. Nessun rischio evidente."

	// FallbackExplanation replaces the model gloss when the explanation call
	// fails; the raw verifier payload still answers the request.
	FallbackExplanation = "Spiegazione non disponibile al momento. Consulta i dati tecnici riportati."

	// FallbackRecommendation replaces the consolidated advice in the full
	// report when the final summarization call fails.
	FallbackRecommendation = "Non è stato possibile generare una raccomandazione. Consulta i risultati delle singole verifiche."
)

// PhishingMessage is the system prompt for the generic message check.
// Expected output: two labeled lines, Classificazione and Motivo.
var PhishingMessage = Template{
	Name: "phishing-message.v1",
	Text: `Sei un analizzatore esperto di sicurezza informatica.
Riceverai in input il contenuto di un messaggio e-mail.
Il tuo compito è:
1. Determinare se il messaggio è sospetto o può essere un attacco di phishing (rispondi solo con "Phishing" o "Non phishing").
2. Dare una breve spiegazione (massimo 2 frasi) del perché hai classificato il messaggio in quel modo.

Formatta la risposta così:
Classificazione: [Phishing / Non phishing]
Motivo: ...`,
}

// EmailLinks is the system prompt for email bodies that contain a link.
// Expected output: three labeled lines, Classificazione, Motivo, Dominio.
var EmailLinks = Template{
	Name: "email-links.v1",
	Text: `Sei un classificatore esperto di email sospette.

Analizza il contenuto del messaggio e:
1. Indica se si tratta di Phishing o Non phishing.
2. Dai un motivo breve.
3. Se è presente un link, valuta se il dominio è affidabile (es. amazon.com, google.com) o sospetto.

Rispondi esattamente con:

Classificazione: [Phishing / Non phishing]
Motivo: ...
Dominio: [Affidabile / Sospetto / Nessun link]`,
}

// PasswordAudit wraps a password into a four-line audit request.
// Expected output: exactly four labeled lines.
var PasswordAudit = Template{
	Name:  "password-audit.v1",
	Slots: []string{"password"},
	Text: `Sei un esperto di cybersecurity.

Analizza la seguente password: "{{password}}"

Devi restituire esattamente e solo 4 righe nel formato seguente:

Valutazione: [Debole / Media / Forte]
Memorizzabile: [Sì / No]
Suggerimenti: [massimo 1 frase]
Password suggerita: [una password sicura ma memorizzabile]

NON aggiungere commenti, spiegazioni, paragrafi o motivazioni.
Rispondi solo con 4 righe, chiare e nel formato indicato.

Esempio:
Valutazione: Debole
Memorizzabile: Sì
Suggerimenti: Aggiungi lettere maiuscole e simboli speciali.
Password suggerita: Sole$Giallo2024`,
}

// ThreatProfile wraps a detection name reported by an antivirus scanner.
// Expected output: three labeled lines, Descrizione, Target, Pericolosità.
var ThreatProfile = Template{
	Name:  "threat-profile.v1",
	Slots: []string{"minaccia"},
	Text: `Agisci come un esperto in sicurezza informatica.

Analizza la seguente minaccia identificata da un antivirus o malware scanner:

"{{minaccia}}"

Restituisci solo le seguenti informazioni, senza introduzioni, saluti o commenti extra.

Descrizione: (massimo 2 frasi, tono semplice e chiaro)
Target: (es. Windows, macOS, multipiattaforma)
Pericolosità: (Alta / Media / Bassa / Falso positivo probabile)

Rispondi esattamente in questo formato:

Descrizione: ...
Target: ...
Pericolosità: ...`,
}

// PhoneReport turns a phone validation payload into plain language.
// Expected output: free prose, no lists or markdown.
var PhoneReport = Template{
	Name:  "phone-report.v1",
	Slots: []string{"dati"},
	Text: `Sei un assistente che spiega risultati tecnici a persone non esperte.

Questi sono i dati restituiti da un servizio di verifica di numeri di telefono, in formato JSON:

{{dati}}

Spiega in modo semplice e discorsivo se il numero è valido, da quale paese proviene, quale operatore lo gestisce e che tipo di linea è.
Usa frasi brevi e un linguaggio non tecnico.
NON usare elenchi puntati, markdown o blocchi di codice. Rispondi solo con testo semplice.`,
}

// ReputationReport turns an email reputation payload into plain language.
// Expected output: free prose, no lists or markdown.
var ReputationReport = Template{
	Name:  "reputation-report.v1",
	Slots: []string{"dati"},
	Text: `Sei un assistente che spiega risultati tecnici a persone non esperte.

Questi sono i dati restituiti da un servizio di verifica della reputazione di un indirizzo email, in formato JSON:

{{dati}}

Spiega in modo semplice se l'indirizzo è valido e affidabile, se è un indirizzo usa e getta, e se il dominio presenta rischi.
Usa frasi brevi e un linguaggio non tecnico.
NON usare elenchi puntati, markdown o blocchi di codice. Rispondi solo con testo semplice.`,
}

// FullReport combines a reputation summary and a spam check into one
// consolidated recommendation. Expected output: free prose, no lists.
var FullReport = Template{
	Name:  "full-report.v1",
	Slots: []string{"reputazione", "spam"},
	Text: `Sei un consulente di sicurezza informatica.

Un utente ha richiesto un'analisi completa di un messaggio email. Questi sono i risultati delle verifiche automatiche.

Reputazione del mittente (JSON):
{{reputazione}}

Analisi antispam (JSON):
{{spam}}

Combina i due risultati in una sola raccomandazione pratica: l'utente può fidarsi di questo messaggio? Cosa dovrebbe fare?
Usa un linguaggio semplice e non tecnico, massimo 5 frasi.
NON usare elenchi puntati, markdown o blocchi di codice. Rispondi solo con testo semplice.`,
}
