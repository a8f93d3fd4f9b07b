// Package analyzer implements the analysis flows: single completion calls for
// classification and advice, two-stage verification plus plain-language
// explanation, and the combined reputation+spam report.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"

	"sentinella/pkg/prompt"
	"sentinella/pkg/provider"
	"sentinella/pkg/verify"
)

// Verifier is the slice of verify.Client the analyzer needs.
type Verifier interface {
	CheckPhone(ctx context.Context, number string) (verify.PhoneValidation, json.RawMessage, error)
	EmailReputation(ctx context.Context, email string) (verify.EmailValidation, json.RawMessage, error)
	CheckSpam(ctx context.Context, subject string, body string) (json.RawMessage, error)
}

// RecordSearcher is the slice of verify.IntelClient the analyzer needs.
type RecordSearcher interface {
	Search(ctx context.Context, email string) ([]json.RawMessage, error)
}

// Analyzer wires the completion provider and the verification clients into
// the per-request flows. It holds no per-request state.
type Analyzer struct {
	provider provider.Client
	verifier Verifier
	searcher RecordSearcher
	log      *slog.Logger
}

// Explained pairs an untouched verification payload with its model gloss.
type Explained struct {
	Raw         json.RawMessage
	Explanation string
}

// ReputationSummary is the eight-field extract of an email reputation payload
// fed into the combined report prompt.
type ReputationSummary struct {
	FormatoValido  bool    `json:"formato_valido"`
	SMTPValido     bool    `json:"smtp_valido"`
	CatchAll       bool    `json:"catch_all"`
	UsaEGetta      bool    `json:"usa_e_getta"`
	EmailGratuita  bool    `json:"email_gratuita"`
	RischioDominio string  `json:"rischio_dominio"`
	Punteggio      float64 `json:"punteggio"`
	Provider       string  `json:"provider"`
}

// FullReportResult is the outcome of the combined reputation+spam analysis.
type FullReportResult struct {
	Reputation ReputationSummary
	Spam       json.RawMessage
	Advice     string
}

var linkPattern = regexp.MustCompile(`(https?://|www\.)\S+`)

// New constructs an Analyzer. verifier and searcher may be nil when the
// reduced route set leaves their flows unreachable.
func New(providerClient provider.Client, verifier Verifier, searcher RecordSearcher, log *slog.Logger) *Analyzer {
	if log == nil {
		log = slog.Default()
	}

	return &Analyzer{
		provider: providerClient,
		verifier: verifier,
		searcher: searcher,
		log:      log.With("component", "analyzer"),
	}
}

// Chat classifies a message as phishing or not, with a short reason.
func (a *Analyzer) Chat(ctx context.Context, message string) (string, error) {
	return a.provider.Complete(ctx, prompt.PhishingMessage.Text, message)
}

// CheckEmailText classifies an email body, but only when it contains a link.
// Link detection is purely syntactic; bodies without one short-circuit to the
// canned no-risk verdict with no model call.
func (a *Analyzer) CheckEmailText(ctx context.Context, text string) (string, error) {
	if !linkPattern.MatchString(text) {
		return prompt.NoLinkVerdict, nil
	}

	return a.provider.Complete(ctx, prompt.EmailLinks.Text, text)
}

// CheckPassword rates a password and suggests a stronger, memorable one.
func (a *Analyzer) CheckPassword(ctx context.Context, password string) (string, error) {
	rendered, err := prompt.PasswordAudit.Render(map[string]string{"password": password})
	if err != nil {
		return "", err
	}

	return a.provider.Complete(ctx, "", rendered)
}

// AnalyzeThreat profiles a detection name reported by an antivirus scanner.
func (a *Analyzer) AnalyzeThreat(ctx context.Context, name string) (string, error) {
	rendered, err := prompt.ThreatProfile.Render(map[string]string{"minaccia": name})
	if err != nil {
		return "", err
	}

	return a.provider.Complete(ctx, "", rendered)
}

// CheckPhone validates a phone number, then asks the model for a
// plain-language explanation of the result. Verification failures are fatal;
// explanation failures degrade to the fixed fallback sentence.
func (a *Analyzer) CheckPhone(ctx context.Context, number string) (Explained, error) {
	_, raw, err := a.verifier.CheckPhone(ctx, number)
	if err != nil {
		return Explained{}, fmt.Errorf("check phone: %w", err)
	}

	return Explained{Raw: raw, Explanation: a.explain(ctx, prompt.PhoneReport, raw)}, nil
}

// EmailReputation checks an email address, then asks the model for a
// plain-language explanation. Same failure asymmetry as CheckPhone.
func (a *Analyzer) EmailReputation(ctx context.Context, email string) (Explained, error) {
	_, raw, err := a.verifier.EmailReputation(ctx, email)
	if err != nil {
		return Explained{}, fmt.Errorf("email reputation: %w", err)
	}

	return Explained{Raw: raw, Explanation: a.explain(ctx, prompt.ReputationReport, raw)}, nil
}

// CheckSpam relays subject and/or body to the spam service verbatim.
func (a *Analyzer) CheckSpam(ctx context.Context, subject string, body string) (json.RawMessage, error) {
	return a.verifier.CheckSpam(ctx, subject, body)
}

// FullReport runs the reputation check and the spam check, then folds both
// into one consolidated recommendation. Either verification failing is fatal;
// a failed final summarization degrades to the fixed fallback sentence.
func (a *Analyzer) FullReport(ctx context.Context, email string, subject string, body string) (FullReportResult, error) {
	validation, _, err := a.verifier.EmailReputation(ctx, email)
	if err != nil {
		return FullReportResult{}, fmt.Errorf("full report: %w", err)
	}
	summary := reputationSummary(validation)

	spam, err := a.verifier.CheckSpam(ctx, subject, body)
	if err != nil {
		return FullReportResult{}, fmt.Errorf("full report: %w", err)
	}

	advice := prompt.FallbackRecommendation
	if summaryJSON, err := json.Marshal(summary); err == nil {
		rendered, err := prompt.FullReport.Render(map[string]string{
			"reputazione": string(summaryJSON),
			"spam":        string(spam),
		})
		if err == nil {
			if text, err := a.provider.Complete(ctx, "", rendered); err == nil {
				advice = text
			} else {
				a.log.Warn("Full report summarization failed", "error", err)
			}
		}
	}

	return FullReportResult{Reputation: summary, Spam: spam, Advice: advice}, nil
}

// SearchRecords looks up intelligence records for an email address.
func (a *Analyzer) SearchRecords(ctx context.Context, email string) ([]json.RawMessage, error) {
	return a.searcher.Search(ctx, email)
}

// explain renders a one-slot report template over a raw payload and runs the
// completion, substituting the fallback sentence when anything fails.
func (a *Analyzer) explain(ctx context.Context, tmpl prompt.Template, raw json.RawMessage) string {
	rendered, err := tmpl.Render(map[string]string{"dati": string(raw)})
	if err != nil {
		a.log.Warn("Explanation template failed", "template", tmpl.Name, "error", err)
		return prompt.FallbackExplanation
	}

	text, err := a.provider.Complete(ctx, "", rendered)
	if err != nil {
		a.log.Warn("Explanation call failed", "template", tmpl.Name, "error", err)
		return prompt.FallbackExplanation
	}

	return text
}

func reputationSummary(v verify.EmailValidation) ReputationSummary {
	return ReputationSummary{
		FormatoValido:  v.FormatValid,
		SMTPValido:     v.SMTPValid,
		CatchAll:       v.CatchAll,
		UsaEGetta:      v.Disposable,
		EmailGratuita:  v.FreeEmail,
		RischioDominio: v.DomainRisk,
		Punteggio:      v.Score,
		Provider:       v.Provider,
	}
}
