package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"sentinella/pkg/prompt"
	"sentinella/pkg/verify"
)

type recordingProvider struct {
	mu       sync.Mutex
	calls    int
	systems  []string
	users    []string
	response string
	err      error
}

func (p *recordingProvider) Health(context.Context) error { return nil }

func (p *recordingProvider) Complete(_ context.Context, system string, user string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.systems = append(p.systems, system)
	p.users = append(p.users, user)
	if p.err != nil {
		return "", p.err
	}
	return p.response, nil
}

type stubVerifier struct {
	phone      verify.PhoneValidation
	phoneRaw   json.RawMessage
	phoneErr   error
	email      verify.EmailValidation
	emailRaw   json.RawMessage
	emailErr   error
	spam       json.RawMessage
	spamErr    error
	spamCalls  int
	phoneCalls int
	emailCalls int
}

func (v *stubVerifier) CheckPhone(context.Context, string) (verify.PhoneValidation, json.RawMessage, error) {
	v.phoneCalls++
	return v.phone, v.phoneRaw, v.phoneErr
}

func (v *stubVerifier) EmailReputation(context.Context, string) (verify.EmailValidation, json.RawMessage, error) {
	v.emailCalls++
	return v.email, v.emailRaw, v.emailErr
}

func (v *stubVerifier) CheckSpam(context.Context, string, string) (json.RawMessage, error) {
	v.spamCalls++
	return v.spam, v.spamErr
}

func TestChatUsesSystemPrompt(t *testing.T) {
	t.Parallel()

	provider := &recordingProvider{response: "Classificazione: Non phishing\nMotivo: saluto ordinario"}
	a := New(provider, nil, nil, nil)

	got, err := a.Chat(context.Background(), "ciao, come stai?")
	if err != nil {
		t.Fatalf("Chat error: %v", err)
	}
	if got != provider.response {
		t.Fatalf("response = %q", got)
	}
	if provider.systems[0] != prompt.PhishingMessage.Text {
		t.Fatal("expected phishing system prompt")
	}
	if provider.users[0] != "ciao, come stai?" {
		t.Fatalf("user = %q", provider.users[0])
	}
}

func TestCheckEmailTextWithoutLinkSkipsModel(t *testing.T) {
	t.Parallel()

	provider := &recordingProvider{response: "unused"}
	a := New(provider, nil, nil, nil)

	got, err := a.CheckEmailText(context.Background(), "nessun collegamento qui")
	if err != nil {
		t.Fatalf("CheckEmailText error: %v", err)
	}
	if got != prompt.NoLinkVerdict {
		t.Fatalf("response = %q, want canned verdict", got)
	}
	if provider.calls != 0 {
		t.Fatalf("provider calls = %d, want 0", provider.calls)
	}
}

func TestCheckEmailTextLinkDetectionIsSyntactic(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		text    string
		hasLink bool
	}{
		{name: "http", text: "vai su http://x per il premio", hasLink: true},
		{name: "https", text: "https://esempio.it/login", hasLink: true},
		{name: "www", text: "visita www.x adesso", hasLink: true},
		{name: "plain", text: "ci vediamo domani alle 10", hasLink: false},
		{name: "www without suffix text", text: "parliamo di www e basta", hasLink: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			provider := &recordingProvider{response: "Classificazione: Phishing\nMotivo: link sospetto\nDominio: Sospetto"}
			a := New(provider, nil, nil, nil)

			got, err := a.CheckEmailText(context.Background(), tc.text)
			if err != nil {
				t.Fatalf("CheckEmailText error: %v", err)
			}

			if tc.hasLink {
				if provider.calls != 1 {
					t.Fatalf("provider calls = %d, want 1", provider.calls)
				}
				if got != provider.response {
					t.Fatalf("response = %q", got)
				}
				return
			}

			if provider.calls != 0 {
				t.Fatalf("provider calls = %d, want 0", provider.calls)
			}
			if got != prompt.NoLinkVerdict {
				t.Fatalf("response = %q, want canned verdict", got)
			}
		})
	}
}

func TestCheckPasswordInlinesValue(t *testing.T) {
	t.Parallel()

	provider := &recordingProvider{response: "Valutazione: Debole\nMemorizzabile: Sì\nSuggerimenti: usa simboli.\nPassword suggerita: Sole$Giallo2024"}
	a := New(provider, nil, nil, nil)

	if _, err := a.CheckPassword(context.Background(), "abc123"); err != nil {
		t.Fatalf("CheckPassword error: %v", err)
	}
	if provider.systems[0] != "" {
		t.Fatal("expected no system prompt for password audit")
	}
	if !strings.Contains(provider.users[0], `"abc123"`) {
		t.Fatal("expected password inlined in prompt")
	}
}

func TestCheckPhoneVerificationFailureIsFatal(t *testing.T) {
	t.Parallel()

	provider := &recordingProvider{response: "unused"}
	verifier := &stubVerifier{phoneErr: errors.New("upstream down")}
	a := New(provider, verifier, nil, nil)

	if _, err := a.CheckPhone(context.Background(), "+39333"); err == nil {
		t.Fatal("expected error when verification fails")
	}
	if provider.calls != 0 {
		t.Fatalf("provider calls = %d, want 0 (no wasted explanation call)", provider.calls)
	}
}

func TestCheckPhoneExplanationFailureDegrades(t *testing.T) {
	t.Parallel()

	provider := &recordingProvider{err: errors.New("model offline")}
	verifier := &stubVerifier{phoneRaw: json.RawMessage(`{"valid":true,"number":"39333"}`)}
	a := New(provider, verifier, nil, nil)

	explained, err := a.CheckPhone(context.Background(), "+39333")
	if err != nil {
		t.Fatalf("CheckPhone error: %v", err)
	}
	if explained.Explanation != prompt.FallbackExplanation {
		t.Fatalf("explanation = %q, want fallback", explained.Explanation)
	}
	if string(explained.Raw) != `{"valid":true,"number":"39333"}` {
		t.Fatalf("raw = %s", explained.Raw)
	}
}

func TestEmailReputationExplanationEmbedsPayload(t *testing.T) {
	t.Parallel()

	provider := &recordingProvider{response: "L'indirizzo sembra affidabile."}
	verifier := &stubVerifier{emailRaw: json.RawMessage(`{"email":"a@b.it","score":0.9}`)}
	a := New(provider, verifier, nil, nil)

	explained, err := a.EmailReputation(context.Background(), "a@b.it")
	if err != nil {
		t.Fatalf("EmailReputation error: %v", err)
	}
	if explained.Explanation != "L'indirizzo sembra affidabile." {
		t.Fatalf("explanation = %q", explained.Explanation)
	}
	if !strings.Contains(provider.users[0], `"a@b.it"`) {
		t.Fatal("expected raw payload embedded in explanation prompt")
	}
}

func TestFullReportCombinesSummaries(t *testing.T) {
	t.Parallel()

	provider := &recordingProvider{response: "Il messaggio non è affidabile, non aprire i link."}
	verifier := &stubVerifier{
		email: verify.EmailValidation{
			Email:       "a@b.it",
			FormatValid: true,
			SMTPValid:   true,
			Disposable:  true,
			DomainRisk:  "high",
			Score:       0.2,
			Provider:    "b.it",
		},
		emailRaw: json.RawMessage(`{"email":"a@b.it"}`),
		spam:     json.RawMessage(`{"spam_score":9.1}`),
	}
	a := New(provider, verifier, nil, nil)

	result, err := a.FullReport(context.Background(), "a@b.it", "Vinci", "clicca qui")
	if err != nil {
		t.Fatalf("FullReport error: %v", err)
	}

	if !result.Reputation.UsaEGetta || result.Reputation.RischioDominio != "high" {
		t.Fatalf("reputation summary = %+v", result.Reputation)
	}
	if result.Advice != provider.response {
		t.Fatalf("advice = %q", result.Advice)
	}
	if !strings.Contains(provider.users[0], `"usa_e_getta":true`) {
		t.Fatalf("summary not embedded in prompt:\n%s", provider.users[0])
	}
	if !strings.Contains(provider.users[0], `"spam_score":9.1`) {
		t.Fatal("spam payload not embedded in prompt")
	}
}

func TestFullReportVerificationFailureIsFatal(t *testing.T) {
	t.Parallel()

	provider := &recordingProvider{response: "unused"}
	verifier := &stubVerifier{emailErr: errors.New("verifier down")}
	a := New(provider, verifier, nil, nil)

	if _, err := a.FullReport(context.Background(), "a@b.it", "s", "b"); err == nil {
		t.Fatal("expected error when reputation check fails")
	}
	if verifier.spamCalls != 0 {
		t.Fatalf("spam calls = %d, want 0", verifier.spamCalls)
	}
	if provider.calls != 0 {
		t.Fatalf("provider calls = %d, want 0", provider.calls)
	}
}

func TestFullReportSummarizationFailureDegrades(t *testing.T) {
	t.Parallel()

	provider := &recordingProvider{err: errors.New("model offline")}
	verifier := &stubVerifier{
		emailRaw: json.RawMessage(`{"email":"a@b.it"}`),
		spam:     json.RawMessage(`{"spam_score":0.1}`),
	}
	a := New(provider, verifier, nil, nil)

	result, err := a.FullReport(context.Background(), "a@b.it", "s", "b")
	if err != nil {
		t.Fatalf("FullReport error: %v", err)
	}
	if result.Advice != prompt.FallbackRecommendation {
		t.Fatalf("advice = %q, want fallback", result.Advice)
	}
}
