package cmd

import (
	"context"
	"strings"
	"testing"

	"sentinella/pkg/analyzer"
	"sentinella/pkg/prompt"
)

func TestResolveAnalysis(t *testing.T) {
	restore := func() {
		analyzePassword = ""
		analyzeThreat = ""
		analyzeEmail = false
	}
	t.Cleanup(restore)

	restore()
	analyzePassword = " Sole$Giallo2024 "
	subject, mode, err := resolveAnalysis([]string{"ignored"})
	if err != nil {
		t.Fatalf("resolveAnalysis error: %v", err)
	}
	if subject != "Sole$Giallo2024" || mode != analysisPassword {
		t.Fatalf("got (%q, %q), want password mode", subject, mode)
	}

	restore()
	analyzeThreat = "ransomware"
	if _, mode, _ = resolveAnalysis(nil); mode != analysisThreat {
		t.Fatalf("mode = %q, want threat", mode)
	}

	restore()
	analyzeEmail = true
	subject, mode, err = resolveAnalysis([]string{"clicca", "qui"})
	if err != nil {
		t.Fatalf("resolveAnalysis error: %v", err)
	}
	if subject != "clicca qui" || mode != analysisEmail {
		t.Fatalf("got (%q, %q), want email mode", subject, mode)
	}

	restore()
	subject, mode, err = resolveAnalysis([]string{"hai", "vinto"})
	if err != nil {
		t.Fatalf("resolveAnalysis error: %v", err)
	}
	if subject != "hai vinto" || mode != analysisMessage {
		t.Fatalf("got (%q, %q), want message mode", subject, mode)
	}

	restore()
	if _, _, err = resolveAnalysis(nil); err == nil {
		t.Fatal("expected error with nothing to analyze")
	}
}

type stubCmdProvider struct {
	lastSystem string
	lastUser   string
	response   string
}

func (s *stubCmdProvider) Health(_ context.Context) error { return nil }

func (s *stubCmdProvider) Complete(_ context.Context, system string, user string) (string, error) {
	s.lastSystem = system
	s.lastUser = user
	return s.response, nil
}

func TestRunAnalysisDispatch(t *testing.T) {
	t.Parallel()

	provider := &stubCmdProvider{response: "ok"}
	an := analyzer.New(provider, nil, nil, nil)
	ctx := context.Background()

	if _, err := runAnalysis(ctx, an, analysisMessage, "hai vinto un premio"); err != nil {
		t.Fatalf("message analysis error: %v", err)
	}
	if provider.lastSystem != prompt.PhishingMessage.Text {
		t.Fatal("message mode should use the phishing system prompt")
	}

	if _, err := runAnalysis(ctx, an, analysisPassword, "Sole$Giallo2024"); err != nil {
		t.Fatalf("password analysis error: %v", err)
	}
	if !strings.Contains(provider.lastUser, "Sole$Giallo2024") {
		t.Fatal("password mode should embed the password in the prompt")
	}

	got, err := runAnalysis(ctx, an, analysisEmail, "nessun collegamento qui")
	if err != nil {
		t.Fatalf("email analysis error: %v", err)
	}
	if got != prompt.NoLinkVerdict {
		t.Fatalf("email mode without links = %q, want canned verdict", got)
	}
}
