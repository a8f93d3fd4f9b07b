package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"sentinella/pkg/verify"
)

// Italian user-facing messages. Clients match on these strings.
const (
	msgMissingMessage  = "Messaggio mancante"
	msgMissingEmail    = "Testo email mancante"
	msgMissingPassword = "Password mancante"
	msgMissingThreat   = "Nome della minaccia mancante"
	msgMissingPhone    = "Numero di telefono mancante"
	msgMissingAddress  = "Indirizzo email mancante"
	msgMissingSpamText = "Oggetto o corpo del messaggio mancante"
	msgVerifyFailed    = "Errore durante la verifica"
	msgDailyLimit      = "Limite giornaliero superato."
)

type errorResponse struct {
	Error string `json:"error"`
}

type textResponse struct {
	Response string `json:"response"`
}

type rawResponse struct {
	Response json.RawMessage `json:"response"`
}

type explainedResponse struct {
	Raw         json.RawMessage `json:"raw"`
	Spiegazione string          `json:"spiegazione"`
}

type fullReportResponse struct {
	Reputazione any             `json:"reputazione"`
	Spam        json.RawMessage `json:"spam"`
	Response    string          `json:"response"`
}

func (s *Service) handleChat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if !s.decodeRequired(w, r, &body, &body.Message, msgMissingMessage) {
		return
	}

	reply, err := s.analyzer.Chat(r.Context(), body.Message)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, textResponse{Response: reply})
}

func (s *Service) handleCheckEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !s.decodeRequired(w, r, &body, &body.Email, msgMissingEmail) {
		return
	}

	reply, err := s.analyzer.CheckEmailText(r.Context(), body.Email)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, textResponse{Response: reply})
}

func (s *Service) handleCheckPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if !s.decodeRequired(w, r, &body, &body.Password, msgMissingPassword) {
		return
	}

	reply, err := s.analyzer.CheckPassword(r.Context(), body.Password)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, textResponse{Response: reply})
}

func (s *Service) handleAnalyzeThreat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Input string `json:"input"`
	}
	if !s.decodeRequired(w, r, &body, &body.Input, msgMissingThreat) {
		return
	}

	reply, err := s.analyzer.AnalyzeThreat(r.Context(), body.Input)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, textResponse{Response: reply})
}

func (s *Service) handleCheckSpam(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if !s.decodeBody(w, r, &body) {
		return
	}

	subject := strings.TrimSpace(body.Subject)
	text := strings.TrimSpace(body.Body)
	if subject == "" && text == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgMissingSpamText})
		return
	}

	result, err := s.analyzer.CheckSpam(r.Context(), subject, text)
	if err != nil {
		s.log.Error("Spam check failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgVerifyFailed})
		return
	}

	s.writeJSON(w, http.StatusOK, rawResponse{Response: result})
}

func (s *Service) handleCheckPhone(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone string `json:"phone"`
	}
	if !s.decodeRequired(w, r, &body, &body.Phone, msgMissingPhone) {
		return
	}

	explained, err := s.analyzer.CheckPhone(r.Context(), body.Phone)
	if err != nil {
		s.log.Error("Phone verification failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgVerifyFailed})
		return
	}

	s.writeJSON(w, http.StatusOK, explainedResponse{Raw: explained.Raw, Spiegazione: explained.Explanation})
}

func (s *Service) handleEmailReputation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !s.decodeRequired(w, r, &body, &body.Email, msgMissingAddress) {
		return
	}

	explained, err := s.analyzer.EmailReputation(r.Context(), body.Email)
	if err != nil {
		s.log.Error("Email reputation failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgVerifyFailed})
		return
	}

	s.writeJSON(w, http.StatusOK, explainedResponse{Raw: explained.Raw, Spiegazione: explained.Explanation})
}

func (s *Service) handleFullReport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if !s.decodeRequired(w, r, &body, &body.Email, msgMissingAddress) {
		return
	}

	result, err := s.analyzer.FullReport(r.Context(), body.Email, strings.TrimSpace(body.Subject), strings.TrimSpace(body.Body))
	if err != nil {
		s.log.Error("Full report failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgVerifyFailed})
		return
	}

	s.writeJSON(w, http.StatusOK, fullReportResponse{
		Reputazione: result.Reputation,
		Spam:        result.Spam,
		Response:    result.Advice,
	})
}

func (s *Service) handleIntelSearch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !s.decodeRequired(w, r, &body, &body.Email, msgMissingAddress) {
		return
	}

	records, err := s.analyzer.SearchRecords(r.Context(), body.Email)
	if err != nil {
		s.log.Error("Record search failed", "error", err)
		s.writeJSON(w, http.StatusOK, intelOutcome(err))
		return
	}

	if records == nil {
		records = []json.RawMessage{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "records": records})
}

// intelOutcome maps a record-search failure to the structured status payload:
// daily limit, upstream status echo, or generic local error.
func intelOutcome(err error) map[string]any {
	if errors.Is(err, verify.ErrDailyLimit) {
		return map[string]any{"status": "error", "message": msgDailyLimit}
	}

	var statusErr *verify.StatusError
	if errors.As(err, &statusErr) {
		return map[string]any{"status": "error", "code": statusErr.StatusCode, "message": statusErr.Body}
	}

	return map[string]any{"status": "error", "message": err.Error()}
}

// decodeRequired decodes the JSON body and enforces one required text field,
// answering 400 with the route's Italian message when it is absent or empty.
func (s *Service) decodeRequired(w http.ResponseWriter, r *http.Request, body any, field *string, missingMsg string) bool {
	if !s.decodeBody(w, r, body) {
		return false
	}

	*field = strings.TrimSpace(*field)
	if *field == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: missingMsg})
		return false
	}

	return true
}

func (s *Service) decodeBody(w http.ResponseWriter, r *http.Request, body any) bool {
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Corpo della richiesta non valido"})
		return false
	}

	return true
}

// writeUpstreamError surfaces a failed primary completion call as HTTP 500
// with the raw error text.
func (s *Service) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error("Completion call failed", "route", r.URL.Path, "error", err)
	s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func (s *Service) writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to write response", "error", err)
	}
}
