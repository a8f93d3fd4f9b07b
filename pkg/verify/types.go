package verify

// PhoneValidation is the typed shape of the phone verification payload.
type PhoneValidation struct {
	Valid               bool   `json:"valid"`
	Number              string `json:"number"`
	LocalFormat         string `json:"local_format"`
	InternationalFormat string `json:"international_format"`
	CountryName         string `json:"country_name"`
	Carrier             string `json:"carrier"`
	LineType            string `json:"line_type"`
}

// EmailValidation is the typed shape of the email reputation payload.
type EmailValidation struct {
	Email       string  `json:"email"`
	FormatValid bool    `json:"format_valid"`
	SMTPValid   bool    `json:"smtp_valid"`
	CatchAll    bool    `json:"catch_all"`
	Disposable  bool    `json:"disposable"`
	FreeEmail   bool    `json:"free_email"`
	DomainRisk  string  `json:"domain_risk"`
	Score       float64 `json:"score"`
	Provider    string  `json:"provider"`
}

func phoneRequiredKeys() []string {
	return []string{"valid", "number"}
}

func emailRequiredKeys() []string {
	return []string{"email", "format_valid", "smtp_valid", "score"}
}
