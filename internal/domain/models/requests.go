package models

// CodeRequest binds the instrument path parameter shared by the data
// endpoints.
type CodeRequest struct {
	Code string `param:"code" validate:"required,min=1,max=16"`
}

// HistoryRequest binds the history endpoint parameters. Dates are
// YYYY-MM-DD; empty values default to the trailing 120 calendar days.
type HistoryRequest struct {
	Code  string `param:"code" validate:"required,min=1,max=16"`
	Start string `query:"start" validate:"omitempty,datetime=2006-01-02"`
	End   string `query:"end" validate:"omitempty,datetime=2006-01-02"`
}

// NewsRequest binds the news endpoint parameters.
type NewsRequest struct {
	Code  string `param:"code" validate:"required,min=1,max=16"`
	Limit int    `query:"limit" default:"10" validate:"gte=1,lte=50"`
}

// AnalyzeRequest asks for a model-written decision report on one
// instrument.
type AnalyzeRequest struct {
	Code      string `json:"code" validate:"required,min=1,max=16"`
	Days      int    `json:"days,omitempty" default:"120" validate:"gte=10,lte=500"`
	NewsLimit int    `json:"news_limit,omitempty" default:"5" validate:"gte=0,lte=20"`
	Question  string `json:"question,omitempty" validate:"max=2000"`
}

// AnalyzeResponse is the assembled decision report.
type AnalyzeResponse struct {
	Symbol   string     `json:"symbol"`
	Market   Market     `json:"market"`
	Quote    *Quote     `json:"quote,omitempty"`
	Report   string     `json:"report"`
	Provider ProviderID `json:"provider"`
	Model    string     `json:"model,omitempty"`
	Attempts []Attempt  `json:"attempts,omitempty"`
}
