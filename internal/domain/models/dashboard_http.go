package models

// Requests for dashboard HTTP endpoints. Defined in domain for consistency and reuse.

type ChartRequest struct {
	Symbol     string   `query:"symbol" json:"symbol" validate:"required,max=12"`
	Period     string   `query:"period" json:"period" default:"5y" validate:"oneof=1mo 6mo ytd 1y 5y"`
	Indicators []string `query:"indicators" json:"indicators" validate:"omitempty,dive,oneof=sma_short sma_long rsi macd bollinger"`
}

type RiskRequest struct {
	Symbol     string  `query:"symbol" json:"symbol" validate:"required,max=12"`
	Period     string  `query:"period" json:"period" default:"1y" validate:"oneof=1mo 6mo ytd 1y 5y"`
	Confidence float64 `query:"confidence" json:"confidence" default:"0.95" validate:"gt=0,lt=1"`
	RiskFree   float64 `query:"risk_free" json:"risk_free" validate:"gte=0,lte=0.5"`
}

type SimulateRequest struct {
	Symbol  string `query:"symbol" json:"symbol" validate:"required,max=12"`
	Period  string `query:"period" json:"period" default:"1y" validate:"oneof=1mo 6mo ytd 1y 5y"`
	Paths   int    `query:"paths" json:"paths" default:"200" validate:"gte=1,lte=10000"`
	Horizon int    `query:"horizon" json:"horizon" default:"30" validate:"gte=1,lte=365"`
	// Seed 0 lets the server pick one; the chosen seed is echoed in the
	// result so a run can be replayed exactly.
	Seed int64 `query:"seed" json:"seed"`
}

type CompareRequest struct {
	Symbols []string `query:"symbols" json:"symbols" validate:"required,min=1,max=10,dive,required,max=12"`
	Period  string   `query:"period" json:"period" default:"1y" validate:"oneof=1mo 6mo ytd 1y 5y"`
}

type ForecastRequest struct {
	Symbol  string `query:"symbol" json:"symbol" validate:"required,max=12"`
	Period  string `query:"period" json:"period" default:"5y" validate:"oneof=1mo 6mo ytd 1y 5y"`
	Horizon int    `query:"horizon" json:"horizon" default:"30" validate:"gte=1,lte=365"`
}

type ProfileRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,max=12"`
}

type QuoteRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,max=12"`
}

type SentimentRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,max=12"`
}
