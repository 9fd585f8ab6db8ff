package session

// Call records a single model API call.
type Call struct {
	Model            string  `json:"model"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	Cost             float64 `json:"cost"`
}

// ModelStats aggregates calls for one model.
type ModelStats struct {
	Calls  int     `json:"calls"`
	Tokens int     `json:"tokens"`
	Cost   float64 `json:"cost"`
}

// Stats is the run-level cost summary.
type Stats struct {
	TotalCalls     int                   `json:"total_calls"`
	TotalTokens    int                   `json:"total_tokens"`
	TotalCost      float64               `json:"total_cost"`
	AvgCostPerCall float64               `json:"avg_cost_per_call"`
	ByModel        map[string]ModelStats `json:"by_model"`
}
