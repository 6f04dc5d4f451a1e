package models

// RootResponse is returned by GET /
type RootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Model   string `json:"model"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status        string `json:"status"`
	Model         string `json:"model"`
	APIConfigured bool   `json:"api_configured"`
}

// ToolsResponse is returned by GET /tools/{sheetId}
type ToolsResponse struct {
	Tools   []ToolRecord `json:"tools"`
	Count   int          `json:"count"`
	SheetID string       `json:"sheet_id"`
}

// AnswerResponse is returned by POST /ask
type AnswerResponse struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	ToolsCount int    `json:"tools_count"`
	SheetID    string `json:"sheet_id"`
	Model      string `json:"model"`
}

// ConfigResponse is returned by GET /config. Secrets appear only as booleans.
type ConfigResponse struct {
	Model        ModelInfo        `json:"model"`
	API          APIInfo          `json:"api"`
	GoogleSheets GoogleSheetsInfo `json:"google_sheets"`
}

type ModelInfo struct {
	Name            string  `json:"name"`
	MaxTokens       int     `json:"max_tokens"`
	Temperature     float64 `json:"temperature"`
	ThinkingEnabled bool    `json:"thinking_enabled"`
}

type APIInfo struct {
	BaseURL    string `json:"base_url"`
	Configured bool   `json:"configured"`
}

type GoogleSheetsInfo struct {
	Configured bool `json:"configured"`
}
