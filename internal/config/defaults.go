package config

import "time"

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultEnvironment = "production"
	DefaultLogLevel    = "info"
	DefaultEnvFile     = ".env"

	DefaultTokenFile  = "token.json"
	DefaultSheetRange = "A:C"

	DefaultCompletionProvider = ProviderOpenAI
	DefaultModelName          = "glm-4.5-flash"
	DefaultMaxTokens          = 2000
	DefaultTemperature        = 0.3

	DefaultUpstreamTimeout   = 30 * time.Second
	DefaultCompletionTimeout = 60 * time.Second

	DefaultMaxQuestionLength = 2000
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// DefaultSystemPrompt sets the assistant's role for every completion call.
const DefaultSystemPrompt = `You are TableAgent, an assistant that helps people find the right tool in a company tool catalog.

You receive the catalog as a numbered list. Each entry has a name, a link and sometimes a description.

RULES:
1. Answer only from the catalog you were given; say so when nothing in it fits
2. Always include the link of every tool you recommend
3. Prefer short answers: name the tool, give the link, explain in one or two sentences why it fits
4. Answer in the language of the question`

var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8080",
}
