package llm

import (
	"log"
	"os"
	"time"
)

const (
	// EnvMode is the environment variable name for mode selection.
	EnvMode = "BOOKCHAT_MODE"
	// ModeMock indicates the mock language service should be used.
	ModeMock = "MOCK"
)

// NewLanguageService creates a language service based on BOOKCHAT_MODE.
// BOOKCHAT_MODE=MOCK returns the mock; anything else returns a real client.
func NewLanguageService(baseURL, apiKey string, timeout time.Duration) LanguageService {
	if os.Getenv(EnvMode) == ModeMock {
		log.Println("BOOKCHAT_MODE=MOCK detected, using mock language service")
		return NewMockService()
	}
	return NewClient(baseURL, apiKey, timeout)
}
