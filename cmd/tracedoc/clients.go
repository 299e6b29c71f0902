package main

import (
	"github.com/tracedoc/tracedoc/internal/config"
	"github.com/tracedoc/tracedoc/internal/extract"
	"github.com/tracedoc/tracedoc/internal/providers"
)

// newExtractor wires the extraction and Q&A clients from config. Both share
// the provider endpoint; they differ only in model.
func newExtractor(cfg *config.Config) *extract.Extractor {
	apiKey := cfg.APIKey()

	client := providers.NewOpenAIClient(providers.OpenAIConfig{
		APIKey:     apiKey,
		BaseURL:    cfg.Provider.BaseURL,
		Model:      cfg.Provider.Model,
		APIVersion: cfg.Provider.APIVersion,
		RateLimit:  int(cfg.Provider.RateLimit),
		MaxRetries: cfg.Provider.MaxRetries,
		Logger:     logger,
	})
	qaClient := providers.NewOpenAIClient(providers.OpenAIConfig{
		APIKey:     apiKey,
		BaseURL:    cfg.Provider.BaseURL,
		Model:      cfg.Provider.QAModel,
		APIVersion: cfg.Provider.APIVersion,
		RateLimit:  int(cfg.Provider.RateLimit),
		MaxRetries: cfg.Provider.MaxRetries,
		Logger:     logger,
	})

	return extract.New(extract.Config{
		Client:   client,
		QAClient: qaClient,
		Logger:   logger,
	})
}
