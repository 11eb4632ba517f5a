// Package gemini implements the provider.gemini module, a client for
// the Google Generative Language API generateContent endpoint.
package gemini

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/figmenta/copilot/internal/core"
	"github.com/figmenta/copilot/internal/provider"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Provider{})
}

// Compile-time interface guards.
var (
	_ provider.Provider = (*Provider)(nil)
	_ core.Module       = (*Provider)(nil)
	_ core.Configurable = (*Provider)(nil)
	_ core.Provisioner  = (*Provider)(nil)
	_ core.Validator    = (*Provider)(nil)
)

// Provider implements the Gemini generateContent API as a provider
// module.
type Provider struct {
	config Config
	logger *slog.Logger
	client *http.Client
}

// ModuleInfo implements core.Module.
func (p *Provider) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "provider.gemini",
		New: func() core.Module { return &Provider{} },
	}
}

// Configure implements core.Configurable.
func (p *Provider) Configure(node *yaml.Node) error {
	if err := node.Decode(&p.config); err != nil {
		return err
	}
	p.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (p *Provider) Provision(ctx *core.AppContext) error {
	p.logger = ctx.Logger
	p.client = &http.Client{
		Timeout: p.config.parsedTimeout(),
	}

	ctx.RegisterService("provider", p)
	return nil
}

// Validate implements core.Validator.
func (p *Provider) Validate() error {
	if p.config.APIKey == "" {
		return errors.New("provider.gemini: api_key is required")
	}
	if p.config.Model == "" {
		return errors.New("provider.gemini: model is required")
	}
	return p.config.validateTimeout()
}

// GenerateContent implements provider.Provider.
func (p *Provider) GenerateContent(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
	}
	if p.config.MaxTokens > 0 || p.config.Temperature != nil {
		req.GenerationConfig = &generationConfig{
			MaxOutputTokens: p.config.MaxTokens,
			Temperature:     p.config.Temperature,
		}
	}

	resp, err := p.generate(ctx, req)
	if err != nil {
		return "", err
	}

	text := resp.text()
	if text == "" {
		return "", provider.ErrEmptyCompletion
	}
	return text, nil
}

// ModelName implements provider.Provider.
func (p *Provider) ModelName() string {
	return p.config.Model
}
