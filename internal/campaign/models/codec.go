package models

import (
	"encoding/json"
	"fmt"

	id "tangible/pkg/domain"
)

// Tagged JSON envelopes let the sealed variant types round-trip through
// JSONB columns without losing their tag.

type pricingEnvelope struct {
	Model  id.PricingModel `json:"model"`
	Config json.RawMessage `json:"config"`
}

// EncodePricing serializes a pricing config with its model tag.
func EncodePricing(p PricingConfig) ([]byte, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal pricing config: %w", err)
	}
	return json.Marshal(pricingEnvelope{Model: p.Model(), Config: raw})
}

// DecodePricing restores a pricing config from its tagged envelope.
func DecodePricing(data []byte) (PricingConfig, error) {
	var env pricingEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal pricing envelope: %w", err)
	}

	var (
		cfg PricingConfig
		err error
	)
	switch env.Model {
	case id.PricingModelSeats:
		var v SeatsPricing
		err = json.Unmarshal(env.Config, &v)
		cfg = v
	case id.PricingModelCredits:
		var v CreditsPricing
		err = json.Unmarshal(env.Config, &v)
		cfg = v
	case id.PricingModelBundle:
		var v BundlePricing
		err = json.Unmarshal(env.Config, &v)
		cfg = v
	case id.PricingModelIAAS:
		var v IAASPricing
		err = json.Unmarshal(env.Config, &v)
		cfg = v
	case id.PricingModelCustom:
		var v CustomPricing
		err = json.Unmarshal(env.Config, &v)
		cfg = v
	default:
		return nil, fmt.Errorf("unknown pricing model %q", env.Model)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s pricing config: %w", env.Model, err)
	}
	return cfg, nil
}

type programConfigEnvelope struct {
	Type   id.ProgramType  `json:"type"`
	Config json.RawMessage `json:"config"`
}

// EncodeProgramConfig serializes a program config with its type tag.
func EncodeProgramConfig(c ProgramConfig) ([]byte, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal program config: %w", err)
	}
	return json.Marshal(programConfigEnvelope{Type: c.Type(), Config: raw})
}

// DecodeProgramConfig restores a program config from its tagged envelope.
func DecodeProgramConfig(data []byte) (ProgramConfig, error) {
	var env programConfigEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal program config envelope: %w", err)
	}

	var (
		cfg ProgramConfig
		err error
	)
	switch env.Type {
	case id.ProgramTypeMentorship:
		var v MentorshipConfig
		err = json.Unmarshal(env.Config, &v)
		cfg = v
	case id.ProgramTypeLanguage:
		var v LanguageConfig
		err = json.Unmarshal(env.Config, &v)
		cfg = v
	case id.ProgramTypeBuddy:
		var v BuddyConfig
		err = json.Unmarshal(env.Config, &v)
		cfg = v
	case id.ProgramTypeUpskilling:
		var v UpskillingConfig
		err = json.Unmarshal(env.Config, &v)
		cfg = v
	case id.ProgramTypeWEEI:
		var v WEEIConfig
		err = json.Unmarshal(env.Config, &v)
		cfg = v
	default:
		return nil, fmt.Errorf("unknown program type %q", env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s program config: %w", env.Type, err)
	}
	return cfg, nil
}
