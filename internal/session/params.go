// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"math"
	"strings"

	"github.com/jeranaias/ollachat/internal/model"
)

// =============================================================================
// GENERATION PARAMETERS
// =============================================================================

// Parameter bounds.
const (
	MinTemperature = 0.0
	MaxTemperature = 1.5
	MinMaxTokens   = 64
	MaxMaxTokens   = 4000

	DefaultTemperature = 0.7
	DefaultMaxTokens   = 256
)

// Params are the generation parameters sent with every turn.
type Params struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// DefaultParams returns the first catalog model at temperature 0.7 with a
// 256 token reply limit.
func DefaultParams() Params {
	return Params{
		Model:       model.DefaultModelIDs[0],
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// Validate checks every parameter against its bounds.
func (p Params) Validate() error {
	if err := validateModel(p.Model); err != nil {
		return err
	}
	if err := validateTemperature(p.Temperature); err != nil {
		return err
	}
	return validateMaxTokens(p.MaxTokens)
}

func validateModel(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: model identifier is empty", ErrOutOfRange)
	}
	return nil
}

func validateTemperature(t float64) error {
	if math.IsNaN(t) || t < MinTemperature || t > MaxTemperature {
		return fmt.Errorf("%w: temperature %.2f not in [%.1f, %.1f]", ErrOutOfRange, t, MinTemperature, MaxTemperature)
	}
	return nil
}

func validateMaxTokens(n int) error {
	if n < MinMaxTokens || n > MaxMaxTokens {
		return fmt.Errorf("%w: max tokens %d not in [%d, %d]", ErrOutOfRange, n, MinMaxTokens, MaxMaxTokens)
	}
	return nil
}
