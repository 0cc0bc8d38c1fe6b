package config

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ammiranda/tree_diagram/layout"
)

// LayoutConfig holds the geometry and dangling policy used by the layout engine
type LayoutConfig struct {
	Geometry layout.Config
	Dangling layout.DanglingPolicy
}

// IndexOptions returns the index options matching the dangling policy
func (c *LayoutConfig) IndexOptions() []layout.IndexOption {
	return []layout.IndexOption{layout.WithDanglingPolicy(c.Dangling)}
}

// Validate checks that every dimension is finite and usable
func (c *LayoutConfig) Validate() error {
	dims := []struct {
		field string
		value float64
		min   float64
	}{
		{"NodeWidth", c.Geometry.NodeWidth, math.SmallestNonzeroFloat64},
		{"NodeHeight", c.Geometry.NodeHeight, math.SmallestNonzeroFloat64},
		{"HorizontalSpacing", c.Geometry.HorizontalSpacing, 0},
		{"VerticalSpacing", c.Geometry.VerticalSpacing, 0},
	}
	for _, d := range dims {
		if math.IsNaN(d.value) || math.IsInf(d.value, 0) {
			return &ValidationError{Field: d.field, Message: "must be a finite number"}
		}
		if d.value < d.min {
			if d.min > 0 {
				return &ValidationError{Field: d.field, Message: "must be greater than zero"}
			}
			return &ValidationError{Field: d.field, Message: "cannot be negative"}
		}
	}

	if c.Dangling != layout.DanglingReject && c.Dangling != layout.DanglingAsRoot {
		return &ValidationError{Field: "Dangling", Message: "unknown dangling policy"}
	}
	return nil
}

// ParseDanglingPolicy maps "reject" and "root" to a layout.DanglingPolicy
func ParseDanglingPolicy(s string) (layout.DanglingPolicy, error) {
	switch s {
	case "", "reject":
		return layout.DanglingReject, nil
	case "root":
		return layout.DanglingAsRoot, nil
	default:
		return 0, &ValidationError{Field: "LAYOUT_DANGLING", Message: fmt.Sprintf("must be reject or root, got %q", s)}
	}
}

// GetLayoutConfig reads LAYOUT_* keys from the provider. Unset keys keep the
// layout.DefaultConfig values and the reject policy.
func GetLayoutConfig(ctx context.Context, provider Provider) (*LayoutConfig, error) {
	cfg := &LayoutConfig{
		Geometry: layout.DefaultConfig(),
		Dangling: layout.DanglingReject,
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"LAYOUT_NODE_WIDTH", &cfg.Geometry.NodeWidth},
		{"LAYOUT_NODE_HEIGHT", &cfg.Geometry.NodeHeight},
		{"LAYOUT_HORIZONTAL_SPACING", &cfg.Geometry.HorizontalSpacing},
		{"LAYOUT_VERTICAL_SPACING", &cfg.Geometry.VerticalSpacing},
	}
	for _, f := range floats {
		value, err := provider.GetFloat(ctx, f.key)
		if errors.Is(err, ErrNotSet) {
			continue
		}
		if err != nil {
			return nil, &ValidationError{Field: f.key, Message: "must be a number"}
		}
		*f.dst = value
	}

	dangling, err := provider.GetString(ctx, "LAYOUT_DANGLING")
	if err != nil && !errors.Is(err, ErrNotSet) {
		return nil, fmt.Errorf("failed to get LAYOUT_DANGLING: %w", err)
	}
	if cfg.Dangling, err = ParseDanglingPolicy(dangling); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout configuration: %w", err)
	}
	return cfg, nil
}
