package logger

import (
	"strings"

	"go.uber.org/zap"
)

// SensitiveDataConfig configures masking of OAuth material in logs.
type SensitiveDataConfig struct {
	Enabled     bool              `mapstructure:"enabled"`
	MaskValue   string            `mapstructure:"mask_value"`
	Fields      []string          `mapstructure:"fields"`
	PartialMask PartialMaskConfig `mapstructure:"partial_mask"`
}

// PartialMaskConfig configures partial masking behavior.
type PartialMaskConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	ShowFirst int  `mapstructure:"show_first"`
	ShowLast  int  `mapstructure:"show_last"`
	MinLength int  `mapstructure:"min_length"`
}

// DefaultSensitiveDataConfig masks the fields that carry OAuth secrets.
func DefaultSensitiveDataConfig() SensitiveDataConfig {
	return SensitiveDataConfig{
		Enabled:   true,
		MaskValue: "***",
		Fields: []string{
			"access_token",
			"refresh_token",
			"client_secret",
			"code",
			"credentials",
		},
		PartialMask: PartialMaskConfig{
			Enabled:   true,
			ShowFirst: 4,
			ShowLast:  2,
			MinLength: 12,
		},
	}
}

// SensitiveMasker masks sensitive data in log values.
type SensitiveMasker struct {
	cfg      SensitiveDataConfig
	fieldSet map[string]struct{}
}

var globalMasker = NewSensitiveMasker(DefaultSensitiveDataConfig())

// InitMasker replaces the global sensitive data masker.
func InitMasker(cfg SensitiveDataConfig) {
	globalMasker = NewSensitiveMasker(cfg)
}

// NewSensitiveMasker creates a new sensitive data masker.
func NewSensitiveMasker(cfg SensitiveDataConfig) *SensitiveMasker {
	m := &SensitiveMasker{
		cfg:      cfg,
		fieldSet: make(map[string]struct{}, len(cfg.Fields)),
	}
	for _, field := range cfg.Fields {
		m.fieldSet[strings.ToLower(field)] = struct{}{}
	}
	return m
}

// MaskString masks a sensitive string value.
func (m *SensitiveMasker) MaskString(value string) string {
	if !m.cfg.Enabled || value == "" {
		return value
	}

	if m.cfg.PartialMask.Enabled && len(value) >= m.cfg.PartialMask.MinLength {
		return m.partialMask(value)
	}

	return m.cfg.MaskValue
}

func (m *SensitiveMasker) partialMask(value string) string {
	showFirst := m.cfg.PartialMask.ShowFirst
	showLast := m.cfg.PartialMask.ShowLast

	if showFirst+showLast >= len(value) {
		return m.cfg.MaskValue
	}

	return value[:showFirst] + m.cfg.MaskValue + value[len(value)-showLast:]
}

// IsSensitiveField checks if a field name carries OAuth material.
func (m *SensitiveMasker) IsSensitiveField(fieldName string) bool {
	if !m.cfg.Enabled {
		return false
	}
	_, ok := m.fieldSet[strings.ToLower(fieldName)]
	return ok
}

// MaskSensitive masks a value using the global masker.
func MaskSensitive(value string) string {
	return globalMasker.MaskString(value)
}

// SensitiveString creates a zap field, masking the value if the field name is sensitive.
func SensitiveString(key, value string) zap.Field {
	if globalMasker.IsSensitiveField(key) {
		return zap.String(key, globalMasker.MaskString(value))
	}
	return zap.String(key, value)
}

// Token creates a zap field with the token value always masked.
func Token(key, value string) zap.Field {
	return zap.String(key, globalMasker.MaskString(value))
}
