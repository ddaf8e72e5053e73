package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ProviderStripe is the only payment provider currently supported.
const ProviderStripe = "stripe"

type PaymentsSettings struct {
	EnabledProviders      []string       `mapstructure:"enabledProviders"`
	DefaultProviderConfig map[string]any `mapstructure:"defaultProviderConfig"`
}

func DefaultPaymentsSettings() PaymentsSettings {
	return PaymentsSettings{
		EnabledProviders: []string{ProviderStripe},
		DefaultProviderConfig: map[string]any{
			"onboarding_completed": false,
		},
	}
}

// IsEnabled reports whether provider is listed in EnabledProviders.
func (s PaymentsSettings) IsEnabled(provider string) bool {
	provider = strings.ToLower(strings.TrimSpace(provider))
	for _, p := range s.EnabledProviders {
		if strings.ToLower(p) == provider {
			return true
		}
	}
	return false
}

// DefaultConfig returns a fresh copy of the default provider_config.
func (s PaymentsSettings) DefaultConfig() map[string]any {
	out := make(map[string]any, len(s.DefaultProviderConfig))
	for k, v := range s.DefaultProviderConfig {
		out[k] = v
	}
	return out
}

type PaymentsSettingsHolder struct {
	current atomic.Value // holds PaymentsSettings
}

// NewStaticPaymentsSettingsHolder returns a holder that never reloads.
func NewStaticPaymentsSettingsHolder(s PaymentsSettings) *PaymentsSettingsHolder {
	holder := &PaymentsSettingsHolder{}
	holder.current.Store(s)
	return holder
}

func NewPaymentsSettingsHolder() (*PaymentsSettingsHolder, error) {
	v := viper.New()

	v.SetConfigName("payments")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/pathway/config")
	v.AddConfigPath("/etc/pathway")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PATHWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPaymentsSettings()
	v.SetDefault("payments.enabledProviders", defaults.EnabledProviders)
	v.SetDefault("payments.defaultProviderConfig", defaults.DefaultProviderConfig)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg PaymentsSettings
	if err := v.UnmarshalKey("payments", &cfg); err != nil {
		return nil, err
	}
	if err := validatePaymentsSettings(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticPaymentsSettingsHolder(cfg)

	if v.ConfigFileUsed() != "" {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated PaymentsSettings
			if err := v.UnmarshalKey("payments", &updated); err != nil {
				log.Printf("[payments-config] reload failed: %v", err)
				return
			}
			if err := validatePaymentsSettings(updated); err != nil {
				log.Printf("[payments-config] invalid config ignored: %v", err)
				return
			}
			holder.current.Store(updated)
			log.Printf("[payments-config] reloaded from %s", e.Name)
		})
	}

	return holder, nil
}

func (h *PaymentsSettingsHolder) Get() PaymentsSettings {
	return h.current.Load().(PaymentsSettings)
}

func validatePaymentsSettings(cfg PaymentsSettings) error {
	if len(cfg.EnabledProviders) == 0 {
		return errors.New("payments.enabledProviders cannot be empty")
	}
	for _, p := range cfg.EnabledProviders {
		if !strings.EqualFold(p, ProviderStripe) {
			return fmt.Errorf("payments.enabledProviders: unsupported provider %q", p)
		}
	}
	return nil
}
