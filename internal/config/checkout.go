package config

import (
	"errors"
	"log"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// CheckoutConfig controls checkout session creation policy.
type CheckoutConfig struct {
	// AllowedRedirectHosts lists hosts that success/cancel URLs may point at.
	AllowedRedirectHosts []string `mapstructure:"allowedRedirectHosts"`
	DefaultSuccessURL    string   `mapstructure:"defaultSuccessUrl"`
	DefaultCancelURL     string   `mapstructure:"defaultCancelUrl"`
}

func DefaultCheckoutConfig() CheckoutConfig {
	return CheckoutConfig{
		AllowedRedirectHosts: []string{"localhost"},
		DefaultSuccessURL:    "http://localhost:3000/checkout/success",
		DefaultCancelURL:     "http://localhost:3000/checkout/cancel",
	}
}

type CheckoutConfigHolder struct {
	current atomic.Value // holds CheckoutConfig
}

func NewCheckoutConfigHolder() (*CheckoutConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("checkout")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/paysync/config")
	v.AddConfigPath("/etc/paysync")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PAYSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultCheckoutConfig()
		v.SetDefault("checkout.allowedRedirectHosts", defaults.AllowedRedirectHosts)
		v.SetDefault("checkout.defaultSuccessUrl", defaults.DefaultSuccessURL)
		v.SetDefault("checkout.defaultCancelUrl", defaults.DefaultCancelURL)
	}

	var cfg CheckoutConfig
	if err := v.UnmarshalKey("checkout", &cfg); err != nil {
		return nil, err
	}
	if err := validateCheckoutConfig(cfg); err != nil {
		return nil, err
	}

	holder := &CheckoutConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated CheckoutConfig
		if err := v.UnmarshalKey("checkout", &updated); err != nil {
			log.Printf("[checkout-config] reload failed: %v", err)
			return
		}
		if err := validateCheckoutConfig(updated); err != nil {
			log.Printf("[checkout-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[checkout-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewCheckoutConfigHolderFrom wraps a fixed config with no file watching.
func NewCheckoutConfigHolderFrom(cfg CheckoutConfig) *CheckoutConfigHolder {
	holder := &CheckoutConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *CheckoutConfigHolder) Get() CheckoutConfig {
	return h.current.Load().(CheckoutConfig)
}

// RedirectAllowed reports whether raw is an absolute URL whose host is allowed.
func (h *CheckoutConfigHolder) RedirectAllowed(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" {
		return false
	}
	host := parsed.Hostname()
	for _, allowed := range h.Get().AllowedRedirectHosts {
		if strings.EqualFold(strings.TrimSpace(allowed), host) {
			return true
		}
	}
	return false
}

func validateCheckoutConfig(cfg CheckoutConfig) error {
	if len(cfg.AllowedRedirectHosts) == 0 {
		return errors.New("checkout.allowedRedirectHosts cannot be empty")
	}
	return nil
}
