package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string
	Port int
}

func (s ServerConfig) Addr() string {
	host := s.Host
	if host == "" {
		host = "0.0.0.0"
	}
	return fmt.Sprintf("%s:%d", host, s.Port)
}

// WooConfig describes the upstream WooCommerce REST API.
// Two mutually exclusive auth modes exist: when the BaseURL/BasicKey/
// BasicSecret triple is present the client sends an HTTP Basic header,
// otherwise URL/ConsumerKey/ConsumerSecret are appended as query
// parameters.
type WooConfig struct {
	// Query-string auth triple.
	URL            string
	ConsumerKey    string
	ConsumerSecret string

	// Basic auth triple.
	BaseURL     string
	BasicKey    string
	BasicSecret string
}

// UseBasic reports whether the Basic-auth triple is fully configured.
func (w WooConfig) UseBasic() bool {
	return w.BaseURL != "" && w.BasicKey != "" && w.BasicSecret != ""
}

// Base returns whichever base URL the active auth mode uses.
func (w WooConfig) Base() string {
	if w.UseBasic() {
		return w.BaseURL
	}
	return w.URL
}

// Host returns the upstream host for redacted diagnostics, never
// credentials.
func (w WooConfig) Host() string {
	base := w.Base()
	if base == "" {
		return "unset"
	}
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return base
	}
	return u.Host
}

// WPConfig describes the WordPress GraphQL content endpoint.
type WPConfig struct {
	// GraphQLEndpoint overrides the derived endpoint when set.
	GraphQLEndpoint string
	// SimpleJWTValidate overrides the derived simple-jwt-login validate URL.
	SimpleJWTValidate string
}

// GraphQLURL resolves the endpoint, falling back to <woo base>/graphql.
func (w WPConfig) GraphQLURL(woo WooConfig) (string, error) {
	if w.GraphQLEndpoint != "" {
		return w.GraphQLEndpoint, nil
	}
	base := woo.Base()
	if base == "" {
		return "", fmt.Errorf("missing wp.graphqlendpoint and woo base url")
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + "graphql", nil
}

// RedisConfig holds the optional response cache address. Empty disables
// caching entirely.
type RedisConfig struct {
	Addr string
}

// RabbitMQConfig holds the optional newsletter signup queue. Empty URL
// disables publishing.
type RabbitMQConfig struct {
	URL   string
	Queue string
}

// MySQLConfig is used by the newsletter worker only.
type MySQLConfig struct {
	DSN string
}

// StripeConfig gates the hosted checkout integration by key presence.
type StripeConfig struct {
	SecretKey        string
	Currency         string
	AllowedCountries []string
}

// CheckoutConfig selects the default provider when the client sends none.
type CheckoutConfig struct {
	Provider string // "stripe" or "cod"
}

// NewsletterConfig configures the best-effort signup side channels.
type NewsletterConfig struct {
	WebhookURL string
	DataDir    string
}

// RevalidateConfig guards the cache invalidation trigger.
type RevalidateConfig struct {
	Secret string
}

// Config is the application configuration, built once at startup and
// passed into each component. Read-only afterwards.
type Config struct {
	Server     ServerConfig
	Woo        WooConfig
	WP         WPConfig
	Redis      RedisConfig
	RabbitMQ   RabbitMQConfig
	MySQL      MySQLConfig
	Stripe     StripeConfig
	Checkout   CheckoutConfig
	Newsletter NewsletterConfig
	Revalidate RevalidateConfig
}

// DefaultConfig returns a config suitable for local development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		RabbitMQ: RabbitMQConfig{
			Queue: "newsletter_signup",
		},
		MySQL: MySQLConfig{
			DSN: "storefront:storefront123@tcp(127.0.0.1:3306)/storefront?charset=utf8mb4&parseTime=True&loc=Local",
		},
		Stripe: StripeConfig{
			Currency:         "eur",
			AllowedCountries: []string{"NL", "BE", "DE"},
		},
		Checkout: CheckoutConfig{
			Provider: "cod",
		},
		Newsletter: NewsletterConfig{
			DataDir: ".data",
		},
	}
}

// Load reads config.yaml from the given directory when present and applies
// environment overrides with the VDUBS_ prefix, e.g. VDUBS_WOO_BASEURL.
// A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.SetEnvPrefix("VDUBS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := DefaultConfig()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
