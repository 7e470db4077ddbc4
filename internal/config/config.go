package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	ServerHost     string
	ServerPort     string
	StaticDir      string
	AllowedOrigins []string

	// AppToken guards the API when set. Empty means open access, which is a
	// deliberate weak default for low-stakes personal deployments.
	AppToken string

	// Provider credentials. Absence is detected at first use, not here.
	KeyID          string
	ApplicationKey string
	BucketID       string
	BucketName     string

	// ServerURL is the proxy base URL used by the client commands.
	ServerURL string
}

// Load reads configuration from the environment. Nothing is required up
// front: the provider credentials are validated lazily by the gateway, and
// the guard token is optional by design.
func Load() *Config {
	v := viper.New()

	v.SetDefault("savevault_host", "localhost")
	v.SetDefault("savevault_port", "8080")
	v.SetDefault("savevault_server", "http://localhost:8080")

	for _, key := range []string{
		"savevault_host", "savevault_port", "savevault_static_dir",
		"savevault_allowed_origins", "savevault_server",
		"app_token",
		"b2_key_id", "b2_application_key", "b2_bucket_id", "b2_bucket_name",
	} {
		_ = v.BindEnv(key, strings.ToUpper(key))
	}

	var origins []string
	if raw := v.GetString("savevault_allowed_origins"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return &Config{
		ServerHost:     v.GetString("savevault_host"),
		ServerPort:     v.GetString("savevault_port"),
		StaticDir:      v.GetString("savevault_static_dir"),
		AllowedOrigins: origins,
		AppToken:       v.GetString("app_token"),
		KeyID:          v.GetString("b2_key_id"),
		ApplicationKey: v.GetString("b2_application_key"),
		BucketID:       v.GetString("b2_bucket_id"),
		BucketName:     v.GetString("b2_bucket_name"),
		ServerURL:      v.GetString("savevault_server"),
	}
}
