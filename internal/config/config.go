// Package config resolves the agent's runtime configuration — API
// credentials, model selection, workspace, and scratch directory — from
// environment variables, a workspace .env file, and an optional
// NEO_HOME/config.yaml model-defaults override, all through viper
// (spec.md §6, SPEC_FULL.md §2).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the resolved settings a Session needs to start.
type Config struct {
	APIKey   string
	APIURL   string
	Model    string
	SmModel  string
	Proxy    string
	NeoHome  string
	Debug    bool
}

// setDefaults configures viper's fallback values, applied when neither
// the environment nor a config file supplies a value.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", "https://openrouter.ai/api/v1")
	v.SetDefault("model_id", "anthropic/claude-sonnet-4-5")
	v.SetDefault("sm_model_id", "")
	v.SetDefault("proxy", "")
	v.SetDefault("neo_home", defaultNeoHome())
	v.SetDefault("debug", false)
}

// defaultNeoHome returns ~/.neo, falling back to ./.neo if the user's
// home directory can't be resolved.
func defaultNeoHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".neo"
	}
	return filepath.Join(home, ".neo")
}

// Load resolves configuration from the environment, a .env file in
// workspace (if present), and NEO_HOME/config.yaml (if present),
// in that precedence order: explicit env vars win, then the workspace
// .env, then the config file, then the defaults above.
func Load(workspace string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"api_key", "api_url", "model_id", "sm_model_id", "proxy", "neo_home", "debug"} {
		_ = v.BindEnv(key, strings.ToUpper(key))
	}

	if envPath := filepath.Join(workspace, ".env"); fileExists(envPath) {
		v.SetConfigFile(envPath)
		v.SetConfigType("env")
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", envPath, err)
		}
	}

	// A model-defaults override lives at NEO_HOME/config.yaml; it can
	// only be resolved after NEO_HOME itself is known, so re-read it as
	// a low-priority merge once NEO_HOME settles.
	neoHome := v.GetString("neo_home")
	if cfgPath := filepath.Join(neoHome, "config.yaml"); fileExists(cfgPath) {
		modelDefaults := viper.New()
		modelDefaults.SetConfigFile(cfgPath)
		modelDefaults.SetConfigType("yaml")
		if err := modelDefaults.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", cfgPath, err)
		}
		for _, key := range []string{"model_id", "sm_model_id", "api_url"} {
			if os.Getenv(strings.ToUpper(key)) == "" && !v.InConfig(key) && modelDefaults.IsSet(key) {
				v.Set(key, modelDefaults.Get(key))
			}
		}
	}

	cfg := &Config{
		APIKey:  v.GetString("api_key"),
		APIURL:  v.GetString("api_url"),
		Model:   v.GetString("model_id"),
		SmModel: v.GetString("sm_model_id"),
		Proxy:   v.GetString("proxy"),
		NeoHome: neoHome,
		Debug:   v.GetBool("debug"),
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("config: API_KEY is required")
	}

	return cfg, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
