package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/exposure/internal/domain"
)

const wallet = "0x1111111111111111111111111111111111111111"

func validConfig() Config {
	cfg := Default()
	cfg.Binance.APIKey = "key"
	cfg.Binance.APISecret = "secret"
	cfg.Chain.RPCURL = "https://arb1.example.org"
	cfg.Chain.Wallet = wallet
	return cfg
}

func TestParse(t *testing.T) {
	data := []byte(`
interval: 10m
fetch_timeout: 45s
persist_partial: false
glp_mid_compat: true
binance:
  pairs: [btcusdt, ETHBUSD]
chain:
  rpc_url: https://arb1.example.org
  wallet: ` + wallet + `
  tokens:
    WETH: "0x2222222222222222222222222222222222222222"
  contracts:
    Vault: "0x3333333333333333333333333333333333333333"
coingecko:
  base_url: https://pro-api.coingecko.com/api/v3/
  rate_limit_rps: 2
storage:
  postgres_dsn: postgres://localhost/glp
log:
  level: debug
`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, cfg.Interval)
	assert.Equal(t, 45*time.Second, cfg.FetchTimeout)
	assert.False(t, cfg.PersistPartial)
	assert.True(t, cfg.GLPMidCompat)
	assert.Equal(t, []string{"BTCUSDT", "ETHBUSD"}, cfg.Binance.Pairs)
	assert.Equal(t, []string{"USDT", "BUSD"}, cfg.Binance.StableAssets)
	assert.Equal(t, "0x2222222222222222222222222222222222222222", cfg.Chain.Tokens[domain.AssetWETH])
	assert.Equal(t, "0x3333333333333333333333333333333333333333", cfg.Chain.Contracts["Vault"])
	assert.Equal(t, "https://pro-api.coingecko.com/api/v3", cfg.CoinGecko.BaseURL)
	assert.Equal(t, defaultPlatform, cfg.CoinGecko.Platform)
	assert.Equal(t, 2.0, cfg.CoinGecko.RateLimitRPS)
	assert.Equal(t, defaultWALDir, cfg.Storage.WALDir)
	assert.Equal(t, "postgres://localhost/glp", cfg.Storage.PostgresDSN)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.PersistPartial)
	assert.Equal(t, domain.DefaultHedgePairs, cfg.Binance.Pairs)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "malformed yaml", data: "interval: ["},
		{name: "short pair", data: "binance:\n  pairs: [BTC]"},
		{name: "bad duration", data: "interval: soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	cfg := validConfig()
	cfg.GLPMidCompat = true
	cfg.PersistPartial = false
	cfg.Chain.Tokens = map[domain.Asset]string{domain.AssetDAI: "0x4444444444444444444444444444444444444444"}

	data, err := Marshal(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	parsed, err := Parse(data)
	require.NoError(t, err)

	cfg.Binance.APIKey = ""
	cfg.Binance.APISecret = ""
	assert.Equal(t, cfg, parsed)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		envBinanceAPIKey:    "k",
		envBinanceAPISecret: "s",
		envArbitrumRPCURL:   " https://rpc ",
		envCoinGeckoAPIKey:  "cg",
		envWalletAddress:    wallet,
		envPostgresDSN:      "",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := Default()
	cfg.Storage.PostgresDSN = "from-file"
	cfg.applyEnv(lookup)

	assert.Equal(t, "k", cfg.Binance.APIKey)
	assert.Equal(t, "s", cfg.Binance.APISecret)
	assert.Equal(t, "https://rpc", cfg.Chain.RPCURL)
	assert.Equal(t, "cg", cfg.CoinGecko.APIKey)
	assert.Equal(t, wallet, cfg.Chain.Wallet)
	assert.Equal(t, "from-file", cfg.Storage.PostgresDSN, "empty env keeps file value")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero interval", mutate: func(c *Config) { c.Interval = 0 }, errMsg: "interval"},
		{name: "timeout not shorter than interval", mutate: func(c *Config) { c.FetchTimeout = c.Interval }, errMsg: "fetch_timeout"},
		{name: "missing secret", mutate: func(c *Config) { c.Binance.APISecret = "" }, errMsg: envBinanceAPISecret},
		{name: "no pairs", mutate: func(c *Config) { c.Binance.Pairs = nil }, errMsg: "binance.pairs"},
		{name: "no stable assets", mutate: func(c *Config) { c.Binance.StableAssets = nil }, errMsg: "stable_assets"},
		{name: "missing rpc", mutate: func(c *Config) { c.Chain.RPCURL = "" }, errMsg: envArbitrumRPCURL},
		{name: "bad wallet", mutate: func(c *Config) { c.Chain.Wallet = "0x12" }, errMsg: "chain.wallet"},
		{name: "bad token override", mutate: func(c *Config) {
			c.Chain.Tokens = map[domain.Asset]string{domain.AssetDAI: "dai"}
		}, errMsg: "chain.tokens.DAI"},
		{name: "bad contract override", mutate: func(c *Config) {
			c.Chain.Contracts = map[string]string{"Vault": "vault"}
		}, errMsg: "chain.contracts.Vault"},
		{name: "negative rate", mutate: func(c *Config) { c.CoinGecko.RateLimitRPS = -1 }, errMsg: "rate_limit_rps"},
		{name: "autocert without addr", mutate: func(c *Config) { c.Web.AutocertDomain = "glp.example.org" }, errMsg: "web.addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interval: 2m\nchain:\n  rpc_url: https://file\n"), 0o600))

	t.Setenv(envBinanceAPIKey, "k")
	t.Setenv(envBinanceAPISecret, "s")
	t.Setenv(envWalletAddress, wallet)
	t.Setenv(envArbitrumRPCURL, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.Interval)
	assert.Equal(t, "https://file", cfg.Chain.RPCURL)
	assert.Equal(t, wallet, cfg.Chain.Wallet)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSecrets(t *testing.T) {
	cfg := Default()
	cfg.Binance.APIKey = "k"
	cfg.Binance.APISecret = "s"

	assert.Equal(t, map[string]string{
		envBinanceAPIKey:    "k",
		envBinanceAPISecret: "s",
	}, Secrets(cfg))
	assert.Empty(t, Secrets(Default()))
}
