// Package config loads the snapshot service configuration from YAML and the environment.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/exposure/internal/domain"
)

const (
	defaultInterval      = 5 * time.Minute
	defaultFetchTimeout  = 30 * time.Second
	defaultCoinGeckoURL  = "https://api.coingecko.com/api/v3"
	defaultPlatform      = "arbitrum-one"
	defaultRateLimitRPS  = 0.5
	defaultWALDir        = "./wal/snapshots"
	defaultLogLevel      = "info"
	defaultAutocertCache = "cert-cache"
)

const (
	envBinanceAPIKey    = "BINANCE_API_KEY"
	envBinanceAPISecret = "BINANCE_API_SECRET"
	envArbitrumRPCURL   = "ARBITRUM_RPC_URL"
	envCoinGeckoAPIKey  = "COINGECKO_API_KEY"
	envWalletAddress    = "WALLET_ADDRESS"
	envPostgresDSN      = "POSTGRES_DSN"
)

var defaultStableAssets = []string{"USDT", "BUSD"}

// Config resolved service configuration.
type Config struct {
	Interval       time.Duration
	FetchTimeout   time.Duration
	PersistPartial bool
	// GLPMidCompat prices the pool share with (buy + buy) / 2 as older snapshots did.
	GLPMidCompat bool
	Binance      BinanceConfig
	Chain        ChainConfig
	CoinGecko    CoinGeckoConfig
	Storage      StorageConfig
	Web          WebConfig
	Log          LogConfig
}

type BinanceConfig struct {
	APIKey       string
	APISecret    string
	// Pairs tracked futures symbols such as BTCUSDT.
	Pairs        []string
	StableAssets []string
}

type ChainConfig struct {
	RPCURL string
	Wallet string
	// Tokens token address overrides by asset symbol.
	Tokens map[domain.Asset]string
	// Contracts protocol contract overrides by contract name.
	Contracts map[string]string
}

type CoinGeckoConfig struct {
	BaseURL      string
	Platform     string
	APIKey       string
	RateLimitRPS float64
}

type StorageConfig struct {
	WALDir      string
	PostgresDSN string
}

type WebConfig struct {
	Addr           string
	AutocertDomain string
	AutocertCache  string
}

type LogConfig struct {
	Level string
	File  string
}

// ConfigTmp YAML representation of Config.
type ConfigTmp struct {
	Interval       time.Duration `yaml:"interval,omitempty"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout,omitempty"`
	PersistPartial *bool         `yaml:"persist_partial,omitempty"`
	GLPMidCompat   bool          `yaml:"glp_mid_compat,omitempty"`
	Binance        struct {
		Pairs        []string `yaml:"pairs,omitempty"`
		StableAssets []string `yaml:"stable_assets,omitempty"`
	} `yaml:"binance"`
	Chain struct {
		RPCURL    string            `yaml:"rpc_url,omitempty"`
		Wallet    string            `yaml:"wallet,omitempty"`
		Tokens    map[string]string `yaml:"tokens,omitempty"`
		Contracts map[string]string `yaml:"contracts,omitempty"`
	} `yaml:"chain"`
	CoinGecko struct {
		BaseURL      string   `yaml:"base_url,omitempty"`
		Platform     string   `yaml:"platform,omitempty"`
		RateLimitRPS *float64 `yaml:"rate_limit_rps,omitempty"`
	} `yaml:"coingecko"`
	Storage struct {
		WALDir      string `yaml:"wal_dir,omitempty"`
		PostgresDSN string `yaml:"postgres_dsn,omitempty"`
	} `yaml:"storage"`
	Web struct {
		Addr           string `yaml:"addr,omitempty"`
		AutocertDomain string `yaml:"autocert_domain,omitempty"`
		AutocertCache  string `yaml:"autocert_cache,omitempty"`
	} `yaml:"web"`
	Log struct {
		Level string `yaml:"level,omitempty"`
		File  string `yaml:"file,omitempty"`
	} `yaml:"log"`
}

// Default returns the configuration used for every omitted field.
func Default() Config {
	return Config{
		Interval:       defaultInterval,
		FetchTimeout:   defaultFetchTimeout,
		PersistPartial: true,
		Binance: BinanceConfig{
			Pairs:        append([]string(nil), domain.DefaultHedgePairs...),
			StableAssets: append([]string(nil), defaultStableAssets...),
		},
		CoinGecko: CoinGeckoConfig{
			BaseURL:      defaultCoinGeckoURL,
			Platform:     defaultPlatform,
			RateLimitRPS: defaultRateLimitRPS,
		},
		Storage: StorageConfig{WALDir: defaultWALDir},
		Web:     WebConfig{AutocertCache: defaultAutocertCache},
		Log:     LogConfig{Level: defaultLogLevel},
	}
}

// Load reads .env (if present), the YAML file at path (if given) and the environment, then validates.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Wrap(err, "load .env")
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config")
		}
		cfg, err = Parse(data)
		if err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults.
func Parse(data []byte) (Config, error) {
	var tmp ConfigTmp
	if err := yaml.Unmarshal(data, &tmp); err != nil {
		return Config{}, errors.Wrap(err, "decode yaml config")
	}

	cfg := Default()
	if tmp.Interval != 0 {
		cfg.Interval = tmp.Interval
	}
	if tmp.FetchTimeout != 0 {
		cfg.FetchTimeout = tmp.FetchTimeout
	}
	if tmp.PersistPartial != nil {
		cfg.PersistPartial = *tmp.PersistPartial
	}
	cfg.GLPMidCompat = tmp.GLPMidCompat

	if len(tmp.Binance.Pairs) > 0 {
		pairs := make([]string, 0, len(tmp.Binance.Pairs))
		for _, symbol := range tmp.Binance.Pairs {
			symbol = strings.ToUpper(strings.TrimSpace(symbol))
			if _, err := domain.ParsePair(symbol); err != nil {
				return Config{}, errors.Wrapf(err, "incorrect 'binance.pairs' entry %q", symbol)
			}
			pairs = append(pairs, symbol)
		}
		cfg.Binance.Pairs = pairs
	}
	if len(tmp.Binance.StableAssets) > 0 {
		cfg.Binance.StableAssets = tmp.Binance.StableAssets
	}

	cfg.Chain.RPCURL = tmp.Chain.RPCURL
	cfg.Chain.Wallet = tmp.Chain.Wallet
	if len(tmp.Chain.Tokens) > 0 {
		cfg.Chain.Tokens = make(map[domain.Asset]string, len(tmp.Chain.Tokens))
		for symbol, addr := range tmp.Chain.Tokens {
			cfg.Chain.Tokens[domain.Asset(symbol)] = addr
		}
	}
	cfg.Chain.Contracts = tmp.Chain.Contracts

	if tmp.CoinGecko.BaseURL != "" {
		cfg.CoinGecko.BaseURL = strings.TrimRight(tmp.CoinGecko.BaseURL, "/")
	}
	if tmp.CoinGecko.Platform != "" {
		cfg.CoinGecko.Platform = tmp.CoinGecko.Platform
	}
	if tmp.CoinGecko.RateLimitRPS != nil {
		cfg.CoinGecko.RateLimitRPS = *tmp.CoinGecko.RateLimitRPS
	}

	if tmp.Storage.WALDir != "" {
		cfg.Storage.WALDir = tmp.Storage.WALDir
	}
	cfg.Storage.PostgresDSN = tmp.Storage.PostgresDSN

	cfg.Web.Addr = tmp.Web.Addr
	cfg.Web.AutocertDomain = tmp.Web.AutocertDomain
	if tmp.Web.AutocertCache != "" {
		cfg.Web.AutocertCache = tmp.Web.AutocertCache
	}

	if tmp.Log.Level != "" {
		cfg.Log.Level = tmp.Log.Level
	}
	cfg.Log.File = tmp.Log.File

	return cfg, nil
}

// Marshal encodes the non-secret part of cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	var tmp ConfigTmp
	tmp.Interval = cfg.Interval
	tmp.FetchTimeout = cfg.FetchTimeout
	persist := cfg.PersistPartial
	tmp.PersistPartial = &persist
	tmp.GLPMidCompat = cfg.GLPMidCompat

	tmp.Binance.Pairs = cfg.Binance.Pairs
	tmp.Binance.StableAssets = cfg.Binance.StableAssets

	tmp.Chain.RPCURL = cfg.Chain.RPCURL
	tmp.Chain.Wallet = cfg.Chain.Wallet
	if len(cfg.Chain.Tokens) > 0 {
		tmp.Chain.Tokens = make(map[string]string, len(cfg.Chain.Tokens))
		for asset, addr := range cfg.Chain.Tokens {
			tmp.Chain.Tokens[asset.String()] = addr
		}
	}
	tmp.Chain.Contracts = cfg.Chain.Contracts

	tmp.CoinGecko.BaseURL = cfg.CoinGecko.BaseURL
	tmp.CoinGecko.Platform = cfg.CoinGecko.Platform
	rps := cfg.CoinGecko.RateLimitRPS
	tmp.CoinGecko.RateLimitRPS = &rps

	tmp.Storage.WALDir = cfg.Storage.WALDir
	tmp.Storage.PostgresDSN = cfg.Storage.PostgresDSN
	tmp.Web.Addr = cfg.Web.Addr
	tmp.Web.AutocertDomain = cfg.Web.AutocertDomain
	tmp.Web.AutocertCache = cfg.Web.AutocertCache
	tmp.Log.Level = cfg.Log.Level
	tmp.Log.File = cfg.Log.File

	data, err := yaml.Marshal(tmp)
	if err != nil {
		return nil, errors.Wrap(err, "encode yaml config")
	}
	return data, nil
}

// Secrets returns the settings Marshal leaves out, keyed by the environment variable that
// supplies them. Empty values are skipped.
func Secrets(cfg Config) map[string]string {
	env := make(map[string]string)
	for key, v := range map[string]string{
		envBinanceAPIKey:    cfg.Binance.APIKey,
		envBinanceAPISecret: cfg.Binance.APISecret,
		envCoinGeckoAPIKey:  cfg.CoinGecko.APIKey,
	} {
		if v != "" {
			env[key] = v
		}
	}
	return env
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	set(envBinanceAPIKey, &c.Binance.APIKey)
	set(envBinanceAPISecret, &c.Binance.APISecret)
	set(envArbitrumRPCURL, &c.Chain.RPCURL)
	set(envCoinGeckoAPIKey, &c.CoinGecko.APIKey)
	set(envWalletAddress, &c.Chain.Wallet)
	set(envPostgresDSN, &c.Storage.PostgresDSN)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return errors.New("'interval' must be positive")
	}
	if c.FetchTimeout <= 0 {
		return errors.New("'fetch_timeout' must be positive")
	}
	if c.FetchTimeout >= c.Interval {
		return errors.Errorf("'fetch_timeout' (%s) must be shorter than 'interval' (%s)", c.FetchTimeout, c.Interval)
	}
	if c.Binance.APIKey == "" || c.Binance.APISecret == "" {
		return errors.Errorf("%s and %s must be set", envBinanceAPIKey, envBinanceAPISecret)
	}
	if len(c.Binance.Pairs) == 0 {
		return errors.New("'binance.pairs' must not be empty")
	}
	if len(c.Binance.StableAssets) == 0 {
		return errors.New("'binance.stable_assets' must not be empty")
	}
	if c.Chain.RPCURL == "" {
		return errors.Errorf("'chain.rpc_url' or %s must be set", envArbitrumRPCURL)
	}
	if !common.IsHexAddress(c.Chain.Wallet) {
		return errors.Errorf("'chain.wallet' or %s must be a hex address, got %q", envWalletAddress, c.Chain.Wallet)
	}
	for asset, addr := range c.Chain.Tokens {
		if !common.IsHexAddress(addr) {
			return errors.Errorf("incorrect 'chain.tokens.%s' address %q", asset, addr)
		}
	}
	for name, addr := range c.Chain.Contracts {
		if !common.IsHexAddress(addr) {
			return errors.Errorf("incorrect 'chain.contracts.%s' address %q", name, addr)
		}
	}
	if c.CoinGecko.BaseURL == "" {
		return errors.New("'coingecko.base_url' must not be empty")
	}
	if c.CoinGecko.RateLimitRPS < 0 {
		return errors.New("'coingecko.rate_limit_rps' must not be negative")
	}
	if c.Web.AutocertDomain != "" && c.Web.Addr == "" {
		return errors.New("'web.addr' is required when 'web.autocert_domain' is set")
	}
	return nil
}
