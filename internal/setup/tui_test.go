package setup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/exposure/config"
)

const wallet = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func TestAnswers_Config(t *testing.T) {
	tests := []struct {
		name    string
		edit    func(a *Answers)
		check   func(t *testing.T, cfg config.Config)
		wantErr string
	}{
		{
			name: "defaults",
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, config.Default().Binance.Pairs, cfg.Binance.Pairs)
				assert.Equal(t, 5*time.Minute, cfg.Interval)
				assert.Equal(t, ":8080", cfg.Web.Addr)
				assert.Equal(t, wallet, cfg.Chain.Wallet)
			},
		},
		{
			name: "custom pairs and shortest interval",
			edit: func(a *Answers) {
				a.Pairs = " btcusdt , ETHUSDT,"
				a.Interval = "1m"
				a.PostgresDSN = " postgres://u@h/db "
			},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.Binance.Pairs)
				assert.Equal(t, time.Minute, cfg.Interval)
				assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
				assert.Equal(t, "postgres://u@h/db", cfg.Storage.PostgresDSN)
				assert.Less(t, cfg.FetchTimeout, cfg.Interval)
			},
		},
		{name: "interval below one minute", edit: func(a *Answers) { a.Interval = "40s" }, wantErr: "at least 1m"},
		{name: "bad wallet", edit: func(a *Answers) { a.Wallet = "0x123" }, wantErr: "wallet"},
		{name: "bad pair", edit: func(a *Answers) { a.Pairs = "BTC" }, wantErr: "invalid pair"},
		{name: "no pairs", edit: func(a *Answers) { a.Pairs = " , " }, wantErr: "at least one pair"},
		{name: "bad interval", edit: func(a *Answers) { a.Interval = "soon" }, wantErr: "interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := DefaultAnswers()
			a.Wallet = wallet
			if tt.edit != nil {
				tt.edit(&a)
			}

			cfg, err := a.Config()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestValidateInterval(t *testing.T) {
	assert.NoError(t, validateInterval("5m"))
	assert.Error(t, validateInterval("30s"))
	assert.Error(t, validateInterval("five"))
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	envPath := filepath.Join(dir, ".env")

	a := DefaultAnswers()
	a.Wallet = wallet
	a.RPCURL = "https://arb.example"
	a.APIKey = "key"
	a.APISecret = "secret"
	cfg, err := a.Config()
	require.NoError(t, err)

	require.NoError(t, Save(cfg, path, envPath))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	parsed, err := config.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg.Chain.Wallet, parsed.Chain.Wallet)
	assert.Equal(t, cfg.Chain.RPCURL, parsed.Chain.RPCURL)
	assert.Equal(t, cfg.Binance.Pairs, parsed.Binance.Pairs)

	env, err := godotenv.Read(envPath)
	require.NoError(t, err)
	assert.Equal(t, "key", env["BINANCE_API_KEY"])
	assert.Equal(t, "secret", env["BINANCE_API_SECRET"])
}

func TestSave_NoSecrets(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")

	require.NoError(t, Save(config.Default(), filepath.Join(dir, "config.yaml"), envPath))

	_, err := os.Stat(envPath)
	assert.True(t, os.IsNotExist(err))
}
