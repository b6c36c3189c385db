package internal

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/exposure/config"
	"github.com/vadiminshakov/exposure/internal/clients"
	"github.com/vadiminshakov/exposure/internal/domain"
	"github.com/vadiminshakov/exposure/internal/events"
	"github.com/vadiminshakov/exposure/internal/services/onchain"
	"github.com/vadiminshakov/exposure/internal/services/pricer"
	"github.com/vadiminshakov/exposure/internal/services/valuation"
	"github.com/vadiminshakov/exposure/internal/services/venue/exchange"
	"github.com/vadiminshakov/exposure/internal/services/venue/protocol"
	"github.com/vadiminshakov/exposure/internal/services/venue/wallet"
	"github.com/vadiminshakov/exposure/internal/storage/postgres"
	"github.com/vadiminshakov/exposure/internal/storage/snapshots"
	"github.com/vadiminshakov/exposure/pkg/retrier"
)

const (
	spotQuoteCurrency  = "USDT"
	coinGeckoKeyHeader = "x-cg-pro-api-key"
	eventBuffer        = 16
)

// App wired snapshot service.
type App struct {
	Portfolio *Portfolio
	Events    *events.CycleBroadcaster
	WAL       *snapshots.WALStore

	closers []func() error
}

// NewApp connects every client described by conf. Only the RPC dial and the database open are
// retried.
func NewApp(ctx context.Context, conf config.Config, logger *zap.Logger) (*App, error) {
	registry, err := domain.NewRegistry(conf.Chain.Tokens)
	if err != nil {
		return nil, errors.Wrap(err, "build asset registry")
	}
	contracts, err := onchain.DefaultContracts().WithOverrides(conf.Chain.Contracts)
	if err != nil {
		return nil, errors.Wrap(err, "apply contract overrides")
	}
	weth, ok := registry.Get(domain.AssetWETH)
	if !ok {
		return nil, errors.New("WETH is not registered")
	}

	app := &App{Events: events.NewCycleBroadcaster(eventBuffer)}

	startup := retrier.New(
		retrier.WithInitialInterval(2*time.Second),
		retrier.WithOnRetry(func(attempt int, err error, wait time.Duration) {
			logger.Warn("Startup dependency unavailable, retrying",
				zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
		}),
	)

	chain, err := retrier.DoWithData(startup, ctx, func(ctx context.Context) (*clients.ChainClient, error) {
		return clients.DialChain(ctx, conf.Chain.RPCURL)
	})
	if err != nil {
		return nil, errors.Wrap(err, "dial chain rpc")
	}
	app.closers = append(app.closers, func() error { chain.Close(); return nil })

	gmx := onchain.NewGMX(chain, contracts, common.HexToAddress(weth.Address))
	erc20 := onchain.NewERC20(chain)

	exchangeReader, err := exchange.NewReader(
		clients.NewBinanceFutures(conf.Binance.APIKey, conf.Binance.APISecret),
		conf.Binance.Pairs,
		conf.Binance.StableAssets,
		logger.Named("exchange"),
	)
	if err != nil {
		return nil, app.fail(errors.Wrap(err, "create exchange reader"))
	}

	protocolReader, err := protocol.NewReader(gmx, erc20, registry, conf.Chain.Wallet, conf.GLPMidCompat, logger.Named("protocol"))
	if err != nil {
		return nil, app.fail(errors.Wrap(err, "create protocol reader"))
	}

	walletReader, err := wallet.NewReader(erc20, registry, conf.Chain.Wallet, domain.WalletAssets)
	if err != nil {
		return nil, app.fail(errors.Wrap(err, "create wallet reader"))
	}

	var headers map[string]string
	if conf.CoinGecko.APIKey != "" {
		headers = map[string]string{coinGeckoKeyHeader: conf.CoinGecko.APIKey}
	}
	httpClient := clients.NewHTTPClient(conf.FetchTimeout, conf.CoinGecko.RateLimitRPS, headers)

	prices := pricer.NewAdapter(registry, []pricer.Source{
		pricer.NewSpot(clients.NewBinanceSpot(spotQuoteCurrency), logger.Named("spot")),
		pricer.NewOracle(gmx, registry),
		pricer.NewAggregator(httpClient, conf.CoinGecko.BaseURL, conf.CoinGecko.Platform),
	}, conf.FetchTimeout, logger.Named("pricer"))

	wal, err := snapshots.NewWALStore(conf.Storage.WALDir)
	if err != nil {
		return nil, app.fail(errors.Wrap(err, "open snapshot wal"))
	}
	app.WAL = wal
	app.closers = append(app.closers, wal.Close)
	sinks := []Sink{wal}

	if conf.Storage.PostgresDSN != "" {
		pg, err := retrier.DoWithData(startup, ctx, func(context.Context) (*postgres.Sink, error) {
			return postgres.New(postgres.Option{ConnString: conf.Storage.PostgresDSN})
		})
		if err != nil {
			return nil, app.fail(errors.Wrap(err, "open postgres"))
		}
		app.closers = append(app.closers, pg.Close)
		sinks = append(sinks, pg)
	}

	universe := make([]domain.Asset, 0, len(registry.Assets()))
	for _, info := range registry.Assets() {
		universe = append(universe, info.ID)
	}

	app.Portfolio, err = NewPortfolio(Settings{
		Interval:       conf.Interval,
		FetchTimeout:   conf.FetchTimeout,
		PersistPartial: conf.PersistPartial,
	}, Deps{
		Exchange:   exchangeReader,
		Protocol:   protocolReader,
		Wallet:     walletReader,
		Prices:     prices,
		Aggregator: valuation.NewAggregator(registry, conf.Binance.StableAssets),
		Universe:   universe,
		Sinks:      sinks,
		Events:     app.Events,
	}, logger.Named("portfolio"))
	if err != nil {
		return nil, app.fail(err)
	}

	return app, nil
}

func (a *App) fail(err error) error {
	_ = a.Close()
	return err
}

// Close releases every connection in reverse order of opening.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
