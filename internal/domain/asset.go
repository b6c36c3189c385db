package domain

import (
	"sort"

	"github.com/pkg/errors"
)

// Asset identifies a token the portfolio can hold.
type Asset string

const (
	AssetETH   Asset = "ETH"
	AssetWBTC  Asset = "WBTC"
	AssetWETH  Asset = "WETH"
	AssetLINK  Asset = "LINK"
	AssetUNI   Asset = "UNI"
	AssetFRAX  Asset = "FRAX"
	AssetUSDT  Asset = "USDT"
	AssetUSDC  Asset = "USDC"
	AssetDAI   Asset = "DAI"
	AssetGMX   Asset = "GMX"
	AssetEsGMX Asset = "esGMX"
	AssetGLP   Asset = "GLP"
	AssetBUSD  Asset = "BUSD"
)

// String returns the string representation.
func (a Asset) String() string {
	return string(a)
}

// PricingRule selects how a single USD price is derived for an asset.
type PricingRule int

const (
	// RuleMean arithmetic mean of every available configured source.
	RuleMean PricingRule = iota
	// RulePegMin lowest available configured source.
	RulePegMin
	// RuleProxy mean across sources where some legs quote a correlated underlying.
	RuleProxy
	// RulePoolShare fair value derived from the protocol's own AUM, never external.
	RulePoolShare
	// RuleZeroValue non-transferable token, always worth zero.
	RuleZeroValue
	// RuleFixedOne account unit of the exchange, priced at exactly one.
	RuleFixedOne
)

// String returns the string representation.
func (r PricingRule) String() string {
	switch r {
	case RuleMean:
		return "mean"
	case RulePegMin:
		return "peg_min"
	case RuleProxy:
		return "proxy"
	case RulePoolShare:
		return "pool_share"
	case RuleZeroValue:
		return "zero_value"
	case RuleFixedOne:
		return "fixed_one"
	default:
		return "unknown"
	}
}

// QuoteRef names the symbol under which a source quotes an asset.
type QuoteRef struct {
	Source PriceSource
	Symbol string
}

// AssetInfo static description of an asset.
type AssetInfo struct {
	ID Asset
	// Decimals on-chain fixed-point scale of balances.
	Decimals int32
	// Address token contract on the protocol chain, empty for the native gas token.
	Address string
	// Native is true for the chain's gas token, which has no contract.
	Native bool
	Rule   PricingRule
	// Quotes sources consulted by the pricing rule, in PriceSources order.
	Quotes []QuoteRef
	// Underlying asset used as a stand-in by RuleProxy.
	Underlying string
}

// Symbol returns the asset symbol.
func (a AssetInfo) Symbol() string {
	return string(a.ID)
}

// QuoteRequest one symbol a source has to price.
type QuoteRequest struct {
	Symbol  string
	Address string
}

func threeSources(symbol string) []QuoteRef {
	return []QuoteRef{
		{Source: SourceSpotExchange, Symbol: symbol},
		{Source: SourceOnChainOracle, Symbol: symbol},
		{Source: SourceAggregatorService, Symbol: symbol},
	}
}

// wrapped tokens are quoted on the spot exchange through their underlying.
func proxySources(underlying, wrapped string) []QuoteRef {
	return []QuoteRef{
		{Source: SourceSpotExchange, Symbol: underlying},
		{Source: SourceOnChainOracle, Symbol: wrapped},
		{Source: SourceAggregatorService, Symbol: wrapped},
	}
}

// defaultAssets Arbitrum One token set in registry order.
func defaultAssets() []AssetInfo {
	return []AssetInfo{
		{ID: AssetETH, Decimals: 18, Native: true, Rule: RuleProxy, Quotes: proxySources("ETH", "WETH"), Underlying: "ETH"},
		{ID: AssetWBTC, Decimals: 8, Address: "0x2f2a2543B76A4166549F7aaB2e75Bef0aefC5B0f", Rule: RuleProxy, Quotes: proxySources("BTC", "WBTC"), Underlying: "BTC"},
		{ID: AssetWETH, Decimals: 18, Address: "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1", Rule: RuleProxy, Quotes: proxySources("ETH", "WETH"), Underlying: "ETH"},
		{ID: AssetLINK, Decimals: 18, Address: "0xf97f4df75117a78c1A5a0DBb814Af92458539FB4", Rule: RuleMean, Quotes: threeSources("LINK")},
		{ID: AssetUNI, Decimals: 18, Address: "0xFa7F8980b0f1E64A2062791cc3b0871572f1F7f0", Rule: RuleMean, Quotes: threeSources("UNI")},
		{ID: AssetFRAX, Decimals: 18, Address: "0x17FC002b466eEc40DaE837Fc4bE5c67993ddBd6F", Rule: RulePegMin, Quotes: []QuoteRef{
			{Source: SourceOnChainOracle, Symbol: "FRAX"},
			{Source: SourceAggregatorService, Symbol: "FRAX"},
		}},
		// USDT is the spot account unit, so only independent sources are averaged.
		{ID: AssetUSDT, Decimals: 6, Address: "0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9", Rule: RuleMean, Quotes: []QuoteRef{
			{Source: SourceOnChainOracle, Symbol: "USDT"},
			{Source: SourceAggregatorService, Symbol: "USDT"},
		}},
		{ID: AssetUSDC, Decimals: 6, Address: "0xFF970A61A04b1cA14834A43f5dE4533eBDDB5CC8", Rule: RuleMean, Quotes: threeSources("USDC")},
		{ID: AssetDAI, Decimals: 18, Address: "0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1", Rule: RuleMean, Quotes: threeSources("DAI")},
		{ID: AssetGMX, Decimals: 18, Address: "0xfc5A1A6EB076a2C7aD06eD22C90d7E710E35ad0a", Rule: RuleMean, Quotes: []QuoteRef{
			{Source: SourceSpotExchange, Symbol: "GMX"},
			{Source: SourceAggregatorService, Symbol: "GMX"},
		}},
		{ID: AssetEsGMX, Decimals: 18, Address: "0xf42Ae1D54fd613C9bb14810b0588FaAa09a426cA", Rule: RuleZeroValue},
		{ID: AssetGLP, Decimals: 18, Address: "0x4277f8F2c384827B5273592FF7CeBd9f2C1ac258", Rule: RulePoolShare},
		{ID: AssetBUSD, Decimals: 18, Rule: RuleFixedOne},
	}
}

// GMXIndexAssets tokens backing the pool share, in the order the vault is queried.
var GMXIndexAssets = []Asset{AssetWBTC, AssetWETH, AssetLINK, AssetUNI, AssetFRAX, AssetUSDT, AssetUSDC, AssetDAI}

// ProtocolStakedAssets staked protocol tokens, in reporting order.
var ProtocolStakedAssets = []Asset{AssetGMX, AssetEsGMX, AssetGLP}

// WalletAssets balances read from the self-custodied wallet, in reporting order.
var WalletAssets = []Asset{
	AssetWBTC, AssetWETH, AssetETH, AssetFRAX, AssetLINK, AssetGMX,
	AssetUSDT, AssetUSDC, AssetUNI, AssetDAI, AssetEsGMX,
}

// DefaultHedgePairs tracked futures pairs, in reporting order.
var DefaultHedgePairs = []string{
	"BTCUSDT", "BTCBUSD", "ETHUSDT", "ETHBUSD",
	"LINKUSDT", "LINKBUSD", "UNIUSDT", "UNIBUSD",
}

// Registry resolved set of assets known to the valuation pipeline.
type Registry struct {
	order  []Asset
	assets map[Asset]AssetInfo
}

// NewRegistry builds the default registry, replacing token addresses found in overrides.
func NewRegistry(overrides map[Asset]string) (*Registry, error) {
	infos := defaultAssets()
	r := &Registry{
		order:  make([]Asset, 0, len(infos)),
		assets: make(map[Asset]AssetInfo, len(infos)),
	}
	for _, info := range infos {
		r.order = append(r.order, info.ID)
		r.assets[info.ID] = info
	}

	keys := make([]string, 0, len(overrides))
	for id := range overrides {
		keys = append(keys, string(id))
	}
	sort.Strings(keys)

	for _, key := range keys {
		id := Asset(key)
		info, ok := r.assets[id]
		if !ok {
			return nil, errors.Errorf("address override for unknown asset %q", key)
		}
		if info.Native {
			return nil, errors.Errorf("asset %q is native and has no contract address", key)
		}
		info.Address = overrides[id]
		r.assets[id] = info
	}

	return r, nil
}

// Get returns the asset description.
func (r *Registry) Get(id Asset) (AssetInfo, bool) {
	info, ok := r.assets[id]
	return info, ok
}

// Lookup returns the asset description by symbol.
func (r *Registry) Lookup(symbol string) (AssetInfo, bool) {
	return r.Get(Asset(symbol))
}

// Assets returns every asset in registry order.
func (r *Registry) Assets() []AssetInfo {
	out := make([]AssetInfo, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.assets[id])
	}
	return out
}

// Select returns the descriptions of ids in the given order.
func (r *Registry) Select(ids []Asset) ([]AssetInfo, error) {
	out := make([]AssetInfo, 0, len(ids))
	for _, id := range ids {
		info, ok := r.assets[id]
		if !ok {
			return nil, errors.Errorf("asset %q is not registered", id)
		}
		out = append(out, info)
	}
	return out, nil
}

// QuoteRequests lists the distinct symbols source must price for assets, in first-seen order.
// The address is taken from the registered asset of the same symbol, if any.
func (r *Registry) QuoteRequests(source PriceSource, assets []AssetInfo) []QuoteRequest {
	seen := make(map[string]struct{})
	var out []QuoteRequest
	for _, asset := range assets {
		for _, ref := range asset.Quotes {
			if ref.Source != source {
				continue
			}
			if _, dup := seen[ref.Symbol]; dup {
				continue
			}
			seen[ref.Symbol] = struct{}{}

			req := QuoteRequest{Symbol: ref.Symbol}
			if quoted, ok := r.Lookup(ref.Symbol); ok {
				req.Address = quoted.Address
			}
			out = append(out, req)
		}
	}
	return out
}
