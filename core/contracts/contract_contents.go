package contracts

import (
	"bytes"
	_ "embed"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Multicall3Address is the canonical Multicall3 deployment, identical on
// every EVM chain the protocol runs on.
var Multicall3Address = common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")

// View functions of a deployed trade pool (market) contract.
const (
	MethodUserLiquidity      = "userLiquidity"
	MethodClaimed            = "claimed"
	MethodGetDynamicPayout   = "getDynamicPayout"
	MethodUserVotes          = "userVotes"
	MethodUserVotesInEscrow  = "userVotesInEscrow"
	MethodUserAmountInEscrow = "userAmountInEscrow"
	MethodGetCurrentPrice    = "getCurrentPrice"
	MethodTotalLiquidity     = "totalLiquidity"
	MethodLiquidityShare     = "liquidityShare"
	MethodBaseTokenDecimals  = "baseTokenDecimals"
)

// ERC-20 and Multicall3 views used for wallet balances.
const (
	MethodBalanceOf     = "balanceOf"
	MethodDecimals      = "decimals"
	MethodSymbol        = "symbol"
	MethodGetEthBalance = "getEthBalance"
	MethodAggregate3    = "aggregate3"
)

//go:embed trade_pool.abi.json
var TradePoolABIContent []byte

//go:embed erc20.abi.json
var ERC20ABIContent []byte

//go:embed multicall3.abi.json
var Multicall3ABIContent []byte

var (
	TradePoolABI  = mustParse("trade pool", TradePoolABIContent)
	ERC20ABI      = mustParse("erc20", ERC20ABIContent)
	Multicall3ABI = mustParse("multicall3", Multicall3ABIContent)
)

func mustParse(name string, content []byte) *abi.ABI {
	parsed, err := abi.JSON(bytes.NewReader(content))
	if err != nil {
		panic(name + " abi parse: " + err.Error())
	}
	return &parsed
}
