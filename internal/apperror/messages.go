package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeProviderError:      "Market data provider failed",
	CodeQuoteUnavailable:   "Quote unavailable",
	CodeBalanceUnavailable: "Balance unavailable",

	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumRPCError:         "Ethereum RPC call failed",
	CodeGasEstimationFailed:      "Gas estimation failed",

	CodeBinanceAPIError:      "Binance API error",
	CodeBinanceRateLimited:   "Binance rate limit exceeded",
	CodeOrderbookFetchFailed: "Failed to fetch orderbook",
	CodeInvalidOrderbook:     "Invalid orderbook data",
	CodeSymbolNotListed:      "Symbol not listed on exchange",

	CodeUniswapQuoteFailed: "Failed to get Uniswap quote",
	CodeUnknownToken:       "Token not configured",
	CodeInvalidQuote:       "Invalid quote data",
	CodeContractCallFailed: "Smart contract call failed",

	CodeInsufficientLiquidity: "Insufficient liquidity for trade size",
	CodeInvalidTradeSize:      "Invalid trade size",

	CodeExecutionRejected: "Execution rejected",
	CodeExecutionNotFound: "Execution not found",
	CodeStoreError:        "Execution store failure",
	CodePublishFailed:     "Failed to publish execution",

	CodeCircuitOpen: "Circuit breaker is open",
}
