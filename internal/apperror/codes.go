package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Arbitrage-specific error codes
const (
	// Venue access
	CodeProviderError      Code = "PROVIDER_ERROR"
	CodeQuoteUnavailable   Code = "QUOTE_UNAVAILABLE"
	CodeBalanceUnavailable Code = "BALANCE_UNAVAILABLE"

	// Blockchain/Ethereum
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeGasEstimationFailed      Code = "GAS_ESTIMATION_FAILED"

	// CEX (Binance)
	CodeBinanceAPIError      Code = "BINANCE_API_ERROR"
	CodeBinanceRateLimited   Code = "BINANCE_RATE_LIMITED"
	CodeOrderbookFetchFailed Code = "ORDERBOOK_FETCH_FAILED"
	CodeInvalidOrderbook     Code = "INVALID_ORDERBOOK"
	CodeSymbolNotListed      Code = "SYMBOL_NOT_LISTED"

	// DEX (Uniswap)
	CodeUniswapQuoteFailed Code = "UNISWAP_QUOTE_FAILED"
	CodeUnknownToken       Code = "UNKNOWN_TOKEN"
	CodeInvalidQuote       Code = "INVALID_QUOTE"
	CodeContractCallFailed Code = "CONTRACT_CALL_FAILED"

	// Sizing
	CodeInsufficientLiquidity Code = "INSUFFICIENT_LIQUIDITY"
	CodeInvalidTradeSize      Code = "INVALID_TRADE_SIZE"

	// Execution handoff
	CodeExecutionRejected Code = "EXECUTION_REJECTED"
	CodeExecutionNotFound Code = "EXECUTION_NOT_FOUND"
	CodeStoreError        Code = "STORE_ERROR"
	CodePublishFailed     Code = "PUBLISH_FAILED"

	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
