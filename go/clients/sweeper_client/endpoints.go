package sweeper_client

const (
	// Base URL
	BaseURL = "https://api.bybitcoinsweeper.com/api"

	// API Endpoints
	LoginEndpoint     = "/auth/login"
	UserInfoEndpoint  = "/users/me"
	StartGameEndpoint = "/games/start"
	WinGameEndpoint   = "/games/win"
	LoseGameEndpoint  = "/games/lose"

	// Headers
	AuthorizationHeader = "Authorization"
	InitDataHeader      = "tl-init-data"
	DefaultUserAgent    = "Mozilla/5.0"

	defaultErrorMessage = "Unexpected error"
)
