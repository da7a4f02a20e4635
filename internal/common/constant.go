package common

// Cookie names carrying the access and refresh tokens.
const (
	AccessTokenCookieName  = "access_token"
	RefreshTokenCookieName = "refresh_token"
)

// AuthorizationHeaderName and BearerPrefix are used by non-browser clients.
const (
	AuthorizationHeaderName = "Authorization"
	BearerPrefix            = "Bearer "
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"
