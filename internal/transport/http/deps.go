package http

import (
	"github.com/notespace-api/internal/application/auth"
	"github.com/notespace-api/internal/application/otp"
	"github.com/notespace-api/internal/application/refresh"
	jwtinfra "github.com/notespace-api/internal/infrastructure/jwt"
)

// Deps holds the constructed components the router wires into handlers.
// Managers are built in main so the sweeper can share them.
type Deps struct {
	Users       auth.UserStore
	OTP         *otp.Manager
	Refresh     *refresh.Manager
	Mailer      auth.Mailer
	JWTProvider *jwtinfra.Provider
}
