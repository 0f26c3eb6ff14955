package router

import (
	"github.com/kalenso/kalenso/internal/application/authn"
	"github.com/kalenso/kalenso/internal/application/authz"
	"github.com/kalenso/kalenso/internal/application/calendar"
	"github.com/kalenso/kalenso/internal/application/users"
	"github.com/kalenso/kalenso/internal/container"
	pginfra "github.com/kalenso/kalenso/internal/infrastructure/postgres"
	handlers "github.com/kalenso/kalenso/internal/interface/http"
	"github.com/kalenso/kalenso/internal/router/modules"
)

type Deps struct {
	Authn    *authn.Service
	Authz    *authz.Service
	Users    *users.Service
	Calendar *calendar.Service
}

func buildDeps() Deps {
	cfg := container.GetConfig()
	pool := container.GetPGPool()
	logger := container.GetLogger()

	userRepo := pginfra.NewUserRepository(pool)
	catalogRepo := pginfra.NewCatalogRepository(pool)
	rbacRepo := pginfra.NewRBACRepository(pool)
	eventRepo := pginfra.NewEventRepository(pool)

	authnSvc := &authn.Service{
		Users:  userRepo,
		JWT:    container.GetJWT(),
		Redis:  container.GetRedis(),
		Logger: logger,

		VerifyTTL:   cfg.VerifyTokenTTL,
		VerifyURL:   cfg.VerifyEmailURL,
		ResetTTL:    cfg.ResetTokenTTL,
		ResetURL:    cfg.ResetPasswordURL,
		MailEnabled: cfg.MailSendEnabled,
	}
	if pub := container.GetRabbitPub(); pub != nil {
		authnSvc.Pub = pub
	}
	if g := container.GetGoogle(); g != nil {
		authnSvc.Google = g
	}
	authzSvc := authz.NewService(catalogRepo, rbacRepo, logger)
	usersSvc := users.NewService(userRepo, logger, container.GetGCS(), cfg.GCSBucket, container.GetES(), cfg.ESUsersIndex)
	calendarSvc := calendar.NewService(eventRepo, logger)

	return Deps{Authn: authnSvc, Authz: authzSvc, Users: usersSvc, Calendar: calendarSvc}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) Deps {
	cfg := container.GetConfig()
	jwt := container.GetJWT()
	logger := container.GetLogger()

	deps := buildDeps()

	authHandler := handlers.NewAuthHandler(deps.Authn, logger, cfg.CookieDomain, cfg.CookieSecure)
	userHandler := handlers.NewUserHandler(deps.Users, deps.Authz, logger)
	calendarHandler := handlers.NewCalendarHandler(deps.Calendar, logger)
	adminHandler := handlers.NewAdminHandler(deps.Authz, deps.Users, logger)

	r.Add(modules.NewAuthModule(authHandler, jwt))
	r.Add(modules.NewUserModule(userHandler, jwt, deps.Authz))
	r.Add(modules.NewCalendarModule(calendarHandler, jwt, deps.Authz))
	r.Add(modules.NewAdminModule(adminHandler, jwt, deps.Authz))
	r.Add(modules.NewDebugModule())

	return deps
}
