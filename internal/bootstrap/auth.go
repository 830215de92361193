package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loftsec/wicket/config"
	"github.com/loftsec/wicket/internal/adapters/memory"
	redisadapter "github.com/loftsec/wicket/internal/adapters/redis"
	"github.com/loftsec/wicket/internal/data"
	domainauth "github.com/loftsec/wicket/internal/domain/auth"
	"github.com/loftsec/wicket/internal/password"
	"github.com/loftsec/wicket/internal/ports"
	"github.com/loftsec/wicket/internal/service"
	"github.com/redis/go-redis/v9"
)

// AuthStack bundles the constructed authentication and authorization
// services plus the stores they were built on.
type AuthStack struct {
	Verifier *service.Verifier
	Sessions *service.SessionManager
	Gates    *service.GateRegistry
	Guard    *service.Guard
	Hasher   ports.PasswordHasher

	// Users is the backing user store. In memory mode it is the seedable
	// in-memory store; in persistent mode it is the Postgres store.
	Users ports.UserStore
}

// AuthStackDeps carries the infrastructure handles the auth stack may need.
// Pool and Redis may be nil in memory mode.
type AuthStackDeps struct {
	Config *config.AppConfig
	Pool   *pgxpool.Pool
	Redis  redis.UniversalClient
	Logger *slog.Logger
}

// BuildAuthStack wires the credential verifier, session manager, gate
// registry, and guard for the configured store mode.
func BuildAuthStack(deps *AuthStackDeps) (*AuthStack, error) {
	users, sessions, err := buildAuthStores(deps)
	if err != nil {
		return nil, err
	}

	hasher := password.NewArgon2()

	verifier, err := service.NewVerifier(service.VerifierOptions{
		Users:  users,
		Hasher: hasher,
	})
	if err != nil {
		return nil, fmt.Errorf("build verifier: %w", err)
	}

	manager, err := service.NewSessionManager(service.SessionManagerOptions{
		Store: sessions,
		TTL:   deps.Config.Auth.SessionTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("build session manager: %w", err)
	}

	gates := defineGates()

	guard, err := service.NewGuard(service.GuardOptions{
		Sessions: manager,
		Gates:    gates,
	})
	if err != nil {
		return nil, fmt.Errorf("build guard: %w", err)
	}

	return &AuthStack{
		Verifier: verifier,
		Sessions: manager,
		Gates:    gates,
		Guard:    guard,
		Hasher:   hasher,
		Users:    users,
	}, nil
}

// defineGates registers every capability the application routes bind to.
// Route binding re-checks these names and refuses to start on a miss, so new
// capabilities must be defined here before a route can reference them.
func defineGates() *service.GateRegistry {
	gates := service.NewGateRegistry()
	gates.Define(domainauth.CapabilityArticlesView, service.AnyAuthenticated())
	gates.Define(domainauth.CapabilityArticlesEdit, service.RequireRole(domainauth.RolePrivileged))
	return gates
}

func buildAuthStores(deps *AuthStackDeps) (ports.UserStore, ports.SessionStore, error) {
	switch deps.Config.Auth.Store {
	case config.StoreModeMemory:
		return memory.NewUserStore(), memory.NewSessionStore(), nil
	case config.StoreModePersistent:
		if deps.Pool == nil {
			return nil, nil, errors.New("persistent auth store requires a database connection")
		}
		if deps.Redis == nil {
			return nil, nil, errors.New("persistent auth store requires a redis connection")
		}
		return data.NewUserStore(deps.Pool), redisadapter.NewSessionStore(deps.Redis), nil
	default:
		return nil, nil, fmt.Errorf("unknown auth store mode %q", deps.Config.Auth.Store)
	}
}
