package v1

import (
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/pedalhaus/pedalhaus/agent"
	"github.com/pedalhaus/pedalhaus/server/profile"
	"github.com/pedalhaus/pedalhaus/store"
)

// APIV1Service owns the /api/v1 route group.
type APIV1Service struct {
	Profile  *profile.Profile
	Sessions *store.Store
	Agent    *agent.Orchestrator
}

func NewAPIV1Service(profile *profile.Profile, sessions *store.Store, agent *agent.Orchestrator) *APIV1Service {
	return &APIV1Service{
		Profile:  profile,
		Sessions: sessions,
		Agent:    agent,
	}
}

// Register attaches all v1 routes to the echo instance.
func (s *APIV1Service) Register(e *echo.Echo) {
	e.GET("/health", s.health)
	s.registerConversationRoutes(e)
}

func (s *APIV1Service) health(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
