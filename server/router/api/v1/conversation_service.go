package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/pkg/errors"

	"github.com/pedalhaus/pedalhaus/agent"
	"github.com/pedalhaus/pedalhaus/store"
)

type messageRequest struct {
	Message string `json:"message"`
}

type conversationResponse struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
	Message   string `json:"message"`
}

type messageResponse struct {
	SessionID   string                `json:"session_id"`
	Response    string                `json:"response"`
	Products    []agent.ProductRecord `json:"products"`
	LeadCreated bool                  `json:"lead_created"`
}

type turnResponse struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type historyResponse struct {
	SessionID string         `json:"session_id"`
	State     string         `json:"state"`
	History   []turnResponse `json:"history"`
}

func (s *APIV1Service) registerConversationRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/conversations")
	g.POST("", s.createConversation)
	g.POST("/:id/messages", s.postMessage)
	g.GET("/:id", s.getConversation)
	g.DELETE("/:id", s.deleteConversation)
}

func (s *APIV1Service) createConversation(c *echo.Context) error {
	ctx := c.Request().Context()

	sess, err := s.Sessions.Create(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	welcome := agent.WelcomeMessage()
	if _, err := s.Sessions.Update(ctx, sess.ID, func(sess *store.Session) error {
		sess.AppendTurn(store.RoleAssistant, welcome, s.Sessions.MaxTurns())
		return nil
	}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, conversationResponse{
		SessionID: sess.ID,
		State:     string(sess.State),
		Message:   welcome,
	})
}

func (s *APIV1Service) postMessage(c *echo.Context) error {
	id := c.Param("id")

	var req messageRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message required")
	}

	res, err := s.Agent.ProcessMessage(c.Request().Context(), id, req.Message)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "conversation not found or expired")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, messageResponse{
		SessionID:   id,
		Response:    res.Text,
		Products:    res.Products,
		LeadCreated: res.LeadCreated,
	})
}

func (s *APIV1Service) getConversation(c *echo.Context) error {
	id := c.Param("id")

	sess, err := s.Sessions.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "conversation not found or expired")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	history := make([]turnResponse, 0, len(sess.History))
	for _, t := range sess.History {
		history = append(history, turnResponse{
			Role:      t.Role,
			Text:      t.Text,
			Timestamp: t.Timestamp,
		})
	}
	return c.JSON(http.StatusOK, historyResponse{
		SessionID: sess.ID,
		State:     string(sess.State),
		History:   history,
	})
}

func (s *APIV1Service) deleteConversation(c *echo.Context) error {
	id := c.Param("id")

	if err := s.Sessions.DeleteStrict(c.Request().Context(), id); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "conversation not found or expired")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
