package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastpai-be/internal/dto"
	"fastpai-be/pkg/rag/session"
)

type fakeAssistant struct {
	documents      int
	municipalities []string
	err            error
}

func (f *fakeAssistant) OpenSession() (*session.Session, dto.OutboundEnvelope) {
	return session.New(4), dto.NewWelcomeEnvelope("ciao")
}
func (f *fakeAssistant) HandleFrame(context.Context, *session.Session, []byte) interface{} {
	return nil
}
func (f *fakeAssistant) CloseSession(*session.Session) {}
func (f *fakeAssistant) CountDocuments(context.Context) (int, error) {
	return f.documents, f.err
}
func (f *fakeAssistant) Municipalities(context.Context) ([]string, error) {
	return f.municipalities, f.err
}

type fixedCount int

func (c fixedCount) Count() int { return int(c) }

func newApp(svc *fakeAssistant, sessions int) *fiber.App {
	app := fiber.New()
	NewAssistantController(svc, fixedCount(sessions)).RegisterRoutes(app.Group("/api"))
	return app
}

func TestHealth(t *testing.T) {
	app := newApp(&fakeAssistant{documents: 12}, 3)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]interface{}{"status": "ok", "documents": 12.0, "sessions": 3.0}, body)
}

func TestHealth_StoreDown(t *testing.T) {
	app := newApp(&fakeAssistant{err: errors.New("db down")}, 0)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestMunicipalities(t *testing.T) {
	app := newApp(&fakeAssistant{municipalities: []string{"bari", "roma"}}, 0)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/municipalities", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body dto.MunicipalitiesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"bari", "roma"}, body.Municipalities)
}
