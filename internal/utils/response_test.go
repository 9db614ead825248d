package utils

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestSendSuccess(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", func(c *fiber.Ctx) error {
		return SendSuccess(c, "done", fiber.Map{"value": 1})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload APIResponse
	require.NoError(t, json.Unmarshal(body, &payload))
	require.True(t, payload.Success)
	require.Equal(t, "done", payload.Message)
	require.NotNil(t, payload.Data)
}

func TestSendSuccessWithStatusDefaults(t *testing.T) {
	app := fiber.New()
	app.Post("/created", func(c *fiber.Ctx) error {
		return SendSuccessWithStatus(c, fiber.StatusCreated, "", nil)
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/created", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload APIResponse
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Equal(t, "success", payload.Message)
}

func TestSendError(t *testing.T) {
	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return SendError(c, fiber.StatusConflict, "already there")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload APIResponse
	require.NoError(t, json.Unmarshal(body, &payload))
	require.False(t, payload.Success)
	require.Equal(t, "already there", payload.Message)
}
