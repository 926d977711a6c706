package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/demandcast/demandcast/internal/logging"
	"github.com/demandcast/demandcast/internal/models"
)

func TestErrorHandler_FiberError(t *testing.T) {
	logger := logging.NewDevelopment()

	tests := []struct {
		name           string
		fiberError     *fiber.Error
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:           "BadRequest error",
			fiberError:     fiber.ErrBadRequest,
			expectedStatus: fiber.StatusBadRequest,
			expectedMsg:    "Bad Request",
		},
		{
			name:           "Unauthorized error",
			fiberError:     fiber.ErrUnauthorized,
			expectedStatus: fiber.StatusUnauthorized,
			expectedMsg:    "Unauthorized",
		},
		{
			name:           "NotFound error",
			fiberError:     fiber.ErrNotFound,
			expectedStatus: fiber.StatusNotFound,
			expectedMsg:    "Not Found",
		},
		{
			name:           "ServiceUnavailable error",
			fiberError:     fiber.ErrServiceUnavailable,
			expectedStatus: fiber.StatusServiceUnavailable,
			expectedMsg:    "Service Unavailable",
		},
		{
			name:           "Custom fiber error",
			fiberError:     fiber.NewError(fiber.StatusTeapot, "I'm a teapot"),
			expectedStatus: fiber.StatusTeapot,
			expectedMsg:    "I'm a teapot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{
				ErrorHandler: ErrorHandler(logger),
			})

			app.Get("/test", func(c *fiber.Ctx) error {
				return tt.fiberError
			})

			req := httptest.NewRequest("GET", "/test", nil)
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("Failed to test request: %v", err)
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, resp.StatusCode)
			}

			body, _ := io.ReadAll(resp.Body)
			var errResp models.ErrorResponse
			if err := json.Unmarshal(body, &errResp); err != nil {
				t.Fatalf("Failed to unmarshal response: %v", err)
			}

			if errResp.Error.Message != tt.expectedMsg {
				t.Errorf("Expected message %q, got %q", tt.expectedMsg, errResp.Error.Message)
			}

			if errResp.Error.Code != "ERROR" {
				t.Errorf("Expected code 'ERROR', got %q", errResp.Error.Code)
			}

			if errResp.Error.Path != "/test" {
				t.Errorf("Expected path '/test', got %q", errResp.Error.Path)
			}
		})
	}
}

func TestErrorHandler_GenericError(t *testing.T) {
	logger := logging.NewDevelopment()

	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(logger),
	})

	// Handler that returns a generic Go error (not fiber.Error)
	app.Get("/test", func(c *fiber.Ctx) error {
		return errors.New("something went wrong")
	})

	req := httptest.NewRequest("GET", "/test", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Generic errors should return 500 Internal Server Error
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Errorf("Expected status %d, got %d", fiber.StatusInternalServerError, resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var errResp models.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if errResp.Error.Message != "Internal Server Error" {
		t.Errorf("Expected message 'Internal Server Error', got %q", errResp.Error.Message)
	}
}

func TestErrorHandler_ResponseFormat(t *testing.T) {
	logger := logging.NewDevelopment()

	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(logger),
	})

	app.Get("/test", func(c *fiber.Ctx) error {
		return fiber.ErrBadRequest
	})

	req := httptest.NewRequest("GET", "/test", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Check content type is JSON
	contentType := resp.Header.Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got %q", contentType)
	}

	body, _ := io.ReadAll(resp.Body)
	var rawResp map[string]interface{}
	if err := json.Unmarshal(body, &rawResp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	errorObj, exists := rawResp["error"]
	if !exists {
		t.Fatal("Response should have 'error' key")
	}

	errorMap, ok := errorObj.(map[string]interface{})
	if !ok {
		t.Fatal("Error object should be a map")
	}

	if _, exists := errorMap["code"]; !exists {
		t.Error("Error object should have 'code' field")
	}

	if _, exists := errorMap["message"]; !exists {
		t.Error("Error object should have 'message' field")
	}
}
