package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
)

type stubDoer struct {
	status int
	body   string
	err    error
}

func (s *stubDoer) Do(req *http.Request) (*http.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(bytes.NewBufferString(s.body)),
	}, nil
}

func TestGetWeatherWithoutCredential(t *testing.T) {
	t.Setenv("OPENWEATHERMAP_API_KEY", "")

	result := getWeather("Paris", "")

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(result), &decoded); err != nil {
		t.Fatalf("Expected JSON result, got %q: %v", result, err)
	}
	if decoded["location"] != "Paris" {
		t.Errorf("Expected location Paris, got %v", decoded["location"])
	}
	if decoded["temperature"] != "65" {
		t.Errorf("Expected mock temperature \"65\", got %v", decoded["temperature"])
	}
	if decoded["time"] != "now" {
		t.Errorf("Expected default time now, got %v", decoded["time"])
	}
}

func TestGetWeatherAPIFailureFallsBack(t *testing.T) {
	t.Setenv("OPENWEATHERMAP_API_KEY", "test-key")
	orig := weatherHTTPClient
	weatherHTTPClient = &stubDoer{err: fmt.Errorf("connection refused")}
	defer func() { weatherHTTPClient = orig }()

	result := getWeather("Berlin", "tomorrow")

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(result), &decoded); err != nil {
		t.Fatalf("Expected JSON result, got %q: %v", result, err)
	}
	if decoded["location"] != "Berlin" {
		t.Errorf("Expected location Berlin, got %v", decoded["location"])
	}
	if decoded["temperature"] != "65" {
		t.Errorf("Expected mock temperature \"65\", got %v", decoded["temperature"])
	}
	if decoded["time"] != "tomorrow" {
		t.Errorf("Expected time tomorrow, got %v", decoded["time"])
	}
}

func TestGetWeatherAPISuccess(t *testing.T) {
	t.Setenv("OPENWEATHERMAP_API_KEY", "test-key")
	orig := weatherHTTPClient
	weatherHTTPClient = &stubDoer{
		status: http.StatusOK,
		body:   `{"name": "Seattle", "main": {"temp": 18.5}}`,
	}
	defer func() { weatherHTTPClient = orig }()

	result := getWeather("Seattle", "")

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(result), &decoded); err != nil {
		t.Fatalf("Expected JSON result, got %q: %v", result, err)
	}
	if decoded["location"] != "Seattle" {
		t.Errorf("Expected location Seattle, got %v", decoded["location"])
	}
	if decoded["temperature"] != 18.5 {
		t.Errorf("Expected temperature 18.5, got %v", decoded["temperature"])
	}
}

func TestGetWeatherMalformedPayloadFallsBack(t *testing.T) {
	t.Setenv("OPENWEATHERMAP_API_KEY", "test-key")
	orig := weatherHTTPClient
	weatherHTTPClient = &stubDoer{status: http.StatusOK, body: `{"cod": 401}`}
	defer func() { weatherHTTPClient = orig }()

	result := getWeather("Nowhere", "")

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(result), &decoded); err != nil {
		t.Fatalf("Expected JSON result, got %q: %v", result, err)
	}
	if decoded["temperature"] != "65" {
		t.Errorf("Expected mock temperature \"65\", got %v", decoded["temperature"])
	}
}
