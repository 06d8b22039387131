package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
)

const openWeatherMapURL = "http://api.openweathermap.org/data/2.5/weather"

// httpDoer is the subset of http.Client the weather lookup needs,
// injectable for tests.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

var weatherHTTPClient httpDoer = http.DefaultClient

// owmResponse is the slice of the OpenWeatherMap payload the lookup reads.
type owmResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
}

// getWeather returns the current weather for a city as a JSON string.
// With OPENWEATHERMAP_API_KEY set it queries OpenWeatherMap; on any
// failure (missing key, network error, malformed payload) it falls back
// to mock data. Failures are logged, never returned.
func getWeather(location, when string) string {
	if when == "" {
		when = "now"
	}

	apiKey := os.Getenv("OPENWEATHERMAP_API_KEY")
	if apiKey != "" {
		result, err := fetchWeather(location, when, apiKey)
		if err == nil {
			return result
		}
		fmt.Printf("API call failed: %v. Using mock data.\n", err)
	}

	// Mock response as fallback
	mock, _ := json.Marshal(map[string]interface{}{
		"location":    location,
		"temperature": "65",
		"time":        when,
	})
	return string(mock)
}

func fetchWeather(location, when, apiKey string) (string, error) {
	params := url.Values{}
	params.Set("q", location)
	params.Set("appid", apiKey)
	params.Set("units", "metric")

	req, err := http.NewRequest(http.MethodGet, openWeatherMapURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := weatherHTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var data owmResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return "", err
	}
	if data.Name == "" {
		return "", fmt.Errorf("malformed payload")
	}

	result, err := json.Marshal(map[string]interface{}{
		"location":    data.Name,
		"temperature": data.Main.Temp,
		"time":        when,
	})
	if err != nil {
		return "", err
	}
	return string(result), nil
}
