package main

import (
	"fmt"
	"reflect"

	swarm "github.com/agentswarm/swarm-go"
)

func main() {
	// Weather agent backed by Gemini. NewDefaultSwarm picks the backend
	// from environment credentials; set GEMINI_API_KEY to use Gemini.
	agent := swarm.NewAgent("Weather Agent").
		WithModel("gemini-1.5-pro").
		WithInstructions("You are a helpful agent.")

	agent.AddFunction(swarm.NewAgentFunction(
		"getWeather",
		"Get the current weather in a given location. Location MUST be a city.",
		func(args map[string]interface{}) (interface{}, error) {
			location, ok := args["location"].(string)
			if !ok || location == "" {
				return nil, fmt.Errorf("location not provided")
			}
			when, _ := args["time"].(string)
			return getWeather(location, when), nil
		},
		[]swarm.Parameter{
			{Name: "location", Type: reflect.TypeOf(""), Description: "The city to look up", Required: true},
			{Name: "time", Type: reflect.TypeOf(""), Description: "Time of the forecast, defaults to now"},
		},
	))

	swarm.RunDemoLoop(agent, nil, false, false)
}
