package main

import (
	"fmt"
	"reflect"
	"time"

	swarm "github.com/agentswarm/swarm-go"
)

func main() {
	agent := swarm.NewAgent("Assistant").WithModel("gpt-4o").
		WithInstructions("You are a helpful assistant.")

	timeFunc := swarm.NewAgentFunction(
		"getCurrentTime",
		"Get the current time in a given IANA timezone, e.g. Europe/Paris.",
		func(args map[string]interface{}) (interface{}, error) {
			zone, ok := args["timezone"].(string)
			if !ok || zone == "" {
				zone = "UTC"
			}
			loc, err := time.LoadLocation(zone)
			if err != nil {
				return nil, fmt.Errorf("unknown timezone %q: %w", zone, err)
			}
			return time.Now().In(loc).Format(time.RFC1123), nil
		},
		[]swarm.Parameter{{Name: "timezone", Type: reflect.TypeOf("string"), Description: "IANA timezone name"}},
	)

	agent.AddFunction(timeFunc)

	swarm.RunDemoLoop(agent, nil, false, false)
}
