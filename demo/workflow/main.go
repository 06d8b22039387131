package main

import (
	"context"
	"fmt"
	"os"
	"reflect"

	swarm "github.com/agentswarm/swarm-go"
)

func main() {
	workflow := &swarm.SimpleFlow{
		Name:     "incident-report",
		Model:    "gpt-4o",
		MaxTurns: 30,
		System:   "You are part of an incident response pipeline. Return structured JSON at every step.",
		Steps: []swarm.SimpleFlowStep{
			{
				Name:         "collect-metrics",
				Instructions: "Fetch the error metrics for the given service and return them in JSON format.",
				Inputs: map[string]interface{}{
					"service": "checkout",
				},
			},
			{
				Name:         "write-report",
				Instructions: "Analyze the metrics from the previous step and write an incident report with a severity rating, in JSON format.",
			},
		},
	}

	metricsFunc := swarm.NewAgentFunction(
		"getErrorMetrics",
		"Get the recent error metrics for a service",
		func(args map[string]interface{}) (interface{}, error) {
			service, ok := args["service"].(string)
			if !ok {
				return nil, fmt.Errorf("service not provided")
			}
			return map[string]interface{}{
				"service":    service,
				"error_rate": 0.12,
				"p99_ms":     2300,
				"window":     "15m",
			}, nil
		},
		[]swarm.Parameter{
			{Name: "service", Type: reflect.TypeOf(""), Required: true, Description: "Service name"},
		},
	)

	workflow.Steps[0].Functions = append(workflow.Steps[0].Functions, metricsFunc)

	if err := workflow.Save("incident-report.yaml"); err != nil {
		fmt.Printf("Failed to save workflow: %v\n", err)
		os.Exit(1)
	}

	client, err := swarm.NewDefaultSwarm()
	if err != nil {
		fmt.Printf("Failed to create client: %v\n", err)
		os.Exit(1)
	}

	result, _, err := workflow.Run(context.Background(), client)
	if err != nil {
		fmt.Printf("Failed to run workflow: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(result)
}
