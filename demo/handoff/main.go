package main

import (
	"context"
	"fmt"
	"os"

	swarm "github.com/agentswarm/swarm-go"
)

func main() {
	client, err := swarm.NewDefaultSwarm()
	if err != nil {
		fmt.Printf("Failed to create client: %v\n", err)
		os.Exit(1)
	}

	supportAgent := swarm.NewAgent("Support Agent").WithInstructions(`
		You are a first-line support assistant. Answer general product questions yourself.
		If the user asks about refunds, charges or invoices, immediately use the
		transferToBillingAgent function instead of answering.
	`)

	billingAgent := swarm.NewAgent("Billing Agent").WithInstructions(`
		You are a billing specialist. Handle questions about refunds, charges and
		invoices. Ask for the order number if the user has not provided one.
	`)

	transferToBillingAgent := swarm.NewAgentFunction(
		"transferToBillingAgent",
		"Transfer the conversation to the billing specialist for refund, charge or invoice questions.",
		func(args map[string]interface{}) (interface{}, error) {
			return &swarm.Result{
				Value: "Transferring to the billing specialist...",
				Agent: billingAgent,
			}, nil
		},
		[]swarm.Parameter{},
	)
	supportAgent.AddFunction(transferToBillingAgent)

	messages := []map[string]interface{}{
		{
			"role":    "user",
			"content": "I was charged twice last month, can I get a refund?",
		},
	}

	ctx := context.Background()
	response, err := client.Run(ctx, supportAgent, messages, nil, "", false, true, 10, true, false)
	if err != nil {
		fmt.Printf("Error during conversation: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nConversation:")
	fmt.Println("-------------")
	for _, msg := range response.Messages {
		sender, _ := msg["role"].(string)
		if msg["sender"] != nil {
			sender, _ = msg["sender"].(string)
		}
		content, _ := msg["content"].(string)
		fmt.Printf("%s: %s\n", sender, content)
	}
}
