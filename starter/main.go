package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/aswathylr-builds/order-pipeline/codec"
	"github.com/aswathylr-builds/order-pipeline/models"
	"github.com/aswathylr-builds/order-pipeline/workflows"
)

const (
	taskQueue = "order-fulfillment-queue"
)

func main() {
	// Command line flags
	orderID := flag.String("order-id", "", "Order ID to fulfill")
	expedited := flag.Bool("expedited", false, "Start the order as expedited")
	action := flag.String("action", "start", "Action to perform: start, cancel, expedite, query")
	workflowID := flag.String("workflow-id", "", "Workflow ID for signal/query operations")
	flag.Parse()

	// Get configuration from environment variables
	temporalHost := getEnv("TEMPORAL_HOST", "localhost:7233")
	encryptionKey := getEnv("ENCRYPTION_KEY", "")

	// Create Temporal client options
	clientOptions := client.Options{
		HostPort: temporalHost,
	}

	// Enable encryption if a key is configured
	if encryptionKey != "" {
		key, err := codec.ParseKey(encryptionKey)
		if err != nil {
			log.Fatalf("Invalid encryption key: %v", err)
		}
		dataConverter, err := codec.NewEncryptionDataConverter(key)
		if err != nil {
			log.Fatalf("Failed to create encryption data converter: %v", err)
		}
		clientOptions.DataConverter = dataConverter
		log.Println("Payload encryption enabled for starter")
	}

	// Create the Temporal client
	c, err := client.Dial(clientOptions)
	if err != nil {
		log.Fatalf("Unable to create Temporal client: %v", err)
	}
	defer c.Close()

	ctx := context.Background()

	switch *action {
	case "start":
		startWorkflow(ctx, c, *orderID, *expedited)
	case "cancel":
		sendSignal(ctx, c, *workflowID, models.SignalCancel)
	case "expedite":
		sendSignal(ctx, c, *workflowID, models.SignalExpedite)
	case "query":
		queryWorkflow(ctx, c, *workflowID)
	default:
		log.Fatalf("Unknown action: %s", *action)
	}
}

func startWorkflow(ctx context.Context, c client.Client, orderID string, expedited bool) {
	if orderID == "" {
		log.Fatal("order-id is required: pass the ID of a confirmed order")
	}

	input := models.FulfillmentInput{
		OrderID:     orderID,
		IsExpedited: expedited,
	}

	// Workflow options
	workflowOptions := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("order-fulfillment-%s", orderID),
		TaskQueue: taskQueue,
	}

	// Start workflow
	we, err := c.ExecuteWorkflow(ctx, workflowOptions, workflows.FulfillmentWorkflow, input)
	if err != nil {
		log.Fatalf("Unable to execute workflow: %v", err)
	}

	log.Printf("Started fulfillment workflow successfully")
	log.Printf("  Workflow ID: %s", we.GetID())
	log.Printf("  Run ID: %s", we.GetRunID())
	log.Printf("  Order ID: %s", orderID)
	log.Printf("  Expedited: %v", expedited)
	log.Println()
	log.Println("To query the workflow status, run:")
	log.Printf("  go run starter/main.go -action=query -workflow-id=%s", we.GetID())
	log.Println()
	log.Println("To expedite the order, run:")
	log.Printf("  go run starter/main.go -action=expedite -workflow-id=%s", we.GetID())
	log.Println()
	log.Println("To cancel the order, run:")
	log.Printf("  go run starter/main.go -action=cancel -workflow-id=%s", we.GetID())
}

func sendSignal(ctx context.Context, c client.Client, workflowID, signalName string) {
	if workflowID == "" {
		log.Fatal("workflow-id is required for signal operations")
	}

	err := c.SignalWorkflow(ctx, workflowID, "", signalName, nil)
	if err != nil {
		log.Fatalf("Unable to signal workflow: %v", err)
	}

	log.Printf("Signal '%s' sent successfully to workflow: %s", signalName, workflowID)
}

func queryWorkflow(ctx context.Context, c client.Client, workflowID string) {
	if workflowID == "" {
		log.Fatal("workflow-id is required for query operations")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	response, err := c.QueryWorkflow(queryCtx, workflowID, "", models.QueryStatus)
	if err != nil {
		log.Fatalf("Unable to query workflow: %v", err)
	}

	var state models.FulfillmentState
	if err := response.Get(&state); err != nil {
		log.Fatalf("Unable to decode query result: %v", err)
	}

	stateJSON, _ := json.MarshalIndent(state, "", "  ")
	log.Println("Workflow Status:")
	fmt.Println(string(stateJSON))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
