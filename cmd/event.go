package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/benefit-management/internal/core/events"
	"github.com/frahmantamala/benefit-management/internal/notification"
	"github.com/frahmantamala/benefit-management/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Publish a test notification event",
	Long:  `Publish a sample benefit event through the event bus to verify the notification webhook`,
	Run: func(cmd *cobra.Command, args []string) {
		publishTestEvent()
	},
}

func publishTestEvent() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.LoggerWrapper()

	bus := events.NewEventBus(lg)
	dispatcher := notification.NewDispatcher(notification.Config{
		WebhookURL: config.Notification.WebhookURL,
		Timeout:    config.Notification.Timeout,
	}, lg)
	dispatcher.Register(bus)

	event := events.NewBenefitSubmittedEvent("test-request", "emp-001", "fitness", decimal.NewFromInt(100))
	if err := bus.PublishSync(context.Background(), event); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to publish event: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Test event published")
}
