package worker

import (
	"context"
	"log"

	"agrimarket/internal/broker"
	"agrimarket/internal/service"
)

// SettlementWorker drains the settlement topic and hands each event to the
// orchestrator. Runs detached from the request path: the request that
// produced an event has already returned by the time this worker sees it.
type SettlementWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewSettlementWorker creates a new settlement worker
func NewSettlementWorker(consumer *broker.Consumer, orchestrator *service.SettlementOrchestrator) *SettlementWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderCompleted(orchestrator.HandleOrderCompleted)
	eventHandler.OnRatingCreated(orchestrator.HandleRatingCreated)

	return &SettlementWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *SettlementWorker) Start(ctx context.Context) error {
	log.Println("Starting settlement worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *SettlementWorker) Stop() error {
	log.Println("Stopping settlement worker...")
	return w.consumer.Close()
}
