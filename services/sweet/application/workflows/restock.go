// Package workflows holds the durable Temporal workflows of the sweet
// bounded context.
package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/ghuser/sweetshop/pkg/logger"
	sweetdomain "github.com/ghuser/sweetshop/services/sweet/domain"
	"github.com/ghuser/sweetshop/services/sweet/domain/models"
)

// RestockReminderInput starts one reminder for a sold-out sweet.
type RestockReminderInput struct {
	SweetID string        `json:"sweet_id"`
	Delay   time.Duration `json:"delay"`
}

// StockLevel is what CheckStock saw in the store.
type StockLevel struct {
	SweetID  string `json:"sweet_id"`
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
	Found    bool   `json:"found"`
}

// RestockReminderResult reports whether a reminder was raised.
type RestockReminderResult struct {
	Stock    StockLevel `json:"stock"`
	Reminded bool       `json:"reminded"`
}

// RestockReminderWorkflow waits in.Delay, then raises a restock reminder if
// the sweet still exists and is still out of stock.
func RestockReminderWorkflow(ctx workflow.Context, in RestockReminderInput) (RestockReminderResult, error) {
	if err := workflow.Sleep(ctx, in.Delay); err != nil {
		return RestockReminderResult{}, err
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 5,
		},
	})

	var a *Activities
	var stock StockLevel
	if err := workflow.ExecuteActivity(ctx, a.CheckStock, in.SweetID).Get(ctx, &stock); err != nil {
		return RestockReminderResult{}, err
	}
	if !stock.Found || stock.Quantity > 0 {
		return RestockReminderResult{Stock: stock}, nil
	}
	if err := workflow.ExecuteActivity(ctx, a.RemindRestock, stock).Get(ctx, nil); err != nil {
		return RestockReminderResult{Stock: stock}, err
	}
	return RestockReminderResult{Stock: stock, Reminded: true}, nil
}

// SweetReader is the part of the repository the activities need.
type SweetReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Sweet, error)
}

// Activities are the side-effecting steps of RestockReminderWorkflow.
type Activities struct {
	Sweets SweetReader
	Log    logger.Logger
}

// CheckStock reads the current stock. A deleted sweet is reported with
// Found=false rather than as an error so the workflow ends quietly.
func (a *Activities) CheckStock(ctx context.Context, sweetID string) (StockLevel, error) {
	id, err := uuid.Parse(sweetID)
	if err != nil {
		return StockLevel{}, temporal.NewNonRetryableApplicationError("bad sweet id", "InvalidSweetID", err)
	}
	s, err := a.Sweets.GetByID(ctx, id)
	if errors.Is(err, sweetdomain.ErrSweetNotFound) {
		return StockLevel{SweetID: sweetID}, nil
	}
	if err != nil {
		return StockLevel{}, fmt.Errorf("check stock: %w", err)
	}
	return StockLevel{
		SweetID:  sweetID,
		Name:     s.Name.String(),
		Quantity: int64(s.Quantity),
		Found:    true,
	}, nil
}

// RemindRestock raises the reminder as a warning log line.
func (a *Activities) RemindRestock(ctx context.Context, stock StockLevel) error {
	a.Log.WarnContext(ctx, "sweet still out of stock, restock needed",
		"sweet_id", stock.SweetID,
		"name", stock.Name,
	)
	return nil
}

// Register adds the workflow and its activities to w.
func Register(w worker.Registry, acts *Activities) {
	w.RegisterWorkflow(RestockReminderWorkflow)
	w.RegisterActivity(acts)
}

// RestockScheduler starts reminders on a Temporal client.
type RestockScheduler struct {
	client    client.Client
	taskQueue string
	delay     time.Duration
}

func NewRestockScheduler(c client.Client, taskQueue string, delay time.Duration) *RestockScheduler {
	return &RestockScheduler{client: c, taskQueue: taskQueue, delay: delay}
}

// ScheduleRestockReminder starts a reminder for the sweet. The workflow ID is
// derived from the sweet ID, so a sweet that sells out again while a reminder
// is pending gets the running one instead of a second.
func (s *RestockScheduler) ScheduleRestockReminder(ctx context.Context, sweetID uuid.UUID) error {
	opts := client.StartWorkflowOptions{
		ID:        ReminderWorkflowID(sweetID),
		TaskQueue: s.taskQueue,
	}
	in := RestockReminderInput{SweetID: sweetID.String(), Delay: s.delay}
	if _, err := s.client.ExecuteWorkflow(ctx, opts, RestockReminderWorkflow, in); err != nil {
		return fmt.Errorf("start restock reminder for %s: %w", sweetID, err)
	}
	return nil
}

// ReminderWorkflowID is "restock-reminder-{sweet id}".
func ReminderWorkflowID(sweetID uuid.UUID) string {
	return "restock-reminder-" + sweetID.String()
}
