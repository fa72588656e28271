package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// ErrBrokerUnavailable means the job could not be handed to the execution
// backend. No retry is attempted; resubmission is the caller's call.
var ErrBrokerUnavailable = errors.New("task broker unavailable")

// Dispatcher submits named units of work to the asynchronous execution
// backend and returns a job handle immediately. It never blocks on job
// completion.
type Dispatcher struct {
	conn      *amqp.Connection
	store     *Store
	queueName string
	logger    *logrus.Logger
}

func NewDispatcher(conn *amqp.Connection, store *Store, queueName string, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		conn:      conn,
		store:     store,
		queueName: queueName,
		logger:    logger,
	}
}

// Dispatch records a PENDING job keyed by the question hash and publishes it
// to the dispatch queue. Returns the new job id.
func (d *Dispatcher) Dispatch(ctx context.Context, name, questionHash, questionID, userEmail string) (string, error) {
	job := &Job{
		ID:         uuid.NewString(),
		Name:       name,
		Args:       []string{questionHash},
		QuestionID: questionID,
		UserEmail:  userEmail,
		State:      StatePending,
		CreatedAt:  time.Now(),
	}

	if err := d.store.Save(ctx, job); err != nil {
		return "", err
	}

	if err := d.publish(ctx, job); err != nil {
		// The job never reached the broker; drop the pending record so it
		// does not show up as forever in-flight.
		if removeErr := d.store.Remove(ctx, job.ID); removeErr != nil {
			d.logger.WithError(removeErr).WithField("job_id", job.ID).Warn("Failed to remove unpublished job record")
		}
		return "", fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}

	d.logger.WithFields(logrus.Fields{
		"job_id":        job.ID,
		"task_name":     name,
		"question_hash": questionHash,
	}).Info("Job dispatched")

	return job.ID, nil
}

func (d *Dispatcher) publish(ctx context.Context, job *Job) error {
	ch, err := d.conn.Channel()
	if err != nil {
		return fmt.Errorf("open dispatch channel failed: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		d.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare dispatch queue failed: %w", err)
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job payload failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		d.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish job failed: %w", err)
	}
	return nil
}
