package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/bioqa/manager/internal/models"
	"github.com/bioqa/manager/internal/remote"
	"github.com/bioqa/manager/internal/repository"
	"github.com/bioqa/manager/internal/tasks"
)

// answerResultCap bounds stored answer sets; dispatched answer jobs have no
// caller-provided cap.
const answerResultCap = 250

// Worker consumes dispatched jobs and drives them against the remote
// builder and ranker services.
type Worker struct {
	conn      *amqp.Connection
	store     *tasks.Store
	repos     *repository.RepositoryManager
	builder   *remote.BuilderClient
	ranker    *remote.RankerClient
	poller    *remote.Poller
	queueName string
	logger    *logrus.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(
	conn *amqp.Connection,
	store *tasks.Store,
	repos *repository.RepositoryManager,
	builder *remote.BuilderClient,
	ranker *remote.RankerClient,
	poller *remote.Poller,
	queueName string,
	logger *logrus.Logger,
) *Worker {
	return &Worker{
		conn:      conn,
		store:     store,
		repos:     repos,
		builder:   builder,
		ranker:    ranker,
		poller:    poller,
		queueName: queueName,
		logger:    logger,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var job tasks.Job
				if err := json.Unmarshal(d.Body, &job); err != nil {
					w.logger.WithError(err).Error("Worker failed to decode job")
					_ = d.Nack(false, false)
					continue
				}

				if w.run(workerCtx, &job) {
					// Shutdown interrupted the job; requeue it for the
					// next worker instead of acking it away.
					_ = d.Nack(false, true)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *Worker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

// run executes one job, recording state transitions in the job store. The
// return value reports whether shutdown interrupted the job; interrupted
// jobs keep their current state and must go back on the queue.
func (w *Worker) run(ctx context.Context, job *tasks.Job) (requeue bool) {
	log := w.logger.WithFields(logrus.Fields{
		"job_id":    job.ID,
		"task_name": job.Name,
	})

	if err := w.store.SetState(ctx, job.ID, tasks.StateStarted); err != nil {
		log.WithError(err).Error("Failed to mark job started")
	}

	var err error
	switch job.Name {
	case tasks.KindAnswerQuestion:
		err = w.answerQuestion(ctx, job)
	case tasks.KindUpdateKG:
		err = w.updateKG(ctx, job)
	default:
		err = fmt.Errorf("unknown task kind: %s", job.Name)
	}

	terminal, requeue := jobOutcome(ctx, err)
	if requeue {
		log.Info("Job interrupted by shutdown, requeueing")
		return true
	}

	if err != nil {
		log.WithError(err).Error("Job failed")
	} else {
		log.Info("Job completed")
	}

	// The worker context may already be cancelled; the terminal state must
	// still be recorded or the job stays in the active set forever.
	stateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if stateErr := w.store.SetState(stateCtx, job.ID, terminal); stateErr != nil {
		log.WithError(stateErr).Error("Failed to record job terminal state")
	}
	return false
}

// jobOutcome maps a job execution error to the terminal state to record.
// When the worker context is already cancelled the error came from shutdown
// rather than the job itself, so no terminal state applies and the job is
// requeued.
func jobOutcome(ctx context.Context, err error) (tasks.State, bool) {
	if err == nil {
		return tasks.StateSuccess, false
	}
	if ctx.Err() != nil {
		return "", true
	}
	if errors.Is(err, remote.ErrRemoteJobCancelled) {
		return tasks.StateRevoked, false
	}
	return tasks.StateFailure, false
}

// answerQuestion submits the question to the ranker, waits for completion,
// fetches the result and persists it as a new answer set.
func (w *Worker) answerQuestion(ctx context.Context, job *tasks.Job) error {
	question, err := w.questionForJob(job)
	if err != nil {
		return err
	}

	taskID, err := w.ranker.Submit(ctx, question.MachineQuestion, answerResultCap)
	if err != nil {
		return err
	}

	if err := w.poller.AwaitCompletion(ctx, w.ranker.StatusFunc(taskID)); err != nil {
		return err
	}

	result, err := w.ranker.Result(ctx, taskID)
	if err != nil {
		return err
	}

	answerSet := &models.AnswerSet{
		QuestionHash: question.Hash,
		Data:         models.JSONB(result),
	}
	if err := w.repos.AnswerSet.Create(answerSet); err != nil {
		return fmt.Errorf("failed to persist answer set: %w", err)
	}
	return nil
}

// updateKG asks the builder to refresh the knowledge graph for the question
// and waits for it to finish.
func (w *Worker) updateKG(ctx context.Context, job *tasks.Job) error {
	question, err := w.questionForJob(job)
	if err != nil {
		return err
	}

	taskID, err := w.builder.Submit(ctx, question.MachineQuestion)
	if err != nil {
		return err
	}

	return w.poller.AwaitCompletion(ctx, w.builder.StatusFunc(taskID))
}

func (w *Worker) questionForJob(job *tasks.Job) (*models.Question, error) {
	hash := job.QuestionHash()
	if hash == "" {
		return nil, fmt.Errorf("job %s carries no question hash", job.ID)
	}
	question, err := w.repos.Question.GetByHash(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve question for job: %w", err)
	}
	return question, nil
}
