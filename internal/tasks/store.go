package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// ErrJobNotFound is returned when a job id is unknown to the store.
var ErrJobNotFound = errors.New("job not found")

const jobsKey = "tasks:jobs"

// Store is the job status source: a redis-backed view over all in-flight
// and completed background jobs. It holds no local state; concurrent
// readers operate on snapshots.
type Store struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewStore(client *redis.Client, logger *logrus.Logger) *Store {
	return &Store{
		client: client,
		logger: logger,
	}
}

// Save writes the full job record.
func (s *Store) Save(ctx context.Context, job *Job) error {
	job.UpdatedAt = time.Now()

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := s.client.HSet(ctx, jobsKey, job.ID, data).Err(); err != nil {
		return fmt.Errorf("failed to save job record: %w", err)
	}
	return nil
}

// Get loads one job record by id.
func (s *Store) Get(ctx context.Context, jobID string) (*Job, error) {
	data, err := s.client.HGet(ctx, jobsKey, jobID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to load job record: %w", err)
	}

	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job record: %w", err)
	}
	return &job, nil
}

// List returns a snapshot of all job records, oldest first.
func (s *Store) List(ctx context.Context) ([]Job, error) {
	entries, err := s.client.HGetAll(ctx, jobsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list job records: %w", err)
	}

	jobs := make([]Job, 0, len(entries))
	for id, data := range entries {
		var job Job
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			s.logger.WithError(err).WithField("job_id", id).Warn("Skipping unreadable job record")
			continue
		}
		jobs = append(jobs, job)
	}

	// HGetAll ordering is arbitrary; present jobs in creation order.
	sortByCreation(jobs)

	return jobs, nil
}

func sortByCreation(jobs []Job) {
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
}

// SetState transitions a job to the given state.
func (s *Store) SetState(ctx context.Context, jobID string, state State) error {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return err
	}
	job.State = state
	return s.Save(ctx, job)
}

// Remove deletes a job record. Used to roll back a dispatch whose publish
// never reached the broker.
func (s *Store) Remove(ctx context.Context, jobID string) error {
	return s.client.HDel(ctx, jobsKey, jobID).Err()
}
