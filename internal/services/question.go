package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bioqa/manager/internal/models"
	"github.com/bioqa/manager/internal/remote"
	"github.com/bioqa/manager/internal/repository"
	"github.com/bioqa/manager/internal/tasks"
	"github.com/bioqa/manager/pkg/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// JobDispatcher hands a named job to the execution backend and returns its
// id without blocking on completion.
type JobDispatcher interface {
	Dispatch(ctx context.Context, name, questionHash, questionID, userEmail string) (string, error)
}

// JobSource is a read-only view over the tracked background jobs.
type JobSource interface {
	List(ctx context.Context) ([]tasks.Job, error)
}

// AnswerCache caches the latest answer set per question hash.
type AnswerCache interface {
	CacheAnswerSet(ctx context.Context, questionHash string, payload interface{}, expiration time.Duration) error
	GetCachedAnswerSet(ctx context.Context, questionHash string, result interface{}) error
	InvalidateAnswerSetCache(ctx context.Context, questionHash string) error
}

// QuestionService owns the lifecycle of stored questions and the
// non-blocking dispatch of their background jobs.
type QuestionService struct {
	repos      *repository.RepositoryManager
	store      JobSource
	dispatcher JobDispatcher
	ranker     *remote.RankerClient
	cache      AnswerCache
	logger     *logrus.Logger
}

func NewQuestionService(
	repos *repository.RepositoryManager,
	store JobSource,
	dispatcher JobDispatcher,
	ranker *remote.RankerClient,
	cache AnswerCache,
	logger *logrus.Logger,
) *QuestionService {
	return &QuestionService{
		repos:      repos,
		store:      store,
		dispatcher: dispatcher,
		ranker:     ranker,
		cache:      cache,
		logger:     logger,
	}
}

// Create stores a new question owned by the caller. The question id and the
// content hash are assigned here.
func (s *QuestionService) Create(identity models.Identity, name, notes, naturalQuestion string, machineQuestion models.MachineQuestion) (*models.Question, error) {
	if identity.Email == "" {
		return nil, ErrUnauthorized
	}

	hash, err := utils.QuestionHash(machineQuestion)
	if err != nil {
		return nil, fmt.Errorf("failed to hash machine question: %w", err)
	}

	question := &models.Question{
		ID:              uuid.NewString(),
		Hash:            hash,
		Name:            name,
		Notes:           notes,
		NaturalQuestion: naturalQuestion,
		OwnerEmail:      identity.Email,
		MachineQuestion: machineQuestion,
	}
	if err := s.repos.Question.Create(question); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"question_id":   question.ID,
		"question_hash": question.Hash,
		"owner":         question.OwnerEmail,
	}).Info("Question created")

	return question, nil
}

// Get returns a question together with its owner and the metadata of every
// stored answer set, oldest first. Answer payloads are not included.
func (s *QuestionService) Get(id string) (*models.QuestionResponse, error) {
	question, err := s.loadQuestion(id)
	if err != nil {
		return nil, err
	}

	answerSets, err := s.repos.AnswerSet.ListByQuestionHash(question.Hash)
	if err != nil {
		return nil, err
	}

	metas := make([]models.AnswerSetMeta, 0, len(answerSets))
	for i := range answerSets {
		metas = append(metas, answerSets[i].Meta())
	}

	return &models.QuestionResponse{
		Question:      question,
		Owner:         question.OwnerEmail,
		AnswerSetList: metas,
	}, nil
}

// ListByOwner returns the caller's questions.
func (s *QuestionService) ListByOwner(email string) ([]models.Question, error) {
	return s.repos.Question.ListByOwner(email)
}

// Edit updates the mutable presentation fields of a question. Only the
// owner or an admin may edit; authorization is checked before any write.
func (s *QuestionService) Edit(identity models.Identity, id string, req models.EditQuestionRequest) (*models.Question, error) {
	question, err := s.loadQuestion(id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(identity, question); err != nil {
		return nil, err
	}

	question.Name = req.Name
	question.Notes = req.Notes
	question.NaturalQuestion = req.NaturalQuestion
	if err := s.repos.Question.Update(question); err != nil {
		return nil, err
	}
	return question, nil
}

// Delete removes a question. Only the owner or an admin may delete.
func (s *QuestionService) Delete(identity models.Identity, id string) error {
	question, err := s.loadQuestion(id)
	if err != nil {
		return err
	}
	if err := s.authorize(identity, question); err != nil {
		return err
	}
	return s.repos.Question.Delete(id)
}

// Feedback returns all feedback left on a question, oldest first.
func (s *QuestionService) Feedback(id string) ([]models.Feedback, error) {
	if _, err := s.loadQuestion(id); err != nil {
		return nil, err
	}
	return s.repos.Feedback.ListByQuestion(id)
}

// AddFeedback appends a feedback note from the caller.
func (s *QuestionService) AddFeedback(identity models.Identity, id, notes string) (*models.Feedback, error) {
	if identity.Email == "" {
		return nil, ErrUnauthorized
	}
	if _, err := s.loadQuestion(id); err != nil {
		return nil, err
	}

	feedback := &models.Feedback{
		QuestionID: id,
		UserEmail:  identity.Email,
		Notes:      notes,
	}
	if err := s.repos.Feedback.Create(feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}

// DispatchAnswer enqueues an answer job for the question and returns the
// job id immediately. It never waits for the answer.
func (s *QuestionService) DispatchAnswer(ctx context.Context, identity models.Identity, id string) (string, error) {
	question, err := s.loadQuestion(id)
	if err != nil {
		return "", err
	}
	return s.dispatcher.Dispatch(ctx, tasks.KindAnswerQuestion, question.Hash, question.ID, identity.Email)
}

// DispatchRefreshKG enqueues a knowledge-graph update job for the question
// and returns the job id immediately.
func (s *QuestionService) DispatchRefreshKG(ctx context.Context, identity models.Identity, id string) (string, error) {
	question, err := s.loadQuestion(id)
	if err != nil {
		return "", err
	}

	jobID, err := s.dispatcher.Dispatch(ctx, tasks.KindUpdateKG, question.Hash, question.ID, identity.Email)
	if err != nil {
		return "", err
	}

	// The stored answers describe the graph as it was before the refresh.
	if err := s.cache.InvalidateAnswerSetCache(ctx, question.Hash); err != nil {
		s.logger.WithError(err).WithField("question_hash", question.Hash).Warn("Failed to invalidate answer set cache")
	}
	return jobID, nil
}

// Tasks reports the question's still-active background jobs, partitioned
// into answerers and updaters. Terminal jobs are never included.
func (s *QuestionService) Tasks(ctx context.Context, id string) (*tasks.Buckets, error) {
	question, err := s.loadQuestion(id)
	if err != nil {
		return nil, err
	}

	jobs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	buckets := tasks.JobsForQuestion(jobs, question.Hash)
	return &buckets, nil
}

// Subgraph returns the knowledge-graph neighborhood of the question, as
// reported by the ranking service.
func (s *QuestionService) Subgraph(ctx context.Context, id string) (json.RawMessage, error) {
	question, err := s.loadQuestion(id)
	if err != nil {
		return nil, err
	}
	return s.ranker.Subgraph(ctx, question.MachineQuestion)
}

// AnswerSetByID returns one stored answer set, including the payload.
func (s *QuestionService) AnswerSetByID(ctx context.Context, questionID string, answerSetID uint) (*models.AnswerSet, error) {
	question, err := s.loadQuestion(questionID)
	if err != nil {
		return nil, err
	}

	answerSet, err := s.repos.AnswerSet.GetByID(answerSetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	if answerSet.QuestionHash != question.Hash {
		return nil, ErrQuestionNotFound
	}
	return answerSet, nil
}

// LatestAnswerSet returns the most recent stored answer set for a question,
// consulting the cache first.
func (s *QuestionService) LatestAnswerSet(ctx context.Context, questionID string) (*models.AnswerSet, error) {
	question, err := s.loadQuestion(questionID)
	if err != nil {
		return nil, err
	}

	var cached models.AnswerSet
	if err := s.cache.GetCachedAnswerSet(ctx, question.Hash, &cached); err == nil {
		return &cached, nil
	}

	answerSets, err := s.repos.AnswerSet.ListByQuestionHash(question.Hash)
	if err != nil {
		return nil, err
	}
	if len(answerSets) == 0 {
		return nil, ErrQuestionNotFound
	}

	latest := &answerSets[len(answerSets)-1]
	if err := s.cache.CacheAnswerSet(ctx, question.Hash, latest, 10*time.Minute); err != nil {
		s.logger.WithError(err).Warn("Failed to cache answer set")
	}
	return latest, nil
}

func (s *QuestionService) loadQuestion(id string) (*models.Question, error) {
	question, err := s.repos.Question.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return question, nil
}

func (s *QuestionService) authorize(identity models.Identity, question *models.Question) error {
	if identity.Email == "" {
		return ErrUnauthorized
	}
	if identity.Email != question.OwnerEmail && !identity.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
