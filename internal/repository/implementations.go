package repository

import (
	"errors"

	"github.com/bioqa/manager/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// QuestionRepositoryImpl implements QuestionRepository
type QuestionRepositoryImpl struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) models.QuestionRepository {
	return &QuestionRepositoryImpl{db: db}
}

func (r *QuestionRepositoryImpl) Create(question *models.Question) error {
	return r.db.Create(question).Error
}

func (r *QuestionRepositoryImpl) GetByID(id string) (*models.Question, error) {
	var question models.Question
	err := r.db.Where("id = ?", id).First(&question).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

func (r *QuestionRepositoryImpl) GetByHash(hash string) (*models.Question, error) {
	var question models.Question
	err := r.db.Where("hash = ?", hash).First(&question).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

func (r *QuestionRepositoryImpl) ListByOwner(email string) ([]models.Question, error) {
	var questions []models.Question
	err := r.db.Where("owner_email = ?", email).
		Order("created_at DESC").
		Find(&questions).Error
	return questions, err
}

func (r *QuestionRepositoryImpl) Update(question *models.Question) error {
	return r.db.Save(question).Error
}

func (r *QuestionRepositoryImpl) Delete(id string) error {
	return r.db.Delete(&models.Question{}, "id = ?", id).Error
}

// AnswerSetRepositoryImpl implements AnswerSetRepository
type AnswerSetRepositoryImpl struct {
	db *gorm.DB
}

func NewAnswerSetRepository(db *gorm.DB) models.AnswerSetRepository {
	return &AnswerSetRepositoryImpl{db: db}
}

func (r *AnswerSetRepositoryImpl) Create(answerSet *models.AnswerSet) error {
	return r.db.Create(answerSet).Error
}

func (r *AnswerSetRepositoryImpl) GetByID(id uint) (*models.AnswerSet, error) {
	var answerSet models.AnswerSet
	err := r.db.First(&answerSet, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &answerSet, nil
}

func (r *AnswerSetRepositoryImpl) ListByQuestionHash(hash string) ([]models.AnswerSet, error) {
	var answerSets []models.AnswerSet
	err := r.db.Where("question_hash = ?", hash).
		Order("created_at ASC").
		Find(&answerSets).Error
	return answerSets, err
}

// FeedbackRepositoryImpl implements FeedbackRepository
type FeedbackRepositoryImpl struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) models.FeedbackRepository {
	return &FeedbackRepositoryImpl{db: db}
}

func (r *FeedbackRepositoryImpl) Create(feedback *models.Feedback) error {
	return r.db.Create(feedback).Error
}

func (r *FeedbackRepositoryImpl) ListByQuestion(questionID string) ([]models.Feedback, error) {
	var feedback []models.Feedback
	err := r.db.Where("question_id = ?", questionID).
		Order("created_at ASC").
		Find(&feedback).Error
	return feedback, err
}

// UserRepositoryImpl implements UserRepository
type UserRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) models.UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *UserRepositoryImpl) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// RepositoryManager bundles all repositories
type RepositoryManager struct {
	Question  models.QuestionRepository
	AnswerSet models.AnswerSetRepository
	Feedback  models.FeedbackRepository
	User      models.UserRepository
}

func NewRepositoryManager(db *gorm.DB) *RepositoryManager {
	return &RepositoryManager{
		Question:  NewQuestionRepository(db),
		AnswerSet: NewAnswerSetRepository(db),
		Feedback:  NewFeedbackRepository(db),
		User:      NewUserRepository(db),
	}
}
