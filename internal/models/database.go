package models

// GORM models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// StringArray for PostgreSQL array support
type StringArray []string

func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "{}", nil
	}
	return fmt.Sprintf("{%s}", strings.Join(s, ",")), nil
}

func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}

	switch v := value.(type) {
	case string:
		if v == "{}" {
			*s = StringArray{}
			return nil
		}
		// Remove curly braces and split
		v = strings.Trim(v, "{}")
		if v == "" {
			*s = StringArray{}
			return nil
		}
		*s = StringArray(strings.Split(v, ","))
	case []byte:
		return s.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into StringArray", value)
	}
	return nil
}

// JSONB stores an arbitrary JSON payload.
type JSONB json.RawMessage

func (j JSONB) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "null", nil
	}
	return string(j), nil
}

func (j *JSONB) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*j = JSONB(v)
	case []byte:
		*j = JSONB(append([]byte(nil), v...))
	case nil:
		*j = nil
	default:
		return fmt.Errorf("cannot scan %T into JSONB", value)
	}
	return nil
}

func (j JSONB) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSONB) UnmarshalJSON(data []byte) error {
	*j = JSONB(append([]byte(nil), data...))
	return nil
}

// Base model with common fields
type BaseModel struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User owns questions and leaves feedback
type User struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	Email        string      `json:"email" gorm:"unique;not null"`
	Username     string      `json:"username"`
	PasswordHash string      `json:"-" gorm:"not null"`
	Roles        StringArray `json:"roles" gorm:"type:text[]"`
	BaseModel
}

// Question represents one graph-shaped biomedical question
type Question struct {
	ID              string          `json:"id" gorm:"primaryKey"`
	Hash            string          `json:"hash" gorm:"index;not null"`
	Name            string          `json:"name"`
	Notes           string          `json:"notes"`
	NaturalQuestion string          `json:"natural_question"`
	OwnerEmail      string          `json:"owner_email" gorm:"index;not null"`
	MachineQuestion MachineQuestion `json:"machine_question" gorm:"type:jsonb"`
	BaseModel

	// Associations
	Feedback []Feedback `json:"feedback,omitempty" gorm:"foreignKey:QuestionID"`
}

// AnswerSet is the immutable output of a completed answer job, associated
// with a question by the question's hash.
type AnswerSet struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	QuestionHash string    `json:"question_hash" gorm:"index;not null"`
	Data         JSONB     `json:"data,omitempty" gorm:"type:jsonb"`
	CreatedAt    time.Time `json:"created_at"`
}

// AnswerSetMeta is the serialization of an answer set without the embedded
// result payload.
type AnswerSetMeta struct {
	ID           uint      `json:"id"`
	QuestionHash string    `json:"question_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func (a *AnswerSet) Meta() AnswerSetMeta {
	return AnswerSetMeta{
		ID:           a.ID,
		QuestionHash: a.QuestionHash,
		CreatedAt:    a.CreatedAt,
	}
}

// Feedback is free-form user commentary on a question; append-only.
type Feedback struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	QuestionID string    `json:"question_id" gorm:"index;not null"`
	UserEmail  string    `json:"user_email"`
	Notes      string    `json:"notes" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
}

// Repository interfaces
type QuestionRepository interface {
	Create(question *Question) error
	GetByID(id string) (*Question, error)
	GetByHash(hash string) (*Question, error)
	ListByOwner(email string) ([]Question, error)
	Update(question *Question) error
	Delete(id string) error
}

type AnswerSetRepository interface {
	Create(answerSet *AnswerSet) error
	GetByID(id uint) (*AnswerSet, error)
	ListByQuestionHash(hash string) ([]AnswerSet, error)
}

type FeedbackRepository interface {
	Create(feedback *Feedback) error
	ListByQuestion(questionID string) ([]Feedback, error)
}

type UserRepository interface {
	Create(user *User) error
	GetByEmail(email string) (*User, error)
}

// TableName methods for custom table names
func (User) TableName() string      { return "users" }
func (Question) TableName() string  { return "questions" }
func (AnswerSet) TableName() string { return "answer_sets" }
func (Feedback) TableName() string  { return "feedback" }

// Model validation methods
func (q *Question) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("question id is required")
	}
	if q.Hash == "" {
		return fmt.Errorf("question hash is required")
	}
	if q.OwnerEmail == "" {
		return fmt.Errorf("question owner is required")
	}
	return nil
}

func (f *Feedback) Validate() error {
	if f.QuestionID == "" {
		return fmt.Errorf("question id is required")
	}
	if f.Notes == "" {
		return fmt.Errorf("feedback notes are required")
	}
	return nil
}

// GORM hooks
func (q *Question) BeforeCreate(tx *gorm.DB) error {
	return q.Validate()
}

func (q *Question) BeforeUpdate(tx *gorm.DB) error {
	return q.Validate()
}

func (f *Feedback) BeforeCreate(tx *gorm.DB) error {
	return f.Validate()
}
