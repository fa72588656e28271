package utils

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// QuestionHash computes the content-derived hash of a machine question.
// Two questions with the same graph specification share the same hash,
// which is the key used to correlate background jobs with a question.
func QuestionHash(machineQuestion interface{}) (string, error) {
	data, err := json.Marshal(machineQuestion)
	if err != nil {
		return "", fmt.Errorf("failed to marshal machine question: %w", err)
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}

// GenerateRandomID generates a random ID
func GenerateRandomID(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based ID
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)[:length]
}
