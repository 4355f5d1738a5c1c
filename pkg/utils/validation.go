package utils

import (
	"regexp"
	"strings"

	"lessonhub/pkg/models"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail checks basic email shape
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(strings.TrimSpace(email)) {
		return models.ErrInvalidInput
	}
	return nil
}

// ValidatePassword checks minimum password requirements
func ValidatePassword(password string) error {
	if len(password) < 8 || len(password) > 128 {
		return models.ErrInvalidInput
	}
	return nil
}

// ValidateLessonTitle validates lesson title length
func ValidateLessonTitle(title string) error {
	if len(strings.TrimSpace(title)) < 2 {
		return models.ErrInvalidInput
	}
	if len(title) > 255 {
		return models.ErrInvalidInput
	}
	return nil
}

// ValidateRating checks a lesson rating is within 1-5
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return models.ErrInvalidInput
	}
	return nil
}
