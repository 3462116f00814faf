package service

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	apperrors "yamdb/internal/errors"
	"yamdb/internal/model"
)

var validate = validator.New()

// fieldErrors collects per-field messages and turns them into a Validation failure.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return apperrors.Validation("invalid request", f)
}

func checkEmail(errs fieldErrors, email string) {
	if err := validate.Var(email, fmt.Sprintf("required,email,max=%d", model.EmailMaxLength)); err != nil {
		errs.add("email", "enter a valid email address")
	}
}

func checkUsername(errs fieldErrors, username string) {
	if err := model.CheckUsername(username); err != nil {
		errs.add("username", err.Error())
	}
}

func validateSignup(username, email string) error {
	errs := fieldErrors{}
	checkUsername(errs, username)
	checkEmail(errs, email)
	return errs.err()
}

func checkMaxLen(errs fieldErrors, field, value string, limit int) {
	if utf8.RuneCountInString(value) > limit {
		errs.add(field, fmt.Sprintf("must be at most %d characters", limit))
	}
}

func checkScore(errs fieldErrors, score int) {
	if score < model.MinScore || score > model.MaxScore {
		errs.add("score", fmt.Sprintf("must be between %d and %d", model.MinScore, model.MaxScore))
	}
}

func checkText(errs fieldErrors, text string) {
	if strings.TrimSpace(text) == "" {
		errs.add("text", "this field is required")
	}
}

func checkYear(errs fieldErrors, year int, now time.Time) {
	if year > now.Year() {
		errs.add("year", "release year cannot be later than the current year")
	}
	if year < 0 {
		errs.add("year", "release year cannot be negative")
	}
}

func checkSlug(errs fieldErrors, slug string) {
	if err := validate.Var(slug, "required,max=50"); err != nil {
		errs.add("slug", "enter a valid slug of at most 50 characters")
		return
	}
	for _, r := range slug {
		if !(r == '-' || r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			errs.add("slug", "may contain only letters, numbers, underscores or hyphens")
			return
		}
	}
}
