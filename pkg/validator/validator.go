package validator

import (
	"fmt"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

var (
	once     sync.Once
	validate *CustomValidator
)

type CustomValidator struct {
	uni       *ut.UniversalTranslator
	validator *validator.Validate
}

func New() (*CustomValidator, error) {
	en := en.New()
	uni := ut.New(en, en)
	validate := validator.New(
		validator.WithRequiredStructEnabled(),
	)

	// Register default translations (en)
	trans, _ := uni.GetTranslator("en")
	if err := entranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("failed to register translations: %w", err)
	}

	return &CustomValidator{
		uni:       uni,
		validator: validate,
	}, nil
}

func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if valErr, ok := err.(validator.ValidationErrors); ok {
		text, merr := sonic.Marshal(cv.translate(valErr))
		if merr != nil {
			// Fallback to the original validation error if JSON marshaling fails
			return valErr
		}
		return fmt.Errorf("validation error: %s", string(text))
	}

	return err
}

// Violations validates i and returns every translated violation as its
// own string, for callers that attach the full set as diagnostic
// context instead of a single message.
func (cv *CustomValidator) Violations(i interface{}) []string {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	valErr, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	translated := cv.translate(valErr)
	out := make([]string, 0, len(translated))
	for field, message := range translated {
		out = append(out, fmt.Sprintf("%s: %s", field, message))
	}
	return out
}

func (cv *CustomValidator) translate(errs validator.ValidationErrors) map[string]string {
	trans, _ := cv.uni.GetTranslator("en")
	return map[string]string(errs.Translate(trans))
}

func instance() *CustomValidator {
	once.Do(func() {
		var err error
		validate, err = New()
		if err != nil {
			panic(fmt.Sprintf("failed to create validator: %v", err))
		}
	})
	return validate
}

// Export shortcut to get the singleton validator instance
func Validate(i any) error {
	return instance().Validate(i)
}

// Violations is the singleton form of CustomValidator.Violations.
func Violations(i any) []string {
	return instance().Violations(i)
}
