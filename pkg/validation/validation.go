package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	valid "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validation checks step options against their `validate` struct tags.
// Field names in messages are taken from the json tags, i.e. the parameter names.
type Validation struct {
	Validator  *valid.Validate
	Translator ut.Translator
}

// New creates a validator with english messages.
func New() (*Validation, error) {
	validator := valid.New()
	enTranslator := en.New()
	universalTranslator := ut.New(enTranslator, enTranslator)
	translator, found := universalTranslator.GetTranslator("en")
	if !found {
		return nil, errors.New("translator for en locale is not found")
	}
	validator.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	if err := registerTranslations(validator, translator); err != nil {
		return nil, err
	}
	return &Validation{
		Validator:  validator,
		Translator: translator,
	}, nil
}

// ValidateStruct returns all violations joined into one error.
func (v *Validation) ValidateStruct(s interface{}) error {
	errs := v.Validator.Struct(s)
	if errs == nil {
		return nil
	}
	validationErrors, ok := errs.(valid.ValidationErrors)
	if !ok {
		return errs
	}
	messages := make([]string, 0, len(validationErrors))
	for _, err := range validationErrors {
		messages = append(messages, err.Translate(v.Translator))
	}
	return errors.New(strings.Join(messages, "; "))
}

type translation struct {
	tag     string
	message string
	params  func(fe valid.FieldError) []string
}

var customTranslations = []translation{
	{
		tag:     "oneof",
		message: "{0} must be one of [{1}]",
		params: func(fe valid.FieldError) []string {
			return []string{fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", ")}
		},
	},
	{
		tag:     "required_if",
		message: "{0} is required when {1} is {2}",
		params: func(fe valid.FieldError) []string {
			condition := strings.SplitN(fe.Param(), " ", 2)
			for len(condition) < 2 {
				condition = append(condition, "")
			}
			return []string{fe.Field(), condition[0], condition[1]}
		},
	},
}

func registerTranslations(validator *valid.Validate, translator ut.Translator) error {
	if err := en_translations.RegisterDefaultTranslations(validator, translator); err != nil {
		return err
	}
	for _, tr := range customTranslations {
		tr := tr
		register := func(ut ut.Translator) error {
			return ut.Add(tr.tag, tr.message, true)
		}
		translate := func(ut ut.Translator, fe valid.FieldError) string {
			t, _ := ut.T(tr.tag, tr.params(fe)...)
			return t
		}
		if err := validator.RegisterTranslation(tr.tag, translator, register, translate); err != nil {
			return err
		}
	}
	return nil
}
