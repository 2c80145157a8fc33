package domain

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	requiredTag  = "required"
	requiredText = "{0} is required"
)

func init() {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	Translator, _ = uni.GetTranslator("en")

	// gin reads the same "binding" tags, the HTTP layer plugs this instance into it
	Validate = validator.New()
	Validate.SetTagName("binding")
	InitValidators(Validate, Translator)
}

// InitValidators registers english translations and json field naming on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterTranslation(
		requiredTag, translator,
		func(t ut.Translator) error { return t.Add(requiredTag, requiredText, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(requiredTag, fe.Field())
			return s
		},
	)
}

// FieldMessages flattens validation failures into {field: message}.
// It returns nil when err carries no field information.
func FieldMessages(err error) map[string]string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			// drop the leading struct name: "NewCourse.courseTitle" -> "courseTitle"
			path := fe.Namespace()
			if i := strings.Index(path, "."); i >= 0 {
				path = path[i+1:]
			}
			msgs[path] = fe.Translate(Translator)
		}
		return msgs
	}
	var verr *ValidationError
	if errors.As(err, &verr) && len(verr.Fields) > 0 {
		msgs := make(map[string]string, len(verr.Fields))
		for _, fe := range verr.Fields {
			msgs[fe.Field] = fe.Error
		}
		return msgs
	}
	return nil
}
