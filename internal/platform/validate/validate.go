// Package validate owns the process-wide validator and its english translations.
// HTTP binding, the recognition adapter and the attempt service all validate through it
package validate

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	perr "facegate/internal/platform/errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Svc holds a singleton validator and translator
type Svc struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	once sync.Once
	svc  *Svc
)

// Init initializes the singleton validator with english translations and json tag names
func Init() *Svc {
	once.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())

		// prefer json tag names in messages
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})

		_ = en_translations.RegisterDefaultTranslations(v, trans)

		registerShortMin(v, trans)
		registerShortMax(v, trans)
		registerICNumber(v, trans)
		registerDataURL(v, trans)
		registerOneOfFold(v, trans)

		svc = &Svc{Validator: v, Translator: trans}
	})
	return svc
}

// Get returns the validator singleton, initializing on first use
func Get() *Svc { return Init() }

// Struct validates v and maps failures to a Validation error carrying the first offending field
func Struct(v any) error {
	err := Get().Validator.Struct(v)
	if err == nil {
		return nil
	}
	var inv *validator.InvalidValidationError
	if errors.As(err, &inv) {
		return perr.Wrap(inv, perr.ErrorCodeUnknown, "validator internal error")
	}
	field, msg := FieldAndMessage(err)
	return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "%s", msg), field)
}

// Var validates a single value against a tag expression, e.g. Var(ic, "ic_number")
func Var(v any, tag string) error {
	if err := Get().Validator.Var(v, tag); err != nil {
		_, msg := FieldAndMessage(err)
		return perr.Validationf("%s", strings.TrimSpace(msg))
	}
	return nil
}

// FieldAndMessage returns the first field and translated message
func FieldAndMessage(err error) (field, message string) {
	if err == nil {
		return "", ""
	}
	var inv *validator.InvalidValidationError
	if errors.As(err, &inv) {
		return "", inv.Error()
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			return fe.Field(), fe.Translate(Get().Translator)
		}
	}
	return "", err.Error()
}

// IsICNumber reports whether s looks like an identity card number:
// 3 to 32 characters of ASCII letters, digits or '-'
func IsICNumber(s string) bool {
	if len(s) < 3 || len(s) > 32 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-':
		default:
			return false
		}
	}
	return true
}

// custom tags and short messages

func registerShortMin(v *validator.Validate, trans ut.Translator) {
	_ = v.RegisterTranslation("min", trans,
		func(ut ut.Translator) error {
			return ut.Add("min", "{0} must be at least {1}", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T("min", fe.Field(), fe.Param())
			return msg
		},
	)
}

func registerShortMax(v *validator.Validate, trans ut.Translator) {
	_ = v.RegisterTranslation("max", trans,
		func(ut ut.Translator) error {
			return ut.Add("max", "{0} must be at most {1}", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T("max", fe.Field(), fe.Param())
			return msg
		},
	)
}

func registerICNumber(v *validator.Validate, trans ut.Translator) {
	_ = v.RegisterValidation("ic_number", func(fl validator.FieldLevel) bool {
		return IsICNumber(fl.Field().String())
	})
	_ = v.RegisterTranslation("ic_number", trans,
		func(ut ut.Translator) error {
			return ut.Add("ic_number", "{0} must be 3-32 letters, digits or dashes", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T("ic_number", fe.Field())
			return msg
		},
	)
}

func registerDataURL(v *validator.Validate, trans ut.Translator) {
	_ = v.RegisterValidation("image_data_url", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return strings.HasPrefix(s, "data:image/") && strings.Contains(s, ";base64,")
	})
	_ = v.RegisterTranslation("image_data_url", trans,
		func(ut ut.Translator) error {
			return ut.Add("image_data_url", "{0} must be a base64 image data URL", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T("image_data_url", fe.Field())
			return msg
		},
	)
}

// oneof_fold is oneof ignoring case and surrounding blanks
func registerOneOfFold(v *validator.Validate, trans ut.Translator) {
	_ = v.RegisterValidation("oneof_fold", func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		for _, opt := range strings.Fields(fl.Param()) {
			if strings.EqualFold(s, opt) {
				return true
			}
		}
		return false
	})
	_ = v.RegisterTranslation("oneof_fold", trans,
		func(ut ut.Translator) error {
			return ut.Add("oneof_fold", "{0} must be one of [{1}]", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T("oneof_fold", fe.Field(), fe.Param())
			return msg
		},
	)
}
