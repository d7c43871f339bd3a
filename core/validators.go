package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	utrTag   = "utr"
	utrText  = "UTR number must be exactly 12 digits"
	utrRegex = regexp.MustCompile(`^\d{12}$`)

	phoneTag  = "phone10"
	phoneText = "phone number must contain 10 digits"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// NewTranslator returns the english translator used to render validation errors.
func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// InitValidators instantiates the validator for use.
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

	// register custom validators
	_ = validate.RegisterValidation(utrTag, utrValidation)
	RegisterCustomTranslation(validate, translator, utrTag, utrText)

	_ = validate.RegisterValidation(phoneTag, phoneValidation)
	RegisterCustomTranslation(validate, translator, phoneTag, phoneText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// NormalizePhone strips formatting and the +91 / leading 0 trunk prefixes.
// The result is only a valid phone number if it is 10 digits long.
func NormalizePhone(phone string) string {
	digits := DigitsOnly(phone)
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		return digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		return digits[1:]
	}
	return digits
}

// IsUTR reports whether s is a 12 digit transaction reference.
func IsUTR(s string) bool {
	return utrRegex.MatchString(s)
}

// Custom Global Validators

func utrValidation(fl validator.FieldLevel) bool {
	return IsUTR(fl.Field().String())
}

// phoneValidation expects an already normalized number.
func phoneValidation(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return len(s) == 10 && DigitsOnly(s) == s
}
