package util

import (
	"errors"
	"net/mail"
	"reflect"
	"sort"
	"strings"
	"sync"
	"unicode"

	ptBRLocale "github.com/go-playground/locales/pt_BR"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	ptBRTranslations "github.com/go-playground/validator/v10/translations/pt_BR"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
	translator   ut.Translator
)

func engine() (*validator.Validate, ut.Translator) {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		locale := ptBRLocale.New()
		trans, _ := ut.New(locale, locale).GetTranslator("pt_BR")
		_ = ptBRTranslations.RegisterDefaultTranslations(v, trans)

		_ = v.RegisterValidation("cnpj", func(fl validator.FieldLevel) bool {
			return len(DigitsOnly(fl.Field().String())) == 14
		})
		_ = v.RegisterTranslation("cnpj", trans, func(t ut.Translator) error {
			return t.Add("cnpj", "{0} deve conter 14 dígitos", true)
		}, func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T("cnpj", fe.Field())
			return msg
		})

		validate = v
		translator = trans
	})
	return validate, translator
}

// ValidateStruct aplica as tags `validate` e devolve mensagens por campo (nome JSON).
// Retorna nil quando não há violações.
func ValidateStruct(s any) map[string]string {
	v, trans := engine()
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, exists := fields[fe.Field()]; exists {
			continue
		}
		fields[fe.Field()] = fe.Translate(trans)
	}
	return fields
}

// DigitsOnly remove pontuação de documentos como CNPJ e CPF.
func DigitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateEmail retorna erro para e-mails inválidos.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email obrigatório")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("email inválido")
	}
	return nil
}

// NormalizeEmail padroniza e-mails para comparação e unicidade.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidationError carrega mensagens de validação por campo.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "dados inválidos"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "dados inválidos: " + strings.Join(parts, "; ")
}

// NewValidationError cria erro para um único campo.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Validate aplica ValidateStruct e embrulha as violações em *ValidationError.
func Validate(s any) error {
	if fields := ValidateStruct(s); fields != nil {
		return &ValidationError{Fields: fields}
	}
	return nil
}
