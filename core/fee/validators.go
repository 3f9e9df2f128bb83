package fee

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/eduverse/core"
)

var (
	payMethodTag  = "paymethod"
	payMethodText = "{0} must be one of: " + strings.Join(Methods, ", ")
)

// InitValidators registers the fee validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(payMethodTag, payMethodValidation)
	core.RegisterCustomTranslation(validate, translator, payMethodTag, payMethodText)
}

// payMethodValidation checks that the payment method is one of Methods.
func payMethodValidation(fl validator.FieldLevel) bool {
	method := fl.Field().String()
	for _, m := range Methods {
		if method == m {
			return true
		}
	}
	return false
}
