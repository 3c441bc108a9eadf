package dto

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"tutordesk/internal/scheduling"
)

const (
	hhmmTag     = "hhmm"
	notBlankTag = "notblank"
)

var (
	registerOnce sync.Once
	translator   ut.Translator
)

// RegisterValidators 向 gin 的绑定校验器注册自定义标签：
//   - hhmm: 24 小时制 "HH:MM"
//   - notblank: 去除空白后非空
//
// 同时改用 JSON 字段名报错，并注册英文错误信息。
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		_en := en.New()
		translator, _ = ut.New(_en, _en).GetTranslator("en")
		_ = en_translations.RegisterDefaultTranslations(v, translator)

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})

		_ = v.RegisterValidation(hhmmTag, hhmmValidation)
		_ = v.RegisterValidation(notBlankTag, notBlankValidation)

		registerFn := func(ut.Translator) error { return nil }
		for _, tag := range []string{hhmmTag, notBlankTag} {
			_ = v.RegisterTranslation(tag, translator, registerFn, translateCustomErrs)
		}
	})
}

// ValidationDetails 把绑定错误转成 "field: reason; ..." 形式，供响应 details 使用。
// 非校验错误（如 JSON 语法错误）原样返回其信息。
func ValidationDetails(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Error()
		if translator != nil {
			msg = fe.Translate(translator)
		}
		parts = append(parts, fe.Field()+": "+msg)
	}
	return strings.Join(parts, "; ")
}

func translateCustomErrs(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case hhmmTag:
		return fe.Field() + " must be a 24-hour HH:MM time"
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	default:
		return ""
	}
}

func hhmmValidation(fl validator.FieldLevel) bool {
	return scheduling.IsClock(fl.Field().String())
}

func notBlankValidation(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
