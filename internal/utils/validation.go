package utils

import (
	"errors"
	"fmt"

	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"

	"github.com/sysu-ecnc-dev/eaplanner/internal/domain"
	"github.com/sysu-ecnc-dev/eaplanner/internal/schedule"
)

// Validator 包装了带中文翻译的 validator
type Validator struct {
	Validate   *validator.Validate
	Translator ut.Translator
}

func NewValidator() (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	// 实例名会被用作结果目录，只允许字母、数字、_、-、. 和 /
	if err := validate.RegisterValidation("instancename", func(fl validator.FieldLevel) bool {
		return domain.ValidInstanceName(fl.Field().String())
	}); err != nil {
		return nil, err
	}
	if err := validate.RegisterTranslation("instancename", trans,
		func(ut ut.Translator) error {
			return ut.Add("instancename", "{0}只能包含字母、数字、_、-、. 和 /，且每段必须以字母或数字开头", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("instancename", fe.Field())
			return t
		},
	); err != nil {
		return nil, err
	}

	return &Validator{Validate: validate, Translator: trans}, nil
}

// Struct 校验结构体，只返回翻译后的第一个错误
func (v *Validator) Struct(s any) error {
	err := v.Validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return errors.New(validationErrors[0].Translate(v.Translator))
	}
	return err
}

/**
 * ValidateSchedule 检查排程是否自洽：
 * 活动 ID 不重复，工时不为负数，约束引用的活动都在排程中，资源容量为正数。
 */
func ValidateSchedule(s *schedule.Schedule) error {
	if s.Len() == 0 {
		return fmt.Errorf("排程中没有活动")
	}

	ids := make(map[int]*schedule.Assignment, s.Len())
	for _, a := range s.Assignments {
		if _, exists := ids[a.ID]; exists {
			return fmt.Errorf("活动 %d 重复", a.ID)
		}
		if a.Hours < 0 {
			return fmt.Errorf("活动 %d 的工时不能为负数", a.ID)
		}
		ids[a.ID] = a
	}

	for i, c := range s.Constraints {
		if c.IsEmpty() {
			return fmt.Errorf("第 %d 个约束没有引用任何活动", i)
		}
		for _, a := range c.Assignments() {
			if a == nil {
				return fmt.Errorf("第 %d 个约束引用了已删除的活动", i)
			}
			if ids[a.ID] != a {
				return fmt.Errorf("第 %d 个约束引用了不在排程中的活动 %d", i, a.ID)
			}
		}
		if rc, ok := c.(*schedule.ResourceConstraint); ok && rc.Resource.TotalCapacity() <= 0 {
			return fmt.Errorf("资源 %s 的容量必须大于 0", rc.Resource.Name)
		}
	}

	return nil
}
