package dto

import (
	"errors"
	"fmt"
	"strings"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-playground/validator/v10"
)

// ReasonRequestInvalid 表示请求体未通过结构校验。
const ReasonRequestInvalid = "REQUEST_INVALID"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验请求结构，失败时返回带字段明细的 400。
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return kerrors.BadRequest(ReasonRequestInvalid, err.Error())
	}
	problems := make([]string, 0, len(fieldErrs))
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		fields[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return kerrors.BadRequest(ReasonRequestInvalid, strings.Join(problems, "; ")).WithMetadata(fields)
}
