package vibe

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	chamerrors "github.com/alexisbeaulieu97/chameleon/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

	tagMessages = map[string]string{
		"hexcolor6":       "must be a # followed by 6 hex digits",
		"font_family":     "must be one of " + joinEnum(AllFontFamilies),
		"base_size":       "must be one of " + joinEnum(AllBaseSizes),
		"layout_style":    "must be one of " + joinEnum(AllLayoutStyles),
		"tone":            "must be one of " + joinEnum(AllTones),
		"emoji_frequency": "must be one of " + joinEnum(AllEmojiFrequencies),
	}
)

// validatorInstance configures and returns the shared validator used for theme values.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})

		_ = v.RegisterValidation("hexcolor6", func(fl validator.FieldLevel) bool {
			return hexColorPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("font_family", func(fl validator.FieldLevel) bool {
			return FontFamily(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("base_size", func(fl validator.FieldLevel) bool {
			return BaseSize(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("layout_style", func(fl validator.FieldLevel) bool {
			return LayoutStyle(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("tone", func(fl validator.FieldLevel) bool {
			return Tone(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("emoji_frequency", func(fl validator.FieldLevel) bool {
			return EmojiFrequency(fl.Field().String()).Valid()
		})

		validateInst = v
	})

	return validateInst
}

// Validator exposes the shared instance so other packages can reuse the theme tags.
func Validator() *validator.Validate {
	return validatorInstance()
}

// IsHexColor reports whether s is a # followed by exactly six hex digits.
func IsHexColor(s string) bool {
	return hexColorPattern.MatchString(s)
}

// Validate checks every enum and color field of v. It returns a
// *errors.ValidationError naming the first offending field.
func Validate(v Vibe) error {
	if err := validatorInstance().Struct(v); err != nil {
		return convertValidationError(err)
	}
	return nil
}

// Result is the tagged outcome of checking a candidate theme.
type Result struct {
	Vibe Vibe
	Err  error
}

// OK reports whether the candidate passed validation.
func (r Result) OK() bool {
	return r.Err == nil
}

// Check validates a candidate and wraps the outcome in a Result.
func Check(candidate Vibe) Result {
	if err := Validate(candidate); err != nil {
		return Result{Err: err}
	}
	return Result{Vibe: candidate}
}

// Decode parses a JSON theme value and validates it. Unknown keys are ignored.
func Decode(data []byte) Result {
	var candidate Vibe
	if err := json.Unmarshal(data, &candidate); err != nil {
		return Result{Err: chamerrors.NewParseError("theme", jsonErrorLine(data, err), err)}
	}
	return Check(candidate)
}

func convertValidationError(err error) error {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		field := jsonFieldPath(fe)
		msg, ok := tagMessages[fe.Tag()]
		if !ok {
			msg = fmt.Sprintf("failed validation for tag '%s'", fe.Tag())
		}
		return chamerrors.NewValidationError(field, fmt.Sprintf("%s (got %q)", msg, fmt.Sprint(fe.Value())), err)
	}
	return chamerrors.NewValidationError("theme", err.Error(), err)
}

// jsonFieldPath drops the root struct name from the namespace, leaving "colors.primary".
func jsonFieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func jsonErrorLine(data []byte, err error) int {
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return 0
	}
	offset := int(syntaxErr.Offset)
	if offset > len(data) {
		offset = len(data)
	}
	return strings.Count(string(data[:offset]), "\n") + 1
}

func joinEnum[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
