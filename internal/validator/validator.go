package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	tagNameValidate  = "validate"
	tagValueNested   = "nested"
	tagValueRequired = "required"
	tagValueIn       = "in"
	tagValueMax      = "max"
	tagValueMin      = "min"
	tagValueLen      = "len"
	tagValueRegexp   = "regexp"
)

var (
	ErrIncorrectTagValue      = errors.New("incorrect tag value")
	ErrIncorrectTag           = errors.New("incorrect tag")
	ErrIncorrectStruct        = errors.New("incorrect struct")
	ErrValidateRequired       = errors.New("value is required")
	ErrValidateIncorrectLen   = errors.New("value has incorrect length")
	ErrValidateNotMatchRegexp = errors.New("does not match regexp")
	ErrValidateNotFoundInList = errors.New("is not in the list")
	ErrValidateOutOfRange     = errors.New("value is out of range")
)

type ValidationError struct {
	Field string
	Err   error
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	sorted := make(ValidationErrors, len(v))
	copy(sorted, v)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Field < sorted[j].Field
	})
	parts := make([]string, 0, len(sorted))
	for _, e := range sorted {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Err))
	}
	return strings.Join(parts, "; ")
}

// Is lets errors.Is match any of the wrapped validation errors.
func (v ValidationErrors) Is(target error) bool {
	for _, e := range v {
		if errors.Is(e.Err, target) {
			return true
		}
	}
	return false
}

type rule struct {
	name  string
	value string
}

// Validate checks exported struct fields against their `validate` tags.
// Rules are separated by '|': required, len:N, regexp:RE, in:a,b,c, min:N, max:N, nested.
// String fields support required, len, regexp and in; integer fields support in, min and max.
// Violations are returned as ValidationErrors, broken tags as plain errors.
func Validate(v interface{}) error {
	if v == nil {
		return ErrIncorrectStruct
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return ErrIncorrectStruct
	}

	var validationErrors ValidationErrors
	t := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get(tagNameValidate)
		if tag == "" || field.PkgPath != "" {
			continue
		}
		if tag == tagValueNested {
			err := Validate(rv.Field(i).Interface())
			var nested ValidationErrors
			if errors.As(err, &nested) {
				for _, e := range nested {
					validationErrors = append(validationErrors, ValidationError{Field: field.Name + "." + e.Field, Err: e.Err})
				}
				continue
			}
			if err != nil {
				return err
			}
			continue
		}

		rules, err := parseTag(tag)
		if err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
		for _, r := range rules {
			fieldErr, err := validateValue(rv.Field(i), r)
			if err != nil {
				return fmt.Errorf("field %s: %w", field.Name, err)
			}
			if fieldErr != nil {
				validationErrors = append(validationErrors, ValidationError{Field: field.Name, Err: fieldErr})
			}
		}
	}

	if len(validationErrors) == 0 {
		return nil
	}
	return validationErrors
}

func parseTag(tag string) ([]rule, error) {
	parts := strings.Split(tag, "|")
	rules := make([]rule, 0, len(parts))
	for _, part := range parts {
		nameValue := strings.SplitN(part, ":", 2)
		if len(nameValue) == 1 {
			if nameValue[0] != tagValueRequired {
				return nil, fmt.Errorf("%q: %w", part, ErrIncorrectTag)
			}
			rules = append(rules, rule{name: tagValueRequired})
			continue
		}
		rules = append(rules, rule{name: nameValue[0], value: nameValue[1]})
	}
	return rules, nil
}

// Returns a validation failure as the first value and a broken rule as the second.
func validateValue(v reflect.Value, r rule) (failure error, err error) {
	//exhaustive:ignore
	switch v.Kind() {
	case reflect.String:
		return validateString(v.String(), r)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return validateInt(v.Int(), r)
	default:
		return nil, fmt.Errorf("unsupported kind %s: %w", v.Kind(), ErrIncorrectTag)
	}
}

func validateString(s string, r rule) (failure error, err error) {
	switch r.name {
	case tagValueRequired:
		if strings.TrimSpace(s) == "" {
			return ErrValidateRequired, nil
		}
	case tagValueLen:
		expected, err := strconv.Atoi(r.value)
		if err != nil {
			return nil, ErrIncorrectTagValue
		}
		if len(s) != expected {
			return ErrValidateIncorrectLen, nil
		}
	case tagValueRegexp:
		re, err := regexp.Compile(r.value)
		if err != nil {
			return nil, ErrIncorrectTagValue
		}
		if match := re.FindString(s); len(match) != len(s) {
			return ErrValidateNotMatchRegexp, nil
		}
	case tagValueIn:
		for _, allowed := range strings.Split(r.value, ",") {
			if s == allowed {
				return nil, nil
			}
		}
		return ErrValidateNotFoundInList, nil
	default:
		return nil, fmt.Errorf("%q for string: %w", r.name, ErrIncorrectTag)
	}
	return nil, nil
}

func validateInt(n int64, r rule) (failure error, err error) {
	switch r.name {
	case tagValueMin, tagValueMax:
		limit, err := strconv.ParseInt(r.value, 0, 64)
		if err != nil {
			return nil, ErrIncorrectTagValue
		}
		if (r.name == tagValueMin && n < limit) || (r.name == tagValueMax && n > limit) {
			return ErrValidateOutOfRange, nil
		}
	case tagValueIn:
		for _, allowed := range strings.Split(r.value, ",") {
			value, err := strconv.ParseInt(allowed, 0, 64)
			if err != nil {
				return nil, ErrIncorrectTagValue
			}
			if value == n {
				return nil, nil
			}
		}
		return ErrValidateNotFoundInList, nil
	default:
		return nil, fmt.Errorf("%q for integer: %w", r.name, ErrIncorrectTag)
	}
	return nil, nil
}
