// Package validator provides struct-tag based validation for decoded tool
// and prompt arguments.
package validator

import (
	"fmt"
	"reflect"
	"strings"
)

// Arguments enforces `required` and `enum` struct tags on a decoded
// argument struct.
//
//	type Args struct {
//		Name  string `json:"name" required:"true"`
//		Level string `json:"level" enum:"debug,info,warn"`
//	}
func Arguments(s interface{}) error {
	v := reflect.ValueOf(s)
	t := reflect.TypeOf(s)
	if t.Kind() == reflect.Ptr {
		v = v.Elem()
		t = t.Elem()
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := v.Field(i)

		if field.Tag.Get("required") == "true" {
			empty := false
			switch value.Kind() {
			case reflect.String:
				empty = value.String() == ""
			case reflect.Slice, reflect.Array, reflect.Map:
				empty = value.Len() == 0
			case reflect.Ptr, reflect.Interface:
				empty = value.IsNil()
			}
			if empty {
				return fmt.Errorf("%s is required", fieldName(field))
			}
		}

		enumTag := field.Tag.Get("enum")
		if enumTag != "" && value.Kind() == reflect.String && value.String() != "" {
			allowed := strings.Split(enumTag, ",")
			found := false
			for _, a := range allowed {
				if value.String() == strings.TrimSpace(a) {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("%s must be one of [%s]", fieldName(field), enumTag)
			}
		}
	}
	return nil
}

func fieldName(field reflect.StructField) string {
	if jsonTag := field.Tag.Get("json"); jsonTag != "" && jsonTag != "-" {
		return strings.Split(jsonTag, ",")[0]
	}
	return field.Name
}
