package config

import (
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/unet-io/unet/pkg/errcode"
)

// ApplyEnv overlays environment-variable overrides onto cfg, following
// the `<PREFIX>_SECTION__FIELD` convention from spec.md §6: PREFIX is
// envPrefix, SECTION and FIELD are each section's and field's yaml tag
// upper-cased, joined by a double underscore. An unset variable leaves
// the existing value untouched; a set variable that fails to parse
// into its field's type fails initialization with a precise error.
func ApplyEnv(cfg *Config, envPrefix string) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		sectionField := t.Field(i)
		section := strings.ToUpper(yamlName(sectionField))
		sectionValue := v.Field(i)

		if sectionValue.Kind() != reflect.Struct {
			continue
		}

		if err := applyEnvSection(sectionValue, envPrefix, section); err != nil {
			return err
		}
	}

	return nil
}

func applyEnvSection(sectionValue reflect.Value, envPrefix, section string) error {
	sectionType := sectionValue.Type()

	for i := 0; i < sectionType.NumField(); i++ {
		field := sectionType.Field(i)
		key := envPrefix + "_" + section + "__" + strings.ToUpper(yamlName(field))

		raw, ok := os.LookupEnv(key)
		if !ok {
			continue
		}

		target := sectionValue.Field(i)
		if err := setFromString(target, raw); err != nil {
			return errcode.ValidationError{
				Field:   key,
				Message: "invalid value " + strconv.Quote(raw) + ": " + err.Error(),
			}
		}
	}

	return nil
}

func setFromString(target reflect.Value, raw string) error {
	switch target.Kind() {
	case reflect.String:
		target.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		target.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		target.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		target.SetBool(b)
	default:
		return errcode.ValidationError{Message: "unsupported field kind " + target.Kind().String()}
	}
	return nil
}

func yamlName(f reflect.StructField) string {
	tag := f.Tag.Get("yaml")
	if tag == "" {
		return f.Name
	}
	if idx := strings.Index(tag, ","); idx >= 0 {
		tag = tag[:idx]
	}
	return tag
}
