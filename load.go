package castenv

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	str2duration "github.com/xhit/go-str2duration/v2"

	"github.com/eugenenazirov/castenv/normalize"
)

const (
	envTag        = "env"
	envDefaultTag = "envDefault"
)

type envField struct {
	key        string
	def        string
	hasDefault bool
	required   bool
}

// Load resolves the keys named by the `env` tags of the struct dst points to
// and decodes them into its fields. An `envDefault` tag supplies a raw default,
// and `env:"NAME,required"` fails with ErrMissing when NAME resolves to none.
// time.Duration fields accept float seconds as well as duration text.
func (c *Context) Load(dst any, opts ...normalize.Option) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrInvalidTarget
	}

	fields := envFields(rv.Elem().Type())
	input := make(map[string]any, len(fields))
	for _, f := range fields {
		var def any
		if f.hasDefault {
			def = f.def
		}
		v, err := c.Get(f.key, def, opts...)
		if err != nil {
			return err
		}
		if v.IsNone() {
			if f.required {
				return fmt.Errorf("%s: %w", f.key, ErrMissing)
			}
			continue
		}
		input[f.key] = v.Interface()
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          envTag,
		Result:           dst,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(secondsToDurationHook()),
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func envFields(t reflect.Type) []envField {
	var out []envField
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, ok := sf.Tag.Lookup(envTag)
		if !ok || tag == "-" {
			continue
		}
		name, rest, _ := strings.Cut(tag, ",")
		if name == "" {
			continue
		}
		f := envField{key: name}
		for _, flag := range strings.Split(rest, ",") {
			if strings.TrimSpace(flag) == "required" {
				f.required = true
			}
		}
		f.def, f.hasDefault = sf.Tag.Lookup(envDefaultTag)
		out = append(out, f)
	}
	return out
}

var durationType = reflect.TypeOf(time.Duration(0))

func secondsToDurationHook() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != durationType {
			return data, nil
		}
		switch v := data.(type) {
		case float64:
			return time.Duration(v * float64(time.Second)), nil
		case int64:
			return time.Duration(v) * time.Second, nil
		case string:
			return str2duration.ParseDuration(v)
		}
		return data, nil
	}
}
