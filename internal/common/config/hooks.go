package config

import (
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/pg4sim/pg4launch/internal/backend"
)

var CustomHooks = []viper.DecoderConfigOption{
	viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		BackendKindHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)),
}

// BackendKindHookFunc decodes and checks backend kinds written as strings, e.g. "parallel".
func BackendKindHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		// check that src and target types are valid
		if f.Kind() != reflect.String || t != reflect.TypeOf(backend.KindAuto) {
			return data, nil
		}
		return backend.ParseKind(data.(string))
	}
}
