package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// KeyDelimiter is the viper key delimiter used for connector properties so
// that dotted property names stay flat.
const KeyDelimiter = "::"

// NewViper returns a viper instance suited for reading connector properties.
func NewViper() *viper.Viper {
	return viper.NewWithOptions(viper.KeyDelimiter(KeyDelimiter))
}

// FromViper copies every key known to v into Properties. List values are
// joined with commas. Viper lower-cases keys, so destination overrides read
// this way are matched against lower-case destination names.
func FromViper(v *viper.Viper) Properties {
	props := make(Properties, len(v.AllKeys()))
	for _, k := range v.AllKeys() {
		switch val := v.Get(k).(type) {
		case nil:
			props[k] = ""
		case string:
			props[k] = val
		case []any:
			parts := make([]string, len(val))
			for i, p := range val {
				parts[i] = fmt.Sprint(p)
			}
			props[k] = strings.Join(parts, ",")
		case []string:
			props[k] = strings.Join(val, ",")
		default:
			props[k] = v.GetString(k)
		}
	}
	return props
}
