package expand

import (
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// encodeArg turns one resolved scalar into its command-line form:
//
//   - null            -> omitted entirely
//   - bool true       -> bare flag (--key)
//   - bool false      -> omitted entirely
//   - string "True"   -> --key True (literal string, not a flag)
//   - number/string   -> --key <canonical string>
//
// The second return reports whether the key appears in the command at all.
func encodeArg(key string, val cty.Value) (Arg, bool, error) {
	switch {
	case val.IsNull():
		return Arg{}, false, nil
	case val.Type().Equals(cty.Bool):
		if val.True() {
			return Arg{Key: key, Flag: true}, true, nil
		}
		return Arg{}, false, nil
	case val.Type().Equals(cty.String) || val.Type().Equals(cty.Number):
		str, err := encodeString(val)
		if err != nil {
			return Arg{}, false, invalidSpec(key, "cannot render value: %v", err)
		}
		return Arg{Key: key, Value: str}, true, nil
	default:
		return Arg{}, false, invalidSpec(key, "unsupported value type %s", val.Type().FriendlyName())
	}
}

// encodeString renders a scalar through cty's canonical string conversion,
// so numbers keep their declared form (0.01, not 1e-02).
func encodeString(val cty.Value) (string, error) {
	str, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", err
	}
	return str.AsString(), nil
}

// rawValue converts a resolved scalar to its native Go form for the
// persisted hyperparameter record.
func rawValue(val cty.Value) any {
	switch {
	case val.IsNull():
		return nil
	case val.Type().Equals(cty.Bool):
		return val.True()
	case val.Type().Equals(cty.String):
		return val.AsString()
	case val.Type().Equals(cty.Number):
		bf := val.AsBigFloat()
		if bf.IsInt() {
			i, _ := bf.Int64()
			return i
		}
		f, _ := bf.Float64()
		return f
	}
	return nil
}
