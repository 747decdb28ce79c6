package log

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// emit writes fields onto a zerolog event and sends it. Errors get their stack trace
// extracted into the stacktrace field; values implementing zerolog.LogObjectMarshaler
// (every pkg/errors type does) are logged as nested objects.
func emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	forEachField(fields, func(key string, value any) {
		switch v := value.(type) {
		case error:
			e = e.AnErr(key, v)
			if st := extractStacktrace(v); st != "" {
				e = e.Str(StacktraceAttrKey, st)
			}
			var obj zerolog.LogObjectMarshaler
			if errors.As(v, &obj) {
				e = e.Object(key+".detail", obj)
			}
		case zerolog.LogObjectMarshaler:
			e = e.Object(key, v)
		default:
			e = e.Interface(key, v)
		}
	})
	e.Msg(msg)
}

// forEachField walks key/value pairs. A leading error in an odd-length list is reported
// under ErrAttrKey.
func forEachField(fields []any, fn func(key string, value any)) {
	if len(fields)%2 == 1 {
		if err, ok := fields[0].(error); ok {
			fn(ErrAttrKey, err)
			fields = fields[1:]
		}
	}
	for i := 0; i+1 < len(fields); i += 2 {
		fn(fmt.Sprintf("%v", fields[i]), fields[i+1])
	}
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}
