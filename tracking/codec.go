package tracking

import (
	"encoding/base64"
	"math"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/YuminosukeSato/mltrack/pkg/errors"
)

// A series is stored as the protobuf wire encoding of
//
//	message Series { repeated Event events = 1; }
//	message Event  { double value = 1; sint64 step = 2; double time = 3; }
//
// so any protobuf runtime can read it back. Concatenating two encoded series yields the
// encoding of their concatenation.
const (
	seriesEventField protowire.Number = 1

	eventValueField protowire.Number = 1
	eventStepField  protowire.Number = 2
	eventTimeField  protowire.Number = 3
)

// AppendEvent appends the encoding of one event to b.
func AppendEvent(b []byte, ev MetricEvent) []byte {
	msg := make([]byte, 0, 24)
	msg = protowire.AppendTag(msg, eventValueField, protowire.Fixed64Type)
	msg = protowire.AppendFixed64(msg, math.Float64bits(ev.Value))
	msg = protowire.AppendTag(msg, eventStepField, protowire.VarintType)
	msg = protowire.AppendVarint(msg, protowire.EncodeZigZag(ev.Step))
	msg = protowire.AppendTag(msg, eventTimeField, protowire.Fixed64Type)
	msg = protowire.AppendFixed64(msg, math.Float64bits(ev.Seconds()))

	b = protowire.AppendTag(b, seriesEventField, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

// EncodeSeries encodes events in order.
func EncodeSeries(events []MetricEvent) []byte {
	b := make([]byte, 0, len(events)*28)
	for _, ev := range events {
		b = AppendEvent(b, ev)
	}
	return b
}

// DecodeSeries decodes a series produced by EncodeSeries. Unknown fields are skipped.
func DecodeSeries(b []byte) ([]MetricEvent, error) {
	var events []MetricEvent
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, corrupt(n)
		}
		b = b[n:]

		if num != seriesEventField || typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, corrupt(n)
			}
			b = b[n:]
			continue
		}

		msg, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, corrupt(n)
		}
		b = b[n:]

		ev, err := decodeEvent(msg)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func decodeEvent(b []byte) (MetricEvent, error) {
	var ev MetricEvent
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return ev, corrupt(n)
		}
		b = b[n:]

		switch {
		case num == eventValueField && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return ev, corrupt(n)
			}
			ev.Value = math.Float64frombits(v)
			b = b[n:]
		case num == eventStepField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return ev, corrupt(n)
			}
			ev.Step = protowire.DecodeZigZag(v)
			b = b[n:]
		case num == eventTimeField && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return ev, corrupt(n)
			}
			ev.Elapsed = secondsToDuration(math.Float64frombits(v))
			b = b[n:]
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return ev, corrupt(n)
			}
			b = b[n:]
		}
	}
	return ev, nil
}

// secondsToDuration rounds to the nearest nanosecond so that durations survive the trip
// through float seconds.
func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

func corrupt(n int) error {
	return errors.Wrapf(errors.ErrCorruptSeries, "%v", protowire.ParseError(n))
}

// EncodeText returns the base64 text form embedded in the Log Store JSON document.
func EncodeText(events []MetricEvent) string {
	return base64.StdEncoding.EncodeToString(EncodeSeries(events))
}

// DecodeText reverses EncodeText.
func DecodeText(s string) ([]MetricEvent, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCorruptSeries, err.Error())
	}
	return DecodeSeries(raw)
}
