package models

import "strconv"

// ValueKind tags the payload carried by a Value.
type ValueKind int

const (
	KindAbsent ValueKind = iota
	KindNumber
	KindText
	KindBool
)

// Value is a resolved or overridden cell value. The zero Value is absent.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
	Flag bool
}

// Absent is the value of a cell nobody has set.
var Absent = Value{}

// Number wraps a numeric value.
func Number(v float64) Value { return Value{Kind: KindNumber, Num: v} }

// Text wraps a categorical value.
func Text(s string) Value { return Value{Kind: KindText, Str: s} }

// Bool wraps a flag value.
func Bool(b bool) Value { return Value{Kind: KindBool, Flag: b} }

// IsAbsent reports whether the value is unset.
func (v Value) IsAbsent() bool { return v.Kind == KindAbsent }

// Float returns the numeric payload, or 0 for anything that isn't a number.
func (v Value) Float() float64 {
	if v.Kind == KindNumber {
		return v.Num
	}
	return 0
}

// Sentiment returns the categorical payload as a Sentiment.
func (v Value) Sentiment() Sentiment {
	if v.Kind == KindText {
		return Sentiment(v.Str)
	}
	return SentimentNone
}

// Interface returns the payload as a plain Go value for serialisation.
// Absent values return nil.
func (v Value) Interface() any {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindText:
		return v.Str
	case KindBool:
		return v.Flag
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindText:
		return v.Str
	case KindBool:
		return strconv.FormatBool(v.Flag)
	default:
		return ""
	}
}

// ValueOf converts a decoded JSON leaf back into a Value.
func ValueOf(raw any) Value {
	switch t := raw.(type) {
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case string:
		return Text(t)
	case bool:
		return Bool(t)
	default:
		return Absent
	}
}

// Sentiment records how a month felt to the team.
type Sentiment string

const (
	SentimentNone     Sentiment = ""
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// ValidSentiments is the accepted set of sentiment values.
var ValidSentiments = map[Sentiment]bool{
	SentimentNone:     true,
	SentimentPositive: true,
	SentimentNeutral:  true,
	SentimentNegative: true,
}

// Glyph returns the emoji shown for the sentiment.
func (s Sentiment) Glyph() string {
	switch s {
	case SentimentPositive:
		return "🙂"
	case SentimentNeutral:
		return "😐"
	case SentimentNegative:
		return "☹️"
	default:
		return ""
	}
}
