package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"superforecaster/errors"
	"superforecaster/models"
)

// numberPrefix matches the leading decimal number of an input, so "12abc"
// reads as 12 the way a form field does.
var numberPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber coerces user input to a number. Anything without a leading
// number, including the empty string, becomes 0.
func ParseNumber(s string) float64 {
	m := numberPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ParseSentiment validates a sentiment option. "none" is accepted as an alias
// of the empty option.
func ParseSentiment(s string) (models.Sentiment, error) {
	v := models.Sentiment(strings.ToLower(strings.TrimSpace(s)))
	if v == "none" {
		v = models.SentimentNone
	}
	if !models.ValidSentiments[v] {
		return models.SentimentNone, fmt.Errorf("%w: %q", errors.ErrInvalidSentiment, s)
	}
	return v, nil
}

// ParseValue turns raw input for metric into a display-unit Value. Numeric
// metrics never fail; bad input reads as 0.
func ParseValue(metric models.Metric, raw string) (models.Value, error) {
	switch models.SpecFor(metric).Unit {
	case models.UnitCategorical:
		s, err := ParseSentiment(raw)
		if err != nil {
			return models.Absent, err
		}
		return models.Text(string(s)), nil
	case models.UnitFlag:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return models.Bool(false), nil
		}
		return models.Bool(b), nil
	default:
		return models.Number(ParseNumber(raw)), nil
	}
}

// ParseEdits reads an edit script: CSV rows of
// action, segment, month, metric, value.
// Lines starting with '#' are comments. Cells a given action doesn't use may
// be left empty. Segment and metric names are checked against the known set;
// month labels are checked later against the timeline.
func ParseEdits(r io.Reader) ([]models.Edit, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.Comment = '#'

	known := make(map[string]bool, len(models.SegmentChain))
	for _, key := range models.SegmentChain {
		known[key] = true
	}

	var edits []models.Edit
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading edits: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if len(record) != 5 {
			return nil, &errors.ParseError{Line: line, Record: record, Err: errors.ErrInvalidFieldCount}
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}

		e := models.Edit{
			Action:  models.EditAction(strings.ToLower(record[0])),
			Segment: record[1],
			Month:   record[2],
			Metric:  models.Metric(record[3]),
		}
		if !models.ValidEditActions[e.Action] {
			return nil, &errors.ParseError{Line: line, Record: record, Err: errors.ErrInvalidAction}
		}
		if !known[e.Segment] {
			return nil, &errors.ParseError{Line: line, Record: record, Err: errors.ErrUnknownSegment}
		}
		if err := checkFields(e); err != nil {
			return nil, &errors.ParseError{Line: line, Record: record, Err: err}
		}

		switch e.Action {
		case models.ActionSet, models.ActionDefault:
			e.Value, err = ParseValue(e.Metric, record[4])
			if err != nil {
				return nil, &errors.ParseError{Line: line, Record: record, Err: err}
			}
		}
		edits = append(edits, e)
	}
	return edits, nil
}

// checkFields validates the month and metric cells an action needs.
func checkFields(e models.Edit) error {
	needsMonth := e.Action == models.ActionSet || e.Action == models.ActionClear || e.Action == models.ActionLockRow
	if needsMonth && e.Month == "" {
		return fmt.Errorf("%w: month required for %s", errors.ErrUnknownMonth, e.Action)
	}
	if e.Action == models.ActionLockRow {
		return nil
	}
	spec, ok := models.LookupMetric(e.Metric)
	if !ok || spec.Key == models.MetricIsLocked || !spec.AppliesTo(e.Segment) {
		return fmt.Errorf("%w: %q", errors.ErrUnknownMetric, e.Metric)
	}
	if e.Action == models.ActionDefault && !spec.Default {
		return fmt.Errorf("%w: %q has no segment default", errors.ErrUnknownMetric, e.Metric)
	}
	return nil
}
