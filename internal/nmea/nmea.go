// Package nmea decodes NMEA 0183 sentence bodies into records. Checksum
// verification happens upstream in the frame reader; this package only sees
// the text between the leading '$' and the '*'.
package nmea

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kwan3217/globetrotter/internal/schema"
)

// ParseError reports a sentence whose body does not match its formatter.
type ParseError struct {
	Formatter string
	Field     string
	Reason    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("nmea: %s field %s: %s", e.Formatter, e.Field, e.Reason)
}

type decoder func(args []string, rec *schema.Record) error

var formatters = map[string]decoder{
	"GGA": decodeGGA,
	"RMC": decodeRMC,
}

// Decode parses a sentence body. Known formatters get typed fields; anything
// else keeps its raw arguments so it still lands in storage.
func Decode(body string) (*schema.Record, error) {
	parts := strings.Split(body, ",")
	addr := parts[0]
	if len(addr) < 3 {
		return nil, &ParseError{Formatter: addr, Field: "address", Reason: "too short"}
	}
	formatter := addr[len(addr)-3:]
	rec := &schema.Record{
		Protocol: "nmea",
		Packet:   "nmea_" + strings.ToLower(formatter),
		Fields:   map[string]any{"talker": addr[:len(addr)-3]},
	}
	dec, ok := formatters[formatter]
	if !ok {
		rec.Fields["args"] = strings.Join(parts[1:], ",")
		return rec, nil
	}
	if err := dec(parts[1:], rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// arg returns field i, or "" when the sentence is short or the field empty.
func arg(args []string, i int) string {
	if i >= len(args) {
		return ""
	}
	return args[i]
}

func number(formatter, name, s string, rec *schema.Record) error {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return &ParseError{Formatter: formatter, Field: name, Reason: err.Error()}
	}
	rec.Fields[name] = v
	return nil
}

// angle converts [d]ddmm.mmmm plus a hemisphere letter to signed degrees.
func angle(formatter, name, s, hemi string, rec *schema.Record) error {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return &ParseError{Formatter: formatter, Field: name, Reason: err.Error()}
	}
	deg := float64(int(v / 100))
	deg += (v - 100*deg) / 60
	switch hemi {
	case "S", "W":
		deg = -deg
	case "N", "E", "":
	default:
		return &ParseError{Formatter: formatter, Field: name, Reason: "bad hemisphere " + hemi}
	}
	rec.Fields[name] = deg
	return nil
}

// clock parses hhmmss.ss into a timestamp on the reference date, or on the
// zero date when none is given.
func clock(formatter, name, s string, date time.Time, rec *schema.Record) error {
	if s == "" {
		return nil
	}
	if len(s) < 6 {
		return &ParseError{Formatter: formatter, Field: name, Reason: "too short"}
	}
	h, err1 := strconv.Atoi(s[0:2])
	m, err2 := strconv.Atoi(s[2:4])
	sec, err3 := strconv.ParseFloat(s[4:], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return &ParseError{Formatter: formatter, Field: name, Reason: "bad clock " + s}
	}
	whole := int(sec)
	nano := int((sec - float64(whole)) * 1e9)
	rec.Fields[name] = time.Date(date.Year(), date.Month(), date.Day(), h, m, whole, nano, time.UTC)
	return nil
}

func decodeGGA(args []string, rec *schema.Record) error {
	if err := clock("GGA", "utc", arg(args, 0), time.Time{}, rec); err != nil {
		return err
	}
	if err := angle("GGA", "lat", arg(args, 1), arg(args, 2), rec); err != nil {
		return err
	}
	if err := angle("GGA", "lon", arg(args, 3), arg(args, 4), rec); err != nil {
		return err
	}
	if q := arg(args, 5); q != "" {
		v, err := strconv.ParseInt(q, 10, 64)
		if err != nil {
			return &ParseError{Formatter: "GGA", Field: "quality", Reason: err.Error()}
		}
		rec.Fields["quality"] = v
	}
	if err := number("GGA", "num_sv", arg(args, 6), rec); err != nil {
		return err
	}
	if err := number("GGA", "hdop", arg(args, 7), rec); err != nil {
		return err
	}
	if err := number("GGA", "alt", arg(args, 8), rec); err != nil {
		return err
	}
	if err := number("GGA", "geoid_sep", arg(args, 10), rec); err != nil {
		return err
	}
	if err := number("GGA", "dgps_age", arg(args, 12), rec); err != nil {
		return err
	}
	if st := arg(args, 13); st != "" {
		rec.Fields["dgps_station"] = st
	}
	return nil
}

func decodeRMC(args []string, rec *schema.Record) error {
	var date time.Time
	if d := arg(args, 8); d != "" {
		if len(d) != 6 {
			return &ParseError{Formatter: "RMC", Field: "date", Reason: "bad date " + d}
		}
		day, err1 := strconv.Atoi(d[0:2])
		mon, err2 := strconv.Atoi(d[2:4])
		yy, err3 := strconv.Atoi(d[4:6])
		if err1 != nil || err2 != nil || err3 != nil {
			return &ParseError{Formatter: "RMC", Field: "date", Reason: "bad date " + d}
		}
		// Two-digit years pivot at 80: 80..99 are 19xx.
		century := 2000
		if yy >= 80 {
			century = 1900
		}
		date = time.Date(century+yy, time.Month(mon), day, 0, 0, 0, 0, time.UTC)
	}
	if err := clock("RMC", "utc", arg(args, 0), date, rec); err != nil {
		return err
	}
	if st := arg(args, 1); st != "" {
		rec.Fields["active"] = st == "A"
	}
	if err := angle("RMC", "lat", arg(args, 2), arg(args, 3), rec); err != nil {
		return err
	}
	if err := angle("RMC", "lon", arg(args, 4), arg(args, 5), rec); err != nil {
		return err
	}
	if err := number("RMC", "sog", arg(args, 6), rec); err != nil {
		return err
	}
	if err := number("RMC", "cog", arg(args, 7), rec); err != nil {
		return err
	}
	// Magnetic variation carries its own sign letter.
	if err := number("RMC", "mag_var", arg(args, 9), rec); err != nil {
		return err
	}
	if arg(args, 10) == "W" {
		if v, ok := rec.Fields["mag_var"].(float64); ok {
			rec.Fields["mag_var"] = -v
		}
	}
	if mode := arg(args, 11); mode != "" {
		rec.Fields["mode"] = mode
	}
	return nil
}
