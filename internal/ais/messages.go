package ais

import (
	"math"
	"math/big"
	"time"

	"github.com/kwan3217/globetrotter/internal/schema"
)

// Navigation status values for position reports.
const (
	StatusUnderWayEngine = 0
	StatusAtAnchor       = 1
	StatusNotUnderCmd    = 2
	StatusRestricted     = 3
	StatusConstrained    = 4
	StatusMoored         = 5
	StatusAground        = 6
	StatusFishing        = 7
	StatusUnderWaySail   = 8
	StatusAISSartActive  = 14
	StatusUndefined      = 15
)

// coord scales a signed lon/lat field from 1/10000 minute to degrees.
var coord = schema.Mul(1.0 / 600000)

// turnRate converts the raw rate-of-turn field: +-127 pin the value at
// +-infinity (turning faster than 5 deg / 30 s), -128 means not available,
// otherwise deg/min = sign * (raw/4.733)^2.
func turnRate(raw any) any {
	x := schema.AsInt(raw)
	switch x {
	case -128:
		return math.NaN()
	case 127:
		return math.Inf(1)
	case -127:
		return math.Inf(-1)
	}
	r := float64(x) / 4.733
	r *= r
	if x < 0 {
		return -r
	}
	return r
}

// text declares a packed 6-bit character field.
func text(name string, start, width int) schema.BitField {
	return schema.BitField{
		Name: name, Start: start, Width: width, Wide: true,
		Scale: func(raw any) any { return sixbitString(raw.(*big.Int), width) },
	}
}

func omit(name string, start, width int) schema.BitField {
	return schema.BitField{Name: name, Start: start, Width: width, Omit: true}
}

// radioFixup splits the communication-state field of a position report.
// Types 1 and 2 carry SOTDMA state, type 3 carries ITDMA state.
func radioFixup(r *schema.Record) error {
	v, ok := r.Get("radio")
	if !ok {
		return nil
	}
	radio := uint64(schema.AsInt(v))
	if r.Int("msgtype") == 3 {
		r.Fields["sync_state"] = int64(radio >> 17 & 0x3)
		r.Fields["slot_increment"] = int64(radio >> 4 & 0x1FFF)
		r.Fields["slots_to_allocate"] = int64(radio >> 1 & 0x7)
		r.Fields["keep_flag"] = int64(radio & 0x1)
		return nil
	}
	r.Fields["sync_state"] = int64(radio >> 17 & 0x3)
	timeout := int64(radio >> 14 & 0x7)
	r.Fields["slot_timeout"] = timeout
	sub := int64(radio & 0x3FFF)
	switch timeout {
	case 3, 5, 7:
		r.Fields["received_stations"] = sub
	case 2, 4, 6:
		r.Fields["slot_number"] = sub
	case 1:
		r.Fields["utc_hour"] = sub >> 9 & 0x1F
		r.Fields["utc_minute"] = sub >> 2 & 0x7F
	case 0:
		r.Fields["slot_offset"] = sub
	}
	return nil
}

// posA covers message types 1, 2 and 3 (class A position report).
var posA = &schema.BitLayout{
	Name: "ais_pos_a",
	Fields: []schema.BitField{
		schema.B("msgtype", 0, 6),
		schema.B("repeat", 6, 2),
		schema.B("mmsi", 8, 30),
		schema.B("status", 38, 4),
		schema.BSigned("turn", 42, 8, turnRate),
		schema.BS("speed", 50, 10, schema.Mul(0.1)),
		schema.B("accuracy", 60, 1),
		schema.BSigned("lon", 61, 28, coord),
		schema.BSigned("lat", 89, 27, coord),
		schema.BS("course", 116, 12, schema.Mul(0.1)),
		schema.B("heading", 128, 9),
		schema.B("second", 137, 6),
		schema.B("maneuver", 143, 2),
		omit("spare", 145, 3),
		schema.B("raim", 148, 1),
		schema.B("radio", 149, 19),
	},
	Fixup: radioFixup,
}

func baseStationFixup(r *schema.Record) error {
	year := int(r.Int("year"))
	if year == 0 {
		return nil
	}
	r.Fields["utc"] = time.Date(year, time.Month(r.Int("month")), int(r.Int("day")),
		int(r.Int("hour")), int(r.Int("minute")), int(r.Int("second")), 0, time.UTC)
	return nil
}

// base is message type 4 (base station report) and type 11 (UTC response),
// which share a layout.
var base = &schema.BitLayout{
	Name: "ais_base",
	Fields: []schema.BitField{
		schema.B("msgtype", 0, 6),
		schema.B("repeat", 6, 2),
		schema.B("mmsi", 8, 30),
		schema.B("year", 38, 14),
		schema.B("month", 52, 4),
		schema.B("day", 56, 5),
		schema.B("hour", 61, 5),
		schema.B("minute", 66, 6),
		schema.B("second", 72, 6),
		schema.B("accuracy", 78, 1),
		schema.BSigned("lon", 79, 28, coord),
		schema.BSigned("lat", 107, 27, coord),
		schema.B("epfd", 134, 4),
		omit("spare", 138, 10),
		schema.B("raim", 148, 1),
		schema.B("radio", 149, 19),
	},
	Fixup: baseStationFixup,
}

// static is message type 5 (class A static and voyage data).
var static = &schema.BitLayout{
	Name: "ais_static",
	Fields: []schema.BitField{
		schema.B("msgtype", 0, 6),
		schema.B("repeat", 6, 2),
		schema.B("mmsi", 8, 30),
		schema.B("ais_version", 38, 2),
		schema.B("imo", 40, 30),
		text("callsign", 70, 42),
		text("shipname", 112, 120),
		schema.B("shiptype", 232, 8),
		schema.B("to_bow", 240, 9),
		schema.B("to_stern", 249, 9),
		schema.B("to_port", 258, 6),
		schema.B("to_starboard", 264, 6),
		schema.B("epfd", 270, 4),
		schema.B("month", 274, 4),
		schema.B("day", 278, 5),
		schema.B("hour", 283, 5),
		schema.B("minute", 288, 6),
		schema.BS("draught", 294, 8, schema.Mul(0.1)),
		text("destination", 302, 120),
		schema.B("dte", 422, 1),
	},
}

// addressed is the generic frame of message type 6 (binary addressed); the
// application payload after bit 88 is dispatched on (dac, fid).
var addressed = &schema.BitLayout{
	Name: "ais_addressed",
	Fields: []schema.BitField{
		schema.B("msgtype", 0, 6),
		schema.B("repeat", 6, 2),
		schema.B("mmsi", 8, 30),
		schema.B("seqno", 38, 2),
		schema.B("dest_mmsi", 40, 30),
		schema.B("retransmit", 70, 1),
		omit("spare", 71, 1),
		schema.B("dac", 72, 10),
		schema.B("fid", 82, 6),
	},
}

// broadcast is the generic frame of message type 8 (binary broadcast); the
// application payload after bit 56 is dispatched on (dac, fid).
var broadcast = &schema.BitLayout{
	Name: "ais_broadcast",
	Fields: []schema.BitField{
		schema.B("msgtype", 0, 6),
		schema.B("repeat", 6, 2),
		schema.B("mmsi", 8, 30),
		omit("spare", 38, 2),
		schema.B("dac", 40, 10),
		schema.B("fid", 50, 6),
	},
}

// interrogation is message type 15. Short transmissions leave the later
// target fields absent.
var interrogation = &schema.BitLayout{
	Name: "ais_interrogation",
	Fields: []schema.BitField{
		schema.B("msgtype", 0, 6),
		schema.B("repeat", 6, 2),
		schema.B("mmsi", 8, 30),
		omit("spare", 38, 2),
		schema.B("mmsi1", 40, 30),
		schema.B("type1_1", 70, 6),
		schema.B("offset1_1", 76, 12),
		omit("spare2", 88, 2),
		schema.B("type1_2", 90, 6),
		schema.B("offset1_2", 96, 12),
		omit("spare3", 108, 2),
		schema.B("mmsi2", 110, 30),
		schema.B("type2_1", 140, 6),
		schema.B("offset2_1", 146, 12),
	},
}

// posB is message type 18 (class B position report).
var posB = &schema.BitLayout{
	Name: "ais_pos_b",
	Fields: []schema.BitField{
		schema.B("msgtype", 0, 6),
		schema.B("repeat", 6, 2),
		schema.B("mmsi", 8, 30),
		omit("reserved", 38, 8),
		schema.BS("speed", 46, 10, schema.Mul(0.1)),
		schema.B("accuracy", 56, 1),
		schema.BSigned("lon", 57, 28, coord),
		schema.BSigned("lat", 85, 27, coord),
		schema.BS("course", 112, 12, schema.Mul(0.1)),
		schema.B("heading", 124, 9),
		schema.B("second", 133, 6),
		omit("reserved2", 139, 2),
		schema.B("cs", 141, 1),
		schema.B("display", 142, 1),
		schema.B("dsc", 143, 1),
		schema.B("band", 144, 1),
		schema.B("msg22", 145, 1),
		schema.B("assigned", 146, 1),
		schema.B("raim", 147, 1),
		schema.B("radio", 148, 20),
	},
}

// aton is message type 21 (aid to navigation report).
var aton = &schema.BitLayout{
	Name: "ais_aton",
	Fields: []schema.BitField{
		schema.B("msgtype", 0, 6),
		schema.B("repeat", 6, 2),
		schema.B("mmsi", 8, 30),
		schema.B("aid_type", 38, 5),
		text("name", 43, 120),
		schema.B("accuracy", 163, 1),
		schema.BSigned("lon", 164, 28, coord),
		schema.BSigned("lat", 192, 27, coord),
		schema.B("to_bow", 219, 9),
		schema.B("to_stern", 228, 9),
		schema.B("to_port", 237, 6),
		schema.B("to_starboard", 243, 6),
		schema.B("epfd", 249, 4),
		schema.B("second", 253, 6),
		schema.B("off_position", 259, 1),
		schema.B("regional", 260, 8),
		schema.B("raim", 268, 1),
		schema.B("virtual_aid", 269, 1),
		schema.B("assigned", 270, 1),
	},
}

// staticA and staticB are the two halves of message type 24, selected by the
// part number at bit 38.
var staticA = &schema.BitLayout{
	Name: "ais_static_a",
	Fields: []schema.BitField{
		schema.B("msgtype", 0, 6),
		schema.B("repeat", 6, 2),
		schema.B("mmsi", 8, 30),
		schema.B("partno", 38, 2),
		text("shipname", 40, 120),
	},
}

var staticB = &schema.BitLayout{
	Name: "ais_static_b",
	Fields: []schema.BitField{
		schema.B("msgtype", 0, 6),
		schema.B("repeat", 6, 2),
		schema.B("mmsi", 8, 30),
		schema.B("partno", 38, 2),
		schema.B("shiptype", 40, 8),
		text("vendorid", 48, 18),
		schema.B("model", 66, 4),
		schema.B("serial", 70, 20),
		text("callsign", 90, 42),
		schema.B("to_bow", 132, 9),
		schema.B("to_stern", 141, 9),
		schema.B("to_port", 150, 6),
		schema.B("to_starboard", 156, 6),
		omit("spare", 162, 6),
	},
}
