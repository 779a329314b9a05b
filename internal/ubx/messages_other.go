package ubx

import (
	"math"

	"github.com/kwan3217/globetrotter/internal/schema"
)

var ackACK = schema.MustCompile("ubx_ack_ack", []schema.Field{
	schema.F("cls_id", schema.U1),
	schema.F("msg_id", schema.U1),
})

var ackNAK = schema.MustCompile("ubx_ack_nak", []schema.Field{
	schema.F("cls_id", schema.U1),
	schema.F("msg_id", schema.U1),
})

var timTP = func() *schema.Layout {
	l := schema.MustCompile("ubx_tim_tp", []schema.Field{
		schema.FS("tow_ms", schema.U4, ms),
		schema.FS("tow_sub_ms", schema.U4, schema.Mul(1e-3/(1<<32))),
		schema.F("q_err", schema.I4),
		schema.F("week", schema.U2),
		bit("time_base", schema.X1, 0, 0),
		bit("utc_avail", schema.X1, 1, 1),
		bit("raim", schema.X1, 3, 2),
		bit("q_err_invalid", schema.X1, 4, 4),
		bit("time_ref_gnss", schema.X1, 3, 0),
		bit("utc_standard", schema.X1, 7, 4),
	})
	l.Fixup = func(r *schema.Record) error {
		if r.Int("q_err_invalid") != 0 {
			r.Fields["q_err"] = math.NaN()
		}
		return nil
	}
	return l
}()

// rxmSFRBX carries raw navigation subframe words; the L1 C/A decoder
// consumes the dwrd column.
var rxmSFRBX = schema.MustCompile("ubx_rxm_sfrbx", []schema.Field{
	schema.F("gnss_id", schema.U1),
	schema.F("sv_id", schema.U1),
	schema.F("sig_id", schema.U1),
	schema.F("freq_id", schema.U1),
	schema.F("num_words", schema.U1),
	schema.F("chn", schema.U1),
	schema.F("version", schema.U1),
	pad("reserved0", 1),
	rep(schema.F("dwrd", schema.U4)),
})

func stdevExp(base float64) schema.ScaleFunc {
	return func(raw any) any {
		return base * math.Pow(2, float64(schema.AsInt(raw)))
	}
}

var rxmRAWX = schema.MustCompile("ubx_rxm_rawx", []schema.Field{
	schema.F("rcv_tow", schema.R8),
	schema.F("week", schema.U2),
	schema.F("leap_s", schema.I1),
	schema.F("num_meas", schema.U1),
	bit("leap_sec", schema.X1, 0, 0),
	bit("clk_reset", schema.X1, 1, 1),
	schema.F("version", schema.U1),
	pad("reserved0", 2),
	rep(schema.F("pr_mes", schema.R8)),
	rep(schema.F("cp_mes", schema.R8)),
	rep(schema.F("do_mes", schema.R4)),
	rep(schema.F("gnss_id", schema.U1)),
	rep(schema.F("sv_id", schema.U1)),
	rep(schema.F("sig_id", schema.U1)),
	rep(schema.F("freq_id", schema.U1)),
	rep(schema.FS("locktime", schema.U2, ms)),
	rep(schema.F("cno", schema.U1)),
	rep(bitS("pr_stdev", schema.X1, 3, 0, stdevExp(0.01))),
	rep(bitS("cp_stdev", schema.X1, 3, 0, schema.Mul(0.004))),
	rep(bitS("do_stdev", schema.X1, 3, 0, stdevExp(0.002))),
	rep(bit("pr_valid", schema.X1, 0, 0)),
	rep(bit("cp_valid", schema.X1, 1, 1)),
	rep(bit("half_cyc", schema.X1, 2, 2)),
	rep(bit("sub_half_cyc", schema.X1, 3, 3)),
	rep(pad("reserved1", 1)),
})

// monVER's repeating section is a list of 30-character extension strings.
var monVER = schema.MustCompile("ubx_mon_ver", []schema.Field{
	ch("sw_version", 30),
	ch("hw_version", 10),
	rep(ch("extension", 30)),
})

var monRF = schema.MustCompile("ubx_mon_rf", []schema.Field{
	schema.F("version", schema.U1),
	schema.F("n_blocks", schema.U1),
	pad("reserved0", 2),
	rep(schema.F("block_id", schema.U1)),
	rep(bit("jamming_state", schema.X1, 1, 0)),
	rep(schema.F("ant_status", schema.U1)),
	rep(schema.F("ant_power", schema.U1)),
	rep(schema.F("post_status", schema.U4)),
	rep(pad("reserved1", 4)),
	rep(schema.F("noise_per_ms", schema.U2)),
	rep(schema.F("agc_cnt", schema.U2)),
	rep(schema.F("jam_ind", schema.U1)),
	rep(schema.F("ofs_i", schema.I1)),
	rep(schema.F("mag_i", schema.U1)),
	rep(schema.F("ofs_q", schema.I1)),
	rep(schema.F("mag_q", schema.U1)),
	rep(pad("reserved2", 3)),
})

// monSPAN blocks carry a 256-bin spectrum snapshot per RF path.
var monSPAN = schema.MustCompile("ubx_mon_span", []schema.Field{
	schema.F("version", schema.U1),
	schema.F("num_rf_blocks", schema.U1),
	pad("reserved0", 2),
	rep(schema.Field{Name: "spectrum", Kind: schema.BY, Len: 256, Hi: -1, Lo: -1}),
	rep(schema.F("span", schema.U4)),
	rep(schema.F("res", schema.U4)),
	rep(schema.F("center", schema.U4)),
	rep(schema.F("pga", schema.U1)),
	rep(pad("reserved1", 3)),
})

var esfMEAS = func() *schema.Layout {
	l := schema.MustCompile("ubx_esf_meas", []schema.Field{
		schema.F("time_tag", schema.U4),
		bit("time_mark_sent", schema.X2, 1, 0),
		bit("time_mark_edge", schema.X2, 2, 2),
		bit("calib_ttag_valid", schema.X2, 3, 3),
		bit("num_meas", schema.X2, 15, 11),
		schema.F("provider_id", schema.U2),
		rep(bitS("data_field", schema.X4, 23, 0, schema.Signed(24, 1))),
		rep(bit("data_type", schema.X4, 29, 24)),
		schema.FS("calib_ttag", schema.U4, ms),
	})
	// Scale each reading to physical units by its sensor type.
	l.Fixup = func(r *schema.Record) error {
		raw := r.Blocks["data_field"]
		types := r.Blocks["data_type"]
		vals := make([]any, len(raw))
		for i := range raw {
			v := schema.AsFloat(raw[i])
			if s, ok := sensorUnits[schema.AsInt(types[i])]; ok {
				v *= s
			}
			vals[i] = v
		}
		r.Blocks["value"] = vals
		return nil
	}
	return l
}()

var esfSTATUS = schema.MustCompile("ubx_esf_status", []schema.Field{
	schema.FS("itow", schema.U4, ms),
	schema.F("version", schema.U1),
	bit("wt_init_status", schema.X1, 1, 0),
	bit("mnt_alg_status", schema.X1, 4, 2),
	bit("ins_init_status", schema.X1, 6, 5),
	bit("imu_init_status", schema.X1, 1, 0),
	pad("reserved0", 5),
	schema.F("fusion_mode", schema.U1),
	pad("reserved1", 2),
	schema.F("num_sens", schema.U1),
	rep(bit("sens_type", schema.X1, 5, 0)),
	rep(bit("sens_used", schema.X1, 6, 6)),
	rep(bit("sens_ready", schema.X1, 7, 7)),
	rep(bit("calib_status", schema.X1, 1, 0)),
	rep(bit("time_status", schema.X1, 3, 2)),
	rep(schema.F("freq", schema.U1)),
	rep(bit("bad_meas", schema.X1, 0, 0)),
	rep(bit("bad_ttag", schema.X1, 1, 1)),
	rep(bit("missing_meas", schema.X1, 2, 2)),
	rep(bit("noisy_meas", schema.X1, 3, 3)),
})

var esfALG = schema.MustCompile("ubx_esf_alg", []schema.Field{
	schema.FS("itow", schema.U4, ms),
	schema.F("version", schema.U1),
	bit("auto_mnt_alg_on", schema.X1, 0, 0),
	bit("status", schema.X1, 3, 1),
	bit("tilt_alg_error", schema.X1, 0, 0),
	bit("yaw_alg_error", schema.X1, 1, 1),
	bit("angle_error", schema.X1, 2, 2),
	pad("reserved0", 1),
	schema.FS("yaw", schema.U4, deg2),
	schema.FS("pitch", schema.I2, deg2),
	schema.FS("roll", schema.I2, deg2),
})

var esfINS = schema.MustCompile("ubx_esf_ins", []schema.Field{
	bit("version", schema.X4, 7, 0),
	bit("x_ang_rate_valid", schema.X4, 8, 8),
	bit("y_ang_rate_valid", schema.X4, 9, 9),
	bit("z_ang_rate_valid", schema.X4, 10, 10),
	bit("x_accel_valid", schema.X4, 11, 11),
	bit("y_accel_valid", schema.X4, 12, 12),
	bit("z_accel_valid", schema.X4, 13, 13),
	pad("reserved0", 4),
	schema.FS("itow", schema.U4, ms),
	schema.FS("x_ang_rate", schema.I4, mm),
	schema.FS("y_ang_rate", schema.I4, mm),
	schema.FS("z_ang_rate", schema.I4, mm),
	schema.FS("x_accel", schema.I4, cm),
	schema.FS("y_accel", schema.I4, cm),
	schema.FS("z_accel", schema.I4, cm),
})
