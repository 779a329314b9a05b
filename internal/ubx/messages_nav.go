package ubx

import (
	"math"
	"time"

	"github.com/kwan3217/globetrotter/internal/schema"
)

// Shared scale factors. Raw units in the interface description are ms, cm,
// mm, 1e-7 deg and so on; records carry SI units and degrees.
var (
	ms      = schema.Mul(1e-3)
	ns      = schema.Mul(1e-9)
	cm      = schema.Mul(1e-2)
	mm      = schema.Mul(1e-3)
	tenthMM = schema.Mul(1e-4)
	deg7    = schema.Mul(1e-7)
	deg5    = schema.Mul(1e-5)
	deg2    = schema.Mul(1e-2)
	dop     = schema.Mul(0.01)
)

func bit(name string, kind schema.Kind, hi, lo int) schema.Field {
	return schema.Field{Name: name, Kind: kind, Hi: hi, Lo: lo}
}

func bitS(name string, kind schema.Kind, hi, lo int, scale schema.ScaleFunc) schema.Field {
	f := bit(name, kind, hi, lo)
	f.Scale = scale
	return f
}

// reserved byte runs are parsed for geometry but never materialized.
func pad(name string, n int) schema.Field {
	return schema.Field{Name: name, Kind: schema.BY, Len: n, Hi: -1, Lo: -1, Omit: true}
}

func ch(name string, n int) schema.Field {
	return schema.Field{Name: name, Kind: schema.CH, Len: n, Hi: -1, Lo: -1}
}

func hid(f schema.Field) schema.Field {
	f.Omit = true
	return f
}

func rep(f schema.Field) schema.Field {
	f.Repeat = true
	return f
}

// utcFrom assembles a timestamp from the date/time component fields plus the
// signed nanosecond correction.
func utcFrom(r *schema.Record) time.Time {
	return time.Date(int(r.Int("year")), time.Month(r.Int("month")), int(r.Int("day")),
		int(r.Int("hour")), int(r.Int("min")), int(r.Int("sec")), int(r.Int("nano")), time.UTC)
}

// correctionAge maps the NAV-PVT lastCorrectionAge bucket index to the
// bucket's upper bound in seconds.
func correctionAge(raw any) any {
	bounds := []float64{math.NaN(), 1, 2, 5, 10, 15, 20, 30, 45, 60, 90, 120}
	n := schema.AsInt(raw)
	if int(n) < len(bounds) {
		return bounds[n]
	}
	return math.Inf(1)
}

// Layouts with fixups are built by immediately-invoked initializers so the
// message table below sees them fully constructed.
var navPVT = func() *schema.Layout {
	l := schema.MustCompile("ubx_nav_pvt", []schema.Field{
		schema.FS("itow", schema.U4, ms),
		hid(schema.F("year", schema.U2)),
		hid(schema.F("month", schema.U1)),
		hid(schema.F("day", schema.U1)),
		hid(schema.F("hour", schema.U1)),
		hid(schema.F("min", schema.U1)),
		hid(schema.F("sec", schema.U1)),
		hid(bit("valid_date", schema.X1, 0, 0)),
		hid(bit("valid_time", schema.X1, 1, 1)),
		hid(bit("fully_resolved", schema.X1, 2, 2)),
		hid(bit("valid_mag", schema.X1, 3, 3)),
		schema.FS("t_acc", schema.U4, ns),
		hid(schema.F("nano", schema.I4)),
		schema.F("fix_type", schema.U1),
		bit("gnss_fix_ok", schema.X1, 0, 0),
		bit("diff_soln", schema.X1, 1, 1),
		bit("psm_state", schema.X1, 4, 2),
		bit("head_veh_valid", schema.X1, 5, 5),
		bit("carr_soln", schema.X1, 7, 6),
		bit("confirmed_avai", schema.X1, 5, 5),
		bit("confirmed_date", schema.X1, 6, 6),
		bit("confirmed_time", schema.X1, 7, 7),
		schema.F("num_sv", schema.U1),
		schema.FS("lon", schema.I4, deg7),
		schema.FS("lat", schema.I4, deg7),
		schema.FS("height", schema.I4, mm),
		schema.FS("h_msl", schema.I4, mm),
		schema.FS("h_acc", schema.U4, mm),
		schema.FS("v_acc", schema.U4, mm),
		schema.FS("vel_n", schema.I4, mm),
		schema.FS("vel_e", schema.I4, mm),
		schema.FS("vel_d", schema.I4, mm),
		schema.FS("g_speed", schema.I4, mm),
		schema.FS("head_mot", schema.I4, deg5),
		schema.FS("s_acc", schema.U4, mm),
		schema.FS("head_acc", schema.U4, deg5),
		schema.FS("p_dop", schema.U2, dop),
		bit("invalid_llh", schema.X2, 0, 0),
		bitS("last_correction_age", schema.X2, 4, 1, correctionAge),
		pad("reserved0", 4),
		schema.FS("head_veh", schema.I4, deg5),
		schema.FS("mag_dec", schema.I2, deg2),
		schema.FS("mag_acc", schema.U2, deg2),
	})
	l.Fixup = func(r *schema.Record) error {
		if r.Int("valid_date") != 0 && r.Int("valid_time") != 0 {
			r.Fields["utc"] = utcFrom(r)
		}
		return nil
	}
	return l
}()

var navHPPOSLLH = func() *schema.Layout {
	l := schema.MustCompile("ubx_nav_hpposllh", []schema.Field{
		schema.F("version", schema.U1),
		pad("reserved0", 2),
		bit("invalid_llh", schema.X1, 0, 0),
		schema.FS("itow", schema.U4, ms),
		schema.FS("lon", schema.I4, deg7),
		schema.FS("lat", schema.I4, deg7),
		schema.FS("height", schema.I4, mm),
		schema.FS("h_msl", schema.I4, mm),
		hid(schema.F("lon_hp", schema.I1)),
		hid(schema.F("lat_hp", schema.I1)),
		hid(schema.F("height_hp", schema.I1)),
		hid(schema.F("h_msl_hp", schema.I1)),
		schema.FS("h_acc", schema.U4, tenthMM),
		schema.FS("v_acc", schema.U4, tenthMM),
	})
	// Fold the one-byte high-precision extensions into the coarse values:
	// 1e-9 deg on top of 1e-7 deg, 0.1 mm on top of mm.
	l.Fixup = func(r *schema.Record) error {
		r.Fields["lon"] = r.Float("lon") + float64(r.Int("lon_hp"))*1e-9
		r.Fields["lat"] = r.Float("lat") + float64(r.Int("lat_hp"))*1e-9
		r.Fields["height"] = r.Float("height") + float64(r.Int("height_hp"))*1e-4
		r.Fields["h_msl"] = r.Float("h_msl") + float64(r.Int("h_msl_hp"))*1e-4
		return nil
	}
	return l
}()

var navHPPOSECEF = func() *schema.Layout {
	l := schema.MustCompile("ubx_nav_hpposecef", []schema.Field{
		schema.F("version", schema.U1),
		pad("reserved0", 3),
		schema.FS("itow", schema.U4, ms),
		schema.FS("ecef_x", schema.I4, cm),
		schema.FS("ecef_y", schema.I4, cm),
		schema.FS("ecef_z", schema.I4, cm),
		hid(schema.F("ecef_x_hp", schema.I1)),
		hid(schema.F("ecef_y_hp", schema.I1)),
		hid(schema.F("ecef_z_hp", schema.I1)),
		bit("invalid_ecef", schema.X1, 0, 0),
		schema.FS("p_acc", schema.U4, tenthMM),
	})
	l.Fixup = func(r *schema.Record) error {
		r.Fields["ecef_x"] = r.Float("ecef_x") + float64(r.Int("ecef_x_hp"))*1e-4
		r.Fields["ecef_y"] = r.Float("ecef_y") + float64(r.Int("ecef_y_hp"))*1e-4
		r.Fields["ecef_z"] = r.Float("ecef_z") + float64(r.Int("ecef_z_hp"))*1e-4
		return nil
	}
	return l
}()

var navPOSECEF = schema.MustCompile("ubx_nav_posecef", []schema.Field{
	schema.FS("itow", schema.U4, ms),
	schema.FS("ecef_x", schema.I4, cm),
	schema.FS("ecef_y", schema.I4, cm),
	schema.FS("ecef_z", schema.I4, cm),
	schema.FS("p_acc", schema.U4, cm),
})

var navVELECEF = schema.MustCompile("ubx_nav_velecef", []schema.Field{
	schema.FS("itow", schema.U4, ms),
	schema.FS("ecef_vx", schema.I4, cm),
	schema.FS("ecef_vy", schema.I4, cm),
	schema.FS("ecef_vz", schema.I4, cm),
	schema.FS("s_acc", schema.U4, cm),
})

var navCLOCK = schema.MustCompile("ubx_nav_clock", []schema.Field{
	schema.FS("itow", schema.U4, ms),
	schema.FS("clk_bias", schema.I4, ns),
	schema.FS("clk_drift", schema.I4, ns),
	schema.FS("t_acc", schema.U4, ns),
	schema.FS("f_acc", schema.U4, schema.Mul(1e-12)),
})

var navDOP = schema.MustCompile("ubx_nav_dop", []schema.Field{
	schema.FS("itow", schema.U4, ms),
	schema.FS("g_dop", schema.U2, dop),
	schema.FS("p_dop", schema.U2, dop),
	schema.FS("t_dop", schema.U2, dop),
	schema.FS("v_dop", schema.U2, dop),
	schema.FS("h_dop", schema.U2, dop),
	schema.FS("n_dop", schema.U2, dop),
	schema.FS("e_dop", schema.U2, dop),
})

var navSTATUS = schema.MustCompile("ubx_nav_status", []schema.Field{
	schema.FS("itow", schema.U4, ms),
	schema.F("gps_fix", schema.U1),
	bit("gps_fix_ok", schema.X1, 0, 0),
	bit("diff_soln", schema.X1, 1, 1),
	bit("wkn_set", schema.X1, 2, 2),
	bit("tow_set", schema.X1, 3, 3),
	bit("diff_corr", schema.X1, 0, 0),
	bit("carr_soln_valid", schema.X1, 1, 1),
	bit("map_matching", schema.X1, 7, 6),
	bit("psm_state", schema.X1, 1, 0),
	bit("spoof_det_state", schema.X1, 4, 3),
	bit("carr_soln", schema.X1, 7, 6),
	schema.FS("ttff", schema.U4, ms),
	schema.FS("msss", schema.U4, ms),
})

var navTIMEGPS = schema.MustCompile("ubx_nav_timegps", []schema.Field{
	schema.FS("itow", schema.U4, ms),
	schema.FS("ftow", schema.I4, ns),
	schema.F("week", schema.I2),
	schema.F("leap_s", schema.I1),
	bit("tow_valid", schema.X1, 0, 0),
	bit("week_valid", schema.X1, 1, 1),
	bit("leap_s_valid", schema.X1, 2, 2),
	schema.FS("t_acc", schema.U4, ns),
})

var navTIMEUTC = func() *schema.Layout {
	l := schema.MustCompile("ubx_nav_timeutc", []schema.Field{
		schema.FS("itow", schema.U4, ms),
		schema.FS("t_acc", schema.U4, ns),
		hid(schema.F("nano", schema.I4)),
		hid(schema.F("year", schema.U2)),
		hid(schema.F("month", schema.U1)),
		hid(schema.F("day", schema.U1)),
		hid(schema.F("hour", schema.U1)),
		hid(schema.F("min", schema.U1)),
		hid(schema.F("sec", schema.U1)),
		bit("valid_tow", schema.X1, 0, 0),
		bit("valid_wkn", schema.X1, 1, 1),
		bit("valid_utc", schema.X1, 2, 2),
		bit("utc_standard", schema.X1, 7, 4),
	})
	l.Fixup = func(r *schema.Record) error {
		if r.Int("valid_utc") != 0 {
			r.Fields["utc"] = utcFrom(r)
		}
		return nil
	}
	return l
}()

var navTIMELS = schema.MustCompile("ubx_nav_timels", []schema.Field{
	schema.FS("itow", schema.U4, ms),
	schema.F("version", schema.U1),
	pad("reserved0", 3),
	schema.F("src_of_curr_ls", schema.U1),
	schema.F("curr_ls", schema.I1),
	schema.F("src_of_ls_change", schema.U1),
	schema.F("ls_change", schema.I1),
	schema.F("time_to_ls_event", schema.I4),
	schema.F("date_of_ls_gps_wn", schema.U2),
	schema.F("date_of_ls_gps_dn", schema.U2),
	pad("reserved1", 3),
	bit("valid_curr_ls", schema.X1, 0, 0),
	bit("valid_time_to_ls_event", schema.X1, 1, 1),
})

var navEOE = schema.MustCompile("ubx_nav_eoe", []schema.Field{
	schema.FS("itow", schema.U4, ms),
})

var navCOV = schema.MustCompile("ubx_nav_cov", []schema.Field{
	schema.FS("itow", schema.U4, ms),
	schema.F("version", schema.U1),
	schema.F("pos_cov_valid", schema.U1),
	schema.F("vel_cov_valid", schema.U1),
	pad("reserved0", 9),
	schema.F("pos_cov_nn", schema.R4),
	schema.F("pos_cov_ne", schema.R4),
	schema.F("pos_cov_nd", schema.R4),
	schema.F("pos_cov_ee", schema.R4),
	schema.F("pos_cov_ed", schema.R4),
	schema.F("pos_cov_dd", schema.R4),
	schema.F("vel_cov_nn", schema.R4),
	schema.F("vel_cov_ne", schema.R4),
	schema.F("vel_cov_nd", schema.R4),
	schema.F("vel_cov_ee", schema.R4),
	schema.F("vel_cov_ed", schema.R4),
	schema.F("vel_cov_dd", schema.R4),
})

var navSAT = schema.MustCompile("ubx_nav_sat", []schema.Field{
	schema.FS("itow", schema.U4, ms),
	schema.F("version", schema.U1),
	schema.F("num_svs", schema.U1),
	pad("reserved0", 2),
	rep(schema.F("gnss_id", schema.U1)),
	rep(schema.F("sv_id", schema.U1)),
	rep(schema.F("cno", schema.U1)),
	rep(schema.F("elev", schema.I1)),
	rep(schema.F("azim", schema.I2)),
	rep(schema.FS("pr_res", schema.I2, schema.Mul(0.1))),
	rep(bit("quality_ind", schema.X4, 2, 0)),
	rep(bit("sv_used", schema.X4, 3, 3)),
	rep(bit("health", schema.X4, 5, 4)),
	rep(bit("diff_corr", schema.X4, 6, 6)),
	rep(bit("smoothed", schema.X4, 7, 7)),
	rep(bit("orbit_source", schema.X4, 10, 8)),
	rep(bit("eph_avail", schema.X4, 11, 11)),
	rep(bit("alm_avail", schema.X4, 12, 12)),
	rep(bit("ano_avail", schema.X4, 13, 13)),
	rep(bit("aop_avail", schema.X4, 14, 14)),
	rep(bit("sbas_corr_used", schema.X4, 16, 16)),
	rep(bit("rtcm_corr_used", schema.X4, 17, 17)),
	rep(bit("slas_corr_used", schema.X4, 18, 18)),
	rep(bit("spartn_corr_used", schema.X4, 19, 19)),
	rep(bit("pr_corr_used", schema.X4, 20, 20)),
	rep(bit("cr_corr_used", schema.X4, 21, 21)),
	rep(bit("do_corr_used", schema.X4, 22, 22)),
	rep(bit("clas_corr_used", schema.X4, 23, 23)),
})

var navSIG = schema.MustCompile("ubx_nav_sig", []schema.Field{
	schema.FS("itow", schema.U4, ms),
	schema.F("version", schema.U1),
	schema.F("num_sigs", schema.U1),
	pad("reserved0", 2),
	rep(schema.F("gnss_id", schema.U1)),
	rep(schema.F("sv_id", schema.U1)),
	rep(schema.F("sig_id", schema.U1)),
	rep(schema.F("freq_id", schema.U1)),
	rep(schema.FS("pr_res", schema.I2, schema.Mul(0.1))),
	rep(schema.F("cno", schema.U1)),
	rep(schema.F("quality_ind", schema.U1)),
	rep(schema.F("corr_source", schema.U1)),
	rep(schema.F("iono_model", schema.U1)),
	rep(bit("health", schema.X2, 1, 0)),
	rep(bit("pr_smoothed", schema.X2, 2, 2)),
	rep(bit("pr_used", schema.X2, 3, 3)),
	rep(bit("cr_used", schema.X2, 4, 4)),
	rep(bit("do_used", schema.X2, 5, 5)),
	rep(bit("pr_corr_used", schema.X2, 6, 6)),
	rep(bit("cr_corr_used", schema.X2, 7, 7)),
	rep(bit("do_corr_used", schema.X2, 8, 8)),
	rep(pad("reserved1", 4)),
})

var navORB = schema.MustCompile("ubx_nav_orb", []schema.Field{
	schema.FS("itow", schema.U4, ms),
	schema.F("version", schema.U1),
	schema.F("num_sv", schema.U1),
	pad("reserved0", 2),
	rep(schema.F("gnss_id", schema.U1)),
	rep(schema.F("sv_id", schema.U1)),
	rep(bit("health", schema.X1, 1, 0)),
	rep(bit("visibility", schema.X1, 3, 2)),
	rep(bit("eph_usability", schema.X1, 4, 0)),
	rep(bit("eph_source", schema.X1, 7, 5)),
	rep(bit("alm_usability", schema.X1, 4, 0)),
	rep(bit("alm_source", schema.X1, 7, 5)),
	rep(bit("ano_aop_usability", schema.X1, 4, 0)),
	rep(bit("orb_type", schema.X1, 7, 5)),
})

var navSBAS = schema.MustCompile("ubx_nav_sbas", []schema.Field{
	schema.FS("itow", schema.U4, ms),
	schema.F("geo", schema.U1),
	schema.F("mode", schema.U1),
	schema.F("sys", schema.I1),
	bit("ranging", schema.X1, 0, 0),
	bit("corrections", schema.X1, 1, 1),
	bit("integrity", schema.X1, 2, 2),
	bit("testmode", schema.X1, 3, 3),
	schema.F("cnt", schema.U1),
	pad("reserved0", 3),
	rep(schema.F("svid", schema.U1)),
	rep(schema.F("flags", schema.U1)),
	rep(schema.F("udre", schema.U1)),
	rep(schema.F("sv_sys", schema.U1)),
	rep(schema.F("sv_service", schema.U1)),
	rep(pad("reserved1", 1)),
	rep(schema.FS("prc", schema.I2, cm)),
	rep(pad("reserved2", 2)),
	rep(schema.FS("ic", schema.I2, cm)),
})
