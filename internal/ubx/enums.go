// Package ubx holds the declarative message tables for the u-blox binary
// protocol and the registry that dispatches (class, id) pairs to them.
package ubx

// Message classes.
const (
	ClassNAV = 0x01
	ClassRXM = 0x02
	ClassACK = 0x05
	ClassMON = 0x0A
	ClassTIM = 0x0D
	ClassESF = 0x10
)

// GNSS identifiers used by NAV-SAT, NAV-SIG and RXM messages.
const (
	GnssGPS     = 0
	GnssSBAS    = 1
	GnssGalileo = 2
	GnssBeiDou  = 3
	GnssIMES    = 4
	GnssQZSS    = 5
	GnssGLONASS = 6
	GnssNavIC   = 7
)

var gnssNames = map[int64]string{
	GnssGPS:     "GPS",
	GnssSBAS:    "SBAS",
	GnssGalileo: "Galileo",
	GnssBeiDou:  "BeiDou",
	GnssIMES:    "IMES",
	GnssQZSS:    "QZSS",
	GnssGLONASS: "GLONASS",
	GnssNavIC:   "NavIC",
}

// GnssName returns the constellation name for a gnssId.
func GnssName(id int64) string {
	if n, ok := gnssNames[id]; ok {
		return n
	}
	return "unknown"
}

// Fix types reported by NAV-PVT and NAV-STATUS.
const (
	FixNone     = 0
	FixDeadReck = 1
	Fix2D       = 2
	Fix3D       = 3
	FixGNSSDR   = 4
	FixTimeOnly = 5
)

// sensorUnits scales a raw external-sensor reading to physical units by
// ESF data type. Unlisted types pass through unscaled.
var sensorUnits = map[int64]float64{
	5:  1.0 / 4096,  // z gyro, deg/s
	12: 1e-2,        // gyro temperature, deg C
	13: 1.0 / 4096,  // y gyro, deg/s
	14: 1.0 / 4096,  // x gyro, deg/s
	16: 1.0 / 1024,  // x accel, m/s^2
	17: 1.0 / 1024,  // y accel, m/s^2
	18: 1.0 / 1024,  // z accel, m/s^2
}
