package ubx

import (
	"fmt"

	"github.com/kwan3217/globetrotter/internal/schema"
)

// Message ties a (class, id) pair to its layout. UseEpoch marks messages
// whose itow field places them in a navigation epoch.
type Message struct {
	Class    byte
	ID       byte
	Name     string
	Title    string
	Layout   *schema.Layout
	UseEpoch bool
}

// UnknownMessageError reports a (class, id) pair with no registered layout.
type UnknownMessageError struct {
	Class byte
	ID    byte
}

func (e *UnknownMessageError) Error() string {
	return fmt.Sprintf("ubx: no layout for class 0x%02X id 0x%02X", e.Class, e.ID)
}

var messages = []*Message{
	{ClassNAV, 0x01, "nav_posecef", "NAV-POSECEF", navPOSECEF, true},
	{ClassNAV, 0x03, "nav_status", "NAV-STATUS", navSTATUS, true},
	{ClassNAV, 0x04, "nav_dop", "NAV-DOP", navDOP, true},
	{ClassNAV, 0x07, "nav_pvt", "NAV-PVT", navPVT, true},
	{ClassNAV, 0x11, "nav_velecef", "NAV-VELECEF", navVELECEF, true},
	{ClassNAV, 0x13, "nav_hpposecef", "NAV-HPPOSECEF", navHPPOSECEF, true},
	{ClassNAV, 0x14, "nav_hpposllh", "NAV-HPPOSLLH", navHPPOSLLH, true},
	{ClassNAV, 0x20, "nav_timegps", "NAV-TIMEGPS", navTIMEGPS, true},
	{ClassNAV, 0x21, "nav_timeutc", "NAV-TIMEUTC", navTIMEUTC, true},
	{ClassNAV, 0x22, "nav_clock", "NAV-CLOCK", navCLOCK, true},
	{ClassNAV, 0x26, "nav_timels", "NAV-TIMELS", navTIMELS, true},
	{ClassNAV, 0x32, "nav_sbas", "NAV-SBAS", navSBAS, true},
	{ClassNAV, 0x34, "nav_orb", "NAV-ORB", navORB, true},
	{ClassNAV, 0x35, "nav_sat", "NAV-SAT", navSAT, true},
	{ClassNAV, 0x36, "nav_cov", "NAV-COV", navCOV, true},
	{ClassNAV, 0x43, "nav_sig", "NAV-SIG", navSIG, true},
	{ClassNAV, 0x61, "nav_eoe", "NAV-EOE", navEOE, false},
	{ClassRXM, 0x13, "rxm_sfrbx", "RXM-SFRBX", rxmSFRBX, false},
	{ClassRXM, 0x15, "rxm_rawx", "RXM-RAWX", rxmRAWX, false},
	{ClassACK, 0x00, "ack_nak", "ACK-NAK", ackNAK, false},
	{ClassACK, 0x01, "ack_ack", "ACK-ACK", ackACK, false},
	{ClassMON, 0x04, "mon_ver", "MON-VER", monVER, false},
	{ClassMON, 0x31, "mon_span", "MON-SPAN", monSPAN, false},
	{ClassMON, 0x38, "mon_rf", "MON-RF", monRF, false},
	{ClassTIM, 0x01, "tim_tp", "TIM-TP", timTP, false},
	{ClassESF, 0x02, "esf_meas", "ESF-MEAS", esfMEAS, false},
	{ClassESF, 0x10, "esf_status", "ESF-STATUS", esfSTATUS, false},
	{ClassESF, 0x14, "esf_alg", "ESF-ALG", esfALG, false},
	{ClassESF, 0x15, "esf_ins", "ESF-INS", esfINS, false},
}

var registry = map[[2]byte]*Message{}

func init() {
	for _, m := range messages {
		registry[[2]byte{m.Class, m.ID}] = m
	}
}

// Lookup returns the registered message for a (class, id) pair.
func Lookup(class, id byte) (*Message, bool) {
	m, ok := registry[[2]byte{class, id}]
	return m, ok
}

// Name returns the conventional CLASS-ID name, or a hex rendering for
// unregistered pairs.
func Name(class, id byte) string {
	if m, ok := Lookup(class, id); ok {
		return m.Title
	}
	return fmt.Sprintf("0x%02X-0x%02X", class, id)
}

// Decode parses a message payload against its registered layout.
func Decode(class, id byte, payload []byte) (*schema.Record, error) {
	m, ok := Lookup(class, id)
	if !ok {
		return nil, &UnknownMessageError{Class: class, ID: id}
	}
	rec, err := m.Layout.Decode(payload)
	if err != nil {
		return nil, err
	}
	rec.Protocol = "ubx"
	rec.Packet = m.Name
	return rec, nil
}
