package l1ca

// Sat describes the spacecraft currently broadcasting a PRN.
type Sat struct {
	SVN   int
	Block string
}

// constellation maps PRN to spacecraft for the operational GPS fleet. PRN
// assignments shift as satellites are launched and retired; this table
// reflects the fleet the recordings in hand were made under.
var constellation = map[int]Sat{
	1:  {63, "IIF"},
	2:  {61, "IIR"},
	3:  {69, "IIF"},
	4:  {74, "III"},
	5:  {50, "IIR-M"},
	6:  {67, "IIF"},
	7:  {48, "IIR-M"},
	8:  {72, "IIF"},
	9:  {68, "IIF"},
	10: {73, "IIF"},
	11: {78, "III"},
	12: {58, "IIR-M"},
	13: {43, "IIR"},
	14: {77, "III"},
	15: {55, "IIR-M"},
	16: {56, "IIR"},
	17: {53, "IIR-M"},
	18: {75, "III"},
	19: {59, "IIR"},
	20: {51, "IIR"},
	21: {45, "IIR"},
	22: {47, "IIR"},
	23: {76, "III"},
	24: {65, "IIF"},
	25: {62, "IIF"},
	26: {71, "IIF"},
	27: {66, "IIF"},
	28: {79, "III"},
	29: {57, "IIR-M"},
	30: {64, "IIF"},
	31: {52, "IIR-M"},
	32: {70, "IIF"},
}

// Lookup returns the spacecraft behind a PRN, if known.
func Lookup(prn int) (Sat, bool) {
	s, ok := constellation[prn]
	return s, ok
}
