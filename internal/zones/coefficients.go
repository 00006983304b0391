// Package zones holds the per-zone distance scaling factors.
package zones

// Fallback factors for maps that do not resolve to a zone index
const (
	DungeonCoefficient = 16.0
	SubzoneCoefficient = 6.0
	DefaultCoefficient = 1.0
)

// coefficients is indexed by zone index minus one. A factor rescales the
// squared visible radius so that large open zones and small maps feel alike.
var coefficients = [...]float64{
	1.0000, // 1 Glenumbra
	1.0314, // 2 Stormhaven
	0.9870, // 3 Rivenspire
	1.0920, // 4 Stonefalls
	1.0288, // 5 Deshaan
	0.9650, // 6 Malabal Tor
	1.1210, // 7 Bangkorai
	0.9970, // 8 Eastmarch
	1.0760, // 9 The Rift
	1.2440, // 10 Alik'r Desert
	0.9880, // 11 Greenshade
	1.0590, // 12 Shadowfen
	0.8620, // 13 Cyrodiil
	2.2310, // 14 Bleakrock Isle
	1.9420, // 15 Stros M'Kai
	1.3120, // 16 Betnikh
	1.8870, // 17 Khenarthi's Roost
	2.4050, // 18 Bal Foyen
	1.0440, // 19 Auridon
	1.0130, // 20 Reaper's March
	1.0600, // 21 Grahtwood
	0.9310, // 22 Coldharbour
	1.5070, // 23 Craglorn
	1.7730, // 24 Wrothgar
	2.8810, // 25 Hew's Bane
	1.6420, // 26 Gold Coast
	1.2290, // 27 Vvardenfell
	3.1960, // 28 Clockwork City
	1.4480, // 29 Summerset
	2.9020, // 30 Artaeum
	1.8140, // 31 Murkmire
	1.2710, // 32 Northern Elsweyr
	1.6600, // 33 Southern Elsweyr
	1.2880, // 34 Western Skyrim
	1.9910, // 35 Blackreach
	1.3550, // 36 The Reach
	1.2010, // 37 Blackwood
	1.6230, // 38 The Deadlands
	1.1850, // 39 High Isle
	2.6600, // 40 Galen
	1.2360, // 41 Telvanni Peninsula
	1.3340, // 42 Apocrypha
	1.1920, // 43 West Weald
}

// Coefficient returns the factor for a one based zone index, or false when
// the index is outside the table.
func Coefficient(zoneIndex int) (float64, bool) {
	if zoneIndex < 1 || zoneIndex > len(coefficients) {
		return 0, false
	}
	return coefficients[zoneIndex-1], true
}
