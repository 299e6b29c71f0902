package extract

import (
	"fmt"
	"sort"
)

// KeyMetadata carries static hints for a specification key: the English
// translation of the (German) key name, a context note about where the value
// usually comes from, and the datasheet category it belongs to. The hints are
// an optional prompt enrichment, not required for correctness.
type KeyMetadata struct {
	English  string
	Context  string
	Category string
}

// Datasheet categories.
const (
	CategoryProject  = "PROJECT INFORMATION"
	CategoryAmbient  = "AMBIENT INFORMATION"
	CategoryMainData = "MAIN DATA"
)

var keyMetadata = map[string]KeyMetadata{
	// PROJECT INFORMATION
	"Kunde": {
		English:  "Customer",
		Context:  "Could be part of the specification; however, it is typically communicated via email or through regional sales channels",
		Category: CategoryProject,
	},
	"Ende Kunde": {
		English:  "End Customer",
		Context:  "Could be part of the specification; however, it is typically communicated via email or through regional sales channels",
		Category: CategoryProject,
	},
	"Projekt": {
		English:  "Name of the project",
		Context:  "Could be part of the specification; however, it is typically communicated via email or through regional sales channels",
		Category: CategoryProject,
	},
	"Stückzahl": {
		English:  "Quantity required",
		Context:  "Could be part of the specification; however, it is typically communicated via email or through regional sales channels",
		Category: CategoryProject,
	},
	"Land": {
		English:  "Country",
		Context:  "Could be part of the specification; however, it is typically communicated via email or through regional sales channels",
		Category: CategoryProject,
	},

	// AMBIENT INFORMATION
	"Aufstellhöhe": {
		English:  "Installation altitude",
		Context:  "<=1000m is standard; check the location and provide anyway as a double check",
		Category: CategoryAmbient,
	},
	"Umgebungstemp. Max": {
		English:  "Max ambient temperature",
		Context:  "Shall be defined by the customer; check the location and provide anyway as a double check",
		Category: CategoryAmbient,
	},
	"Umgebungstemp. Min": {
		English:  "Min ambient temperature",
		Context:  "Shall be defined by the customer; check the location and provide anyway as a double check",
		Category: CategoryAmbient,
	},
	"Seismische Anforderungen": {
		English:  "Seismic requirement",
		Context:  "Could be required by the customer; in Italy typically 0.5g or AF5, in California very high per IEEE standard",
		Category: CategoryAmbient,
	},
	"Windlast": {
		English:  "Wind load",
		Context:  "Could be required by the customer; not essential for most locations",
		Category: CategoryAmbient,
	},
	"Eisdicke": {
		English:  "Ice thickness",
		Context:  "Could be required by the customer; not essential for most locations",
		Category: CategoryAmbient,
	},

	// MAIN DATA
	"Referenznorm": {
		English:  "Reference standard",
		Context:  "IEC or IEEE or other",
		Category: CategoryMainData,
	},
	"Druckbehältervorschrift": {
		English:  "Pressure vessel regulation",
		Context:  "INAIL (Italy), SVTI (Switzerland), AD, EN",
		Category: CategoryMainData,
	},
	"Isoliermedium": {
		English:  "Insulation medium",
		Context:  "SF6 or clean AIR",
		Category: CategoryMainData,
	},
	"Thermische Isolationsklasse": {
		English:  "Thermal insulation class",
		Context:  "Defined by the manufacturer, not the customer; for gas-insulated transformers typically Class E",
		Category: CategoryMainData,
	},
	"Anforderung an den inneren Lichtbogen": {
		English:  "Internal arc requirement",
		Context:  "To be defined by the customer, class I or class II",
		Category: CategoryMainData,
	},
	"Maximaler Temperaturanstieg": {
		English:  "Maximum temperature increase",
		Context:  "Could be defined by the customer",
		Category: CategoryMainData,
	},
	"Nennfrequenz": {
		English:  "Rated frequency",
		Context:  "50 Hz or 60 Hz depending on grid",
		Category: CategoryMainData,
	},
	"Höchste Spannung für Betriebsmittel": {
		English:  "Highest voltage for equipment",
		Context:  "Um in kV, defines the insulation level",
		Category: CategoryMainData,
	},
	"Bemessungs-Stehblitzstoßspannung": {
		English:  "Rated lightning impulse withstand voltage",
		Context:  "BIL in kV, part of the insulation coordination",
		Category: CategoryMainData,
	},
}

// MetadataFor returns the static metadata for a key, if any.
func MetadataFor(keyName string) (KeyMetadata, bool) {
	m, ok := keyMetadata[keyName]
	return m, ok
}

// KnownKeys returns all keys with metadata, sorted for stable output.
func KnownKeys() []string {
	keys := make([]string, 0, len(keyMetadata))
	for k := range keyMetadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FormatKeyMetadata renders a key's metadata as a one-line prompt hint.
// Returns "" for keys without metadata.
func FormatKeyMetadata(keyName string) string {
	m, ok := keyMetadata[keyName]
	if !ok {
		return ""
	}
	return fmt.Sprintf("English: %s | Category: %s | Note: %s", m.English, m.Category, m.Context)
}
