package enrichment

import (
	"fmt"

	"github.com/orion-telecom/cdr-pipeline/internal/schema"
)

// networkEntry is one row of the static (MCC, MNC) lookup table. The
// contract only requires that identical (MCC, MNC) inputs yield identical
// outputs within a deployment (spec.md §4.4); the table contents are
// deployment-specific.
type networkEntry struct {
	name           string
	technology     string
	signalStrength float64
}

var networkTable = map[string]networkEntry{
	"208-15": {name: "Orange France", technology: "LTE", signalStrength: 0.85},
	"605-01": {name: "Tunisie Telecom", technology: "UMTS", signalStrength: 0.70},
	"244-05": {name: "Elisa", technology: "5G", signalStrength: 0.90},
	"228-01": {name: "Swisscom", technology: "5G", signalStrength: 0.92},
}

var unknownNetwork = networkEntry{name: "unknown", technology: "unknown", signalStrength: 0.5}

// LookupNetwork resolves a NetworkInfo sidecar from a record's derived MCC
// and MNC. An (MCC, MNC) pair absent from the table resolves to a stable
// "unknown" entry rather than an error.
func LookupNetwork(codes *schema.NetworkCodes) *schema.NetworkInfo {
	if codes == nil {
		return nil
	}

	entry, ok := networkTable[fmt.Sprintf("%s-%s", codes.MCC, codes.MNC)]
	if !ok {
		entry = unknownNetwork
	}

	return &schema.NetworkInfo{
		NetworkName:    entry.name,
		Technology:     entry.technology,
		CellLocation:   codes.Cell,
		SignalStrength: entry.signalStrength,
		HandoverCount:  0,
	}
}
