// Package normalization implements the third pipeline stage (spec.md
// §4.3): map heterogeneous validated fields into the UnifiedRecord schema,
// classify the event, detect roaming, and compute the content hash.
// Ground: orion-normalization/src/service/normalizer.rs for the field
// mapping and fallback rules.
package normalization

import (
	"strings"

	"github.com/orion-telecom/cdr-pipeline/internal/schema"
)

// homePrefixes is the four-country roaming table from spec.md §3/§4.3.
// Origin countries outside this table are never flagged roaming — an
// acknowledged gap (spec.md §9 Open Questions), not a bug this
// implementation is asked to fix (see SPEC_FULL.md §11.2).
var homePrefixes = map[string]string{
	"FR": "208",
	"TN": "605",
	"FN": "244",
	"CH": "228",
}

// deriveNetworkCodes extracts MCC (first 3 digits) and MNC (next 2 digits)
// from a subscriber identity of at least 5 digits, per spec.md §3, plus the
// LAC/cell-id pair reported by the network element in the raw document.
func deriveNetworkCodes(imsi string, doc map[string]interface{}) *schema.NetworkCodes {
	if len(imsi) < 5 {
		return nil
	}
	return &schema.NetworkCodes{
		MCC:  imsi[0:3],
		MNC:  imsi[3:5],
		LAC:  firstString(doc, "lac"),
		Cell: firstString(doc, "cell_id"),
	}
}

// deriveServiceClass implements the first-match-wins rule: premium, then
// roaming, then emergency, then standard.
func deriveServiceClass(doc map[string]interface{}) schema.ServiceClass {
	if truthy(doc["is_premium"]) {
		return schema.ServicePremium
	}
	if truthy(doc["is_roaming"]) {
		return schema.ServiceRoaming
	}
	if truthy(doc["is_emergency"]) {
		return schema.ServiceEmergency
	}
	return schema.ServiceStandard
}

func truthy(v interface{}) bool {
	b, ok := v.(bool)
	return ok && b
}

// deriveRoaming detects roaming by comparing the subscriber's derived MCC
// against the origin country's home prefix. Countries outside
// homePrefixes are never considered roaming.
func deriveRoaming(originCountry string, codes *schema.NetworkCodes, doc map[string]interface{}) schema.RoamingInfo {
	info := schema.RoamingInfo{}

	home, known := homePrefixes[originCountry]
	if known && codes != nil && codes.MCC != home {
		info.IsRoaming = true
	}

	if vc, ok := doc["visited_country"].(string); ok {
		info.VisitedCountry = vc
	}
	if vn, ok := doc["visited_network"].(string); ok {
		info.VisitedNetwork = vn
	}
	return info
}

func deriveVoice(doc map[string]interface{}) *schema.VoiceDetails {
	calling := firstString(doc, "calling_number", "msisdn")
	called := firstString(doc, "called_number", "destination")

	callType := schema.CallMobile
	if raw, ok := doc["call_type"].(string); ok && raw != "" {
		callType = mapCallType(raw)
	}

	return &schema.VoiceDetails{
		CallingNumber: calling,
		CalledNumber:  called,
		CallType:      callType,
		DurationSec:   firstInt(doc, "duration", "duration_seconds"),
	}
}

func mapCallType(raw string) schema.CallType {
	switch strings.ToLower(raw) {
	case "mobile":
		return schema.CallMobile
	case "landline", "fixed":
		return schema.CallLandline
	case "international":
		return schema.CallInternational
	case "emergency":
		return schema.CallEmergency
	default:
		return schema.CallUnknown
	}
}

func deriveData(doc map[string]interface{}) *schema.DataDetails {
	apn, _ := doc["apn"].(string)
	return &schema.DataDetails{
		BytesUploaded:   firstInt(doc, "bytes_uploaded", "bytes_up"),
		BytesDownloaded: firstInt(doc, "bytes_downloaded", "bytes_down"),
		APN:             apn,
	}
}

func deriveSMS(doc map[string]interface{}) *schema.SMSDetails {
	direction := schema.SMSMO
	if raw, ok := doc["sms_type"].(string); ok && raw != "" {
		direction = mapSMSDirection(raw)
	}
	return &schema.SMSDetails{
		Direction:     direction,
		MessageLength: firstInt(doc, "message_length", "length"),
	}
}

func mapSMSDirection(raw string) schema.SMSDirection {
	switch strings.ToLower(raw) {
	case "mt", "mt_sms":
		return schema.SMSMT
	case "mo", "mo_sms":
		return schema.SMSMO
	default:
		return schema.SMSUnknown
	}
}

// firstString returns doc[keys[i]] as a string for the first key present,
// or "" if none are.
func firstString(doc map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := doc[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// firstInt returns doc[keys[i]] coerced to int64 for the first numeric key
// present, or 0 if none are. JSON numbers decode as float64.
func firstInt(doc map[string]interface{}, keys ...string) int64 {
	for _, k := range keys {
		switch v := doc[k].(type) {
		case float64:
			return int64(v)
		case int64:
			return v
		case int:
			return int64(v)
		}
	}
	return 0
}

// firstFloat returns doc[keys[i]] coerced to float64 for the first numeric
// key present, or 0 if none are.
func firstFloat(doc map[string]interface{}, keys ...string) float64 {
	for _, k := range keys {
		switch v := doc[k].(type) {
		case float64:
			return v
		case int64:
			return float64(v)
		case int:
			return float64(v)
		}
	}
	return 0
}
