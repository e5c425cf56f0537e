package enrichment

import (
	"github.com/orion-telecom/cdr-pipeline/internal/schema"
)

// LookupSubscriber resolves a ClientInfo sidecar from the subscriber
// identity. The default implementation derives business/individual from
// the trailing IMSI digit (even → individual, odd → business); a
// production deployment replaces this with a CRM lookup (spec.md §4.4).
func LookupSubscriber(imsi string) *schema.ClientInfo {
	if imsi == "" {
		return nil
	}

	last := imsi[len(imsi)-1]
	business := (last-'0')%2 == 1

	info := &schema.ClientInfo{
		Segment:      "individual",
		ContractType: "prepaid",
	}
	if business {
		info.Segment = "business"
		info.ContractType = "postpaid"
		info.VIP = (last-'0') >= 8
	}

	return info
}
